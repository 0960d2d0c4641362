package repository

import (
	"context"
	"time"

	"github.com/comment-moderation-api/internal/models"
	"github.com/doug-martin/goqu/v9"
)

// likeRepo is the concrete implementation of LikeRepository
type likeRepo struct {
	db DBTX
}

// NewLikeRepo creates a new like repository
func NewLikeRepo(db DBTX) LikeRepository {
	return &likeRepo{db: db}
}

// Insert adds a like row. A second like by the same user yields ErrUniqueViolation.
func (r *likeRepo) Insert(ctx context.Context, like *models.Like) error {
	query := `
		INSERT INTO comment_likes (id, comment_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, like.ID, like.CommentID, like.UserID, like.CreatedAt)
	if isUniqueViolation(err) {
		return ErrUniqueViolation
	}
	return err
}

// Delete removes the user's like and reports whether one existed
func (r *likeRepo) Delete(ctx context.Context, commentID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`, commentID, userID,
	)
	if err != nil {
		return false, err
	}
	return affected(result)
}

// reportRepo is the concrete implementation of ReportRepository
type reportRepo struct {
	db DBTX
}

// NewReportRepo creates a new report repository
func NewReportRepo(db DBTX) ReportRepository {
	return &reportRepo{db: db}
}

// Insert adds a report row. A second report by the same user yields ErrUniqueViolation.
func (r *reportRepo) Insert(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO comment_reports (id, comment_id, user_id, reason, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.CommentID, report.UserID, report.Reason, report.Description, report.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrUniqueViolation
	}
	return err
}

// CountSince returns the number of reports and of distinct reported comments since the given time
func (r *reportRepo) CountSince(ctx context.Context, since time.Time) (int, int, error) {
	query, args, err := dialect.From("comment_reports").Prepared(true).
		Select(goqu.COUNT("*"), goqu.COUNT(goqu.DISTINCT("comment_id"))).
		Where(goqu.C("created_at").Gte(since)).
		ToSQL()
	if err != nil {
		return 0, 0, err
	}

	var total, comments int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&total, &comments)
	return total, comments, err
}

// TopReasons returns the most frequent report reasons since the given time
func (r *reportRepo) TopReasons(ctx context.Context, since time.Time, limit int) ([]models.ReasonCount, error) {
	query, args, err := dialect.From("comment_reports").Prepared(true).
		Select(goqu.C("reason"), goqu.COUNT("*").As("count")).
		Where(goqu.C("created_at").Gte(since)).
		GroupBy(goqu.C("reason")).
		Order(goqu.I("count").Desc(), goqu.C("reason").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reasons := make([]models.ReasonCount, 0, limit)
	for rows.Next() {
		var rc models.ReasonCount
		if err := rows.Scan(&rc.Reason, &rc.Count); err != nil {
			return nil, err
		}
		reasons = append(reasons, rc)
	}
	return reasons, rows.Err()
}

// DailyCounts returns the number of reports per UTC day since the given time
func (r *reportRepo) DailyCounts(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	day := goqu.L("to_char(date_trunc('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD')")
	query, args, err := dialect.From("comment_reports").Prepared(true).
		Select(day.As("day"), goqu.COUNT("*")).
		Where(goqu.C("created_at").Gte(since)).
		GroupBy(goqu.I("day")).
		Order(goqu.I("day").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]models.DailyCount, 0)
	for rows.Next() {
		var dc models.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		days = append(days, dc)
	}
	return days, rows.Err()
}

// StreamSince streams reports created at or after since, oldest first
func (r *reportRepo) StreamSince(ctx context.Context, since time.Time, callback func(*models.Report) error) error {
	query := `
		SELECT id, comment_id, user_id, reason, description, created_at
		FROM comment_reports WHERE created_at >= $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.CommentID, &rep.UserID, &rep.Reason, &rep.Description, &rep.CreatedAt); err != nil {
			return err
		}
		if err := callback(&rep); err != nil {
			return err
		}
	}
	return rows.Err()
}
