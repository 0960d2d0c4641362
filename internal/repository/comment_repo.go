package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/comment-moderation-api/internal/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

const commentColumns = `id, article_id, parent_id, author_id, guest_name, content, status,
	like_count, report_count, reply_count, is_edited, edited_at, spam_reason, spam_signals,
	toxicity, moderation_reason, moderated_by, moderated_at, created_at, updated_at`

var commentSelect = []interface{}{
	"id", "article_id", "parent_id", "author_id", "guest_name", "content", "status",
	"like_count", "report_count", "reply_count", "is_edited", "edited_at", "spam_reason", "spam_signals",
	"toxicity", "moderation_reason", "moderated_by", "moderated_at", "created_at", "updated_at",
}

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db DBTX
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db DBTX) CommentRepository {
	return &commentRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	var parentID, authorID, moderatedBy sql.NullString
	var editedAt, moderatedAt sql.NullTime
	var toxicity sql.NullFloat64

	err := row.Scan(
		&c.ID, &c.ArticleID, &parentID, &authorID, &c.GuestName, &c.Content, &c.Status,
		&c.LikeCount, &c.ReportCount, &c.ReplyCount, &c.IsEdited, &editedAt, &c.SpamReason,
		pq.Array(&c.SpamSignals), &toxicity, &c.ModerationReason, &moderatedBy, &moderatedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.ParentID = stringPtr(parentID)
	c.AuthorID = stringPtr(authorID)
	c.ModeratedBy = stringPtr(moderatedBy)
	c.EditedAt = timePtr(editedAt)
	c.ModeratedAt = timePtr(moderatedAt)
	if toxicity.Valid {
		v := toxicity.Float64
		c.Toxicity = &v
	}
	return &c, nil
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (id, article_id, parent_id, author_id, guest_name, content, status,
			spam_reason, spam_signals, toxicity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.ArticleID, nullStringPtr(c.ParentID), nullStringPtr(c.AuthorID), c.GuestName,
		c.Content, c.Status, c.SpamReason, pq.Array(c.SpamSignals), nullFloat(c.Toxicity),
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	c, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetForUpdate retrieves a comment and locks its row until the transaction ends
func (r *commentRepo) GetForUpdate(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1 FOR UPDATE`

	c, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// UpdateContent stores an edit together with its reclassification result
func (r *commentRepo) UpdateContent(ctx context.Context, c *models.Comment) error {
	query := `
		UPDATE comments SET
			content = $1, status = $2, is_edited = $3, edited_at = $4,
			spam_reason = $5, spam_signals = $6, toxicity = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		c.Content, c.Status, c.IsEdited, nullTime(c.EditedAt),
		c.SpamReason, pq.Array(c.SpamSignals), nullFloat(c.Toxicity), c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Tombstone scrubs the content and marks the comment deleted, keeping the row for its replies
func (r *commentRepo) Tombstone(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE comments SET content = $1, status = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.TombstoneContent, models.StatusDeleted, at, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete physically removes a comment; likes and reports cascade
func (r *commentRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// TransitionStatus moves a comment to `to` only if its current status is one of `from`.
// It reports whether the row changed, so concurrent callers transition at most once.
func (r *commentRepo) TransitionStatus(ctx context.Context, id string, from []models.CommentStatus, to models.CommentStatus, meta models.ModerationMeta) (bool, error) {
	query := `
		UPDATE comments SET
			status = $1, moderation_reason = $2, moderated_by = $3, moderated_at = $4, updated_at = $4
		WHERE id = $5 AND status = ANY($6)
	`
	result, err := r.db.ExecContext(ctx, query,
		to, meta.Reason, nullString(meta.ModeratedBy), meta.At, id, pq.Array(statusStrings(from)),
	)
	if err != nil {
		return false, err
	}
	return affected(result)
}

// AdjustCounter atomically adds delta to a counter and returns the new value and current status
func (r *commentRepo) AdjustCounter(ctx context.Context, id string, counter models.Counter, delta int) (models.CounterUpdate, error) {
	var column string
	switch counter {
	case models.CounterLikes, models.CounterReports, models.CounterReplies:
		column = string(counter)
	default:
		return models.CounterUpdate{}, fmt.Errorf("unknown counter %q", counter)
	}

	query := fmt.Sprintf(
		`UPDATE comments SET %[1]s = %[1]s + $1 WHERE id = $2 RETURNING %[1]s, status`,
		column,
	)

	var upd models.CounterUpdate
	err := r.db.QueryRowContext(ctx, query, delta, id).Scan(&upd.Value, &upd.Status)
	if err == sql.ErrNoRows {
		return upd, ErrNotFound
	}
	return upd, err
}

// CountByAuthor returns how many comments the author has ever posted that still exist
func (r *commentRepo) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE author_id = $1`, authorID,
	).Scan(&count)
	return count, err
}

// CountReportedByAuthor returns how many of the author's comments are currently hidden as reported
func (r *commentRepo) CountReportedByAuthor(ctx context.Context, authorID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE author_id = $1 AND status = $2`, authorID, models.StatusReported,
	).Scan(&count)
	return count, err
}

// RecentByAuthor returns the author's newest comments since the given time, newest first
func (r *commentRepo) RecentByAuthor(ctx context.Context, authorID string, since time.Time, limit int) ([]models.PriorComment, error) {
	query := `
		SELECT content, created_at FROM comments
		WHERE author_id = $1 AND created_at >= $2 AND status <> $3
		ORDER BY created_at DESC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, authorID, since, models.StatusDeleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recent []models.PriorComment
	for rows.Next() {
		var p models.PriorComment
		if err := rows.Scan(&p.Content, &p.CreatedAt); err != nil {
			return nil, err
		}
		recent = append(recent, p)
	}
	return recent, rows.Err()
}

// List returns one page of comments matching filter and the total match count
func (r *commentRepo) List(ctx context.Context, filter models.CommentFilter) ([]*models.Comment, int, error) {
	ds := dialect.From("comments").Prepared(true)
	if filter.ArticleID != "" {
		ds = ds.Where(goqu.C("article_id").Eq(filter.ArticleID))
	}
	if len(filter.Statuses) > 0 {
		ds = ds.Where(goqu.C("status").In(statusStrings(filter.Statuses)))
	}
	if filter.TopLevelOnly {
		ds = ds.Where(goqu.C("parent_id").IsNull())
	}

	countSQL, countArgs, err := ds.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listDS := ds.Select(commentSelect...).Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
	if filter.Limit > 0 {
		listDS = listDS.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		listDS = listDS.Offset(uint(filter.Offset))
	}
	listSQL, args, err := listDS.ToSQL()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		comments = append(comments, c)
	}
	return comments, total, rows.Err()
}

// CountByStatus returns the number of comments in each status
func (r *commentRepo) CountByStatus(ctx context.Context) (map[models.CommentStatus]int, error) {
	query, args, err := dialect.From("comments").Prepared(true).
		Select(goqu.C("status"), goqu.COUNT("*")).
		GroupBy(goqu.C("status")).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.CommentStatus]int, len(models.AllStatuses))
	for rows.Next() {
		var status models.CommentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func statusStrings(statuses []models.CommentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func requireRow(result sql.Result) error {
	ok, err := affected(result)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
