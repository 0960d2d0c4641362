package repository

import (
	"context"
	"time"
)

// postLogRepo is the concrete implementation of PostLogRepository
type postLogRepo struct {
	db DBTX
}

// NewPostLogRepo creates a new posting log repository
func NewPostLogRepo(db DBTX) PostLogRepository {
	return &postLogRepo{db: db}
}

// Record appends a creation entry for the author
func (r *postLogRepo) Record(ctx context.Context, authorID, commentID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comment_posts (author_id, comment_id, created_at) VALUES ($1, $2, $3)`,
		authorID, commentID, at,
	)
	return err
}

// CountSince returns how many comments the author created at or after since,
// deleted ones included
func (r *postLogRepo) CountSince(ctx context.Context, authorID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comment_posts WHERE author_id = $1 AND created_at >= $2`, authorID, since,
	).Scan(&count)
	return count, err
}
