package repository

import (
	"context"

	"github.com/comment-moderation-api/internal/models"
)

// spamFilterRepo is the concrete implementation of SpamFilterRepository
type spamFilterRepo struct {
	db DBTX
}

// NewSpamFilterRepo creates a new spam filter repository
func NewSpamFilterRepo(db DBTX) SpamFilterRepository {
	return &spamFilterRepo{db: db}
}

// ListActive returns every active filter, most severe first
func (r *spamFilterRepo) ListActive(ctx context.Context) ([]*models.SpamFilter, error) {
	query := `
		SELECT id, pattern, kind, severity, action, active, created_at, updated_at
		FROM spam_filters WHERE active = TRUE
		ORDER BY severity DESC, pattern
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	filters := make([]*models.SpamFilter, 0)
	for rows.Next() {
		var f models.SpamFilter
		if err := rows.Scan(&f.ID, &f.Pattern, &f.Kind, &f.Severity, &f.Action, &f.Active, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		filters = append(filters, &f)
	}
	return filters, rows.Err()
}

// Upsert creates a filter or updates the one with the same pattern and kind
func (r *spamFilterRepo) Upsert(ctx context.Context, f *models.SpamFilter) error {
	query := `
		INSERT INTO spam_filters (id, pattern, kind, severity, action, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (pattern, kind) DO UPDATE SET
			severity = EXCLUDED.severity,
			action = EXCLUDED.action,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		f.ID, f.Pattern, f.Kind, f.Severity, f.Action, f.Active, f.UpdatedAt,
	).Scan(&f.ID)
}
