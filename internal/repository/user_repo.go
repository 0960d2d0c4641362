package repository

import (
	"context"
	"database/sql"

	"github.com/comment-moderation-api/internal/models"
	"github.com/lib/pq"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db DBTX
}

// NewUserRepo creates a new user repository
func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, name, role, active, created_at, updated_at FROM users WHERE id = $1`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.Active,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// ListIDsByRole returns the ids of active users holding any of the roles
func (r *userRepo) ListIDsByRole(ctx context.Context, roles ...models.Role) ([]string, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM users WHERE active = TRUE AND role = ANY($1) ORDER BY id`, pq.Array(names),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
