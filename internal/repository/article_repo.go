package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/comment-moderation-api/internal/models"
)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db DBTX
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db DBTX) ArticleRepository {
	return &articleRepo{db: db}
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := `
		SELECT id, slug, title, author_id, allow_comments, comment_count, created_at, updated_at
		FROM articles WHERE id = $1
	`

	var article models.Article
	var authorID sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&article.ID, &article.Slug, &article.Title, &authorID, &article.AllowComments,
		&article.CommentCount, &article.CreatedAt, &article.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	article.AuthorID = authorID.String
	return &article, nil
}

// AdjustCommentCount adds delta to the article's comment count
func (r *articleRepo) AdjustCommentCount(ctx context.Context, id string, delta int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE articles SET comment_count = comment_count + $1, updated_at = $2 WHERE id = $3`,
		delta, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}
