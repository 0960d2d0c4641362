package models

import (
	"time"
)

// Article is the read-only view of an article that comments attach to.
// Only CommentCount is written by this service.
type Article struct {
	ID            string    `json:"id" db:"id"`
	Slug          string    `json:"slug" db:"slug"`
	Title         string    `json:"title" db:"title"`
	AuthorID      string    `json:"author_id" db:"author_id"`
	AllowComments bool      `json:"allow_comments" db:"allow_comments"`
	CommentCount  int       `json:"comment_count" db:"comment_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
