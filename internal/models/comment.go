package models

import (
	"time"
)

// TombstoneContent replaces the body of a soft-deleted comment
const TombstoneContent = "[deleted]"

// MaxCommentLength is the default maximum comment length in characters
const MaxCommentLength = 2000

// Comment represents a comment on an article
type Comment struct {
	ID               string        `json:"id" db:"id"`
	ArticleID        string        `json:"article_id" db:"article_id"`
	ParentID         *string       `json:"parent_id,omitempty" db:"parent_id"`
	AuthorID         *string       `json:"author_id,omitempty" db:"author_id"`
	GuestName        string        `json:"guest_name,omitempty" db:"guest_name"`
	Content          string        `json:"content" db:"content"`
	ContentHTML      string        `json:"content_html,omitempty" db:"-"`
	Status           CommentStatus `json:"status" db:"status"`
	LikeCount        int           `json:"like_count" db:"like_count"`
	ReportCount      int           `json:"report_count" db:"report_count"`
	ReplyCount       int           `json:"reply_count" db:"reply_count"`
	IsEdited         bool          `json:"is_edited" db:"is_edited"`
	EditedAt         *time.Time    `json:"edited_at,omitempty" db:"edited_at"`
	SpamReason       string        `json:"spam_reason,omitempty" db:"spam_reason"`
	SpamSignals      []string      `json:"spam_signals,omitempty" db:"spam_signals"`
	Toxicity         *float64      `json:"toxicity,omitempty" db:"toxicity"`
	ModerationReason string        `json:"moderation_reason,omitempty" db:"moderation_reason"`
	ModeratedBy      *string       `json:"moderated_by,omitempty" db:"moderated_by"`
	ModeratedAt      *time.Time    `json:"moderated_at,omitempty" db:"moderated_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// IsAuthoredBy reports whether userID wrote the comment. Guests never match.
func (c *Comment) IsAuthoredBy(userID string) bool {
	return userID != "" && c.AuthorID != nil && *c.AuthorID == userID
}

// Author returns the author id or "" for guest comments
func (c *Comment) Author() string {
	if c.AuthorID == nil {
		return ""
	}
	return *c.AuthorID
}

// Counter names a denormalized counter column on comments
type Counter string

const (
	CounterLikes   Counter = "like_count"
	CounterReports Counter = "report_count"
	CounterReplies Counter = "reply_count"
)

// CounterUpdate is the result of an atomic counter adjustment
type CounterUpdate struct {
	Value  int
	Status CommentStatus
}

// ModerationMeta is recorded alongside a status transition
type ModerationMeta struct {
	Reason      string
	ModeratedBy string
	At          time.Time
}

// PriorComment is one entry of an author's recent history
type PriorComment struct {
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// CommentFilter selects comments for listing
type CommentFilter struct {
	ArticleID    string
	Statuses     []CommentStatus
	TopLevelOnly bool
	Limit        int
	Offset       int
}

// CommentPage is a page of comments with the total match count
type CommentPage struct {
	Comments []*Comment `json:"comments"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
	Pages    int        `json:"total_pages"`
}

// ListQuery carries pagination and filter parameters
type ListQuery struct {
	Status   string
	TopLevel bool
	Page     int
	Limit    int
}

// CreateCommentRequest is the body of POST /v1/comments
type CreateCommentRequest struct {
	ArticleID string  `json:"article_id"`
	ParentID  *string `json:"parent_id,omitempty"`
	Content   string  `json:"content"`
	GuestName string  `json:"guest_name,omitempty"`
}

// DeleteMode tells whether a delete removed the row or left a tombstone
type DeleteMode string

const (
	DeleteHard DeleteMode = "hard"
	DeleteSoft DeleteMode = "soft"
)

// DeleteResult is returned by comment deletion
type DeleteResult struct {
	ID      string     `json:"id"`
	Mode    DeleteMode `json:"mode"`
	Deleted bool       `json:"deleted"`
}
