package models

import (
	"time"
)

// Like is the uniqueness row behind Comment.LikeCount
type Like struct {
	ID        string    `json:"id" db:"id"`
	CommentID string    `json:"comment_id" db:"comment_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Report is the uniqueness row behind Comment.ReportCount
type Report struct {
	ID          string    `json:"id" db:"id"`
	CommentID   string    `json:"comment_id" db:"comment_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Reason      string    `json:"reason" db:"reason"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ValidReportReasons defines allowed report reasons
var ValidReportReasons = map[string]bool{
	"spam":           true,
	"abuse":          true,
	"harassment":     true,
	"misinformation": true,
	"off_topic":      true,
	"other":          true,
}

// MaxReportDescription is the maximum report description length
const MaxReportDescription = 500

// ReportRequest is the body of POST /v1/comments/:id/report
type ReportRequest struct {
	Reason      string `json:"reason"`
	Description string `json:"description,omitempty"`
}

// LikeResult is returned by like and unlike
type LikeResult struct {
	CommentID string `json:"comment_id"`
	LikeCount int    `json:"like_count"`
}

// ReasonCount is one row of the top report reasons
type ReasonCount struct {
	Reason string `json:"reason" db:"reason"`
	Count  int    `json:"count" db:"count"`
}

// DailyCount is one day of the report trend
type DailyCount struct {
	Date  string `json:"date" db:"day"`
	Count int    `json:"count" db:"count"`
}

// ModerationStats summarizes spam and report activity over a period
type ModerationStats struct {
	Since            time.Time             `json:"since"`
	TotalReports     int                   `json:"total_reports"`
	ReportedComments int                   `json:"reported_comments"`
	PendingComments  int                   `json:"pending_comments"`
	RejectedComments int                   `json:"rejected_comments"`
	TopReasons       []ReasonCount         `json:"top_reasons"`
	Trend            []DailyCount          `json:"trend"`
	ByStatus         map[CommentStatus]int `json:"by_status"`
}
