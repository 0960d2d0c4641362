package models

import (
	"encoding/json"
	"time"
)

// NotificationType is the lifecycle event that produced a notification
type NotificationType string

const (
	NotificationCommentLiked     NotificationType = "comment_liked"
	NotificationReportEscalated  NotificationType = "comment_reported_escalated"
	NotificationReplyAdded       NotificationType = "reply_added"
	NotificationCommentModerated NotificationType = "comment_moderated"
)

// Notification is a record for a downstream delivery consumer
type Notification struct {
	ID              string           `json:"id" db:"id"`
	RecipientUserID string           `json:"recipient_user_id" db:"recipient_user_id"`
	Type            NotificationType `json:"type" db:"type"`
	Payload         json.RawMessage  `json:"payload" db:"payload"`
	Read            bool             `json:"read" db:"read"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}

// NotificationList is a user's inbox page
type NotificationList struct {
	Notifications []*Notification `json:"notifications"`
	Unread        int             `json:"unread"`
}
