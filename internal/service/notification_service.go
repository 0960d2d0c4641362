package service

import (
	"context"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/validation"
	"github.com/rs/zerolog"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// notificationService is the concrete implementation of NotificationService
type notificationService struct {
	*deps
	log zerolog.Logger
}

// newNotificationService creates a new NotificationService
func newNotificationService(d *deps) *notificationService {
	return &notificationService{
		deps: d,
		log:  d.log.With().Str("service", "notifications").Logger(),
	}
}

// List returns the actor's newest notifications and the unread total
func (s *notificationService) List(ctx context.Context, actor models.Actor, unreadOnly bool, limit int) (*models.NotificationList, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	repos := s.store.Repos()
	items, err := repos.Notification.ListForRecipient(ctx, actor.UserID, unreadOnly, limit)
	if err != nil {
		return nil, wrap(err, "notifications: list")
	}
	unread, err := repos.Notification.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, wrap(err, "notifications: count unread")
	}
	if items == nil {
		items = []*models.Notification{}
	}
	return &models.NotificationList{Notifications: items, Unread: unread}, nil
}

// MarkRead flags one of the actor's notifications as read
func (s *notificationService) MarkRead(ctx context.Context, actor models.Actor, id string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if err := validation.ValidateID("id", id); err != nil {
		return err
	}

	ok, err := s.store.Repos().Notification.MarkRead(ctx, id, actor.UserID)
	if err != nil {
		return wrap(err, "notifications: mark read")
	}
	if !ok {
		return apperr.NotFound(apperr.CodeNotificationNotFound, "notification not found")
	}
	return nil
}
