// Package notify turns lifecycle events into notification records.
// Records are written through the caller's unit of work, so they commit or
// roll back with the mutation that produced them.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/repository"
	"github.com/google/uuid"
)

// Event is a lifecycle change that may notify someone
type Event struct {
	Type    models.NotificationType
	Comment *models.Comment
	Parent  *models.Comment
	ActorID string
	Extra   map[string]interface{}
}

// Handler resolves the recipients of an event
type Handler func(ctx context.Context, tx *repository.Repositories, ev Event) ([]string, error)

// Fanout dispatches events to registered handlers
type Fanout struct {
	mu       sync.RWMutex
	handlers map[models.NotificationType][]Handler
	now      func() time.Time
}

// New returns a fanout with the standard recipient rules registered
func New(now func() time.Time) *Fanout {
	if now == nil {
		now = time.Now
	}
	f := &Fanout{
		handlers: make(map[models.NotificationType][]Handler),
		now:      now,
	}
	f.Register(models.NotificationCommentLiked, commentAuthor)
	f.Register(models.NotificationReportEscalated, admins)
	f.Register(models.NotificationReplyAdded, parentAuthor)
	f.Register(models.NotificationCommentModerated, commentAuthor)
	return f
}

// Register adds a handler for an event type
func (f *Fanout) Register(t models.NotificationType, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[t] = append(f.handlers[t], h)
}

// Emit creates one notification per distinct recipient of ev using tx
func (f *Fanout) Emit(ctx context.Context, tx *repository.Repositories, ev Event) ([]*models.Notification, error) {
	f.mu.RLock()
	handlers := f.handlers[ev.Type]
	f.mu.RUnlock()

	if len(handlers) == 0 || ev.Comment == nil {
		return nil, nil
	}

	seen := make(map[string]bool)
	var recipients []string
	for _, h := range handlers {
		ids, err := h(ctx, tx, ev)
		if err != nil {
			return nil, fmt.Errorf("resolve %s recipients: %w", ev.Type, err)
		}
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(buildPayload(ev))
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", ev.Type, err)
	}

	now := f.now().UTC()
	created := make([]*models.Notification, 0, len(recipients))
	for _, id := range recipients {
		n := &models.Notification{
			ID:              uuid.NewString(),
			RecipientUserID: id,
			Type:            ev.Type,
			Payload:         payload,
			CreatedAt:       now,
		}
		if err := tx.Notification.Create(ctx, n); err != nil {
			return nil, fmt.Errorf("create %s notification: %w", ev.Type, err)
		}
		created = append(created, n)
	}
	return created, nil
}

func buildPayload(ev Event) map[string]interface{} {
	p := map[string]interface{}{
		"comment_id": ev.Comment.ID,
		"article_id": ev.Comment.ArticleID,
		"status":     ev.Comment.Status,
	}
	if ev.ActorID != "" {
		p["actor_id"] = ev.ActorID
	}
	if ev.Parent != nil {
		p["parent_id"] = ev.Parent.ID
	}
	for k, v := range ev.Extra {
		p[k] = v
	}
	return p
}

// commentAuthor notifies the comment's author unless they caused the event
func commentAuthor(_ context.Context, _ *repository.Repositories, ev Event) ([]string, error) {
	author := ev.Comment.Author()
	if author == "" || author == ev.ActorID {
		return nil, nil
	}
	return []string{author}, nil
}

// parentAuthor notifies the author of the comment being replied to
func parentAuthor(_ context.Context, _ *repository.Repositories, ev Event) ([]string, error) {
	if ev.Parent == nil {
		return nil, nil
	}
	author := ev.Parent.Author()
	if author == "" || author == ev.ActorID {
		return nil, nil
	}
	return []string{author}, nil
}

// admins notifies every active admin
func admins(ctx context.Context, tx *repository.Repositories, _ Event) ([]string, error) {
	return tx.User.ListIDsByRole(ctx, models.RoleAdmin)
}
