package service

import (
	"context"
	"time"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/repository"
)

// transition applies t to c through tx. It reports false when the stored status
// no longer allows t, which includes losing a race with a concurrent transition.
func transition(ctx context.Context, tx *repository.Repositories, c *models.Comment, t models.Transition, meta models.ModerationMeta) (bool, error) {
	to, ok := models.NextStatus(c.Status, t)
	if !ok {
		return false, nil
	}

	moved, err := tx.Comment.TransitionStatus(ctx, c.ID, models.SourcesFor(t), to, meta)
	if err != nil || !moved {
		return false, err
	}

	c.Status = to
	c.ModerationReason = meta.Reason
	if meta.ModeratedBy != "" {
		by := meta.ModeratedBy
		c.ModeratedBy = &by
	}
	at := meta.At
	c.ModeratedAt = &at
	c.UpdatedAt = meta.At
	return true, nil
}

// checkEditable enforces ownership, status and the edit window
func checkEditable(c *models.Comment, actor models.Actor, now time.Time, window time.Duration) error {
	if !c.IsAuthoredBy(actor.UserID) {
		return apperr.Forbidden(apperr.CodeNotOwner, "only the author can edit this comment")
	}
	if !c.Status.Editable() {
		return apperr.Conflict(apperr.CodeInvalidState, "comment can no longer be edited")
	}
	if now.Sub(c.CreatedAt) > window {
		return apperr.Conflict(apperr.CodeEditWindowExpired, "edit window has expired")
	}
	return nil
}

// visibleTo reports whether actor may read c. Tombstones stay readable to keep threads intact.
func visibleTo(c *models.Comment, actor models.Actor) bool {
	switch c.Status {
	case models.StatusVisible, models.StatusDeleted:
		return true
	}
	return actor.Role.IsModerator() || c.IsAuthoredBy(actor.UserID)
}

// reportableBy reports whether actor may report c. Comments already hidden by
// reports keep accepting them; comments under review do not exist for others.
func reportableBy(c *models.Comment, actor models.Actor) bool {
	return c.Status == models.StatusReported || visibleTo(c, actor)
}

func commentNotFound() error {
	return apperr.NotFound(apperr.CodeCommentNotFound, "comment not found")
}
