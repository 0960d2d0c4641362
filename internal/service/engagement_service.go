package service

import (
	"context"
	"errors"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/escalation"
	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/notify"
	"github.com/comment-moderation-api/internal/repository"
	"github.com/comment-moderation-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// engagementService is the concrete implementation of EngagementService.
// The (comment, user) unique constraints are what make likes and reports
// idempotent; no in-process locking is involved.
type engagementService struct {
	*deps
	log zerolog.Logger
}

// newEngagementService creates a new EngagementService
func newEngagementService(d *deps) *engagementService {
	return &engagementService{
		deps: d,
		log:  d.log.With().Str("service", "engagement").Logger(),
	}
}

// AddLike records the actor's like and increments the counter in one unit of work
func (s *engagementService) AddLike(ctx context.Context, actor models.Actor, commentID string) (*models.LikeResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("id", commentID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var result *models.LikeResult
	err := s.store.Do(ctx, func(tx *repository.Repositories) error {
		c, err := tx.Comment.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if c == nil || !visibleTo(c, actor) {
			return commentNotFound()
		}
		if !c.Status.Engageable() {
			return apperr.Conflict(apperr.CodeInvalidState, "comment cannot be liked in its current state")
		}

		err = tx.Like.Insert(ctx, &models.Like{
			ID:        uuid.NewString(),
			CommentID: commentID,
			UserID:    actor.UserID,
			CreatedAt: now,
		})
		if errors.Is(err, repository.ErrUniqueViolation) {
			return apperr.Duplicate(apperr.CodeAlreadyLiked, "comment already liked")
		}
		if err != nil {
			return err
		}

		upd, err := tx.Comment.AdjustCounter(ctx, commentID, models.CounterLikes, 1)
		if err != nil {
			return err
		}
		// the row may have been deleted or rejected since it was read
		if !upd.Status.Engageable() {
			return apperr.Conflict(apperr.CodeInvalidState, "comment cannot be liked in its current state")
		}
		c.LikeCount = upd.Value
		c.Status = upd.Status

		if _, err := s.fanout.Emit(ctx, tx, notify.Event{
			Type:    models.NotificationCommentLiked,
			Comment: c,
			ActorID: actor.UserID,
		}); err != nil {
			return err
		}

		result = &models.LikeResult{CommentID: commentID, LikeCount: upd.Value}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "engagement: like")
	}

	s.log.Debug().Str("comment_id", commentID).Int("like_count", result.LikeCount).Msg("Comment liked")
	return result, nil
}

// RemoveLike deletes the actor's like and decrements the counter in one unit of work
func (s *engagementService) RemoveLike(ctx context.Context, actor models.Actor, commentID string) (*models.LikeResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("id", commentID); err != nil {
		return nil, err
	}

	var result *models.LikeResult
	err := s.store.Do(ctx, func(tx *repository.Repositories) error {
		c, err := tx.Comment.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if c == nil {
			return commentNotFound()
		}

		removed, err := tx.Like.Delete(ctx, commentID, actor.UserID)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.NotFound(apperr.CodeLikeNotFound, "like not found")
		}

		upd, err := tx.Comment.AdjustCounter(ctx, commentID, models.CounterLikes, -1)
		if err != nil {
			return err
		}
		result = &models.LikeResult{CommentID: commentID, LikeCount: upd.Value}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "engagement: unlike")
	}

	s.log.Debug().Str("comment_id", commentID).Int("like_count", result.LikeCount).Msg("Comment unliked")
	return result, nil
}

// AddReport records a report. When the count crosses the threshold the comment
// moves to reported and every admin is notified, all in the same unit of work.
func (s *engagementService) AddReport(ctx context.Context, actor models.Actor, commentID string, req *models.ReportRequest) (*models.Report, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("id", commentID); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateReport(req); len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	now := s.now().UTC()
	var (
		report    *models.Report
		escalated bool
		count     int
	)
	err := s.store.Do(ctx, func(tx *repository.Repositories) error {
		escalated = false

		c, err := tx.Comment.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if c == nil || !reportableBy(c, actor) {
			return commentNotFound()
		}
		if c.IsAuthoredBy(actor.UserID) {
			return apperr.Forbidden(apperr.CodeSelfReport, "you cannot report your own comment")
		}
		if !c.Status.Engageable() {
			return apperr.Conflict(apperr.CodeInvalidState, "comment cannot be reported in its current state")
		}

		r := &models.Report{
			ID:          uuid.NewString(),
			CommentID:   commentID,
			UserID:      actor.UserID,
			Reason:      req.Reason,
			Description: req.Description,
			CreatedAt:   now,
		}
		err = tx.Report.Insert(ctx, r)
		if errors.Is(err, repository.ErrUniqueViolation) {
			return apperr.Duplicate(apperr.CodeAlreadyReported, "comment already reported")
		}
		if err != nil {
			return err
		}

		upd, err := tx.Comment.AdjustCounter(ctx, commentID, models.CounterReports, 1)
		if err != nil {
			return err
		}
		if !upd.Status.Engageable() {
			return apperr.Conflict(apperr.CodeInvalidState, "comment cannot be reported in its current state")
		}
		c.ReportCount = upd.Value
		c.Status = upd.Status
		count = upd.Value

		decision := s.policy.OnReportAdded(c, upd.Value)
		if decision.ShouldHide {
			moved, err := transition(ctx, tx, c, models.TransitionEscalate, models.ModerationMeta{
				Reason: escalation.ReasonThreshold,
				At:     now,
			})
			if err != nil {
				return err
			}
			escalated = moved
			if moved && decision.NotifyAdmins {
				if _, err := s.fanout.Emit(ctx, tx, notify.Event{
					Type:    models.NotificationReportEscalated,
					Comment: c,
					ActorID: actor.UserID,
					Extra: map[string]interface{}{
						"report_count": upd.Value,
						"reason":       r.Reason,
					},
				}); err != nil {
					return err
				}
			}
		}

		report = r
		return nil
	})
	if err != nil {
		return nil, wrap(err, "engagement: report")
	}

	event := s.log.Info()
	if !escalated {
		event = s.log.Debug()
	}
	event.Str("comment_id", commentID).
		Int("report_count", count).
		Bool("escalated", escalated).
		Msg("Comment reported")
	return report, nil
}
