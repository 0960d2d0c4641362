package service

import (
	"context"
	"time"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/notify"
	"github.com/comment-moderation-api/internal/repository"
	"github.com/comment-moderation-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 90
	topReasonsLimit  = 5
)

// moderationService is the concrete implementation of ModerationService
type moderationService struct {
	*deps
	log zerolog.Logger
}

// newModerationService creates a new ModerationService
func newModerationService(d *deps) *moderationService {
	return &moderationService{
		deps: d,
		log:  d.log.With().Str("service", "moderation").Logger(),
	}
}

// Approve publishes a pending or reported comment
func (s *moderationService) Approve(ctx context.Context, actor models.Actor, id string) (*models.Comment, error) {
	return s.moderate(ctx, actor, id, models.TransitionApprove, "")
}

// Reject hides a pending or reported comment; a reason is required
func (s *moderationService) Reject(ctx context.Context, actor models.Actor, id, reason string) (*models.Comment, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	reason, errs := s.validator.ValidateRejectReason(reason)
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}
	return s.moderate(ctx, actor, id, models.TransitionReject, reason)
}

func (s *moderationService) moderate(ctx context.Context, actor models.Actor, id string, t models.Transition, reason string) (*models.Comment, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateID("id", id); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var moderated *models.Comment
	err := s.store.Do(ctx, func(tx *repository.Repositories) error {
		c, err := tx.Comment.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return commentNotFound()
		}
		was := c.Status

		moved, err := transition(ctx, tx, c, t, models.ModerationMeta{
			Reason:      reason,
			ModeratedBy: actor.UserID,
			At:          now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return apperr.Conflict(apperr.CodeInvalidState, "comment cannot be "+pastTense(t)+" from status "+string(c.Status))
		}

		extra := map[string]interface{}{"action": pastTense(t)}
		if reason != "" {
			extra["reason"] = reason
		}
		if _, err := s.fanout.Emit(ctx, tx, notify.Event{
			Type:    models.NotificationCommentModerated,
			Comment: c,
			ActorID: actor.UserID,
			Extra:   extra,
		}); err != nil {
			return err
		}

		if t == models.TransitionApprove && was == models.StatusPending && c.ParentID != nil {
			if err := s.announceReply(ctx, tx, c); err != nil {
				return err
			}
		}

		moderated = c
		return nil
	})
	if err != nil {
		return nil, wrap(err, "moderation: "+string(t))
	}

	s.log.Info().
		Str("comment_id", id).
		Str("action", string(t)).
		Str("moderator_id", actor.UserID).
		Msg("Comment moderated")

	s.present(moderated)
	return moderated, nil
}

// announceReply sends the reply notification a held reply skipped at creation
func (s *moderationService) announceReply(ctx context.Context, tx *repository.Repositories, c *models.Comment) error {
	parent, err := tx.Comment.GetByID(ctx, *c.ParentID)
	if err != nil || parent == nil {
		return err
	}
	_, err = s.fanout.Emit(ctx, tx, notify.Event{
		Type:    models.NotificationReplyAdded,
		Comment: c,
		Parent:  parent,
		ActorID: c.Author(),
	})
	return err
}

func pastTense(t models.Transition) string {
	switch t {
	case models.TransitionApprove:
		return "approved"
	case models.TransitionReject:
		return "rejected"
	default:
		return string(t)
	}
}

// Queue lists comments awaiting review, oldest first
func (s *moderationService) Queue(ctx context.Context, actor models.Actor, q models.ListQuery) (*models.CommentPage, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateListQuery(&q); len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	statuses := []models.CommentStatus{models.StatusPending, models.StatusReported}
	switch q.Status {
	case "":
	case "all":
		statuses = nil
	default:
		statuses = []models.CommentStatus{models.CommentStatus(q.Status)}
	}

	page, err := s.page(ctx, models.CommentFilter{Statuses: statuses}, q)
	if err != nil {
		return nil, wrap(err, "moderation: queue")
	}
	return page, nil
}

// Stats summarizes report and review activity over the last `days` days
func (s *moderationService) Stats(ctx context.Context, actor models.Actor, days int) (*models.ModerationStats, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultStatsDays
	}
	if days > maxStatsDays {
		return nil, apperr.Invalid("days", "days must not exceed 90")
	}

	since := s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	stats := &models.ModerationStats{Since: since}
	repos := s.store.Repos()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalReports, stats.ReportedComments, err = repos.Report.CountSince(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TopReasons, err = repos.Report.TopReasons(gctx, since, topReasonsLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Trend, err = repos.Report.DailyCounts(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ByStatus, err = repos.Comment.CountByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrap(err, "moderation: stats")
	}

	stats.PendingComments = stats.ByStatus[models.StatusPending]
	stats.RejectedComments = stats.ByStatus[models.StatusRejected]
	return stats, nil
}

// UpsertFilters creates or updates moderator spam filters and drops the filter cache
func (s *moderationService) UpsertFilters(ctx context.Context, actor models.Actor, filters []*models.SpamFilter) ([]*models.SpamFilter, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, apperr.Invalid("filters", "at least one filter is required")
	}

	var errs []apperr.FieldError
	for i, f := range filters {
		errs = append(errs, s.validator.ValidateFilter(f, i)...)
	}
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	now := s.now().UTC()
	err := s.store.Do(ctx, func(tx *repository.Repositories) error {
		for _, f := range filters {
			if f.ID == "" {
				f.ID = uuid.NewString()
			}
			f.Active = true
			f.CreatedAt = now
			f.UpdatedAt = now
			if err := tx.SpamFilter.Upsert(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "moderation: upsert filters")
	}

	s.filters.Invalidate()
	s.log.Info().Int("count", len(filters)).Str("admin_id", actor.UserID).Msg("Spam filters updated")
	return filters, nil
}
