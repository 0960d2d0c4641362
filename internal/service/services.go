package service

import (
	"context"
	"net/http"
	"time"

	"github.com/comment-moderation-api/internal/advisory"
	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/config"
	"github.com/comment-moderation-api/internal/escalation"
	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/notify"
	"github.com/comment-moderation-api/internal/render"
	"github.com/comment-moderation-api/internal/repository"
	"github.com/comment-moderation-api/internal/spam"
	"github.com/comment-moderation-api/internal/validation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// CommentService defines the comment lifecycle operations
type CommentService interface {
	Create(ctx context.Context, actor models.Actor, req *models.CreateCommentRequest) (*models.Comment, error)
	Edit(ctx context.Context, actor models.Actor, id, content string) (*models.Comment, error)
	Delete(ctx context.Context, actor models.Actor, id string) (*models.DeleteResult, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Comment, error)
	ListForArticle(ctx context.Context, actor models.Actor, articleID string, q models.ListQuery) (*models.CommentPage, error)
}

// EngagementService defines like and report operations
type EngagementService interface {
	AddLike(ctx context.Context, actor models.Actor, commentID string) (*models.LikeResult, error)
	RemoveLike(ctx context.Context, actor models.Actor, commentID string) (*models.LikeResult, error)
	AddReport(ctx context.Context, actor models.Actor, commentID string, req *models.ReportRequest) (*models.Report, error)
}

// ModerationService defines moderator operations
type ModerationService interface {
	Approve(ctx context.Context, actor models.Actor, id string) (*models.Comment, error)
	Reject(ctx context.Context, actor models.Actor, id, reason string) (*models.Comment, error)
	Queue(ctx context.Context, actor models.Actor, q models.ListQuery) (*models.CommentPage, error)
	Stats(ctx context.Context, actor models.Actor, days int) (*models.ModerationStats, error)
	UpsertFilters(ctx context.Context, actor models.Actor, filters []*models.SpamFilter) ([]*models.SpamFilter, error)
}

// NotificationService defines the notification inbox
type NotificationService interface {
	List(ctx context.Context, actor models.Actor, unreadOnly bool, limit int) (*models.NotificationList, error)
	MarkRead(ctx context.Context, actor models.Actor, id string) error
}

// ExportService defines streaming exports for moderators and delivery workers
type ExportService interface {
	StreamReports(ctx context.Context, actor models.Actor, w http.ResponseWriter, format string, since time.Time) error
	StreamNotifications(ctx context.Context, actor models.Actor, w http.ResponseWriter, since time.Time) error
}

// Services holds all service interfaces
type Services struct {
	Comments      CommentService
	Engagement    EngagementService
	Moderation    ModerationService
	Notifications NotificationService
	Export        ExportService
}

// Option customizes service construction
type Option func(*deps)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithScorer sets the advisory toxicity scorer; nil disables it
func WithScorer(s advisory.Scorer) Option {
	return func(d *deps) { d.scorer = s }
}

// WithFanout replaces the notification fanout
func WithFanout(f *notify.Fanout) Option {
	return func(d *deps) { d.fanout = f }
}

// deps is shared by every service implementation
type deps struct {
	store      repository.Store
	cfg        *config.Config
	log        zerolog.Logger
	now        func() time.Time
	validator  *validation.Validator
	classifier *spam.Classifier
	scorer     advisory.Scorer
	fanout     *notify.Fanout
	policy     escalation.Policy
	renderer   *render.Renderer
	filters    *filterCache
}

// NewServices creates all services
func NewServices(store repository.Store, cfg *config.Config, log zerolog.Logger, opts ...Option) (*Services, error) {
	m := cfg.Moderation
	d := &deps{
		store:     store,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		validator: validation.NewValidator(m.MaxContentLength),
		classifier: spam.New(spam.Config{
			RateLimitMax:           m.RateLimitMax,
			RateLimitWindow:        m.RateLimitWindow,
			DuplicateLookback:      m.DuplicateLookback,
			DuplicateWindow:        m.DuplicateWindow,
			NewAccountAge:          m.NewAccountAge,
			EstablishedAccountAge:  m.EstablishedAccountAge,
			EstablishedMinComments: m.EstablishedMinComments,
			MaxReportedComments:    m.MaxReportedComments,
			ToxicityThreshold:      cfg.Advisory.ReviewThreshold,
		}),
		policy: escalation.NewPolicy(m.ReportThreshold),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.fanout == nil {
		d.fanout = notify.New(d.now)
	}
	if d.scorer != nil && cfg.Advisory.Timeout > 0 {
		d.scorer = advisory.WithTimeout(d.scorer, cfg.Advisory.Timeout)
	}

	renderer, err := render.New(cfg.Render.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create renderer")
	}
	d.renderer = renderer
	d.filters = newFilterCache(store, m.FilterCacheTTL, log)

	return &Services{
		Comments:      newCommentService(d),
		Engagement:    newEngagementService(d),
		Moderation:    newModerationService(d),
		Notifications: newNotificationService(d),
		Export:        newExportService(d),
	}, nil
}

// wrap annotates unexpected errors; domain errors pass through untouched
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return errors.Wrap(err, msg)
}

func requireUser(actor models.Actor) error {
	if actor.IsGuest() {
		return apperr.Unauthenticated("authentication required")
	}
	return nil
}

func requireModerator(actor models.Actor) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.Role.IsModerator() {
		return apperr.Forbidden(apperr.CodeForbidden, "moderator role required")
	}
	return nil
}

func requireAdmin(actor models.Actor) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin {
		return apperr.Forbidden(apperr.CodeForbidden, "admin role required")
	}
	return nil
}
