package service

import (
	"context"
	"time"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/repository"
	"github.com/comment-moderation-api/internal/spam"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const filterCacheKey = "active"

// filterCache keeps the compiled moderator filters for a short TTL
type filterCache struct {
	store repository.Store
	cache *expirable.LRU[string, []spam.Filter]
	log   zerolog.Logger
}

func newFilterCache(store repository.Store, ttl time.Duration, log zerolog.Logger) *filterCache {
	return &filterCache{
		store: store,
		cache: expirable.NewLRU[string, []spam.Filter](1, nil, ttl),
		log:   log.With().Str("component", "filter_cache").Logger(),
	}
}

// Get returns the active filters, loading them on a miss. Filters that fail to compile are skipped.
func (f *filterCache) Get(ctx context.Context) ([]spam.Filter, error) {
	if filters, ok := f.cache.Get(filterCacheKey); ok {
		return filters, nil
	}

	stored, err := f.store.Repos().SpamFilter.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load spam filters")
	}

	compiled := make([]spam.Filter, 0, len(stored))
	for _, sf := range stored {
		cf, err := spam.CompileFilter(sf)
		if err != nil {
			f.log.Warn().Err(err).Str("filter_id", sf.ID).Msg("Skipping invalid spam filter")
			continue
		}
		compiled = append(compiled, cf)
	}
	f.cache.Add(filterCacheKey, compiled)
	return compiled, nil
}

// Invalidate drops the cached filters
func (f *filterCache) Invalidate() {
	f.cache.Purge()
}

// classification is what the lifecycle stores from a verdict
type classification struct {
	verdict  spam.Verdict
	toxicity *float64
}

// classify gathers the author history, filters and advisory score concurrently and runs the classifier.
// edit selects the content-only rule set.
func (d *deps) classify(ctx context.Context, authorID, text string, now time.Time, edit bool) (classification, error) {
	var (
		history  spam.History
		filters  []spam.Filter
		advice   spam.AdvisoryResult
		toxicity *float64
	)

	g, gctx := errgroup.WithContext(ctx)
	if authorID != "" {
		g.Go(func() error {
			h, err := d.history(gctx, authorID, now)
			history = h
			return err
		})
	}
	g.Go(func() error {
		fs, err := d.filters.Get(gctx)
		filters = fs
		return err
	})
	if d.scorer != nil {
		g.Go(func() error {
			advice = d.advise(gctx, text)
			if !advice.Failed {
				t := advice.Toxicity
				toxicity = &t
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return classification{}, err
	}

	in := spam.Input{
		Text:     text,
		AuthorID: authorID,
		History:  history,
		Advisory: advice,
		Filters:  filters,
		Now:      now,
	}
	var v spam.Verdict
	if edit {
		v = d.classifier.ClassifyEdit(in)
	} else {
		v = d.classifier.Classify(in)
	}
	return classification{verdict: v, toxicity: toxicity}, nil
}

// history loads what the classifier needs to know about the author
func (d *deps) history(ctx context.Context, authorID string, now time.Time) (spam.History, error) {
	repos := d.store.Repos()
	var h spam.History

	user, err := repos.User.GetByID(ctx, authorID)
	if err != nil {
		return h, errors.Wrap(err, "load author")
	}
	if user != nil {
		h.AccountCreatedAt = user.CreatedAt
	}

	if h.PriorComments, err = repos.Comment.CountByAuthor(ctx, authorID); err != nil {
		return h, errors.Wrap(err, "count author comments")
	}
	if h.ReportedComments, err = repos.Comment.CountReportedByAuthor(ctx, authorID); err != nil {
		return h, errors.Wrap(err, "count reported comments")
	}
	if h.RateWindowCount, err = repos.PostLog.CountSince(ctx, authorID, now.Add(-d.classifier.RateWindow())); err != nil {
		return h, errors.Wrap(err, "count recent posts")
	}
	if h.Recent, err = repos.Comment.RecentByAuthor(ctx, authorID, now.Add(-d.classifier.HistoryWindow()), d.classifier.HistoryLookback()); err != nil {
		return h, errors.Wrap(err, "load recent comments")
	}
	return h, nil
}

// advise calls the scorer; any failure is reported as Failed so the comment is held for review
func (d *deps) advise(ctx context.Context, text string) spam.AdvisoryResult {
	score, err := d.scorer.Score(ctx, text)
	if err != nil {
		d.log.Warn().Err(err).Msg("Advisory scorer unavailable, holding comment for review")
		return spam.AdvisoryResult{Enabled: true, Failed: true}
	}
	return spam.AdvisoryResult{Enabled: true, Toxicity: score.Toxicity}
}

// rejectionError maps a rejecting signal to the domain error returned to the caller
func rejectionError(s spam.Signal) error {
	switch s.Reason {
	case spam.ReasonRateLimit:
		return apperr.RateLimited("too many comments, try again later")
	case spam.ReasonDuplicateContent:
		return apperr.Duplicate(apperr.CodeDuplicateContent, "duplicate comment")
	default:
		e := apperr.Invalid("content", "content contains a blocked term")
		e.Code = apperr.CodeContentBlocked
		return e
	}
}
