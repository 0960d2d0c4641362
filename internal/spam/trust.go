package spam

import (
	"time"
)

// Trust selects how tolerant the pattern, rate and duplicate checks are
type Trust string

const (
	TrustStrict  Trust = "strict"
	TrustNormal  Trust = "normal"
	TrustLenient Trust = "lenient"
)

// Profile holds the thresholds for one trust level
type Profile struct {
	MaxUpperRatio     float64
	MaxExclaimRatio   float64
	MaxRepeatRun      int
	MaxURLs           int
	MaxURLDensity     float64
	RateLimit         int
	DuplicateLookback int
	DuplicateWindow   time.Duration
}

// TrustFor grades the author. Guests, new accounts, first-time posters and
// authors with a record of reported comments are strict.
func (c *Classifier) TrustFor(in Input) Trust {
	if in.AuthorID == "" || in.History.AccountCreatedAt.IsZero() {
		return TrustStrict
	}
	if c.cfg.MaxReportedComments > 0 && in.History.ReportedComments > c.cfg.MaxReportedComments {
		return TrustStrict
	}
	age := in.Now.Sub(in.History.AccountCreatedAt)
	if age < c.cfg.NewAccountAge || in.History.PriorComments == 0 {
		return TrustStrict
	}
	if age >= c.cfg.EstablishedAccountAge && in.History.PriorComments >= c.cfg.EstablishedMinComments {
		return TrustLenient
	}
	return TrustNormal
}

// ProfileFor returns the thresholds for a trust level
func (c *Classifier) ProfileFor(t Trust) Profile {
	switch t {
	case TrustStrict:
		limit := c.cfg.RateLimitMax / 2
		if limit < 1 {
			limit = 1
		}
		return Profile{
			MaxUpperRatio:     0.5,
			MaxExclaimRatio:   0.1,
			MaxRepeatRun:      5,
			MaxURLs:           1,
			MaxURLDensity:     0.3,
			RateLimit:         limit,
			DuplicateLookback: c.cfg.DuplicateLookback * 2,
			DuplicateWindow:   c.cfg.DuplicateWindow * 2,
		}
	case TrustLenient:
		return Profile{
			MaxUpperRatio:     0.85,
			MaxExclaimRatio:   0.3,
			MaxRepeatRun:      10,
			MaxURLs:           4,
			MaxURLDensity:     0.6,
			RateLimit:         c.cfg.RateLimitMax,
			DuplicateLookback: c.cfg.DuplicateLookback,
			DuplicateWindow:   c.cfg.DuplicateWindow,
		}
	default:
		return Profile{
			MaxUpperRatio:     0.7,
			MaxExclaimRatio:   0.2,
			MaxRepeatRun:      7,
			MaxURLs:           2,
			MaxURLDensity:     0.5,
			RateLimit:         c.cfg.RateLimitMax,
			DuplicateLookback: c.cfg.DuplicateLookback,
			DuplicateWindow:   c.cfg.DuplicateWindow,
		}
	}
}

// HistoryWindow is the widest duplicate window any profile looks at
func (c *Classifier) HistoryWindow() time.Duration {
	return c.cfg.DuplicateWindow * 2
}

// HistoryLookback is the largest number of prior comments any profile compares
func (c *Classifier) HistoryLookback() int {
	return c.cfg.DuplicateLookback * 2
}

// RateWindow is the rolling window the rate limit counts over
func (c *Classifier) RateWindow() time.Duration {
	return c.cfg.RateLimitWindow
}
