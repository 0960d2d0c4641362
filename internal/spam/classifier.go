// Package spam evaluates a candidate comment against an ordered list of rules.
// Every rule runs on every input; the verdict keeps all signals for audit.
package spam

import (
	"fmt"
	"time"

	"github.com/comment-moderation-api/internal/models"
)

// Action is what a signal asks the lifecycle to do with the comment
type Action int

const (
	Allow Action = iota
	Review
	Reject
)

func (a Action) String() string {
	switch a {
	case Review:
		return "review"
	case Reject:
		return "reject"
	default:
		return "allow"
	}
}

// Reason is the machine code of a signal
type Reason string

const (
	ReasonBannedWord          Reason = "banned_word"
	ReasonSpamPattern         Reason = "spam_pattern"
	ReasonRateLimit           Reason = "rate_limit"
	ReasonDuplicateContent    Reason = "duplicate_content"
	ReasonLowQuality          Reason = "low_quality"
	ReasonUserHistory         Reason = "user_history"
	ReasonToxicity            Reason = "toxicity"
	ReasonAdvisoryUnavailable Reason = "advisory_unavailable"
)

// Signal is one rule firing
type Signal struct {
	Rule   string
	Reason Reason
	Action Action
	Detail string
}

func (s Signal) String() string {
	if s.Detail == "" {
		return string(s.Reason)
	}
	return fmt.Sprintf("%s:%s", s.Reason, s.Detail)
}

// Verdict is the classifier output
type Verdict struct {
	IsSpam  bool
	Reason  Reason
	Action  Action
	Trust   Trust
	Signals []Signal
}

// Rejection returns the first signal that rejects the comment outright
func (v Verdict) Rejection() (Signal, bool) {
	for _, s := range v.Signals {
		if s.Action == Reject {
			return s, true
		}
	}
	return Signal{}, false
}

// SignalStrings flattens the signals for storage
func (v Verdict) SignalStrings() []string {
	if len(v.Signals) == 0 {
		return nil
	}
	out := make([]string, len(v.Signals))
	for i, s := range v.Signals {
		out[i] = s.String()
	}
	return out
}

// History is what the store knows about the author at submission time.
// Recent must cover the strictest duplicate window and lookback.
type History struct {
	AccountCreatedAt time.Time
	PriorComments    int
	ReportedComments int
	RateWindowCount  int
	Recent           []models.PriorComment
}

// AdvisoryResult is the outcome of the optional external toxicity scorer
type AdvisoryResult struct {
	Enabled  bool
	Toxicity float64
	Failed   bool
}

// Input is one classification request
type Input struct {
	Text     string
	AuthorID string
	History  History
	Advisory AdvisoryResult
	Filters  []Filter
	Now      time.Time
}

// Config holds the thresholds the profiles are derived from
type Config struct {
	RateLimitMax           int
	RateLimitWindow        time.Duration
	DuplicateLookback      int
	DuplicateWindow        time.Duration
	NewAccountAge          time.Duration
	EstablishedAccountAge  time.Duration
	EstablishedMinComments int

	// MaxReportedComments is how many currently reported comments an author may
	// have before every new comment is held and the author is treated strictly
	MaxReportedComments int
	ToxicityThreshold   float64
}

// Evaluation is the state shared by rules for one input
type Evaluation struct {
	Input
	Trust      Trust
	Profile    Profile
	Normalized string

	lexicon           []Filter
	maxReported       int
	toxicityThreshold float64
}

// Rule is a named pure check. Rules marked OnEdit also run when content is edited.
type Rule struct {
	Name   string
	OnEdit bool
	Check  func(e *Evaluation) []Signal
}

// Classifier runs the rules in order
type Classifier struct {
	cfg     Config
	rules   []Rule
	lexicon []Filter
}

// New creates a classifier. With no rules the default ordered set is used.
func New(cfg Config, rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{
		cfg:     cfg,
		rules:   rules,
		lexicon: builtinLexicon(),
	}
}

// DefaultRules returns the standard rule order
func DefaultRules() []Rule {
	return []Rule{
		{Name: "banned_word", OnEdit: true, Check: checkBannedWords},
		{Name: "spam_pattern", OnEdit: true, Check: checkPatterns},
		{Name: "content_quality", OnEdit: true, Check: checkQuality},
		{Name: "rate_limit", Check: checkRateLimit},
		{Name: "duplicate_content", Check: checkDuplicate},
		{Name: "user_history", Check: checkUserHistory},
		{Name: "advisory", OnEdit: true, Check: checkAdvisory},
	}
}

// Classify evaluates a new comment. It never fails.
func (c *Classifier) Classify(in Input) Verdict {
	return c.run(in, false)
}

// ClassifyEdit evaluates edited content with the content-only rules
func (c *Classifier) ClassifyEdit(in Input) Verdict {
	return c.run(in, true)
}

func (c *Classifier) run(in Input, editOnly bool) Verdict {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	trust := c.TrustFor(in)
	e := &Evaluation{
		Input:      in,
		Trust:      trust,
		Profile:    c.ProfileFor(trust),
		Normalized: Normalize(in.Text),

		lexicon:           c.lexicon,
		maxReported:       c.cfg.MaxReportedComments,
		toxicityThreshold: c.cfg.ToxicityThreshold,
	}

	v := Verdict{Trust: trust, Action: Allow}
	for _, rule := range c.rules {
		if editOnly && !rule.OnEdit {
			continue
		}
		for _, s := range rule.Check(e) {
			if s.Rule == "" {
				s.Rule = rule.Name
			}
			v.Signals = append(v.Signals, s)
			if !v.IsSpam {
				v.IsSpam = true
				v.Reason = s.Reason
			}
			if s.Action > v.Action {
				v.Action = s.Action
			}
		}
	}
	return v
}
