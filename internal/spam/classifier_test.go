package spam

import (
	"strings"
	"testing"
	"time"

	"github.com/comment-moderation-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		RateLimitMax:           10,
		RateLimitWindow:        10 * time.Minute,
		DuplicateLookback:      20,
		DuplicateWindow:        24 * time.Hour,
		NewAccountAge:          7 * 24 * time.Hour,
		EstablishedAccountAge:  90 * 24 * time.Hour,
		EstablishedMinComments: 20,
		MaxReportedComments:    5,
		ToxicityThreshold:      0.7,
	}
}

// regular is a normal-trust author with some history
func regular(text string) Input {
	return Input{
		Text:     text,
		AuthorID: "user-1",
		History: History{
			AccountCreatedAt: now.Add(-30 * 24 * time.Hour),
			PriorComments:    5,
		},
		Now: now,
	}
}

func reasons(v Verdict) []Reason {
	var out []Reason
	for _, s := range v.Signals {
		out = append(out, s.Reason)
	}
	return out
}

func TestClassify_CleanComment(t *testing.T) {
	c := New(testConfig())

	v := c.Classify(regular("Thanks for the write-up, the second section cleared things up for me."))

	assert.False(t, v.IsSpam)
	assert.Equal(t, Allow, v.Action)
	assert.Empty(t, v.Signals)
	assert.Nil(t, v.SignalStrings())
	assert.Equal(t, TrustNormal, v.Trust)
}

func TestClassify_BuiltinLexiconFlagsForReview(t *testing.T) {
	c := New(testConfig())

	v := c.Classify(regular("You are an idiot"))

	require.True(t, v.IsSpam)
	assert.Equal(t, ReasonBannedWord, v.Reason)
	assert.Equal(t, Review, v.Action)
	_, rejected := v.Rejection()
	assert.False(t, rejected)
	assert.Equal(t, []string{"banned_word:idiot"}, v.SignalStrings())
}

func TestClassify_LexiconRespectsWordBoundaries(t *testing.T) {
	c := New(testConfig())

	// "idiotic" and "casinos" must not match the whole-word terms
	v := c.Classify(regular("An idiotic plan, but casinos were never the point."))
	assert.NotContains(t, reasons(v), ReasonBannedWord)
}

func TestClassify_BlockFilterRejects(t *testing.T) {
	c := New(testConfig())
	block, err := CompileFilter(&models.SpamFilter{Pattern: "crypto giveaway", Kind: models.FilterKindKeyword, Action: models.FilterActionBlock, Severity: 9})
	require.NoError(t, err)

	in := regular("Join the Crypto Giveaway today")
	in.Filters = []Filter{block}
	v := c.Classify(in)

	sig, rejected := v.Rejection()
	require.True(t, rejected)
	assert.Equal(t, ReasonBannedWord, sig.Reason)
	assert.Equal(t, Reject, v.Action)
}

func TestClassify_RegexFilter(t *testing.T) {
	c := New(testConfig())
	f, err := CompileFilter(&models.SpamFilter{Pattern: `\bt\.me/\w+`, Kind: models.FilterKindRegex, Action: models.FilterActionFlag})
	require.NoError(t, err)

	in := regular("ping me on T.me/dealz")
	in.Filters = []Filter{f}
	v := c.Classify(in)

	assert.Contains(t, reasons(v), ReasonBannedWord)
	assert.Equal(t, Review, v.Action)
}

func TestCompileFilter_Errors(t *testing.T) {
	tests := []struct {
		name   string
		filter models.SpamFilter
	}{
		{"bad regex", models.SpamFilter{Pattern: "([a-z", Kind: models.FilterKindRegex}},
		{"empty keyword", models.SpamFilter{Pattern: "   ", Kind: models.FilterKindKeyword}},
		{"unknown kind", models.SpamFilter{Pattern: "x", Kind: "glob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileFilter(&tt.filter)
			assert.Error(t, err)
		})
	}
}

func TestClassify_Patterns(t *testing.T) {
	c := New(testConfig())

	tests := []struct {
		name   string
		text   string
		detail string
	}{
		{"caps", "THIS IS THE BEST ARTICLE EVER WRITTEN", "caps"},
		{"exclamation", "wow!!! amazing!!! great!!!", "exclamation"},
		{"repeated characters", "sooooooooo good", "repeated_chars"},
		{"too many links", "see http://a.example http://b.example http://c.example now", "links:3"},
		{"phone number", "call me at 05551234567 for details", "phone_number"},
		{"symbol run", "what a deal @#$ right here", "symbol_run"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := c.Classify(regular(tt.text))
			require.True(t, v.IsSpam)
			assert.Contains(t, v.SignalStrings(), "spam_pattern:"+tt.detail)
			assert.Equal(t, Review, v.Action)
		})
	}
}

func TestClassify_ShortPhoneFragmentIsNotANumber(t *testing.T) {
	c := New(testConfig())
	v := c.Classify(regular("my extension is 123456789, ask for Dana"))
	assert.NotContains(t, v.SignalStrings(), "spam_pattern:phone_number")
}

func TestClassify_ContentQuality(t *testing.T) {
	c := New(testConfig())

	tests := []struct {
		name   string
		text   string
		detail string
	}{
		{"short and numeric", "12345678", "short+digits"},
		{"short and symbolic", "?!?..", "short+symbols"},
		{"numeric and symbolic", "1234-5678, 90/12; 34.56 (78)", "digits+symbols"},
		{"short alone", "Agreed", ""},
		{"numeric alone", "Order 4521 4522 4523 4524 now", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := c.Classify(regular(tt.text))
			if tt.detail == "" {
				assert.NotContains(t, reasons(v), ReasonLowQuality)
				return
			}
			assert.Contains(t, v.SignalStrings(), "low_quality:"+tt.detail)
			_, rejected := v.Rejection()
			assert.False(t, rejected)
		})
	}
}

func TestClassify_ArabicLexicon(t *testing.T) {
	c := New(testConfig())

	v := c.Classify(regular("هذا المقال غبي جدا"))
	require.True(t, v.IsSpam)
	assert.Equal(t, []string{"banned_word:غبي"}, v.SignalStrings())

	v = c.Classify(regular("عرض خاص لفترة محدودة"))
	assert.Contains(t, v.SignalStrings(), "banned_word:عرض خاص")

	// a longer word that merely starts with a term does not match
	v = c.Classify(regular("كانوا غبيين في هذا القرار"))
	assert.NotContains(t, reasons(v), ReasonBannedWord)
}

func TestClassify_ReportedHistory(t *testing.T) {
	c := New(testConfig())

	in := regular("a perfectly ordinary opinion")
	in.History.ReportedComments = 5
	v := c.Classify(in)
	assert.False(t, v.IsSpam)
	assert.Equal(t, TrustNormal, v.Trust)

	in.History.ReportedComments = 6
	v = c.Classify(in)
	require.True(t, v.IsSpam)
	assert.Equal(t, ReasonUserHistory, v.Reason)
	assert.Equal(t, []string{"user_history:reported:6"}, v.SignalStrings())
	assert.Equal(t, TrustStrict, v.Trust)
	assert.Equal(t, Review, v.Action)

	// content-only checks on edit ignore the author's record
	assert.False(t, c.ClassifyEdit(in).IsSpam)
}

func TestClassify_ReportedHistoryDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MaxReportedComments = 0
	c := New(cfg)

	in := regular("a perfectly ordinary opinion")
	in.History.ReportedComments = 50
	v := c.Classify(in)
	assert.False(t, v.IsSpam)
	assert.Equal(t, TrustNormal, v.Trust)
}

func TestClassify_ShortShoutIsAllowed(t *testing.T) {
	c := New(testConfig())
	v := c.Classify(regular("LOL OK"))
	assert.False(t, v.IsSpam)
}

func TestClassify_RateLimit(t *testing.T) {
	c := New(testConfig())

	in := regular("another distinct thought")
	in.History.RateWindowCount = 9
	assert.NotContains(t, reasons(c.Classify(in)), ReasonRateLimit)

	in.History.RateWindowCount = 10
	v := c.Classify(in)
	sig, rejected := v.Rejection()
	require.True(t, rejected)
	assert.Equal(t, ReasonRateLimit, sig.Reason)
	assert.Equal(t, "10/10", sig.Detail)
}

func TestClassify_StrictTrustHalvesRateLimit(t *testing.T) {
	c := New(testConfig())

	in := regular("hello there")
	in.History.AccountCreatedAt = now.Add(-2 * 24 * time.Hour)
	in.History.RateWindowCount = 5

	v := c.Classify(in)
	assert.Equal(t, TrustStrict, v.Trust)
	sig, rejected := v.Rejection()
	require.True(t, rejected)
	assert.Equal(t, ReasonRateLimit, sig.Reason)
}

func TestClassify_DuplicateContent(t *testing.T) {
	c := New(testConfig())

	in := regular("  Great   POINT about caching ")
	in.History.Recent = []models.PriorComment{
		{Content: "unrelated", CreatedAt: now.Add(-time.Hour)},
		{Content: "great point about caching", CreatedAt: now.Add(-2 * time.Hour)},
	}
	sig, rejected := c.Classify(in).Rejection()
	require.True(t, rejected)
	assert.Equal(t, ReasonDuplicateContent, sig.Reason)
}

func TestClassify_DuplicateOutsideWindowIsAllowed(t *testing.T) {
	c := New(testConfig())

	in := regular("great point about caching")
	in.History.Recent = []models.PriorComment{
		{Content: "great point about caching", CreatedAt: now.Add(-25 * time.Hour)},
	}
	_, rejected := c.Classify(in).Rejection()
	assert.False(t, rejected)
}

func TestClassify_GuestSkipsRateAndDuplicate(t *testing.T) {
	c := New(testConfig())

	in := Input{Text: "first time here", Now: now}
	in.History.RateWindowCount = 100
	v := c.Classify(in)

	assert.Equal(t, TrustStrict, v.Trust)
	assert.False(t, v.IsSpam)
}

func TestClassify_Advisory(t *testing.T) {
	c := New(testConfig())

	t.Run("below threshold", func(t *testing.T) {
		in := regular("fine comment")
		in.Advisory = AdvisoryResult{Enabled: true, Toxicity: 0.2}
		assert.False(t, c.Classify(in).IsSpam)
	})

	t.Run("toxic", func(t *testing.T) {
		in := regular("fine comment")
		in.Advisory = AdvisoryResult{Enabled: true, Toxicity: 0.91}
		v := c.Classify(in)
		assert.Equal(t, ReasonToxicity, v.Reason)
		assert.Equal(t, []string{"toxicity:0.91"}, v.SignalStrings())
	})

	t.Run("unavailable holds for review", func(t *testing.T) {
		in := regular("fine comment")
		in.Advisory = AdvisoryResult{Enabled: true, Failed: true}
		v := c.Classify(in)
		assert.True(t, v.IsSpam)
		assert.Equal(t, ReasonAdvisoryUnavailable, v.Reason)
		assert.Equal(t, Review, v.Action)
	})
}

func TestClassify_AllSignalsKeptFirstReasonWins(t *testing.T) {
	c := New(testConfig())

	in := regular("STUPID STUPID STUPID ARTICLE HONESTLY")
	in.History.RateWindowCount = 10
	v := c.Classify(in)

	assert.Equal(t, ReasonBannedWord, v.Reason)
	assert.Equal(t, Reject, v.Action)
	assert.Contains(t, reasons(v), ReasonSpamPattern)
	assert.Contains(t, reasons(v), ReasonRateLimit)
}

func TestClassifyEdit_SkipsHistoryRules(t *testing.T) {
	c := New(testConfig())

	in := regular("same text as before")
	in.History.RateWindowCount = 50
	in.History.Recent = []models.PriorComment{{Content: "same text as before", CreatedAt: now}}

	v := c.ClassifyEdit(in)
	assert.False(t, v.IsSpam)

	in.Text = "buy now, limited stock"
	v = c.ClassifyEdit(in)
	assert.Equal(t, ReasonBannedWord, v.Reason)
}

func TestNew_CustomRules(t *testing.T) {
	long := Rule{
		Name: "too_long",
		Check: func(e *Evaluation) []Signal {
			if len(e.Normalized) > 10 {
				return []Signal{{Reason: "too_long", Action: Review}}
			}
			return nil
		},
	}
	c := New(testConfig(), long)

	v := c.Classify(regular(strings.Repeat("a ", 20)))
	require.Len(t, v.Signals, 1)
	assert.Equal(t, "too_long", v.Signals[0].Rule)
}

func TestTrustFor(t *testing.T) {
	c := New(testConfig())

	tests := []struct {
		name     string
		age      time.Duration
		prior    int
		reported int
		want     Trust
	}{
		{"new account", 3 * 24 * time.Hour, 50, 0, TrustStrict},
		{"no prior comments", 60 * 24 * time.Hour, 0, 0, TrustStrict},
		{"regular", 30 * 24 * time.Hour, 5, 0, TrustNormal},
		{"old but quiet", 120 * 24 * time.Hour, 3, 0, TrustNormal},
		{"established", 120 * 24 * time.Hour, 25, 0, TrustLenient},
		{"established at reported limit", 120 * 24 * time.Hour, 25, 5, TrustLenient},
		{"established but often reported", 120 * 24 * time.Hour, 25, 6, TrustStrict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{
				AuthorID: "u",
				Now:      now,
				History: History{
					AccountCreatedAt: now.Add(-tt.age),
					PriorComments:    tt.prior,
					ReportedComments: tt.reported,
				},
			}
			assert.Equal(t, tt.want, c.TrustFor(in))
		})
	}
}

func TestProfileFor_StrictDoublesDuplicateReach(t *testing.T) {
	c := New(testConfig())

	strict := c.ProfileFor(TrustStrict)
	normal := c.ProfileFor(TrustNormal)

	assert.Equal(t, 5, strict.RateLimit)
	assert.Equal(t, 10, normal.RateLimit)
	assert.Equal(t, 2*normal.DuplicateLookback, strict.DuplicateLookback)
	assert.Equal(t, 2*normal.DuplicateWindow, strict.DuplicateWindow)
	assert.Equal(t, strict.DuplicateWindow, c.HistoryWindow())
	assert.Equal(t, strict.DuplicateLookback, c.HistoryLookback())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello big world", Normalize("  Hello \n BIG\tworld "))
	assert.Equal(t, "", Normalize("   "))
}
