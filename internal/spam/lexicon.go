package spam

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/comment-moderation-api/internal/models"
)

// builtinTerms is the curated lexicon every comment is checked against
var builtinTerms = []string{
	"stupid",
	"idiot",
	"moron",
	"buy now",
	"free money",
	"click here",
	"special offer",
	"work from home",
	"casino",
	"viagra",
	"غبي",
	"احمق",
	"حمار",
	"قذر",
	"اشتري الآن",
	"عرض خاص",
	"ربح سريع",
}

// Filter is a compiled lexicon entry
type Filter struct {
	Pattern  string
	Action   Action
	Severity int
	term     string
	re       *regexp.Regexp
}

func builtinLexicon() []Filter {
	out := make([]Filter, len(builtinTerms))
	for i, t := range builtinTerms {
		out[i] = Filter{Pattern: t, Action: Review, Severity: 5, term: t}
	}
	return out
}

// CompileFilter converts a stored filter. Regex filters are matched case-insensitively.
func CompileFilter(f *models.SpamFilter) (Filter, error) {
	action := Review
	if f.Action == models.FilterActionBlock {
		action = Reject
	}
	out := Filter{Pattern: f.Pattern, Action: action, Severity: f.Severity}

	switch f.Kind {
	case models.FilterKindKeyword:
		out.term = strings.ToLower(strings.TrimSpace(f.Pattern))
		if out.term == "" {
			return Filter{}, fmt.Errorf("empty keyword")
		}
	case models.FilterKindRegex:
		re, err := regexp.Compile("(?i)" + f.Pattern)
		if err != nil {
			return Filter{}, fmt.Errorf("compile %q: %w", f.Pattern, err)
		}
		out.re = re
	default:
		return Filter{}, fmt.Errorf("unknown filter kind %q", f.Kind)
	}
	return out, nil
}

// Matches reports whether the filter hits text. lower is text lowercased.
func (f Filter) Matches(text, lower string) bool {
	if f.re != nil {
		return f.re.MatchString(text)
	}
	return containsWord(lower, f.term)
}

// containsWord finds term in s bounded by non-word characters on both sides
func containsWord(s, term string) bool {
	if term == "" {
		return false
	}
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)

		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
