package spam

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	urlPattern       = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	digitRunPattern  = regexp.MustCompile(`\b\d{10,}\b`)
	symbolRunPattern = regexp.MustCompile(`[!@#$%^&*]{3,}`)
)

// minLettersForCaps keeps short shouts like "OK" or "LOL" from tripping the caps check
const minLettersForCaps = 12

// minExclaims is the fewest '!' that can trigger the exclamation check
const minExclaims = 3

// Normalize lowercases text and collapses whitespace for exact duplicate matching
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func checkBannedWords(e *Evaluation) []Signal {
	var signals []Signal
	lower := strings.ToLower(e.Text)
	for _, group := range [][]Filter{e.lexicon, e.Filters} {
		for _, f := range group {
			if f.Matches(e.Text, lower) {
				signals = append(signals, Signal{
					Reason: ReasonBannedWord,
					Action: f.Action,
					Detail: f.Pattern,
				})
			}
		}
	}
	return signals
}

func checkPatterns(e *Evaluation) []Signal {
	p := e.Profile
	text := strings.TrimSpace(e.Text)
	var signals []Signal
	add := func(detail string) {
		signals = append(signals, Signal{Reason: ReasonSpamPattern, Action: Review, Detail: detail})
	}

	letters, upper, exclaims := 0, 0, 0
	run, longest := 0, 0
	var prev rune
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
		if r == '!' {
			exclaims++
		}
		if repeatable(r) && r == prev {
			run++
		} else {
			run = 1
		}
		if repeatable(r) && run > longest {
			longest = run
		}
		prev = r
	}

	if letters >= minLettersForCaps && float64(upper)/float64(letters) > p.MaxUpperRatio {
		add("caps")
	}
	if total := utf8.RuneCountInString(text); exclaims >= minExclaims && total > 0 &&
		float64(exclaims)/float64(total) > p.MaxExclaimRatio {
		add("exclamation")
	}
	if longest >= p.MaxRepeatRun {
		add("repeated_chars")
	}

	if digitRunPattern.MatchString(text) {
		add("phone_number")
	}
	if symbolRunPattern.MatchString(text) {
		add("symbol_run")
	}

	urls := len(urlPattern.FindAllStringIndex(text, -1))
	if urls > p.MaxURLs {
		add(fmt.Sprintf("links:%d", urls))
	} else if words := len(strings.Fields(text)); urls > 0 && words > 0 &&
		float64(urls)/float64(words) > p.MaxURLDensity {
		add("link_density")
	}
	return signals
}

// Content quality weights. Each finding adds its weight; the comment is held
// once the total passes qualityThreshold, so no single finding holds it alone.
const (
	shortContentRunes = 10
	shortWeight       = 4
	maxDigitRatio     = 0.3
	digitWeight       = 4
	maxSymbolRatio    = 0.2
	symbolWeight      = 3
	qualityThreshold  = 5
)

const qualitySymbols = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

func checkQuality(e *Evaluation) []Signal {
	text := strings.TrimSpace(e.Text)
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return nil
	}

	digits, symbols := 0, 0
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(qualitySymbols, r):
			symbols++
		}
	}

	score := 0
	var issues []string
	if total < shortContentRunes {
		score += shortWeight
		issues = append(issues, "short")
	}
	if float64(digits)/float64(total) > maxDigitRatio {
		score += digitWeight
		issues = append(issues, "digits")
	}
	if float64(symbols)/float64(total) > maxSymbolRatio {
		score += symbolWeight
		issues = append(issues, "symbols")
	}
	if score <= qualityThreshold {
		return nil
	}
	return []Signal{{Reason: ReasonLowQuality, Action: Review, Detail: strings.Join(issues, "+")}}
}

func repeatable(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '!' || r == '?' || r == '$'
}

func checkRateLimit(e *Evaluation) []Signal {
	if e.AuthorID == "" {
		return nil
	}
	if e.History.RateWindowCount >= e.Profile.RateLimit {
		return []Signal{{
			Reason: ReasonRateLimit,
			Action: Reject,
			Detail: fmt.Sprintf("%d/%d", e.History.RateWindowCount, e.Profile.RateLimit),
		}}
	}
	return nil
}

func checkDuplicate(e *Evaluation) []Signal {
	if e.AuthorID == "" || e.Normalized == "" {
		return nil
	}
	cutoff := e.Now.Add(-e.Profile.DuplicateWindow)
	for i, prior := range e.History.Recent {
		if i >= e.Profile.DuplicateLookback {
			break
		}
		if prior.CreatedAt.Before(cutoff) {
			continue
		}
		if Normalize(prior.Content) == e.Normalized {
			return []Signal{{Reason: ReasonDuplicateContent, Action: Reject}}
		}
	}
	return nil
}

func checkUserHistory(e *Evaluation) []Signal {
	if e.AuthorID == "" || e.maxReported <= 0 {
		return nil
	}
	if e.History.ReportedComments > e.maxReported {
		return []Signal{{
			Reason: ReasonUserHistory,
			Action: Review,
			Detail: fmt.Sprintf("reported:%d", e.History.ReportedComments),
		}}
	}
	return nil
}

func checkAdvisory(e *Evaluation) []Signal {
	a := e.Advisory
	switch {
	case !a.Enabled:
		return nil
	case a.Failed:
		return []Signal{{Reason: ReasonAdvisoryUnavailable, Action: Review}}
	case a.Toxicity >= e.toxicityThreshold:
		return []Signal{{
			Reason: ReasonToxicity,
			Action: Review,
			Detail: fmt.Sprintf("%.2f", a.Toxicity),
		}}
	}
	return nil
}
