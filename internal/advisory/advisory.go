// Package advisory calls the optional external toxicity scorer.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable is returned when the scorer timed out or failed
var ErrUnavailable = errors.New("advisory scorer unavailable")

// Score is the scorer's verdict on a text
type Score struct {
	Toxicity  float64 `json:"toxicity"`
	Sentiment float64 `json:"sentiment,omitempty"`
}

// Scorer rates text toxicity in [0,1]
type Scorer interface {
	Score(ctx context.Context, text string) (Score, error)
}

// HTTPScorer posts text as JSON to a scoring endpoint
type HTTPScorer struct {
	url    string
	apiKey string
	client *http.Client
	log    zerolog.Logger
}

// NewHTTPScorer creates a scorer whose every call is bounded by timeout
func NewHTTPScorer(url, apiKey string, timeout time.Duration, log zerolog.Logger) *HTTPScorer {
	return &HTTPScorer{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("component", "advisory").Logger(),
	}
}

type scoreRequest struct {
	Text string `json:"text"`
}

// Score calls the endpoint. Any transport, status or decoding failure is ErrUnavailable.
func (s *HTTPScorer) Score(ctx context.Context, text string) (Score, error) {
	body, err := json.Marshal(scoreRequest{Text: text})
	if err != nil {
		return Score{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return Score{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("Advisory request failed")
		return Score{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		s.log.Warn().Int("status", resp.StatusCode).Msg("Advisory returned non-200")
		return Score{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var score Score
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&score); err != nil {
		return Score{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if score.Toxicity < 0 || score.Toxicity > 1 {
		return Score{}, fmt.Errorf("%w: toxicity %v out of range", ErrUnavailable, score.Toxicity)
	}
	return score, nil
}

// WithTimeout bounds every call of next by d
func WithTimeout(next Scorer, d time.Duration) Scorer {
	return timeoutScorer{next: next, d: d}
}

type timeoutScorer struct {
	next Scorer
	d    time.Duration
}

func (t timeoutScorer) Score(ctx context.Context, text string) (Score, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	type result struct {
		score Score
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := t.next.Score(ctx, text)
		ch <- result{s, err}
	}()

	select {
	case <-ctx.Done():
		return Score{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	case r := <-ch:
		return r.score, r.err
	}
}
