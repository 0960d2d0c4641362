package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScorer(t *testing.T, h http.HandlerFunc, apiKey string, timeout time.Duration) *HTTPScorer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPScorer(srv.URL, apiKey, timeout, zerolog.Nop())
}

func TestHTTPScorer_Score(t *testing.T) {
	var got scoreRequest
	s := newScorer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"toxicity":0.82,"sentiment":-0.4}`))
	}, "secret", time.Second)

	score, err := s.Score(context.Background(), "you people are the worst")

	require.NoError(t, err)
	assert.Equal(t, "you people are the worst", got.Text)
	assert.InDelta(t, 0.82, score.Toxicity, 1e-9)
	assert.InDelta(t, -0.4, score.Sentiment, 1e-9)
}

func TestHTTPScorer_NoKeyNoAuthorizationHeader(t *testing.T) {
	s := newScorer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"toxicity":0}`))
	}, "", time.Second)

	score, err := s.Score(context.Background(), "hello")

	require.NoError(t, err)
	assert.Zero(t, score.Toxicity)
}

func TestHTTPScorer_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"rate limited", http.StatusTooManyRequests, ``},
		{"malformed body", http.StatusOK, `{"toxicity":`},
		{"wrong type", http.StatusOK, `{"toxicity":"high"}`},
		{"above range", http.StatusOK, `{"toxicity":1.5}`},
		{"below range", http.StatusOK, `{"toxicity":-0.1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScorer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, "k", time.Second)

			_, err := s.Score(context.Background(), "text")

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestHTTPScorer_Timeout(t *testing.T) {
	s := newScorer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, "k", 50*time.Millisecond)

	start := time.Now()
	_, err := s.Score(context.Background(), "text")

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHTTPScorer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewHTTPScorer(url, "", time.Second, zerolog.Nop())
	_, err := s.Score(context.Background(), "text")

	assert.ErrorIs(t, err, ErrUnavailable)
}

type stubScorer struct {
	delay time.Duration
	score Score
	err   error
}

func (s stubScorer) Score(ctx context.Context, _ string) (Score, error) {
	select {
	case <-time.After(s.delay):
		return s.score, s.err
	case <-ctx.Done():
		return Score{}, ctx.Err()
	}
}

func TestWithTimeout(t *testing.T) {
	t.Run("fast scorer passes through", func(t *testing.T) {
		s := WithTimeout(stubScorer{score: Score{Toxicity: 0.3}}, time.Second)
		score, err := s.Score(context.Background(), "x")
		require.NoError(t, err)
		assert.InDelta(t, 0.3, score.Toxicity, 1e-9)
	})

	t.Run("errors pass through unchanged", func(t *testing.T) {
		boom := errors.New("boom")
		s := WithTimeout(stubScorer{err: boom}, time.Second)
		_, err := s.Score(context.Background(), "x")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("slow scorer is cut off", func(t *testing.T) {
		s := WithTimeout(stubScorer{delay: time.Second}, 20*time.Millisecond)
		_, err := s.Score(context.Background(), "x")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
