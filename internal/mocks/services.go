package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/comment-moderation-api/internal/advisory"
)

// MockScorer is a mock implementation of advisory.Scorer
type MockScorer struct {
	ScoreFunc func(ctx context.Context, text string) (advisory.Score, error)
	Toxicity  float64
	Err       error
	Delay     time.Duration

	mu    sync.Mutex
	Calls []string
}

// Verify interface compliance
var _ advisory.Scorer = (*MockScorer)(nil)

// NewMockScorer returns a scorer that always answers toxicity
func NewMockScorer(toxicity float64) *MockScorer {
	return &MockScorer{Toxicity: toxicity}
}

func (m *MockScorer) Score(ctx context.Context, text string) (advisory.Score, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, text)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return advisory.Score{}, ctx.Err()
		}
	}
	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, text)
	}
	if m.Err != nil {
		return advisory.Score{}, m.Err
	}
	return advisory.Score{Toxicity: m.Toxicity}, nil
}

// CallCount returns how many times Score was called
func (m *MockScorer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Clock is a settable time source for service tests
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
