package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/onnwee/gamerank/internal/ranking"
)

// voteAggregator is the read side of a vote store.
type voteAggregator interface {
	Aggregate(ctx context.Context, contentID string) (ranking.VoteAggregate, error)
}

// SlowVoteStore wraps a vote store with an artificial delay for testing
// coalescence and timeouts. It counts calls.
type SlowVoteStore struct {
	inner voteAggregator
	delay time.Duration
	calls atomic.Int64
}

// NewSlowVoteStore creates a new slow vote store wrapper.
func NewSlowVoteStore(inner voteAggregator, delay time.Duration) *SlowVoteStore {
	return &SlowVoteStore{
		inner: inner,
		delay: delay,
	}
}

// Aggregate returns the inner aggregate after the delay, or the context
// error if ctx ends first.
func (s *SlowVoteStore) Aggregate(ctx context.Context, contentID string) (ranking.VoteAggregate, error) {
	s.calls.Add(1)
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ranking.VoteAggregate{}, ctx.Err()
	case <-timer.C:
	}
	return s.inner.Aggregate(ctx, contentID)
}

// Calls returns how many times Aggregate has been called.
func (s *SlowVoteStore) Calls() int64 {
	return s.calls.Load()
}
