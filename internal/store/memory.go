// Package store provides the content, vote, engagement and reputation
// stores consumed by the ranking engine.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/onnwee/gamerank/internal/ranking"
)

// DirtyMarker is notified when an item's signal data changes.
type DirtyMarker interface {
	MarkDirty(contentID string)
}

// InMemoryContentStore is an in-memory content catalog.
type InMemoryContentStore struct {
	mu    sync.RWMutex
	items map[string]ranking.ContentItem // contentID -> item
}

// NewInMemoryContentStore creates a new in-memory content store.
func NewInMemoryContentStore() *InMemoryContentStore {
	return &InMemoryContentStore{
		items: make(map[string]ranking.ContentItem),
	}
}

// GetContent returns a copy of the item, or nil when it does not exist.
func (s *InMemoryContentStore) GetContent(_ context.Context, id string) (*ranking.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	item.Tags = slices.Clone(item.Tags)
	return &item, nil
}

// Put adds or replaces an item.
func (s *InMemoryContentStore) Put(item ranking.ContentItem) {
	item.Tags = slices.Clone(item.Tags)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// List returns every item ordered by id.
func (s *InMemoryContentStore) List() []ranking.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ranking.ContentItem, 0, len(s.items))
	for _, item := range s.items {
		item.Tags = slices.Clone(item.Tags)
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b ranking.ContentItem) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// InMemoryVoteStore keeps vote aggregates in memory.
type InMemoryVoteStore struct {
	mu     sync.RWMutex
	votes  map[string]ranking.VoteAggregate // contentID -> aggregate
	window int
	dirty  DirtyMarker
}

// NewInMemoryVoteStore creates a vote store whose recent window keeps at
// most window entries. dirty may be nil.
func NewInMemoryVoteStore(window int, dirty DirtyMarker) *InMemoryVoteStore {
	if window <= 0 {
		window = ranking.DefaultRecentVoteWindow
	}
	return &InMemoryVoteStore{
		votes:  make(map[string]ranking.VoteAggregate),
		window: window,
		dirty:  dirty,
	}
}

// Aggregate returns a copy of the aggregate; unknown items yield zero.
func (s *InMemoryVoteStore) Aggregate(_ context.Context, contentID string) (ranking.VoteAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agg := s.votes[contentID]
	agg.Recent = slices.Clone(agg.Recent)
	return agg, nil
}

// Set replaces the aggregate for a content item.
func (s *InMemoryVoteStore) Set(contentID string, agg ranking.VoteAggregate) {
	agg.Recent = slices.Clone(agg.Recent)
	s.mu.Lock()
	s.votes[contentID] = agg
	s.mu.Unlock()
	if s.dirty != nil {
		s.dirty.MarkDirty(contentID)
	}
}

// Ingest folds one vote into the item's aggregate.
func (s *InMemoryVoteStore) Ingest(_ context.Context, rec ranking.VoteRecord) error {
	s.mu.Lock()
	agg := s.votes[rec.ContentID]
	if err := agg.Apply(rec, s.window); err != nil {
		s.mu.Unlock()
		return err
	}
	s.votes[rec.ContentID] = agg
	s.mu.Unlock()

	if s.dirty != nil {
		s.dirty.MarkDirty(rec.ContentID)
	}
	return nil
}

// InMemoryEngagementStore keeps engagement stats in memory.
type InMemoryEngagementStore struct {
	mu    sync.RWMutex
	stats map[string]ranking.EngagementStats // contentID -> stats
}

// NewInMemoryEngagementStore creates a new in-memory engagement store.
func NewInMemoryEngagementStore() *InMemoryEngagementStore {
	return &InMemoryEngagementStore{
		stats: make(map[string]ranking.EngagementStats),
	}
}

// Stats returns the stats for an item; unknown items yield zero.
func (s *InMemoryEngagementStore) Stats(_ context.Context, contentID string) (ranking.EngagementStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats[contentID], nil
}

// Set replaces the stats for a content item.
func (s *InMemoryEngagementStore) Set(contentID string, stats ranking.EngagementStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[contentID] = stats
}

// InMemoryReputationStore keeps creator reputations in memory.
type InMemoryReputationStore struct {
	mu   sync.RWMutex
	reps map[string]ranking.CreatorReputation // creatorID -> reputation
}

// NewInMemoryReputationStore creates a new in-memory reputation store.
func NewInMemoryReputationStore() *InMemoryReputationStore {
	return &InMemoryReputationStore{
		reps: make(map[string]ranking.CreatorReputation),
	}
}

// Lookup returns a copy of the reputation, or nil when unknown.
func (s *InMemoryReputationStore) Lookup(_ context.Context, creatorID string) (*ranking.CreatorReputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reps[creatorID]
	if !ok {
		return nil, nil
	}
	return &rep, nil
}

// Set replaces the reputation for a creator.
func (s *InMemoryReputationStore) Set(creatorID string, rep ranking.CreatorReputation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reps[creatorID] = rep
}
