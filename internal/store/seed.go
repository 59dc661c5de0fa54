package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/onnwee/gamerank/internal/ranking"
)

// Seed is the startup data set for the in-memory stores. Engagement and
// votes are keyed by content id, reputations by creator id.
type Seed struct {
	Content    []ranking.ContentItem                `json:"content"`
	Engagement map[string]ranking.EngagementStats   `json:"engagement,omitempty"`
	Reputation map[string]ranking.CreatorReputation `json:"reputation,omitempty"`
	Votes      map[string]ranking.VoteAggregate     `json:"votes,omitempty"`
}

// SeedTargets are the stores a Seed is applied to. Votes may be nil when
// votes live in an external store; seeded aggregates are then skipped.
type SeedTargets struct {
	Content    *InMemoryContentStore
	Engagement *InMemoryEngagementStore
	Reputation *InMemoryReputationStore
	Votes      interface {
		Set(contentID string, agg ranking.VoteAggregate)
	}
}

// SeedCounts reports how many records Apply wrote per store.
type SeedCounts struct {
	Content    int
	Engagement int
	Reputation int
	Votes      int
}

// LoadSeed reads a seed file. An empty path yields an empty seed.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return &Seed{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// Validate checks every record. now and skew bound content timestamps the
// same way the engine does.
func (s *Seed) Validate(now time.Time, skew time.Duration) error {
	seen := make(map[string]struct{}, len(s.Content))
	for i, item := range s.Content {
		if err := item.Validate(now, skew); err != nil {
			return fmt.Errorf("content[%d] %q: %w", i, item.ID, err)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("content[%d]: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	for id, stats := range s.Engagement {
		if err := stats.Validate(); err != nil {
			return fmt.Errorf("engagement %q: %w", id, err)
		}
	}
	for id, agg := range s.Votes {
		if err := agg.Validate(); err != nil {
			return fmt.Errorf("votes %q: %w", id, err)
		}
	}
	return nil
}

// Apply validates the seed and writes it into targets. Nothing is written
// when validation fails.
func (s *Seed) Apply(targets SeedTargets, now time.Time, skew time.Duration) (SeedCounts, error) {
	var counts SeedCounts
	if err := s.Validate(now, skew); err != nil {
		return counts, err
	}

	if targets.Content != nil {
		for _, item := range s.Content {
			targets.Content.Put(item)
			counts.Content++
		}
	}
	if targets.Engagement != nil {
		for id, stats := range s.Engagement {
			targets.Engagement.Set(id, stats)
			counts.Engagement++
		}
	}
	if targets.Reputation != nil {
		for id, rep := range s.Reputation {
			targets.Reputation.Set(id, rep)
			counts.Reputation++
		}
	}
	if targets.Votes != nil {
		for id, agg := range s.Votes {
			targets.Votes.Set(id, agg)
			counts.Votes++
		}
	}
	return counts, nil
}
