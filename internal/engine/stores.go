package engine

import (
	"context"

	"github.com/onnwee/gamerank/internal/ranking"
)

// ContentStore resolves content items by id.
type ContentStore interface {
	// GetContent returns the item, or nil with a nil error when it does not exist.
	GetContent(ctx context.Context, id string) (*ranking.ContentItem, error)
}

// VoteStore provides vote aggregates.
type VoteStore interface {
	// Aggregate returns the vote snapshot for a content item. Unknown items
	// yield a zero aggregate.
	Aggregate(ctx context.Context, contentID string) (ranking.VoteAggregate, error)
}

// EngagementStore provides engagement telemetry.
type EngagementStore interface {
	// Stats returns the engagement snapshot for a content item. Unknown items
	// yield zero stats.
	Stats(ctx context.Context, contentID string) (ranking.EngagementStats, error)
}

// ReputationStore provides creator reputation.
type ReputationStore interface {
	// Lookup returns the creator's reputation, or nil when unknown.
	Lookup(ctx context.Context, creatorID string) (*ranking.CreatorReputation, error)
}
