package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/gamerank/internal/ranking"
	"github.com/onnwee/gamerank/internal/tracing"
)

// Redis hash fields of a vote aggregate.
const (
	fieldUp     = "up"
	fieldDown   = "down"
	fieldSuper  = "super"
	fieldTokens = "tokens"
)

// DefaultKeyPrefix namespaces every key written by RedisVoteStore.
const DefaultKeyPrefix = "gamerank:votes:"

var recentEncMode, _ = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()

// RedisVoteStore keeps vote aggregates in Redis: a hash of counters per item
// plus a capped list of CBOR-encoded recent votes, newest at the head.
type RedisVoteStore struct {
	client redis.Cmdable
	prefix string
	window int
	dirty  DirtyMarker
	logger *slog.Logger
}

// RedisVoteStoreConfig configures a RedisVoteStore.
type RedisVoteStoreConfig struct {
	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string
	// Window caps the recent-vote list. Defaults to ranking.DefaultRecentVoteWindow.
	Window int
	// Dirty is notified after each ingested vote. Optional.
	Dirty DirtyMarker
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewRedisVoteStore creates a Redis-backed vote store.
func NewRedisVoteStore(client redis.Cmdable, cfg RedisVoteStoreConfig) *RedisVoteStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Window <= 0 {
		cfg.Window = ranking.DefaultRecentVoteWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RedisVoteStore{
		client: client,
		prefix: cfg.KeyPrefix,
		window: cfg.Window,
		dirty:  cfg.Dirty,
		logger: cfg.Logger,
	}
}

func (s *RedisVoteStore) countsKey(contentID string) string {
	return s.prefix + contentID
}

func (s *RedisVoteStore) recentKey(contentID string) string {
	return s.prefix + contentID + ":recent"
}

// Aggregate reads the counters and recent window in one round trip.
// Unknown items yield a zero aggregate.
func (s *RedisVoteStore) Aggregate(ctx context.Context, contentID string) (agg ranking.VoteAggregate, err error) {
	ctx, endSpan := tracing.StartStoreSpan(ctx, "redis", s.countsKey(contentID), tracing.StoreOperationRead)
	defer func() { endSpan(err) }()

	pipe := s.client.Pipeline()
	countsCmd := pipe.HGetAll(ctx, s.countsKey(contentID))
	recentCmd := pipe.LRange(ctx, s.recentKey(contentID), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return ranking.VoteAggregate{}, fmt.Errorf("read votes for %s: %w", contentID, err)
	}

	counts := countsCmd.Val()
	for field, dst := range map[string]*int64{
		fieldUp:     &agg.Up,
		fieldDown:   &agg.Down,
		fieldSuper:  &agg.Super,
		fieldTokens: &agg.TokensBurned,
	} {
		raw, ok := counts[field]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ranking.VoteAggregate{}, fmt.Errorf("parse %s counter for %s: %w", field, contentID, err)
		}
		*dst = n
	}

	entries := recentCmd.Val()
	agg.Recent = make([]ranking.RecentVote, 0, len(entries))
	for _, raw := range entries {
		var rv ranking.RecentVote
		if err := cbor.Unmarshal([]byte(raw), &rv); err != nil {
			s.logger.Warn("dropping undecodable recent vote", "content_id", contentID, "error", err)
			continue
		}
		agg.Recent = append(agg.Recent, rv)
	}
	// Stored newest first; aggregates keep newest last.
	slices.Reverse(agg.Recent)
	return agg, nil
}

// Ingest validates rec and folds it into Redis atomically.
func (s *RedisVoteStore) Ingest(ctx context.Context, rec ranking.VoteRecord) (err error) {
	if err := rec.Validate(); err != nil {
		return err
	}
	ctx, endSpan := tracing.StartStoreSpan(ctx, "redis", s.countsKey(rec.ContentID), tracing.StoreOperationWrite)
	defer func() { endSpan(err) }()

	entry, err := recentEncMode.Marshal(ranking.RecentVote{VoterID: rec.VoterID, At: rec.At})
	if err != nil {
		return fmt.Errorf("encode recent vote: %w", err)
	}

	var field string
	switch rec.Kind {
	case ranking.VoteUp:
		field = fieldUp
	case ranking.VoteDown:
		field = fieldDown
	case ranking.VoteSuper:
		field = fieldSuper
	}

	counts := s.countsKey(rec.ContentID)
	recent := s.recentKey(rec.ContentID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, counts, field, 1)
		if rec.TokensBurned > 0 {
			pipe.HIncrBy(ctx, counts, fieldTokens, rec.TokensBurned)
		}
		pipe.LPush(ctx, recent, entry)
		pipe.LTrim(ctx, recent, 0, int64(s.window-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("ingest vote for %s: %w", rec.ContentID, err)
	}

	if s.dirty != nil {
		s.dirty.MarkDirty(rec.ContentID)
	}
	return nil
}

// Delete removes every key of a content item.
func (s *RedisVoteStore) Delete(ctx context.Context, contentID string) (err error) {
	ctx, endSpan := tracing.StartStoreSpan(ctx, "redis", s.countsKey(contentID), tracing.StoreOperationDelete)
	defer func() { endSpan(err) }()
	return s.client.Del(ctx, s.countsKey(contentID), s.recentKey(contentID)).Err()
}
