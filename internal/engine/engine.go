// Package engine ranks community content. It wires the signal extractors
// and scorer of package ranking to the host's stores, a bounded score cache
// and the ranking, batch and recommendation entry points.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/onnwee/gamerank/internal/ranking"
	"github.com/onnwee/gamerank/internal/scorecache"
)

// Defaults for Options.
const (
	DefaultBatchSize       = 100
	DefaultRankLimit       = 50
	DefaultSimilarLimit    = 10
	DefaultRankConcurrency = 8
)

// Options configures an Engine. Stores left nil contribute neutral values.
type Options struct {
	Content    ContentStore
	Votes      VoteStore
	Engagement EngagementStore
	Reputation ReputationStore

	// Clock supplies the current time. Defaults to the system clock.
	Clock clock.Clock
	// Logger for engine activity. Defaults to slog.Default().
	Logger *slog.Logger
	// Metrics for Prometheus export. Optional.
	Metrics *Metrics

	CacheTTL        time.Duration
	CacheCapacity   int
	BatchSize       int
	RankConcurrency int
}

// ScoreOptions selects how a single item is scored.
type ScoreOptions struct {
	// Mode defaults to hot when zero.
	Mode             ranking.Mode
	ForceRecalculate bool
	// ABGroup overrides the hashed A/B assignment when set.
	ABGroup ranking.ABGroup
}

// snapshot pairs an immutable config with its generation.
type snapshot struct {
	cfg        *ranking.Config
	generation uint64
}

// Engine is safe for concurrent use.
type Engine struct {
	opts  Options
	log   *slog.Logger
	clock clock.Clock
	cache *scorecache.Cache
	perf  perfCounters
	cfg   atomic.Pointer[snapshot]
}

// New creates an engine around cfg. A nil cfg uses ranking.DefaultConfig.
func New(cfg *ranking.Config, opts Options) (*Engine, error) {
	if cfg == nil {
		cfg = ranking.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking config: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.RankConcurrency <= 0 {
		opts.RankConcurrency = DefaultRankConcurrency
	}

	e := &Engine{
		opts:  opts,
		log:   opts.Logger,
		clock: opts.Clock,
		cache: scorecache.New(opts.CacheTTL, opts.CacheCapacity, opts.Clock),
	}
	e.cfg.Store(&snapshot{cfg: cfg.Clone(), generation: 1})
	if opts.Metrics != nil {
		opts.Metrics.SetConfigGeneration(1)
	}
	return e, nil
}

// Config returns the active configuration. It must not be modified.
func (e *Engine) Config() *ranking.Config {
	return e.cfg.Load().cfg
}

// UpdateConfig validates cfg and atomically replaces the active
// configuration. The cache is cleared; builds started under the previous
// configuration store their results under the old generation and are never
// served again.
func (e *Engine) UpdateConfig(cfg *ranking.Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ranking.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ranking.ErrInvalidInput, err)
	}

	var gen uint64
	for {
		cur := e.cfg.Load()
		next := &snapshot{cfg: cfg.Clone(), generation: cur.generation + 1}
		if e.cfg.CompareAndSwap(cur, next) {
			gen = next.generation
			break
		}
	}
	e.cache.Clear()

	if m := e.opts.Metrics; m != nil {
		m.IncConfigUpdates()
		m.SetConfigGeneration(float64(gen))
	}
	e.log.Info("ranking config updated", "generation", gen, "version", cfg.Version)
	return nil
}

// Metrics returns a copy of the performance counters.
func (e *Engine) Metrics() PerfSnapshot {
	s := e.perf.snapshot()
	s.CacheEntries = e.cache.Len()
	s.ConfigGeneration = e.cfg.Load().generation
	return s
}

// Score scores one item, serving from the cache when an unexpired result
// exists for its fingerprint. The item is validated first; stores are
// consulted only on a cache miss.
func (e *Engine) Score(ctx context.Context, item ranking.ContentItem, opts ScoreOptions) (ranking.ScoreResult, error) {
	mode, err := resolveMode(opts.Mode)
	if err != nil {
		return ranking.ScoreResult{}, err
	}
	snap := e.cfg.Load()
	now := e.clock.Now()

	item = item.Normalized()
	if err := item.Validate(now, snap.cfg.ClockSkew); err != nil {
		return ranking.ScoreResult{}, err
	}

	return e.scoreCached(ctx, snap, item.ID, mode, opts, now, func() (ranking.ContentItem, error) {
		return item, nil
	})
}

// ScoreByID scores the item with the given id. The content store is read
// only on a cache miss; a missing item is reported as invalid input.
func (e *Engine) ScoreByID(ctx context.Context, id string, opts ScoreOptions) (ranking.ScoreResult, error) {
	mode, err := resolveMode(opts.Mode)
	if err != nil {
		return ranking.ScoreResult{}, err
	}
	if id == "" {
		return ranking.ScoreResult{}, ranking.ErrMissingID
	}
	snap := e.cfg.Load()
	now := e.clock.Now()

	return e.scoreCached(ctx, snap, id, mode, opts, now, func() (ranking.ContentItem, error) {
		return e.loadItem(ctx, id, now, snap.cfg)
	})
}

func (e *Engine) scoreCached(
	ctx context.Context,
	snap *snapshot,
	id string,
	mode ranking.Mode,
	opts ScoreOptions,
	now time.Time,
	load func() (ranking.ContentItem, error),
) (ranking.ScoreResult, error) {
	group := snap.cfg.ResolveGroup(id, opts.ABGroup)
	fp := scorecache.NewFingerprint(id, mode, group, snap.generation, now)

	// Score calls are not cancellable once started; the build outlives a
	// cancelled caller so that its waiters still get a result.
	buildCtx := context.WithoutCancel(ctx)
	res, hit, err := e.cache.GetOrBuild(fp, opts.ForceRecalculate, func() (ranking.ScoreResult, error) {
		item, err := load()
		if err != nil {
			return ranking.ScoreResult{}, err
		}
		return e.compute(buildCtx, item, mode, group, now, snap.cfg)
	})

	e.perf.recordLookup(hit, e.clock.Now())
	if m := e.opts.Metrics; m != nil {
		if hit {
			m.IncCacheHits()
		} else {
			m.IncCacheMisses()
		}
	}
	return res, err
}

func (e *Engine) loadItem(ctx context.Context, id string, now time.Time, cfg *ranking.Config) (ranking.ContentItem, error) {
	if e.opts.Content == nil {
		return ranking.ContentItem{}, fmt.Errorf("%w: %s", ranking.ErrContentNotFound, id)
	}
	item, err := e.opts.Content.GetContent(ctx, id)
	if err != nil {
		e.log.Warn("content lookup failed", "content_id", id, "error", err)
		return ranking.ContentItem{}, fmt.Errorf("%w: %s: %w", ranking.ErrContentNotFound, id, err)
	}
	if item == nil {
		return ranking.ContentItem{}, fmt.Errorf("%w: %s", ranking.ErrContentNotFound, id)
	}
	normalized := item.Normalized()
	if err := normalized.Validate(now, cfg.ClockSkew); err != nil {
		return ranking.ContentItem{}, err
	}
	return normalized, nil
}

// compute loads the signal inputs and runs the scorer. Store failures are
// recovered here: the affected signal falls back to its neutral value and
// the result carries a warning insight.
func (e *Engine) compute(
	ctx context.Context,
	item ranking.ContentItem,
	mode ranking.Mode,
	group ranking.ABGroup,
	now time.Time,
	cfg *ranking.Config,
) (ranking.ScoreResult, error) {
	start := time.Now()
	in := e.gatherInputs(ctx, item)

	res, err := ranking.Score(in, mode, group, now, cfg)
	if err != nil {
		if errors.Is(err, ranking.ErrInternal) {
			e.log.Error("score invariant violated", "content_id", item.ID, "mode", mode.String(), "error", err)
		}
		return ranking.ScoreResult{}, err
	}

	elapsed := time.Since(start)
	e.perf.recordComputation(elapsed, e.clock.Now())
	if m := e.opts.Metrics; m != nil {
		m.IncComputations()
		m.ObserveComputeDuration(elapsed.Seconds())
	}
	return res, nil
}

func (e *Engine) gatherInputs(ctx context.Context, item ranking.ContentItem) ranking.Inputs {
	in := ranking.Inputs{Item: item}

	if e.opts.Votes != nil {
		votes, err := e.opts.Votes.Aggregate(ctx, item.ID)
		if err == nil {
			err = votes.Validate()
		}
		if err != nil {
			e.degrade(&in, ranking.CategoryVotes, item.ID, err)
		} else {
			in.Votes = votes
		}
	}

	if e.opts.Engagement != nil {
		stats, err := e.opts.Engagement.Stats(ctx, item.ID)
		if err == nil {
			err = stats.Validate()
		}
		if err != nil {
			e.degrade(&in, ranking.CategoryEngagement, item.ID, err)
		} else {
			in.Engagement = stats
		}
	}

	if e.opts.Reputation != nil && item.CreatorID != "" {
		rep, err := e.opts.Reputation.Lookup(ctx, item.CreatorID)
		if err != nil {
			e.degrade(&in, ranking.CategoryReputation, item.ID, err)
		} else {
			in.Reputation = rep
		}
	}
	return in
}

func (e *Engine) degrade(in *ranking.Inputs, cat ranking.InsightCategory, id string, err error) {
	e.log.Warn("signal dependency failed, using defaults",
		"content_id", id,
		"category", string(cat),
		"error", fmt.Errorf("%w: %w", ranking.ErrDependencyFailure, err))
	in.Degraded = append(in.Degraded, cat)
	if m := e.opts.Metrics; m != nil {
		m.IncDegraded(string(cat))
	}
}

func resolveMode(m ranking.Mode) (ranking.Mode, error) {
	if m == 0 {
		return ranking.ModeHot, nil
	}
	if !m.Valid() {
		return 0, fmt.Errorf("%w: %s", ranking.ErrUnknownMode, m)
	}
	return m, nil
}

// yield gives other goroutines a chance to run between batch groups.
func yield() {
	runtime.Gosched()
}
