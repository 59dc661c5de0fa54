package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/gamerank/internal/ranking"
	"github.com/onnwee/gamerank/internal/tracing"
)

// RankOptions selects and filters the candidates of a ranking.
type RankOptions struct {
	// Mode defaults to hot when zero.
	Mode ranking.Mode
	// Limit defaults to DefaultRankLimit when zero or negative.
	Limit int
	// TimeWindowHours rejects items created earlier than now minus the
	// window. Zero disables the filter.
	TimeWindowHours float64
	// Game and Platform keep only matching items when set.
	Game     string
	Platform string
	// Tags keeps items carrying at least one of the tags when set.
	Tags []string
}

// Ranked is one entry of a ranking.
type Ranked struct {
	ranking.ScoreResult
	Rank            int     `json:"rank"`
	TotalCandidates int     `json:"total_candidates"`
	Percentile      float64 `json:"percentile"`
}

// RankResult is an ordered ranking.
type RankResult struct {
	Items []Ranked `json:"items"`
	// TotalCandidates is the number of items that were scored.
	TotalCandidates int `json:"total_candidates"`
	// Skipped counts candidates rejected as invalid input.
	Skipped int `json:"skipped"`
}

// Rank filters, scores and orders candidates. Ties on composite score are
// broken by newer created_at, then by ascending content id. Invalid
// candidates are skipped and counted rather than failing the ranking.
func (e *Engine) Rank(ctx context.Context, candidates []ranking.ContentItem, opts RankOptions) (result RankResult, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "engine.rank")
	defer func() { endSpan(err) }()

	mode, err := resolveMode(opts.Mode)
	if err != nil {
		return RankResult{}, err
	}
	snap := e.cfg.Load()
	if m := e.opts.Metrics; m != nil {
		m.IncRankRequests(mode.String())
	}
	tracing.SetAttributes(ctx,
		attribute.String("rank.mode", mode.String()),
		attribute.Int("rank.candidates", len(candidates)))

	return e.rank(ctx, snap, candidates, mode, opts, true)
}

// rank runs the shared ranking pipeline. useCache is false for rankings
// under a per-request config, whose results must not leak into the shared
// cache.
func (e *Engine) rank(
	ctx context.Context,
	snap *snapshot,
	candidates []ranking.ContentItem,
	mode ranking.Mode,
	opts RankOptions,
	useCache bool,
) (RankResult, error) {
	now := e.clock.Now()
	cfg := snap.cfg
	weights, err := cfg.ModeWeights(mode)
	if err != nil {
		return RankResult{}, err
	}

	var out RankResult
	survivors := make([]ranking.ContentItem, 0, len(candidates))
	for _, c := range candidates {
		item := c.Normalized()
		if err := item.Validate(now, cfg.ClockSkew); err != nil {
			out.Skipped++
			e.log.Debug("skipping invalid rank candidate", "content_id", item.ID, "error", err)
			continue
		}
		if !matchesRankFilters(item, opts, now) {
			continue
		}
		if weights.QualityFloor > 0 && item.QualityScore < weights.QualityFloor {
			continue
		}
		survivors = append(survivors, item)
	}

	scored := make([]ranking.ScoreResult, len(survivors))
	ok := make([]bool, len(survivors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.RankConcurrency)
	for i, item := range survivors {
		g.Go(func() error {
			var (
				res ranking.ScoreResult
				err error
			)
			if useCache {
				res, err = e.scoreCached(gctx, snap, item.ID, mode, ScoreOptions{Mode: mode}, now,
					func() (ranking.ContentItem, error) { return item, nil })
			} else {
				group := cfg.ResolveGroup(item.ID, "")
				res, err = e.compute(gctx, item, mode, group, now, cfg)
			}
			switch {
			case err == nil:
				scored[i], ok[i] = res, true
				return nil
			case errors.Is(err, ranking.ErrInvalidInput):
				e.log.Debug("skipping unscorable rank candidate", "content_id", item.ID, "error", err)
				return nil
			default:
				return fmt.Errorf("score %s: %w", item.ID, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return RankResult{}, err
	}

	type entry struct {
		res       ranking.ScoreResult
		createdAt time.Time
	}
	entries := make([]entry, 0, len(survivors))
	for i := range survivors {
		if !ok[i] {
			out.Skipped++
			continue
		}
		entries = append(entries, entry{res: scored[i], createdAt: survivors[i].CreatedAt})
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(b.res.Composite, a.res.Composite); c != 0 {
			return c
		}
		if c := b.createdAt.Compare(a.createdAt); c != 0 {
			return c
		}
		return cmp.Compare(a.res.ContentID, b.res.ContentID)
	})

	total := len(entries)
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultRankLimit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	out.TotalCandidates = total
	out.Items = make([]Ranked, len(entries))
	for i, en := range entries {
		rank := i + 1
		out.Items[i] = Ranked{
			ScoreResult:     en.res,
			Rank:            rank,
			TotalCandidates: total,
			Percentile:      float64(total-rank+1) / float64(total) * 100,
		}
	}
	return out, nil
}

func matchesRankFilters(item ranking.ContentItem, opts RankOptions, now time.Time) bool {
	if opts.TimeWindowHours > 0 {
		window := time.Duration(opts.TimeWindowHours * float64(time.Hour))
		if item.CreatedAt.Before(now.Add(-window)) {
			return false
		}
	}
	if opts.Game != "" && !equalFold(item.Game, opts.Game) {
		return false
	}
	if opts.Platform != "" && !equalFold(item.Platform, opts.Platform) {
		return false
	}
	if len(opts.Tags) > 0 && !slices.ContainsFunc(opts.Tags, item.HasTag) {
		return false
	}
	return true
}
