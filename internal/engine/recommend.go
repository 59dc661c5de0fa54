package engine

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/gamerank/internal/ranking"
	"github.com/onnwee/gamerank/internal/tracing"
)

// SimilarItem pairs a candidate with its similarity to the base item.
type SimilarItem struct {
	Item       ranking.ContentItem `json:"item"`
	Similarity float64             `json:"similarity"`
}

// minSimilarity is the exclusive lower bound for similar items.
const minSimilarity = 0.3

// RecommendPersonal ranks candidates for one user. Candidates outside the
// profile's preferred games and platforms are dropped, and the user's
// content-type preferences scale the gaming multipliers of a private config
// copy. These rankings bypass the shared cache.
func (e *Engine) RecommendPersonal(
	ctx context.Context,
	profile ranking.UserProfile,
	candidates []ranking.ContentItem,
	opts RankOptions,
) (result RankResult, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "engine.recommend_personal")
	defer func() { endSpan(err) }()

	mode, err := resolveMode(opts.Mode)
	if err != nil {
		return RankResult{}, err
	}
	tracing.SetAttributes(ctx,
		attribute.String("rank.mode", mode.String()),
		attribute.String("user.id", profile.UserID))

	filtered := make([]ranking.ContentItem, 0, len(candidates))
	for _, c := range candidates {
		if len(profile.PreferredGames) > 0 && !containsFold(profile.PreferredGames, c.Game) {
			continue
		}
		if len(profile.PreferredPlatforms) > 0 && !containsFold(profile.PreferredPlatforms, c.Platform) {
			continue
		}
		filtered = append(filtered, c)
	}

	snap := e.cfg.Load()
	personal := &snapshot{
		cfg: snap.cfg.WithOverlay(ranking.ConfigOverlay{
			ContentTypeMultipliers: profile.ContentTypePreferences,
		}),
		generation: snap.generation,
	}
	return e.rank(ctx, personal, filtered, mode, opts, false)
}

// RecommendSimilar returns candidates whose similarity to base exceeds 0.3,
// most similar first. The base item itself is never returned. A
// non-positive limit uses DefaultSimilarLimit.
func (e *Engine) RecommendSimilar(base ranking.ContentItem, candidates []ranking.ContentItem, limit int) []SimilarItem {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	out := make([]SimilarItem, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == base.ID {
			continue
		}
		if sim := ranking.Similarity(base, c); sim > minSimilarity {
			out = append(out, SimilarItem{Item: c, Similarity: sim})
		}
	}

	slices.SortFunc(out, func(a, b SimilarItem) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.Item.ID, b.Item.ID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func containsFold(set []string, v string) bool {
	return slices.ContainsFunc(set, func(s string) bool { return equalFold(s, v) })
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
