package ranking

import (
	"fmt"
	"math"
	"time"
)

// Inputs bundles everything the extractors read for one item.
type Inputs struct {
	Item       ContentItem
	Votes      VoteAggregate
	Engagement EngagementStats
	Reputation *CreatorReputation // nil when unknown
	// Degraded lists signal categories whose data could not be loaded and
	// fell back to defaults.
	Degraded []InsightCategory
}

// Extract runs the six signal extractors.
func Extract(in Inputs, mode Mode, now time.Time, cfg *Config) Signals {
	age := in.Item.Age(now)
	return Signals{
		Vote:        VoteSignal(in.Votes, age, cfg),
		Engagement:  EngagementSignal(in.Engagement, in.Item, cfg),
		Time:        TimeDecay(age, mode, cfg),
		GamingFit:   GamingFit(in.Item, cfg),
		Reputation:  ReputationMultiplier(in.Reputation, cfg),
		Controversy: ControversySignal(in.Votes, cfg),
	}
}

// Composite combines signals under a weight row:
//
//	S = (w_vote*V + w_eng*E + w_time*T + w_gaming*G) * R + w_contro*C
func Composite(s Signals, w ModeWeights, gamingWeight float64) float64 {
	base := (w.Vote*s.Vote +
		w.Engagement*s.Engagement +
		w.Time*s.Time +
		gamingWeight*s.GamingFit) * s.Reputation
	return base + w.Controversy*s.Controversy
}

// Normalize maps a composite score onto [0, 100] via ln(S+1)*20.
func Normalize(composite float64) float64 {
	if composite <= 0 {
		return 0
	}
	return clamp(math.Log1p(composite)*20, 0, 100)
}

// Score extracts signals and produces the full result for one item. The
// item is expected to be validated and normalized by the caller.
func Score(in Inputs, mode Mode, group ABGroup, now time.Time, cfg *Config) (ScoreResult, error) {
	w, err := cfg.ModeWeights(mode)
	if err != nil {
		return ScoreResult{}, err
	}
	if !group.Valid() {
		group = GroupControl
	}

	sig := Extract(in, mode, now, cfg)
	composite := Composite(sig, PerturbWeights(w, cfg.AB.Variants[group]), cfg.Gaming.Weight)
	if math.IsNaN(composite) || math.IsInf(composite, 0) || composite < 0 {
		return ScoreResult{}, fmt.Errorf("%w: composite score %v for %s", ErrInternal, composite, in.Item.ID)
	}

	return ScoreResult{
		ContentID:   in.Item.ID,
		Composite:   composite,
		Normalized:  Normalize(composite),
		Signals:     sig,
		Mode:        mode,
		Group:       group,
		GeneratedAt: now,
		Insights:    deriveInsights(sig, in, now, cfg),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
