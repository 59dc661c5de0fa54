package ranking

import (
	"fmt"
	"time"
)

// InsightKind classifies an insight.
type InsightKind string

// Insight kinds.
const (
	InsightPositive InsightKind = "positive"
	InsightTrending InsightKind = "trending"
	InsightWarning  InsightKind = "warning"
)

// InsightCategory names the signal an insight refers to.
type InsightCategory string

// Insight categories.
const (
	CategoryVotes      InsightCategory = "votes"
	CategoryEngagement InsightCategory = "engagement"
	CategoryTime       InsightCategory = "time"
	CategoryGaming     InsightCategory = "gaming"
	CategoryReputation InsightCategory = "reputation"
)

// Impact grades how strongly an insight affects the score.
type Impact string

// Impact levels.
const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Insight is a derived, human-readable explanation attached to a score.
type Insight struct {
	Kind     InsightKind     `json:"kind"`
	Category InsightCategory `json:"category"`
	Impact   Impact          `json:"impact"`
	Message  string          `json:"message,omitempty"`
}

// deriveInsights applies the fixed thresholds to the extracted signals.
// Degradation warnings come first so truncation never drops them.
func deriveInsights(sig Signals, in Inputs, now time.Time, cfg *Config) []Insight {
	th := cfg.Insights
	hours := in.Item.Age(now).Hours()
	var out []Insight

	for _, cat := range in.Degraded {
		out = append(out, Insight{
			Kind:     InsightWarning,
			Category: cat,
			Impact:   ImpactLow,
			Message:  fmt.Sprintf("%s data unavailable, using defaults", cat),
		})
	}

	switch {
	case sig.Vote > th.VoteHigh:
		out = append(out, Insight{InsightPositive, CategoryVotes, ImpactHigh, "strong community vote support"})
	case sig.Vote > th.VoteMedium:
		out = append(out, Insight{InsightPositive, CategoryVotes, ImpactMedium, "solid community vote support"})
	}

	if hours < th.FreshHours && sig.Vote > th.FreshVotes {
		out = append(out, Insight{InsightTrending, CategoryTime, ImpactHigh, "gaining votes quickly after publishing"})
	}

	if RecentVelocity(in.Votes.Recent, now, time.Hour) > cfg.Velocity.Threshold {
		out = append(out, Insight{InsightTrending, CategoryVotes, ImpactMedium, "vote velocity above threshold in the last hour"})
	}

	switch {
	case sig.Engagement > th.EngagementHigh:
		out = append(out, Insight{InsightPositive, CategoryEngagement, ImpactHigh, "high audience engagement"})
	case sig.Engagement > th.EngagementMedium:
		out = append(out, Insight{InsightPositive, CategoryEngagement, ImpactMedium, "good audience engagement"})
	}

	if sig.GamingFit > th.GamingFit {
		out = append(out, Insight{InsightPositive, CategoryGaming, ImpactMedium, "popular game and competitive fit"})
	}

	switch {
	case sig.Reputation > th.ReputationHigh:
		out = append(out, Insight{InsightPositive, CategoryReputation, ImpactHigh, "highly reputed creator"})
	case sig.Reputation > th.ReputationMedium:
		out = append(out, Insight{InsightPositive, CategoryReputation, ImpactMedium, "reputed creator"})
	}

	if sig.Controversy > th.Controversy {
		out = append(out, Insight{InsightWarning, CategoryVotes, ImpactMedium, "community is split on this item"})
	}

	if sig.Time < th.StaleTime {
		out = append(out, Insight{InsightWarning, CategoryTime, ImpactLow, "content is stale for this mode"})
	}

	if th.MaxInsights > 0 && len(out) > th.MaxInsights {
		out = out[:th.MaxInsights]
	}
	return out
}
