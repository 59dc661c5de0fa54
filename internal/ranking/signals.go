package ranking

import (
	"math"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
)

// TokenMultiplier returns the step multiplier for the average tokens burned
// per vote. No votes or no tokens yields 1.
func TokenMultiplier(votes, tokens int64, steps []TokenStep) float64 {
	if votes <= 0 || tokens <= 0 {
		return 1.0
	}
	avg := float64(tokens) / float64(votes)
	for _, s := range steps {
		if avg >= s.MinAverage {
			return s.Multiplier
		}
	}
	return 1.0
}

// VoteVelocity returns votes per hour over the item's lifetime, with the
// lifetime floored at one hour.
func VoteVelocity(votes int64, age time.Duration) float64 {
	return float64(votes) / math.Max(1, age.Hours())
}

// VoterDiversity estimates how many distinct voter cohorts appear in the
// recent window. Voter ids are hashed into buckets; the result is the
// fraction of buckets hit, in [0, 1].
func VoterDiversity(recent []RecentVote, buckets int) float64 {
	if buckets <= 0 || len(recent) == 0 {
		return 0
	}
	hit := make([]bool, buckets)
	var distinct int
	for _, rv := range recent {
		if rv.VoterID == "" {
			continue
		}
		b := xxhash.Sum64String(rv.VoterID) % uint64(buckets)
		if !hit[b] {
			hit[b] = true
			distinct++
		}
	}
	return float64(distinct) / float64(buckets)
}

// VoteSignal computes the token-weighted vote score.
//
// Formula: max(0, (up*w_up + down*w_down + super*w_super) * token_multiplier
// * velocity_bonus * (1 + diversity_bonus*diversity))
func VoteSignal(v VoteAggregate, age time.Duration, cfg *Config) float64 {
	score := float64(v.Up)*cfg.Votes.Up +
		float64(v.Down)*cfg.Votes.Down +
		float64(v.Super)*cfg.Votes.Super

	n := v.Total()
	score *= TokenMultiplier(n, v.TokensBurned, cfg.TokenSteps)

	if VoteVelocity(n, age) > cfg.Velocity.Threshold {
		score *= cfg.Velocity.Bonus
	}

	score *= 1 + cfg.Diversity.Bonus*VoterDiversity(v.Recent, cfg.Diversity.Buckets)

	return math.Max(0, score)
}

// EngagementSignal computes the weighted engagement score. Watch time and
// completion only count for videos.
func EngagementSignal(e EngagementStats, item ContentItem, cfg *Config) float64 {
	w := cfg.Engagement
	score := float64(e.Views)*w.Views +
		float64(e.Likes)*w.Likes +
		float64(e.Comments)*w.Comments +
		float64(e.Shares)*w.Shares +
		float64(e.Bookmarks)*w.Bookmarks +
		e.CTR*w.CTR

	if item.Type == ContentVideo {
		potential := math.Max(1, float64(e.Views)*item.Duration.Seconds())
		score += w.WatchTime * (e.WatchTimeSeconds / potential)
		score += w.Completion * e.CompletionRate
	}

	interactions := float64(e.Likes + e.Comments + e.Shares)
	score *= 1 + interactions/math.Max(1, float64(e.Views))

	return math.Max(0, score)
}

// TimeDecay computes the mode-specific freshness score.
//
//   - trending: exp(-h/6)
//   - hot:      exp(-h/12)
//   - new:      max(0, 1 - h/72)
//   - top, or older than a week: max(0.1, 1 - d/365)
//   - otherwise: exp(-h/24)
//
// Items younger than two hours get a 1.5x freshness bonus; the result is
// floored at 0.01.
func TimeDecay(age time.Duration, mode Mode, cfg *Config) float64 {
	d := cfg.Decay
	hours := age.Hours()
	days := hours / 24

	var score float64
	switch {
	case mode == ModeTrending:
		score = math.Exp(-hours / d.TrendingHours)
	case mode == ModeHot:
		score = math.Exp(-hours / d.HotHours)
	case mode == ModeNew:
		score = math.Max(0, 1-hours/d.NewWindowHours)
	case mode == ModeTop || days > d.LongTailDays:
		score = math.Max(d.LongTailFloor, 1-days/d.YearDays)
	default:
		score = math.Exp(-hours / d.DefaultHours)
	}

	if hours < d.FreshnessHours {
		score *= d.FreshnessBonus
	}
	return math.Max(d.Floor, score)
}

// GamingFit multiplies the known lookup-table factors for the item's game,
// category, skill level, competitive mode and content type. Competitive tags
// add a flat bonus. Unknown keys are neutral.
func GamingFit(item ContentItem, cfg *Config) float64 {
	g := cfg.Gaming
	score := 1.0

	if m, ok := g.GamePopularity[item.Game]; ok {
		score *= m
	}
	if m, ok := g.Categories[item.Category]; ok {
		score *= m
	}
	if m, ok := g.SkillLevels[item.SkillLevel]; ok {
		score *= m
	}
	if m, ok := g.CompetitiveModes[item.CompetitiveMode]; ok {
		score *= m
	}
	if m, ok := g.ContentTypes[item.Type]; ok {
		score *= m
	}

	for _, tag := range item.Tags {
		if slices.Contains(g.CompetitiveTags, normalizeKey(tag)) {
			score *= g.CompetitiveTagBonus
			break
		}
	}

	return math.Max(g.Floor, score)
}

// ReputationMultiplier computes the creator reputation factor. A nil
// reputation is neutral.
func ReputationMultiplier(rep *CreatorReputation, cfg *Config) float64 {
	if rep == nil {
		return 1.0
	}
	r := cfg.Reputation
	score := 1.0

	if m, ok := r.ClanStatus[rep.ClanStatus]; ok {
		score *= m
	}
	if m, ok := r.Tiers[rep.Tier]; ok {
		score *= m
	}

	var bonus float64
	if rep.Gamerscore > r.GamerscoreThreshold {
		bonus += math.Min(r.GamerscoreCap, float64(rep.Gamerscore)*r.GamerscoreRate)
	}
	score *= 1 + bonus

	if rep.Verified {
		score *= r.VerifiedBonus
	}
	return score
}

// ControversySignal rewards items whose up/down split is close to even.
// Fewer than MinVotes up+down votes yields 0.
//
// Formula: (1 - |up/(up+down) - 0.5| * 2) * ln(up + down + 1)
func ControversySignal(v VoteAggregate, cfg *Config) float64 {
	total := v.Up + v.Down
	if total < cfg.Controversy.MinVotes || total <= 0 {
		return 0
	}
	ratio := float64(v.Up) / float64(total)
	balance := 1 - math.Abs(ratio-0.5)*2
	return math.Max(0, balance*math.Log(float64(total)+1))
}
