package ranking

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"
)

// ModeWeights is one row of the mode table.
type ModeWeights struct {
	Vote         float64 `json:"vote"`
	Engagement   float64 `json:"engagement"`
	Time         float64 `json:"time"`
	Controversy  float64 `json:"controversy"`
	QualityFloor float64 `json:"quality_floor"` // zero disables the floor
}

// VoteWeights are the per-kind base weights of the vote signal.
type VoteWeights struct {
	Up    float64 `json:"up"`
	Down  float64 `json:"down"`
	Super float64 `json:"super"`
}

// TokenStep maps an average-tokens-per-vote threshold to a multiplier.
type TokenStep struct {
	MinAverage float64 `json:"min_average"`
	Multiplier float64 `json:"multiplier"`
}

// VelocityConfig configures the vote velocity bonus.
type VelocityConfig struct {
	Threshold float64 `json:"threshold"` // votes per hour
	Bonus     float64 `json:"bonus"`
}

// DiversityConfig configures the voter diversity bonus.
type DiversityConfig struct {
	Buckets int     `json:"buckets"`
	Bonus   float64 `json:"bonus"`
}

// EngagementWeights are the coefficients of the engagement signal.
type EngagementWeights struct {
	Views      float64 `json:"views"`
	Likes      float64 `json:"likes"`
	Comments   float64 `json:"comments"`
	Shares     float64 `json:"shares"`
	Bookmarks  float64 `json:"bookmarks"`
	CTR        float64 `json:"ctr"`
	WatchTime  float64 `json:"watch_time"`
	Completion float64 `json:"completion"`
}

// DecayConfig parameterizes the time-decay curves.
type DecayConfig struct {
	TrendingHours  float64 `json:"trending_hours"`
	HotHours       float64 `json:"hot_hours"`
	DefaultHours   float64 `json:"default_hours"`
	NewWindowHours float64 `json:"new_window_hours"`
	LongTailDays   float64 `json:"long_tail_days"`
	YearDays       float64 `json:"year_days"`
	LongTailFloor  float64 `json:"long_tail_floor"`
	FreshnessHours float64 `json:"freshness_hours"`
	FreshnessBonus float64 `json:"freshness_bonus"`
	Floor          float64 `json:"floor"`
}

// GamingConfig holds the gaming-fit lookup tables.
type GamingConfig struct {
	Weight              float64                 `json:"weight"`
	GamePopularity      map[string]float64      `json:"game_popularity,omitempty"`
	Categories          map[string]float64      `json:"categories,omitempty"`
	SkillLevels         map[string]float64      `json:"skill_levels,omitempty"`
	CompetitiveModes    map[string]float64      `json:"competitive_modes,omitempty"`
	ContentTypes        map[ContentType]float64 `json:"content_types,omitempty"`
	CompetitiveTags     []string                `json:"competitive_tags,omitempty"`
	CompetitiveTagBonus float64                 `json:"competitive_tag_bonus"`
	Floor               float64                 `json:"floor"`
}

// ReputationConfig holds the creator reputation tables.
type ReputationConfig struct {
	ClanStatus          map[ClanStatus]float64      `json:"clan_status,omitempty"`
	Tiers               map[AchievementTier]float64 `json:"tiers,omitempty"`
	GamerscoreThreshold int64                       `json:"gamerscore_threshold"`
	GamerscoreRate      float64                     `json:"gamerscore_rate"`
	GamerscoreCap       float64                     `json:"gamerscore_cap"`
	VerifiedBonus       float64                     `json:"verified_bonus"`
}

// ControversyConfig configures the controversy signal.
type ControversyConfig struct {
	MinVotes int64 `json:"min_votes"`
}

// ABRatios rescale the vote, engagement and time weights for one A/B group.
type ABRatios struct {
	Vote       float64 `json:"vote"`
	Engagement float64 `json:"engagement"`
	Time       float64 `json:"time"`
}

// ABConfig configures deterministic A/B weight perturbation.
type ABConfig struct {
	Enabled  bool                 `json:"enabled"`
	Variants map[ABGroup]ABRatios `json:"variants,omitempty"`
}

// InsightThresholds are the fixed cut-offs used to derive insights.
type InsightThresholds struct {
	VoteHigh         float64 `json:"vote_high"`
	VoteMedium       float64 `json:"vote_medium"`
	EngagementHigh   float64 `json:"engagement_high"`
	EngagementMedium float64 `json:"engagement_medium"`
	FreshHours       float64 `json:"fresh_hours"`
	FreshVotes       float64 `json:"fresh_votes"`
	GamingFit        float64 `json:"gaming_fit"`
	ReputationHigh   float64 `json:"reputation_high"`
	ReputationMedium float64 `json:"reputation_medium"`
	Controversy      float64 `json:"controversy"`
	StaleTime        float64 `json:"stale_time"`
	MaxInsights      int     `json:"max_insights"`
}

// Config is the complete engine parameterization. A *Config handed to the
// engine must not be modified afterwards; use Clone or WithOverlay to derive
// a variant.
type Config struct {
	Version          string               `json:"version"`
	Modes            map[Mode]ModeWeights `json:"modes,omitempty"`
	Votes            VoteWeights          `json:"votes"`
	TokenSteps       []TokenStep          `json:"token_steps,omitempty"`
	Velocity         VelocityConfig       `json:"velocity"`
	Diversity        DiversityConfig      `json:"diversity"`
	Engagement       EngagementWeights    `json:"engagement"`
	Decay            DecayConfig          `json:"decay"`
	Gaming           GamingConfig         `json:"gaming"`
	Reputation       ReputationConfig     `json:"reputation"`
	Controversy      ControversyConfig    `json:"controversy"`
	AB               ABConfig             `json:"ab"`
	Insights         InsightThresholds    `json:"insights"`
	RecentVoteWindow int                  `json:"recent_vote_window"`
	ClockSkew        time.Duration        `json:"-"`
}

// DefaultConfig returns the stock engine configuration.
//
// Mode table (vote / engagement / time / controversy, quality floor):
//   - trending: 0.1 / 0.3 / 0.6 / 0
//   - hot:      0.2 / 0.4 / 0.4 / 0
//   - top:      0.5 / 0.4 / 0.1 / 0
//   - new:      0.1 / 0.1 / 0.8 / 0, floor 0.3
//   - controversial: 0.5 / 0.3 / 0.2 / 0.4
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Modes: map[Mode]ModeWeights{
			ModeTrending:      {Vote: 0.1, Engagement: 0.3, Time: 0.6},
			ModeHot:           {Vote: 0.2, Engagement: 0.4, Time: 0.4},
			ModeTop:           {Vote: 0.5, Engagement: 0.4, Time: 0.1},
			ModeNew:           {Vote: 0.1, Engagement: 0.1, Time: 0.8, QualityFloor: 0.3},
			ModeControversial: {Vote: 0.5, Engagement: 0.3, Time: 0.2, Controversy: 0.4},
		},
		Votes: VoteWeights{Up: 1.0, Down: -0.5, Super: 3.0},
		TokenSteps: []TokenStep{
			{MinAverage: 4, Multiplier: 2.5},
			{MinAverage: 3, Multiplier: 2.0},
			{MinAverage: 2, Multiplier: 1.5},
		},
		Velocity:  VelocityConfig{Threshold: 5, Bonus: 1.3},
		Diversity: DiversityConfig{Buckets: 8, Bonus: 0.2},
		Engagement: EngagementWeights{
			Views:      0.1,
			Likes:      1.0,
			Comments:   2.0,
			Shares:     3.0,
			Bookmarks:  1.5,
			CTR:        5.0,
			WatchTime:  4000,
			Completion: 3.0,
		},
		Decay: DecayConfig{
			TrendingHours:  6,
			HotHours:       12,
			DefaultHours:   24,
			NewWindowHours: 72,
			LongTailDays:   7,
			YearDays:       365,
			LongTailFloor:  0.1,
			FreshnessHours: 2,
			FreshnessBonus: 1.5,
			Floor:          0.01,
		},
		Gaming: GamingConfig{
			Weight: 0.1,
			GamePopularity: map[string]float64{
				"valorant":          1.3,
				"fortnite":          1.2,
				"league of legends": 1.25,
				"counter-strike 2":  1.2,
				"minecraft":         1.15,
				"call of duty":      1.15,
				"apex legends":      1.1,
				"overwatch 2":       1.1,
				"elden ring":        1.1,
				"rocket league":     1.05,
			},
			Categories: map[string]float64{
				"highlights": 1.2,
				"esports":    1.25,
				"tutorial":   1.15,
				"speedrun":   1.15,
				"news":       1.1,
				"review":     1.05,
				"gameplay":   1.0,
				"meme":       0.9,
			},
			SkillLevels: map[string]float64{
				"beginner":     0.9,
				"intermediate": 1.0,
				"advanced":     1.1,
				"pro":          1.25,
			},
			CompetitiveModes: map[string]float64{
				"tournament": 1.3,
				"ranked":     1.15,
				"casual":     0.95,
				"custom":     0.9,
			},
			ContentTypes: map[ContentType]float64{
				ContentStream: 1.3,
				ContentVideo:  1.2,
				ContentImage:  1.0,
				ContentAudio:  0.9,
				ContentDoc:    0.8,
			},
			CompetitiveTags:     []string{"esports", "tournament", "championship", "competitive"},
			CompetitiveTagBonus: 1.3,
			Floor:               0.5,
		},
		Reputation: ReputationConfig{
			ClanStatus: map[ClanStatus]float64{
				ClanMember:   1.0,
				ClanOfficer:  1.1,
				ClanLeader:   1.25,
				ClanFounder:  1.35,
				ClanVerified: 1.5,
			},
			Tiers: map[AchievementTier]float64{
				TierBronze:      1.0,
				TierSilver:      1.05,
				TierGold:        1.1,
				TierPlatinum:    1.15,
				TierDiamond:     1.2,
				TierMaster:      1.25,
				TierGrandmaster: 1.3,
			},
			GamerscoreThreshold: 1000,
			GamerscoreRate:      1e-4,
			GamerscoreCap:       0.5,
			VerifiedBonus:       1.2,
		},
		Controversy: ControversyConfig{MinVotes: 5},
		AB: ABConfig{
			Enabled: true,
			Variants: map[ABGroup]ABRatios{
				GroupControl:  {Vote: 1, Engagement: 1, Time: 1},
				GroupVariantA: {Vote: 1.2, Engagement: 1.0, Time: 0.8},
				GroupVariantB: {Vote: 0.8, Engagement: 1.2, Time: 1.0},
			},
		},
		Insights: InsightThresholds{
			VoteHigh:         50,
			VoteMedium:       10,
			EngagementHigh:   1000,
			EngagementMedium: 100,
			FreshHours:       2,
			FreshVotes:       10,
			GamingFit:        1.5,
			ReputationHigh:   2.5,
			ReputationMedium: 1.5,
			Controversy:      2,
			StaleTime:        0.05,
			MaxInsights:      8,
		},
		RecentVoteWindow: DefaultRecentVoteWindow,
		ClockSkew:        5 * time.Minute,
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	out.Modes = maps.Clone(c.Modes)
	out.TokenSteps = slices.Clone(c.TokenSteps)
	out.Gaming.GamePopularity = maps.Clone(c.Gaming.GamePopularity)
	out.Gaming.Categories = maps.Clone(c.Gaming.Categories)
	out.Gaming.SkillLevels = maps.Clone(c.Gaming.SkillLevels)
	out.Gaming.CompetitiveModes = maps.Clone(c.Gaming.CompetitiveModes)
	out.Gaming.ContentTypes = maps.Clone(c.Gaming.ContentTypes)
	out.Gaming.CompetitiveTags = slices.Clone(c.Gaming.CompetitiveTags)
	out.Reputation.ClanStatus = maps.Clone(c.Reputation.ClanStatus)
	out.Reputation.Tiers = maps.Clone(c.Reputation.Tiers)
	out.AB.Variants = maps.Clone(c.AB.Variants)
	return &out
}

// ModeWeights returns the weight row for m.
func (c *Config) ModeWeights(m Mode) (ModeWeights, error) {
	w, ok := c.Modes[m]
	if !ok {
		return ModeWeights{}, fmt.Errorf("%w: %s", ErrUnknownMode, m)
	}
	return w, nil
}

// Validate checks that every mode is present and that all weights and
// knobs are in range.
func (c *Config) Validate() error {
	var errs []error
	for _, m := range Modes() {
		w, ok := c.Modes[m]
		if !ok {
			errs = append(errs, fmt.Errorf("mode %s: missing weights", m))
			continue
		}
		if w.Vote < 0 || w.Engagement < 0 || w.Time < 0 || w.Controversy < 0 || w.QualityFloor < 0 {
			errs = append(errs, fmt.Errorf("mode %s: weights must be non-negative", m))
		}
	}
	for m := range c.Modes {
		if !m.Valid() {
			errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownMode, int(m)))
		}
	}
	for _, s := range c.TokenSteps {
		if s.MinAverage < 0 || s.Multiplier <= 0 {
			errs = append(errs, fmt.Errorf("token step %+v: threshold must be non-negative and multiplier positive", s))
		}
	}
	if c.Diversity.Buckets <= 0 {
		errs = append(errs, errors.New("diversity buckets must be positive"))
	}
	if c.Decay.TrendingHours <= 0 || c.Decay.HotHours <= 0 || c.Decay.DefaultHours <= 0 ||
		c.Decay.NewWindowHours <= 0 || c.Decay.YearDays <= 0 {
		errs = append(errs, errors.New("decay horizons must be positive"))
	}
	if c.Decay.Floor <= 0 {
		errs = append(errs, errors.New("decay floor must be positive"))
	}
	if c.Gaming.Weight < 0 || c.Gaming.Floor < 0 {
		errs = append(errs, errors.New("gaming weight and floor must be non-negative"))
	}
	for t, mult := range c.Gaming.ContentTypes {
		if mult <= 0 {
			errs = append(errs, fmt.Errorf("content type %s: multiplier must be positive", t))
		}
	}
	for g, r := range c.AB.Variants {
		if r.Vote < 0 || r.Engagement < 0 || r.Time < 0 {
			errs = append(errs, fmt.Errorf("ab group %s: ratios must be non-negative", g))
		}
	}
	if c.RecentVoteWindow <= 0 {
		errs = append(errs, errors.New("recent vote window must be positive"))
	}
	return errors.Join(errs...)
}

// ConfigOverlay is a per-request adjustment applied on top of a shared Config.
type ConfigOverlay struct {
	ContentTypeMultipliers map[ContentType]float64
}

// WithOverlay returns a new Config with the overlay applied. Each content-type
// multiplier is multiplied by the overlay's preference, itself clamped to
// [MinPreference, MaxPreference]. c is not modified.
func (c *Config) WithOverlay(o ConfigOverlay) *Config {
	out := c.Clone()
	if len(o.ContentTypeMultipliers) == 0 {
		return out
	}
	if out.Gaming.ContentTypes == nil {
		out.Gaming.ContentTypes = make(map[ContentType]float64, len(o.ContentTypeMultipliers))
	}
	for t, pref := range o.ContentTypeMultipliers {
		base, ok := out.Gaming.ContentTypes[t]
		if !ok {
			base = 1.0
		}
		out.Gaming.ContentTypes[t] = base * clamp(pref, MinPreference, MaxPreference)
	}
	return out
}

// CalibrationConfig represents the JSON structure of the calibration file.
// Only non-zero values override the defaults.
type CalibrationConfig struct {
	Version string `json:"version"`
	Config  Config `json:"config"`
}

// LoadCalibration loads engine configuration overrides from a JSON file and
// merges them into DefaultConfig. On error the defaults are returned together
// with the error so callers can degrade gracefully.
func LoadCalibration(filePath string) (*Config, error) {
	if filePath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultConfig(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var calibration CalibrationConfig
	if err := json.Unmarshal(data, &calibration); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultConfig(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	merged, overrides := MergeCalibration(DefaultConfig(), &calibration.Config)
	if calibration.Version != "" {
		merged.Version = calibration.Version
	}
	if err := merged.Validate(); err != nil {
		slog.Warn("calibration produced an invalid config, using defaults",
			"path", filePath,
			"error", err)
		return DefaultConfig(), fmt.Errorf("invalid calibration: %w", err)
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"path", filePath,
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)", "path", filePath)
	}
	return merged, nil
}

// MergeCalibration merges override into a copy of base. Only non-zero
// scalars are applied; table entries are merged key by key; a non-empty
// token step list or competitive tag list replaces the base list.
// Returns the merged config and a human-readable list of applied overrides.
func MergeCalibration(base *Config, override *Config) (*Config, []string) {
	if base == nil {
		base = DefaultConfig()
	}
	result := base.Clone()
	if override == nil {
		return result, nil
	}

	m := &merger{}

	for mode, w := range override.Modes {
		cur, ok := result.Modes[mode]
		if !ok {
			cur = ModeWeights{}
		}
		prefix := "modes." + mode.String()
		m.float(prefix+".vote", &cur.Vote, w.Vote)
		m.float(prefix+".engagement", &cur.Engagement, w.Engagement)
		m.float(prefix+".time", &cur.Time, w.Time)
		m.float(prefix+".controversy", &cur.Controversy, w.Controversy)
		m.float(prefix+".quality_floor", &cur.QualityFloor, w.QualityFloor)
		if result.Modes == nil {
			result.Modes = make(map[Mode]ModeWeights)
		}
		result.Modes[mode] = cur
	}

	m.float("votes.up", &result.Votes.Up, override.Votes.Up)
	m.float("votes.down", &result.Votes.Down, override.Votes.Down)
	m.float("votes.super", &result.Votes.Super, override.Votes.Super)

	if len(override.TokenSteps) > 0 {
		steps := slices.Clone(override.TokenSteps)
		slices.SortFunc(steps, func(a, b TokenStep) int {
			// Highest threshold first so the first match wins.
			switch {
			case a.MinAverage > b.MinAverage:
				return -1
			case a.MinAverage < b.MinAverage:
				return 1
			}
			return 0
		})
		result.TokenSteps = steps
		m.note(fmt.Sprintf("token_steps: %d steps", len(steps)))
	}

	m.float("velocity.threshold", &result.Velocity.Threshold, override.Velocity.Threshold)
	m.float("velocity.bonus", &result.Velocity.Bonus, override.Velocity.Bonus)
	m.int("diversity.buckets", &result.Diversity.Buckets, override.Diversity.Buckets)
	m.float("diversity.bonus", &result.Diversity.Bonus, override.Diversity.Bonus)

	e, oe := &result.Engagement, override.Engagement
	m.float("engagement.views", &e.Views, oe.Views)
	m.float("engagement.likes", &e.Likes, oe.Likes)
	m.float("engagement.comments", &e.Comments, oe.Comments)
	m.float("engagement.shares", &e.Shares, oe.Shares)
	m.float("engagement.bookmarks", &e.Bookmarks, oe.Bookmarks)
	m.float("engagement.ctr", &e.CTR, oe.CTR)
	m.float("engagement.watch_time", &e.WatchTime, oe.WatchTime)
	m.float("engagement.completion", &e.Completion, oe.Completion)

	d, od := &result.Decay, override.Decay
	m.float("decay.trending_hours", &d.TrendingHours, od.TrendingHours)
	m.float("decay.hot_hours", &d.HotHours, od.HotHours)
	m.float("decay.default_hours", &d.DefaultHours, od.DefaultHours)
	m.float("decay.new_window_hours", &d.NewWindowHours, od.NewWindowHours)
	m.float("decay.long_tail_days", &d.LongTailDays, od.LongTailDays)
	m.float("decay.year_days", &d.YearDays, od.YearDays)
	m.float("decay.long_tail_floor", &d.LongTailFloor, od.LongTailFloor)
	m.float("decay.freshness_hours", &d.FreshnessHours, od.FreshnessHours)
	m.float("decay.freshness_bonus", &d.FreshnessBonus, od.FreshnessBonus)
	m.float("decay.floor", &d.Floor, od.Floor)

	g, og := &result.Gaming, override.Gaming
	m.float("gaming.weight", &g.Weight, og.Weight)
	m.float("gaming.competitive_tag_bonus", &g.CompetitiveTagBonus, og.CompetitiveTagBonus)
	m.float("gaming.floor", &g.Floor, og.Floor)
	g.GamePopularity = mergeTable(m, "gaming.game_popularity", g.GamePopularity, og.GamePopularity)
	g.Categories = mergeTable(m, "gaming.categories", g.Categories, og.Categories)
	g.SkillLevels = mergeTable(m, "gaming.skill_levels", g.SkillLevels, og.SkillLevels)
	g.CompetitiveModes = mergeTable(m, "gaming.competitive_modes", g.CompetitiveModes, og.CompetitiveModes)
	g.ContentTypes = mergeTable(m, "gaming.content_types", g.ContentTypes, og.ContentTypes)
	if len(og.CompetitiveTags) > 0 {
		g.CompetitiveTags = slices.Clone(og.CompetitiveTags)
		m.note(fmt.Sprintf("gaming.competitive_tags: %v", og.CompetitiveTags))
	}

	r, or := &result.Reputation, override.Reputation
	r.ClanStatus = mergeTable(m, "reputation.clan_status", r.ClanStatus, or.ClanStatus)
	r.Tiers = mergeTable(m, "reputation.tiers", r.Tiers, or.Tiers)
	if or.GamerscoreThreshold != 0 && or.GamerscoreThreshold != r.GamerscoreThreshold {
		m.note(fmt.Sprintf("reputation.gamerscore_threshold: %d -> %d", r.GamerscoreThreshold, or.GamerscoreThreshold))
		r.GamerscoreThreshold = or.GamerscoreThreshold
	}
	m.float("reputation.gamerscore_rate", &r.GamerscoreRate, or.GamerscoreRate)
	m.float("reputation.gamerscore_cap", &r.GamerscoreCap, or.GamerscoreCap)
	m.float("reputation.verified_bonus", &r.VerifiedBonus, or.VerifiedBonus)

	if override.Controversy.MinVotes != 0 && override.Controversy.MinVotes != result.Controversy.MinVotes {
		m.note(fmt.Sprintf("controversy.min_votes: %d -> %d", result.Controversy.MinVotes, override.Controversy.MinVotes))
		result.Controversy.MinVotes = override.Controversy.MinVotes
	}

	// A/B testing can only be switched off through the service config;
	// calibration adjusts the variant ratios.
	for group, ratios := range override.AB.Variants {
		if result.AB.Variants == nil {
			result.AB.Variants = make(map[ABGroup]ABRatios)
		}
		if result.AB.Variants[group] != ratios {
			m.note(fmt.Sprintf("ab.variants.%s: %+v", group, ratios))
			result.AB.Variants[group] = ratios
		}
	}

	m.int("recent_vote_window", &result.RecentVoteWindow, override.RecentVoteWindow)
	m.int("insights.max_insights", &result.Insights.MaxInsights, override.Insights.MaxInsights)

	return result, m.overrides
}

// merger applies non-zero overrides and records what changed.
type merger struct {
	overrides []string
}

func (m *merger) float(name string, dst *float64, v float64) {
	if v == 0 || v == *dst {
		return
	}
	m.overrides = append(m.overrides, fmt.Sprintf("%s: %.4g -> %.4g", name, *dst, v))
	*dst = v
}

func (m *merger) int(name string, dst *int, v int) {
	if v == 0 || v == *dst {
		return
	}
	m.overrides = append(m.overrides, fmt.Sprintf("%s: %d -> %d", name, *dst, v))
	*dst = v
}

func (m *merger) note(s string) {
	m.overrides = append(m.overrides, s)
}

func mergeTable[K comparable](m *merger, name string, dst, src map[K]float64) map[K]float64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[K]float64, len(src))
	}
	for k, v := range src {
		if v == 0 || dst[k] == v {
			continue
		}
		m.overrides = append(m.overrides, fmt.Sprintf("%s.%v: %.4g -> %.4g", name, k, dst[k], v))
		dst[k] = v
	}
	return dst
}
