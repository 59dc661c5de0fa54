package ranking

import (
	"strings"
	"time"
)

// ContentType is the media kind of a content item.
type ContentType string

// Content types.
const (
	ContentVideo  ContentType = "video"
	ContentImage  ContentType = "image"
	ContentDoc    ContentType = "doc"
	ContentAudio  ContentType = "audio"
	ContentStream ContentType = "stream"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case ContentVideo, ContentImage, ContentDoc, ContentAudio, ContentStream:
		return true
	}
	return false
}

// ClanStatus is the creator's standing inside their clan.
type ClanStatus string

// Clan statuses, lowest to highest.
const (
	ClanMember   ClanStatus = "member"
	ClanOfficer  ClanStatus = "officer"
	ClanLeader   ClanStatus = "leader"
	ClanFounder  ClanStatus = "founder"
	ClanVerified ClanStatus = "verified"
)

// AchievementTier is the creator's achievement ladder position.
type AchievementTier string

// Achievement tiers, lowest to highest.
const (
	TierBronze      AchievementTier = "bronze"
	TierSilver      AchievementTier = "silver"
	TierGold        AchievementTier = "gold"
	TierPlatinum    AchievementTier = "platinum"
	TierDiamond     AchievementTier = "diamond"
	TierMaster      AchievementTier = "master"
	TierGrandmaster AchievementTier = "grandmaster"
)

// MaxTags is the number of distinct tags kept on a normalized item.
const MaxTags = 15

// ContentItem is a read-only view of a piece of community content.
type ContentItem struct {
	ID              string        `json:"id"`
	CreatedAt       time.Time     `json:"created_at"`
	Type            ContentType   `json:"content_type"`
	Platform        string        `json:"platform"`
	Category        string        `json:"category"`
	Game            string        `json:"game"`
	Tags            []string      `json:"tags,omitempty"`
	CreatorID       string        `json:"creator_id"`
	Duration        time.Duration `json:"duration,omitempty"` // zero when unknown
	SkillLevel      string        `json:"skill_level,omitempty"`
	CompetitiveMode string        `json:"competitive_mode,omitempty"`
	QualityScore    float64       `json:"quality_score,omitempty"` // precomputed externally, absent means 0
}

// Normalized returns a copy with lowercase game, platform, category and
// a deduplicated, lowercase tag set capped at MaxTags.
func (c ContentItem) Normalized() ContentItem {
	out := c
	out.Game = normalizeKey(c.Game)
	out.Platform = normalizeKey(c.Platform)
	out.Category = normalizeKey(c.Category)
	out.SkillLevel = normalizeKey(c.SkillLevel)
	out.CompetitiveMode = normalizeKey(c.CompetitiveMode)
	out.Type = ContentType(normalizeKey(string(c.Type)))

	if len(c.Tags) > 0 {
		seen := make(map[string]struct{}, len(c.Tags))
		tags := make([]string, 0, min(len(c.Tags), MaxTags))
		for _, tag := range c.Tags {
			tag = normalizeKey(tag)
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
			if len(tags) == MaxTags {
				break
			}
		}
		out.Tags = tags
	}
	return out
}

// Validate checks the item for malformed fields. now and skew bound how far
// in the future CreatedAt may lie.
func (c ContentItem) Validate(now time.Time, skew time.Duration) error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrMissingID
	}
	if c.Type != "" && !c.Type.Valid() {
		return ErrUnknownContentType
	}
	if c.CreatedAt.After(now.Add(skew)) {
		return ErrFutureCreatedAt
	}
	if c.Duration < 0 || c.QualityScore < 0 {
		return ErrNegativeCount
	}
	return nil
}

// Age returns how long ago the item was created. Items stamped slightly in
// the future have age zero.
func (c ContentItem) Age(now time.Time) time.Duration {
	age := now.Sub(c.CreatedAt)
	if age < 0 {
		return 0
	}
	return age
}

// HasTag reports whether the item carries tag (case-insensitive).
func (c ContentItem) HasTag(tag string) bool {
	tag = normalizeKey(tag)
	for _, t := range c.Tags {
		if normalizeKey(t) == tag {
			return true
		}
	}
	return false
}

// RecentVote is one entry of the bounded recent-vote window.
type RecentVote struct {
	VoterID string    `json:"voter_id" cbor:"v"`
	At      time.Time `json:"at" cbor:"t"`
}

// DefaultRecentVoteWindow is the number of recent votes an aggregate retains.
const DefaultRecentVoteWindow = 256

// VoteAggregate is a snapshot of the community votes on one item.
type VoteAggregate struct {
	Up           int64        `json:"upvotes"`
	Down         int64        `json:"downvotes"`
	Super        int64        `json:"super_votes"`
	TokensBurned int64        `json:"total_tokens_burned"`
	Recent       []RecentVote `json:"recent,omitempty"` // newest last
}

// Total returns up + down + super.
func (v VoteAggregate) Total() int64 {
	return v.Up + v.Down + v.Super
}

// Validate checks count signs and the token/super-vote invariant.
func (v VoteAggregate) Validate() error {
	if v.Up < 0 || v.Down < 0 || v.Super < 0 || v.TokensBurned < 0 {
		return ErrNegativeCount
	}
	if v.TokensBurned < v.Super {
		return ErrTokensBelowSuperVotes
	}
	return nil
}

// EngagementStats is a snapshot of telemetry counters for one item.
type EngagementStats struct {
	Views            int64   `json:"views"`
	Likes            int64   `json:"likes"`
	Comments         int64   `json:"comments"`
	Shares           int64   `json:"shares"`
	Bookmarks        int64   `json:"bookmarks"`
	CTR              float64 `json:"ctr"`
	WatchTimeSeconds float64 `json:"watch_time_seconds"`
	CompletionRate   float64 `json:"completion_rate"`
}

// Validate checks count signs and rate bounds.
func (e EngagementStats) Validate() error {
	if e.Views < 0 || e.Likes < 0 || e.Comments < 0 || e.Shares < 0 || e.Bookmarks < 0 || e.WatchTimeSeconds < 0 {
		return ErrNegativeCount
	}
	if e.CTR < 0 || e.CTR > 1 || e.CompletionRate < 0 || e.CompletionRate > 1 {
		return ErrRateOutOfRange
	}
	return nil
}

// CreatorReputation describes the standing of a content creator.
type CreatorReputation struct {
	ClanStatus ClanStatus      `json:"clan_status"`
	Tier       AchievementTier `json:"achievement_tier"`
	Gamerscore int64           `json:"gamerscore"`
	Verified   bool            `json:"verified"`
}

// UserProfile drives personalization. Preference multipliers are clamped to
// [MinPreference, MaxPreference] when applied.
type UserProfile struct {
	UserID                 string                  `json:"user_id"`
	PreferredGames         []string                `json:"preferred_games,omitempty"`
	PreferredPlatforms     []string                `json:"preferred_platforms,omitempty"`
	ContentTypePreferences map[ContentType]float64 `json:"content_type_preferences,omitempty"`
}

// Preference multiplier bounds.
const (
	MinPreference = 0.1
	MaxPreference = 3.0
)

// Signals holds the six extractor outputs for one item.
type Signals struct {
	Vote        float64 `json:"vote"`
	Engagement  float64 `json:"engagement"`
	Time        float64 `json:"time"`
	GamingFit   float64 `json:"gaming_fit"`
	Reputation  float64 `json:"reputation"`
	Controversy float64 `json:"controversy"`
}

// ScoreResult is the scorer output for one item under one mode.
type ScoreResult struct {
	ContentID   string    `json:"content_id"`
	Composite   float64   `json:"composite"`
	Normalized  float64   `json:"normalized"`
	Signals     Signals   `json:"signals"`
	Mode        Mode      `json:"mode"`
	Group       ABGroup   `json:"ab_group"`
	GeneratedAt time.Time `json:"generated_at"`
	Insights    []Insight `json:"insights,omitempty"`
}

// Clone returns a copy that shares no slices with r.
func (r ScoreResult) Clone() ScoreResult {
	out := r
	if r.Insights != nil {
		out.Insights = append([]Insight(nil), r.Insights...)
	}
	return out
}

// HasInsight reports whether r carries an insight with the given kind and category.
func (r ScoreResult) HasInsight(kind InsightKind, category InsightCategory) bool {
	for _, in := range r.Insights {
		if in.Kind == kind && in.Category == category {
			return true
		}
	}
	return false
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
