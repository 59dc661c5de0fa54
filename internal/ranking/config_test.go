package ranking

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// TestDefaultConfig verifies the default mode table.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	want := map[Mode]ModeWeights{
		ModeTrending:      {Vote: 0.1, Engagement: 0.3, Time: 0.6},
		ModeHot:           {Vote: 0.2, Engagement: 0.4, Time: 0.4},
		ModeTop:           {Vote: 0.5, Engagement: 0.4, Time: 0.1},
		ModeNew:           {Vote: 0.1, Engagement: 0.1, Time: 0.8, QualityFloor: 0.3},
		ModeControversial: {Vote: 0.5, Engagement: 0.3, Time: 0.2, Controversy: 0.4},
	}
	for m, w := range want {
		if got := cfg.Modes[m]; got != w {
			t.Errorf("mode %s: got %+v, want %+v", m, got, w)
		}
	}
	if cfg.Gaming.Weight != 0.1 {
		t.Errorf("expected gaming weight 0.1, got %f", cfg.Gaming.Weight)
	}
	if cfg.RecentVoteWindow != DefaultRecentVoteWindow {
		t.Errorf("expected recent vote window %d, got %d", DefaultRecentVoteWindow, cfg.RecentVoteWindow)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{
			name:   "missing mode",
			mutate: func(c *Config) { delete(c.Modes, ModeHot) },
			substr: "mode hot: missing weights",
		},
		{
			name:   "negative weight",
			mutate: func(c *Config) { c.Modes[ModeTop] = ModeWeights{Vote: -1} },
			substr: "non-negative",
		},
		{
			name:   "zero diversity buckets",
			mutate: func(c *Config) { c.Diversity.Buckets = 0 },
			substr: "diversity buckets",
		},
		{
			name:   "zero decay floor",
			mutate: func(c *Config) { c.Decay.Floor = 0 },
			substr: "decay floor",
		},
		{
			name:   "zero content type multiplier",
			mutate: func(c *Config) { c.Gaming.ContentTypes[ContentDoc] = 0 },
			substr: "content type doc",
		},
		{
			name:   "unknown mode key",
			mutate: func(c *Config) { c.Modes[Mode(99)] = ModeWeights{} },
			substr: "unknown ranking mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not mention %q", err, tt.substr)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(strings.ToUpper(m.String()))
		if err != nil {
			t.Errorf("ParseMode(%q) error: %v", m, err)
		}
		if got != m {
			t.Errorf("ParseMode(%q) = %v, want %v", m, got, m)
		}
	}

	if _, err := ParseMode("viral"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("ParseMode(viral) error = %v, want ErrUnknownMode", err)
	}
}

// TestLoadCalibration_EmptyPath tests loading with empty file path.
func TestLoadCalibration_EmptyPath(t *testing.T) {
	cfg, err := LoadCalibration("")
	if err != nil {
		t.Errorf("expected no error with empty path, got: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Error("should return defaults when path is empty")
	}
}

// TestLoadCalibration_NonExistentFile tests loading a non-existent file.
func TestLoadCalibration_NonExistentFile(t *testing.T) {
	cfg, err := LoadCalibration("/nonexistent/path/to/file.json")
	if err == nil {
		t.Error("expected error when file doesn't exist")
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Error("should return defaults when file doesn't exist")
	}
}

// TestLoadCalibration_CustomWeights tests loading partial overrides.
func TestLoadCalibration_CustomWeights(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "custom.json")
	data := `{
  "version": "2.0",
  "config": {
    "modes": {"hot": {"vote": 0.3}},
    "gaming": {"game_popularity": {"deadlock": 1.4}},
    "token_steps": [
      {"min_average": 2, "multiplier": 1.2},
      {"min_average": 5, "multiplier": 3.0}
    ]
  }
}`
	if err := os.WriteFile(tmpFile, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := LoadCalibration(tmpFile)
	if err != nil {
		t.Fatalf("expected no error loading custom file, got: %v", err)
	}

	if cfg.Version != "2.0" {
		t.Errorf("expected version 2.0, got %q", cfg.Version)
	}
	hot := cfg.Modes[ModeHot]
	if hot.Vote != 0.3 {
		t.Errorf("expected hot vote 0.3, got %f", hot.Vote)
	}
	if hot.Engagement != 0.4 || hot.Time != 0.4 {
		t.Errorf("expected hot engagement/time unchanged, got %+v", hot)
	}
	if cfg.Gaming.GamePopularity["deadlock"] != 1.4 {
		t.Errorf("expected deadlock popularity 1.4, got %f", cfg.Gaming.GamePopularity["deadlock"])
	}
	if cfg.Gaming.GamePopularity["valorant"] != 1.3 {
		t.Error("existing table entries should survive a partial override")
	}
	if len(cfg.TokenSteps) != 2 || cfg.TokenSteps[0].MinAverage != 5 {
		t.Errorf("expected token steps sorted highest first, got %+v", cfg.TokenSteps)
	}
}

// TestLoadCalibration_InvalidJSON tests loading invalid JSON.
func TestLoadCalibration_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "invalid.json")
	if err := os.WriteFile(tmpFile, []byte("{invalid json}"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := LoadCalibration(tmpFile)
	if err == nil {
		t.Error("expected error when JSON is invalid")
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Error("should return defaults when JSON is invalid")
	}
}

func TestLoadCalibration_UnknownMode(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "mode.json")
	if err := os.WriteFile(tmpFile, []byte(`{"config":{"modes":{"viral":{"vote":1}}}}`), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	if _, err := LoadCalibration(tmpFile); err == nil {
		t.Error("expected error for unknown mode key")
	}
}

// TestMergeCalibration tests merging overrides with defaults.
func TestMergeCalibration(t *testing.T) {
	base := DefaultConfig()

	tests := []struct {
		name      string
		override  *Config
		overrides int
		validate  func(*testing.T, *Config)
	}{
		{
			name:      "nil override",
			override:  nil,
			overrides: 0,
			validate: func(t *testing.T, result *Config) {
				if !reflect.DeepEqual(result, base) {
					t.Error("nil override should return a copy of base")
				}
			},
		},
		{
			name:      "zero values do not override",
			override:  &Config{Velocity: VelocityConfig{Bonus: 1.6}},
			overrides: 1,
			validate: func(t *testing.T, result *Config) {
				if result.Velocity.Bonus != 1.6 {
					t.Errorf("expected velocity bonus 1.6, got %f", result.Velocity.Bonus)
				}
				if result.Velocity.Threshold != 5 {
					t.Errorf("expected velocity threshold unchanged at 5, got %f", result.Velocity.Threshold)
				}
			},
		},
		{
			name: "reputation and controversy",
			override: &Config{
				Reputation:  ReputationConfig{Tiers: map[AchievementTier]float64{TierGold: 1.15}, GamerscoreThreshold: 2000},
				Controversy: ControversyConfig{MinVotes: 10},
			},
			overrides: 3,
			validate: func(t *testing.T, result *Config) {
				if result.Reputation.Tiers[TierGold] != 1.15 {
					t.Errorf("expected gold 1.15, got %f", result.Reputation.Tiers[TierGold])
				}
				if result.Reputation.GamerscoreThreshold != 2000 {
					t.Errorf("expected threshold 2000, got %d", result.Reputation.GamerscoreThreshold)
				}
				if result.Controversy.MinVotes != 10 {
					t.Errorf("expected min votes 10, got %d", result.Controversy.MinVotes)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, overrides := MergeCalibration(base, tt.override)
			if len(overrides) != tt.overrides {
				t.Errorf("expected %d overrides, got %d: %v", tt.overrides, len(overrides), overrides)
			}
			tt.validate(t, result)
		})
	}

	if !reflect.DeepEqual(base, DefaultConfig()) {
		t.Error("MergeCalibration must not modify base")
	}
}

func TestWithOverlay(t *testing.T) {
	base := DefaultConfig()

	overlaid := base.WithOverlay(ConfigOverlay{ContentTypeMultipliers: map[ContentType]float64{
		ContentVideo: 2.0,
		ContentDoc:   50,  // clamped to 3.0
		ContentAudio: 0.0, // clamped to 0.1
	}})

	if !reflect.DeepEqual(base, DefaultConfig()) {
		t.Fatal("WithOverlay must not modify the receiver")
	}

	tests := []struct {
		ct   ContentType
		want float64
	}{
		{ContentVideo, 1.2 * 2.0},
		{ContentDoc, 0.8 * MaxPreference},
		{ContentAudio, 0.9 * MinPreference},
		{ContentImage, 1.0},
	}
	for _, tt := range tests {
		if got := overlaid.Gaming.ContentTypes[tt.ct]; !approxEqual(got, tt.want) {
			t.Errorf("%s multiplier = %f, want %f", tt.ct, got, tt.want)
		}
	}
}

func TestConfigClone_IsDeep(t *testing.T) {
	base := DefaultConfig()
	clone := base.Clone()
	clone.Modes[ModeHot] = ModeWeights{}
	clone.Gaming.GamePopularity["valorant"] = 9
	clone.TokenSteps[0].Multiplier = 9
	clone.AB.Variants[GroupControl] = ABRatios{}

	if !reflect.DeepEqual(base, DefaultConfig()) {
		t.Error("mutating a clone changed the original")
	}
}
