package main

import (
	"fmt"

	"github.com/onnwee/gamerank/internal/config"
	"github.com/onnwee/gamerank/internal/ranking"
)

// loadEngineConfig builds the engine config from the calibration file and
// applies the service-level knobs. A service knob only overrides the
// calibration when it differs from its service default. On a calibration
// error the returned config is still usable (defaults plus service knobs).
func loadEngineConfig(cfg *config.Config) (*ranking.Config, error) {
	rc, calErr := ranking.LoadCalibration(cfg.CalibrationPath)

	if cfg.DiversityBuckets != config.DefaultDiversityBuckets {
		rc.Diversity.Buckets = cfg.DiversityBuckets
	}
	if cfg.RecentVoteWindow != config.DefaultRecentVoteWindow {
		rc.RecentVoteWindow = cfg.RecentVoteWindow
	}
	if !cfg.ABTestingEnabled {
		rc.AB.Enabled = false
	}

	if err := rc.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return rc, calErr
}
