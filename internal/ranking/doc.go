// Package ranking provides the signal extractors, scorer and configuration
// of the content ranking engine.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	cfg, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		log.Warn("using default ranking config", "error", err)
//	}
//
//	// Score one item
//	in := ranking.Inputs{
//		Item:       item.Normalized(),
//		Votes:      votes,
//		Engagement: stats,
//		Reputation: rep, // nil when unknown
//	}
//	group := cfg.ResolveGroup(item.ID, "")
//	result, err := ranking.Score(in, ranking.ModeHot, group, time.Now(), cfg)
//
// Signals:
//
// Each extractor (VoteSignal, EngagementSignal, TimeDecay, GamingFit,
// ReputationMultiplier, ControversySignal) is a pure function of its inputs
// and the Config. All return non-negative values. Composite combines them
// under the mode's weight row; Normalize maps the composite onto [0, 100].
//
// Calibration:
//
// LoadCalibration merges a JSON file of non-zero overrides into
// DefaultConfig. A Config is never mutated once handed to the engine;
// per-request adjustments go through WithOverlay, which returns a copy.
package ranking
