package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/onnwee/gamerank/internal/store"
)

// seedStores loads the seed file at path into targets. An empty path leaves
// the stores empty. A seed that cannot be read or fails validation stops
// startup.
func seedStores(path string, targets store.SeedTargets, now time.Time, skew time.Duration, logger *slog.Logger) error {
	if path == "" {
		logger.Info("no seed file configured, stores start empty")
		return nil
	}
	seed, err := store.LoadSeed(path)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	counts, err := seed.Apply(targets, now, skew)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	if targets.Votes == nil && len(seed.Votes) > 0 {
		logger.Warn("seed votes skipped, votes are served by redis", "count", len(seed.Votes))
	}
	logger.Info("seeded stores",
		"path", path,
		"content", counts.Content,
		"engagement", counts.Engagement,
		"reputation", counts.Reputation,
		"votes", counts.Votes)
	return nil
}
