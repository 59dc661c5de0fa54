package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/onnwee/gamerank/internal/ranking"
)

// DirtyTracker tracks which content items have new votes or telemetry and
// should be rescored. Thread-safe via RWMutex.
type DirtyTracker struct {
	mu         sync.RWMutex
	clock      clock.Clock
	dirtyFlags map[string]time.Time // contentID -> time marked dirty
}

// NewDirtyTracker creates a new DirtyTracker instance stamping marks with
// clk. A nil clk uses the system clock.
func NewDirtyTracker(clk clock.Clock) *DirtyTracker {
	if clk == nil {
		clk = clock.New()
	}
	return &DirtyTracker{
		clock:      clk,
		dirtyFlags: make(map[string]time.Time),
	}
}

// MarkDirty marks a content item as needing a rescore.
func (t *DirtyTracker) MarkDirty(contentID string) {
	now := t.clock.Now()
	t.mu.Lock()
	t.dirtyFlags[contentID] = now
	t.mu.Unlock()
}

// DirtySince returns when contentID was last marked dirty.
func (t *DirtyTracker) DirtySince(contentID string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	at, ok := t.dirtyFlags[contentID]
	return at, ok
}

// ClearDirty removes the dirty flag for a content item.
func (t *DirtyTracker) ClearDirty(contentID string) {
	t.mu.Lock()
	delete(t.dirtyFlags, contentID)
	t.mu.Unlock()
}

// DirtyIDs returns the ids currently marked dirty.
func (t *DirtyTracker) DirtyIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.dirtyFlags))
	for id := range t.dirtyFlags {
		ids = append(ids, id)
	}
	return ids
}

// IsDirty checks if a content item is marked dirty.
func (t *DirtyTracker) IsDirty(contentID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.dirtyFlags[contentID]
	return exists
}

// DirtyCount returns the number of items marked dirty.
func (t *DirtyTracker) DirtyCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.dirtyFlags)
}

// JobMetrics provides centralized background job metrics tracking.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// JobTypeScoreRefresh labels the refresh job in JobMetrics.
const JobTypeScoreRefresh = "score_refresh"

// RefreshJobConfig configures the score refresh job.
type RefreshJobConfig struct {
	// Interval is the duration between refresh cycles.
	Interval time.Duration
	// Timeout for each refresh cycle.
	Timeout time.Duration
	// Modes to rescore dirty items under. Defaults to every mode.
	Modes []ranking.Mode
	// Logger for job activity.
	Logger *slog.Logger
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
}

// Default refresh job timings.
const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultRefreshTimeout  = 30 * time.Second
)

// RefreshJob periodically force-rescores dirty content so the cache holds
// fresh results before the time bucket rolls over.
type RefreshJob struct {
	config  RefreshJobConfig
	tracker *DirtyTracker
	engine  *Engine

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefreshJob creates a new score refresh job.
func NewRefreshJob(config RefreshJobConfig, tracker *DirtyTracker, engine *Engine) *RefreshJob {
	if config.Interval == 0 {
		config.Interval = DefaultRefreshInterval
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRefreshTimeout
	}
	if len(config.Modes) == 0 {
		config.Modes = ranking.Modes()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RefreshJob{
		config:  config,
		tracker: tracker,
		engine:  engine,
	}
}

// Start begins the periodic refresh job.
// Returns immediately; the job runs in a background goroutine.
func (j *RefreshJob) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
}

// Stop signals the refresh job to stop and waits for it to finish.
func (j *RefreshJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *RefreshJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *RefreshJob) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("score refresh job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("score refresh job stopping due to stop signal")
			return
		case <-ticker.C:
			j.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce rescores every dirty item under the configured modes and
// returns how many items were refreshed. Items that fail stay dirty.
func (j *RefreshJob) RefreshOnce(parentCtx context.Context) int {
	ids := j.tracker.DirtyIDs()
	if len(ids) == 0 {
		return 0
	}

	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	startTime := time.Now()
	var refreshed int

	for i, id := range ids {
		if ctx.Err() != nil {
			j.config.Logger.Error("score refresh timeout exceeded",
				"processed", i,
				"total", len(ids),
				"timeout", j.config.Timeout)
			j.finish(JobStatusFailure, "timeout", startTime)
			return refreshed
		}

		var failed bool
		for _, mode := range j.config.Modes {
			if _, err := j.engine.ScoreByID(ctx, id, ScoreOptions{Mode: mode, ForceRecalculate: true}); err != nil {
				j.config.Logger.Error("failed to refresh score",
					"content_id", id,
					"mode", mode.String(),
					"error", err)
				if j.config.JobMetrics != nil {
					j.config.JobMetrics.IncJobErrors(JobTypeScoreRefresh, "score_error")
				}
				failed = true
				break
			}
		}
		if failed {
			continue
		}
		j.tracker.ClearDirty(id)
		refreshed++
	}

	status := JobStatusSuccess
	if refreshed < len(ids) {
		status = JobStatusFailure
	}
	j.finish(status, "", startTime)

	j.config.Logger.Info("score refresh completed",
		"duration_seconds", time.Since(startTime).Seconds(),
		"items_refreshed", refreshed,
		"items_failed", len(ids)-refreshed)
	return refreshed
}

// Job completion statuses.
const (
	JobStatusSuccess = "success"
	JobStatusFailure = "failure"
)

func (j *RefreshJob) finish(status, errorType string, start time.Time) {
	if j.config.JobMetrics == nil {
		return
	}
	if errorType != "" {
		j.config.JobMetrics.IncJobErrors(JobTypeScoreRefresh, errorType)
	}
	j.config.JobMetrics.IncJobsTotal(JobTypeScoreRefresh, status)
	j.config.JobMetrics.ObserveJobDuration(JobTypeScoreRefresh, time.Since(start).Seconds())
}
