package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/onnwee/gamerank/internal/ranking"
	"github.com/onnwee/gamerank/internal/store"
)

type recordingJobMetrics struct {
	mu     sync.Mutex
	totals map[string]int
	errors map[string]int
	runs   int
}

func newRecordingJobMetrics() *recordingJobMetrics {
	return &recordingJobMetrics{totals: map[string]int{}, errors: map[string]int{}}
}

func (m *recordingJobMetrics) IncJobsTotal(jobType, status string) {
	m.mu.Lock()
	m.totals[jobType+"/"+status]++
	m.mu.Unlock()
}

func (m *recordingJobMetrics) ObserveJobDuration(string, float64) {
	m.mu.Lock()
	m.runs++
	m.mu.Unlock()
}

func (m *recordingJobMetrics) IncJobErrors(jobType, errorType string) {
	m.mu.Lock()
	m.errors[jobType+"/"+errorType]++
	m.mu.Unlock()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDirtyTracker(t *testing.T) {
	tracker := NewDirtyTracker(nil)

	if tracker.IsDirty("a") {
		t.Error("new tracker should have no dirty items")
	}

	tracker.MarkDirty("a")
	tracker.MarkDirty("b")
	tracker.MarkDirty("a")

	if tracker.DirtyCount() != 2 {
		t.Errorf("DirtyCount() = %d, want 2", tracker.DirtyCount())
	}
	if !tracker.IsDirty("a") || !tracker.IsDirty("b") {
		t.Error("expected a and b to be dirty")
	}

	tracker.ClearDirty("a")
	if tracker.IsDirty("a") {
		t.Error("a should not be dirty after ClearDirty")
	}
	if ids := tracker.DirtyIDs(); len(ids) != 1 || ids[0] != "b" {
		t.Errorf("DirtyIDs() = %v, want [b]", ids)
	}
}

func TestDirtyTracker_StampsWithInjectedClock(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(testNow)
	tracker := NewDirtyTracker(clk)

	if _, ok := tracker.DirtySince("a"); ok {
		t.Error("unmarked item should have no timestamp")
	}

	tracker.MarkDirty("a")
	if at, ok := tracker.DirtySince("a"); !ok || !at.Equal(testNow) {
		t.Errorf("DirtySince() = %v, %v, want %v", at, ok, testNow)
	}

	clk.Add(90 * time.Second)
	tracker.MarkDirty("a")
	want := testNow.Add(90 * time.Second)
	if at, _ := tracker.DirtySince("a"); !at.Equal(want) {
		t.Errorf("re-marked DirtySince() = %v, want %v", at, want)
	}

	tracker.ClearDirty("a")
	if _, ok := tracker.DirtySince("a"); ok {
		t.Error("cleared item should have no timestamp")
	}
}

func TestDirtyTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewDirtyTracker(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%10))
			tracker.MarkDirty(id)
			_ = tracker.IsDirty(id)
			_ = tracker.DirtyIDs()
		}(i)
	}
	wg.Wait()

	if tracker.DirtyCount() != 10 {
		t.Errorf("DirtyCount() = %d, want 10", tracker.DirtyCount())
	}
}

func TestRefreshJob_StartStop(t *testing.T) {
	f := newFixture()
	e := f.engine(t, nil)

	job := NewRefreshJob(RefreshJobConfig{
		Interval: 100 * time.Millisecond,
		Logger:   quietLogger(),
	}, NewDirtyTracker(nil), e)

	if job.IsRunning() {
		t.Error("job should not be running before Start")
	}

	ctx := context.Background()
	job.Start(ctx)
	if !job.IsRunning() {
		t.Error("job should be running after Start")
	}

	// Starting again should be safe.
	job.Start(ctx)

	job.Stop()
	if job.IsRunning() {
		t.Error("job should not be running after Stop")
	}

	// Stopping again should be safe.
	job.Stop()
}

func TestRefreshJob_RefreshesDirtyItems(t *testing.T) {
	f := newFixture()
	tracker := NewDirtyTracker(nil)
	f.votes = store.NewInMemoryVoteStore(0, tracker)
	e := f.engine(t, nil)
	ctx := context.Background()

	f.add(ranking.ContentItem{ID: "a", CreatedAt: testNow.Add(-3 * time.Hour)},
		ranking.VoteAggregate{Up: 5}, ranking.EngagementStats{})
	f.add(ranking.ContentItem{ID: "b", CreatedAt: testNow.Add(-3 * time.Hour)},
		ranking.VoteAggregate{Up: 5}, ranking.EngagementStats{})

	before, err := e.ScoreByID(ctx, "a", ScoreOptions{Mode: ranking.ModeTop})
	if err != nil {
		t.Fatal(err)
	}
	tracker.ClearDirty("a")
	tracker.ClearDirty("b")

	if err := f.votes.Ingest(ctx, ranking.VoteRecord{
		ContentID:    "a",
		VoterID:      "v1",
		Kind:         ranking.VoteSuper,
		TokensBurned: 4,
		At:           testNow,
	}); err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if !tracker.IsDirty("a") || tracker.IsDirty("b") {
		t.Fatal("ingest should mark only a dirty")
	}

	metrics := newRecordingJobMetrics()
	job := NewRefreshJob(RefreshJobConfig{
		Modes:      []ranking.Mode{ranking.ModeTop},
		Logger:     quietLogger(),
		JobMetrics: metrics,
	}, tracker, e)

	if n := job.RefreshOnce(ctx); n != 1 {
		t.Fatalf("RefreshOnce() = %d, want 1", n)
	}
	if tracker.DirtyCount() != 0 {
		t.Error("refreshed items should be cleared")
	}

	// The refreshed result is served from the cache without a forced build.
	computations := e.Metrics().TotalComputations
	after, err := e.ScoreByID(ctx, "a", ScoreOptions{Mode: ranking.ModeTop})
	if err != nil {
		t.Fatal(err)
	}
	if e.Metrics().TotalComputations != computations {
		t.Error("expected a cache hit after refresh")
	}
	if after.Composite <= before.Composite {
		t.Errorf("refreshed score %f should exceed %f after a super vote", after.Composite, before.Composite)
	}

	if metrics.totals[JobTypeScoreRefresh+"/"+JobStatusSuccess] != 1 || metrics.runs != 1 {
		t.Errorf("unexpected job metrics: %+v", metrics.totals)
	}

	// Nothing dirty: no run is recorded.
	if n := job.RefreshOnce(ctx); n != 0 {
		t.Errorf("RefreshOnce() with nothing dirty = %d, want 0", n)
	}
	if metrics.runs != 1 {
		t.Error("an idle refresh should not record a run")
	}
}

func TestRefreshJob_MissingItemStaysDirty(t *testing.T) {
	f := newFixture()
	e := f.engine(t, nil)
	tracker := NewDirtyTracker(nil)
	tracker.MarkDirty("ghost")

	metrics := newRecordingJobMetrics()
	job := NewRefreshJob(RefreshJobConfig{Logger: quietLogger(), JobMetrics: metrics}, tracker, e)

	if n := job.RefreshOnce(context.Background()); n != 0 {
		t.Errorf("RefreshOnce() = %d, want 0", n)
	}
	if !tracker.IsDirty("ghost") {
		t.Error("failed items should stay dirty")
	}
	if metrics.errors[JobTypeScoreRefresh+"/score_error"] != 1 {
		t.Errorf("expected one score error, got %+v", metrics.errors)
	}
	if metrics.totals[JobTypeScoreRefresh+"/"+JobStatusFailure] != 1 {
		t.Errorf("expected a failure status, got %+v", metrics.totals)
	}
}
