package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onnwee/gamerank/internal/ranking"
)

func TestRank_NewModeQualityFloor(t *testing.T) {
	f := newFixture()
	e := f.engine(t, nil)

	candidates := []ranking.ContentItem{
		f.add(ranking.ContentItem{ID: "B", CreatedAt: testNow.Add(-time.Hour), QualityScore: 0.25},
			ranking.VoteAggregate{Up: 10}, ranking.EngagementStats{Views: 50}),
		f.add(ranking.ContentItem{ID: "C", CreatedAt: testNow.Add(-time.Hour), QualityScore: 0.35},
			ranking.VoteAggregate{Up: 10}, ranking.EngagementStats{Views: 50}),
	}

	res, err := e.Rank(context.Background(), candidates, RankOptions{Mode: ranking.ModeNew})
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ContentID != "C" {
		t.Fatalf("expected only C to survive the quality floor, got %+v", res.Items)
	}
	if res.Items[0].Rank != 1 || res.TotalCandidates != 1 {
		t.Errorf("unexpected rank metadata: %+v", res)
	}

	// Other modes have no quality floor.
	res, err = e.Rank(context.Background(), candidates, RankOptions{Mode: ranking.ModeHot})
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	if len(res.Items) != 2 {
		t.Errorf("expected both items under hot, got %d", len(res.Items))
	}
}

func TestRank_OrderAndPercentile(t *testing.T) {
	f := newFixture()
	e := f.engine(t, noABConfig())

	var candidates []ranking.ContentItem
	for i, up := range []int64{5, 50, 20, 80} {
		id := string(rune('a' + i))
		candidates = append(candidates, f.add(
			ranking.ContentItem{ID: id, CreatedAt: testNow.Add(-24 * time.Hour)},
			ranking.VoteAggregate{Up: up}, ranking.EngagementStats{}))
	}

	res, err := e.Rank(context.Background(), candidates, RankOptions{Mode: ranking.ModeTop, Limit: 3})
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}

	wantOrder := []string{"d", "b", "c"}
	if len(res.Items) != len(wantOrder) {
		t.Fatalf("expected %d items, got %d", len(wantOrder), len(res.Items))
	}
	for i, id := range wantOrder {
		got := res.Items[i]
		if got.ContentID != id {
			t.Errorf("position %d: got %s, want %s", i, got.ContentID, id)
		}
		if got.Rank != i+1 {
			t.Errorf("position %d: rank %d", i, got.Rank)
		}
		if got.TotalCandidates != 4 {
			t.Errorf("position %d: total %d, want 4", i, got.TotalCandidates)
		}
	}
	if res.Items[0].Percentile != 100 || res.Items[2].Percentile != 50 {
		t.Errorf("unexpected percentiles: %f, %f", res.Items[0].Percentile, res.Items[2].Percentile)
	}
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i].Composite > res.Items[i-1].Composite {
			t.Error("items not in descending composite order")
		}
	}
}

func TestRank_TieBreak(t *testing.T) {
	f := newFixture()
	e := f.engine(t, noABConfig())

	// Past a year the top-mode decay sits at its floor, so items with no
	// votes or engagement share one composite score.
	newer := testNow.Add(-400 * 24 * time.Hour)
	older := testNow.Add(-500 * 24 * time.Hour)

	candidates := []ranking.ContentItem{
		{ID: "c", CreatedAt: newer},
		{ID: "b", CreatedAt: older},
		{ID: "a", CreatedAt: newer},
	}

	res, err := e.Rank(context.Background(), candidates, RankOptions{Mode: ranking.ModeTop})
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(res.Items))
	}
	if res.Items[0].Composite != res.Items[2].Composite {
		t.Fatalf("expected equal composites, got %f and %f", res.Items[0].Composite, res.Items[2].Composite)
	}

	want := []string{"a", "c", "b"}
	for i, id := range want {
		if res.Items[i].ContentID != id {
			t.Errorf("position %d: got %s, want %s", i, res.Items[i].ContentID, id)
		}
	}
}

func TestRank_Filters(t *testing.T) {
	f := newFixture()
	e := f.engine(t, nil)

	candidates := []ranking.ContentItem{
		{ID: "old", CreatedAt: testNow.Add(-72 * time.Hour), Game: "Valorant", Platform: "pc"},
		{ID: "val-pc", CreatedAt: testNow.Add(-2 * time.Hour), Game: "Valorant", Platform: "PC", Tags: []string{"Ranked"}},
		{ID: "val-console", CreatedAt: testNow.Add(-2 * time.Hour), Game: "valorant", Platform: "console"},
		{ID: "fortnite", CreatedAt: testNow.Add(-2 * time.Hour), Game: "Fortnite", Platform: "pc", Tags: []string{"ranked"}},
	}

	tests := []struct {
		name string
		opts RankOptions
		want []string
	}{
		{name: "time window", opts: RankOptions{TimeWindowHours: 24}, want: []string{"fortnite", "val-console", "val-pc"}},
		{name: "game", opts: RankOptions{Game: "VALORANT"}, want: []string{"old", "val-console", "val-pc"}},
		{name: "platform", opts: RankOptions{Platform: "pc", TimeWindowHours: 24}, want: []string{"fortnite", "val-pc"}},
		{name: "tags", opts: RankOptions{Tags: []string{"RANKED", "missing"}}, want: []string{"fortnite", "val-pc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Rank(context.Background(), candidates, tt.opts)
			if err != nil {
				t.Fatalf("Rank() error: %v", err)
			}
			got := make(map[string]bool)
			for _, it := range res.Items {
				got[it.ContentID] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("expected %s in result, got %v", id, got)
				}
			}
		})
	}
}

func TestRank_SkipsInvalidCandidates(t *testing.T) {
	f := newFixture()
	e := f.engine(t, nil)

	candidates := []ranking.ContentItem{
		{ID: "ok", CreatedAt: testNow.Add(-time.Hour)},
		{ID: "", CreatedAt: testNow.Add(-time.Hour)},
		{ID: "future", CreatedAt: testNow.Add(24 * time.Hour)},
		{ID: "bad-type", CreatedAt: testNow.Add(-time.Hour), Type: ranking.ContentType("hologram")},
	}

	res, err := e.Rank(context.Background(), candidates, RankOptions{})
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ContentID != "ok" {
		t.Errorf("expected only the valid item, got %+v", res.Items)
	}
	if res.Skipped != 3 {
		t.Errorf("skipped = %d, want 3", res.Skipped)
	}
	if res.Items[0].Mode != ranking.ModeHot {
		t.Errorf("zero mode should rank as hot, got %s", res.Items[0].Mode)
	}
}

func TestRank_UnknownMode(t *testing.T) {
	f := newFixture()
	e := f.engine(t, nil)

	_, err := e.Rank(context.Background(), nil, RankOptions{Mode: ranking.Mode(42)})
	if !errors.Is(err, ranking.ErrUnknownMode) {
		t.Errorf("Rank() error = %v, want ErrUnknownMode", err)
	}
}

func TestRank_EmptyCandidates(t *testing.T) {
	f := newFixture()
	e := f.engine(t, nil)

	res, err := e.Rank(context.Background(), nil, RankOptions{Mode: ranking.ModeTop})
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	if len(res.Items) != 0 || res.TotalCandidates != 0 {
		t.Errorf("expected empty ranking, got %+v", res)
	}
}
