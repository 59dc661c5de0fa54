package ranking

import "testing"

func TestSimilarity(t *testing.T) {
	base := ContentItem{
		ID:       "E",
		Game:     "valorant",
		Platform: "pc",
		Category: "highlights",
		Tags:     []string{"ace", "clutch"},
	}

	tests := []struct {
		name  string
		other ContentItem
		want  float64
	}{
		{
			name:  "same game, platform and one shared tag",
			other: ContentItem{ID: "F", Game: "valorant", Platform: "pc", Category: "tutorial", Tags: []string{"ace", "aim"}},
			// 0.4 + 0.2 + 0 + 0.2 * 1/3
			want: 0.4 + 0.2 + 0.2/3,
		},
		{
			name:  "same game and platform, half the tags",
			other: ContentItem{ID: "F", Game: "valorant", Platform: "pc", Category: "gameplay", Tags: []string{"clutch"}},
			// 0.4 + 0.2 + 0 + 0.2 * 1/2
			want: 0.7,
		},
		{
			name:  "nothing in common",
			other: ContentItem{ID: "G", Game: "fortnite", Platform: "console", Category: "gameplay"},
			want:  0,
		},
		{
			name:  "case-insensitive match",
			other: ContentItem{ID: "H", Game: "Valorant", Platform: "PC", Category: "Highlights", Tags: []string{"ACE", "Clutch"}},
			want:  1.0,
		},
		{
			name:  "empty fields never match",
			other: ContentItem{ID: "I"},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(base, tt.other)
			if !approxEqual(got, tt.want) {
				t.Errorf("Similarity() = %f, want %f", got, tt.want)
			}
			if back := Similarity(tt.other, base); !approxEqual(back, got) {
				t.Errorf("Similarity is not symmetric: %f vs %f", got, back)
			}
		})
	}
}

func TestSimilarity_EmptyItemsDoNotMatch(t *testing.T) {
	if got := Similarity(ContentItem{ID: "a"}, ContentItem{ID: "b"}); got != 0 {
		t.Errorf("Similarity of two empty items = %f, want 0", got)
	}
}

func TestSimilarity_ExactAtThreshold(t *testing.T) {
	base := ContentItem{ID: "E", Game: "valorant", Platform: "pc", Category: "highlights", Tags: []string{"clutch", "ace"}}

	tests := []struct {
		name  string
		other ContentItem
	}{
		{"platform and half the tags", ContentItem{ID: "K", Game: "fortnite", Platform: "pc", Category: "gameplay", Tags: []string{"clutch"}}},
		{"category and half the tags", ContentItem{ID: "L", Game: "fortnite", Platform: "console", Category: "highlights", Tags: []string{"ace"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Exact equality: callers compare against 0.3 with >.
			if got := Similarity(base, tt.other); got != 0.3 {
				t.Errorf("Similarity() = %v, want exactly 0.3", got)
			}
		})
	}
}
