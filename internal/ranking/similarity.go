package ranking

// Similarity weights in tenths.
const (
	similarityGame     = 4
	similarityPlatform = 2
	similarityCategory = 2
	similarityTags     = 2
)

// Similarity scores how alike two items are:
//
//	0.4*[game] + 0.2*[platform] + 0.2*[category] + 0.2*jaccard(tags)
//
// Comparison is case-insensitive and empty fields never match. The function
// is symmetric. The score is one correctly rounded division of exact
// integers, so values such as 0.3 equal their float literal.
func Similarity(a, b ContentItem) float64 {
	var tenths int
	if matchKey(a.Game, b.Game) {
		tenths += similarityGame
	}
	if matchKey(a.Platform, b.Platform) {
		tenths += similarityPlatform
	}
	if matchKey(a.Category, b.Category) {
		tenths += similarityCategory
	}
	inter, union := tagOverlap(a.Tags, b.Tags)
	return float64(tenths*union+similarityTags*inter) / float64(10*union)
}

func matchKey(a, b string) bool {
	a, b = normalizeKey(a), normalizeKey(b)
	return a != "" && a == b
}

// tagOverlap returns the intersection and union sizes of the normalized tag
// sets. The union is at least 1.
func tagOverlap(a, b []string) (inter, union int) {
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		if t = normalizeKey(t); t != "" {
			setA[t] = struct{}{}
		}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		if t = normalizeKey(t); t != "" {
			setB[t] = struct{}{}
		}
	}

	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union = len(setA) + len(setB) - inter
	if union < 1 {
		union = 1
	}
	return inter, union
}
