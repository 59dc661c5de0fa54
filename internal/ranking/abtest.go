package ranking

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// ABGroup is the weight-perturbation cohort of a content item.
type ABGroup string

// A/B groups.
const (
	GroupControl  ABGroup = "control"
	GroupVariantA ABGroup = "variant_a"
	GroupVariantB ABGroup = "variant_b"
)

var abGroups = []ABGroup{GroupControl, GroupVariantA, GroupVariantB}

// Valid reports whether g is a known group.
func (g ABGroup) Valid() bool {
	switch g {
	case GroupControl, GroupVariantA, GroupVariantB:
		return true
	}
	return false
}

// ParseABGroup converts a string into an ABGroup.
func ParseABGroup(s string) (ABGroup, error) {
	g := ABGroup(normalizeKey(s))
	if !g.Valid() {
		return "", fmt.Errorf("%w: unknown ab group %q", ErrInvalidInput, s)
	}
	return g, nil
}

// AssignGroup deterministically maps a content id onto one of the three
// groups. The first 8 bytes of the SHA-256 digest pick the bucket, so the
// assignment is stable across processes and restarts.
func AssignGroup(contentID string) ABGroup {
	hash := sha256.Sum256([]byte(contentID))
	hashValue := binary.BigEndian.Uint64(hash[:8])
	return abGroups[hashValue%uint64(len(abGroups))]
}

// ResolveGroup returns the group to score contentID under. An explicit,
// valid override wins; with A/B disabled everything is control.
func (c *Config) ResolveGroup(contentID string, override ABGroup) ABGroup {
	if override.Valid() {
		return override
	}
	if !c.AB.Enabled {
		return GroupControl
	}
	return AssignGroup(contentID)
}

// PerturbWeights rescales the vote, engagement and time weights by ratios
// and renormalizes them so their sum is unchanged. Zero ratios (or a zero
// rescaled sum) leave w untouched.
func PerturbWeights(w ModeWeights, r ABRatios) ModeWeights {
	if r == (ABRatios{}) {
		return w
	}
	sum := w.Vote + w.Engagement + w.Time
	out := w
	out.Vote = w.Vote * r.Vote
	out.Engagement = w.Engagement * r.Engagement
	out.Time = w.Time * r.Time
	scaled := out.Vote + out.Engagement + out.Time
	if scaled <= 0 || sum <= 0 {
		return w
	}
	k := sum / scaled
	out.Vote *= k
	out.Engagement *= k
	out.Time *= k
	return out
}
