package ranking

import (
	"strings"
	"time"
)

// VoteKind is the direction of a single vote.
type VoteKind string

// Vote kinds.
const (
	VoteUp    VoteKind = "up"
	VoteDown  VoteKind = "down"
	VoteSuper VoteKind = "super"
)

// ParseVoteKind converts a string into a VoteKind.
func ParseVoteKind(s string) (VoteKind, error) {
	switch k := VoteKind(strings.ToLower(strings.TrimSpace(s))); k {
	case VoteUp, VoteDown, VoteSuper:
		return k, nil
	}
	return "", ErrUnknownVoteKind
}

// VoteRecord is one attested vote. TokensBurned is trusted as given.
type VoteRecord struct {
	ContentID    string    `json:"content_id"`
	VoterID      string    `json:"voter_id"`
	Kind         VoteKind  `json:"kind"`
	TokensBurned int64     `json:"tokens_burned"`
	At           time.Time `json:"timestamp"`
}

// Validate checks the record before it is folded into an aggregate.
func (r VoteRecord) Validate() error {
	if strings.TrimSpace(r.ContentID) == "" {
		return ErrMissingID
	}
	if r.TokensBurned < 0 {
		return ErrNegativeCount
	}
	switch r.Kind {
	case VoteUp, VoteDown:
	case VoteSuper:
		if r.TokensBurned < 1 {
			return ErrSuperVoteWithoutTokens
		}
	default:
		return ErrUnknownVoteKind
	}
	return nil
}

// Apply folds rec into the aggregate. The recent window keeps the newest
// window entries; window <= 0 uses DefaultRecentVoteWindow.
func (v *VoteAggregate) Apply(rec VoteRecord, window int) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if window <= 0 {
		window = DefaultRecentVoteWindow
	}

	switch rec.Kind {
	case VoteUp:
		v.Up++
	case VoteDown:
		v.Down++
	case VoteSuper:
		v.Super++
	}
	v.TokensBurned += rec.TokensBurned

	v.Recent = append(v.Recent, RecentVote{VoterID: rec.VoterID, At: rec.At})
	if over := len(v.Recent) - window; over > 0 {
		v.Recent = append([]RecentVote(nil), v.Recent[over:]...)
	}
	return nil
}

// RecentVelocity returns the votes per hour recorded in the recent window
// during the span ending at now.
func RecentVelocity(recent []RecentVote, now time.Time, span time.Duration) float64 {
	if span <= 0 || len(recent) == 0 {
		return 0
	}
	cutoff := now.Add(-span)
	var count int
	for _, rv := range recent {
		if !rv.At.Before(cutoff) && !rv.At.After(now) {
			count++
		}
	}
	return float64(count) / span.Hours()
}
