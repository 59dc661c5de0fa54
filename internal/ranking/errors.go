package ranking

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the engine. Concrete errors wrap one of these.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnknownMode       = errors.New("unknown ranking mode")
	ErrDependencyFailure = errors.New("dependency failure")
	ErrCancelled         = errors.New("cancelled")
	ErrInternal          = errors.New("internal invariant violated")
)

// Validation errors
var (
	ErrMissingID              = fmt.Errorf("%w: missing content id", ErrInvalidInput)
	ErrNegativeCount          = fmt.Errorf("%w: counts must be non-negative", ErrInvalidInput)
	ErrRateOutOfRange         = fmt.Errorf("%w: rate must be between 0.0 and 1.0", ErrInvalidInput)
	ErrFutureCreatedAt        = fmt.Errorf("%w: created_at is in the future", ErrInvalidInput)
	ErrUnknownContentType     = fmt.Errorf("%w: unknown content type", ErrInvalidInput)
	ErrTokensBelowSuperVotes  = fmt.Errorf("%w: total tokens burned below super vote count", ErrInvalidInput)
	ErrSuperVoteWithoutTokens = fmt.Errorf("%w: super vote requires at least one burned token", ErrInvalidInput)
	ErrUnknownVoteKind        = fmt.Errorf("%w: unknown vote kind", ErrInvalidInput)
	ErrContentNotFound        = fmt.Errorf("%w: content not found", ErrInvalidInput)
)
