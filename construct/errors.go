package construct

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lja/store"
)

var (
	// ErrInvalidGranularity is returned for unknown or unsupported
	// target/granularity combinations.
	ErrInvalidGranularity = errors.New("construct: invalid granularity")
	// ErrIndexOutOfRange is returned for layer, feature or target indices
	// outside their valid range.
	ErrIndexOutOfRange = errors.New("construct: index out of range")
	// ErrProfileLookup is returned when a profile cannot be mapped to the
	// previous layer.
	ErrProfileLookup = errors.New("construct: profile lookup failed")
	// ErrDimensionMismatch is returned when candidate and read vectors
	// cannot be compared or combined.
	ErrDimensionMismatch = errors.New("construct: dimension mismatch")
)

// FeatureError reports a failed construction together with the feature it
// was constructing.
//
// The underlying error can be accessed via errors.Unwrap.
type FeatureError struct {
	Key   store.FeatureKey
	cause error
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("construct feature (%s): %v", e.Key, e.cause)
}

func (e *FeatureError) Unwrap() error { return e.cause }

func outOfRange(what string, i, n int) error {
	return fmt.Errorf("%w: %s %d not in [0, %d)", ErrIndexOutOfRange, what, i, n)
}
