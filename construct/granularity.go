package construct

import "fmt"

// Target is the universe target indices refer to.
type Target int

const (
	// BySample targets individual samples.
	BySample Target = iota
	// ByProfile targets distinct profiles.
	ByProfile
)

func (t Target) String() string {
	switch t {
	case BySample:
		return "sample"
	case ByProfile:
		return "profile"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// ParseTarget parses "sample" or "profile".
func ParseTarget(s string) (Target, error) {
	switch s {
	case "sample":
		return BySample, nil
	case "profile":
		return ByProfile, nil
	default:
		return 0, fmt.Errorf("%w: unknown target %q", ErrInvalidGranularity, s)
	}
}

// Granularity selects which write vectors serve as candidates.
type Granularity int

const (
	// Sample uses the write vectors of a sample directly.
	Sample Granularity = iota
	// Profile uses the centroids of the clusters of a profile.
	Profile
)

func (g Granularity) String() string {
	switch g {
	case Sample:
		return "sample"
	case Profile:
		return "profile"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity parses "sample" or "profile".
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "sample":
		return Sample, nil
	case "profile":
		return Profile, nil
	default:
		return 0, fmt.Errorf("%w: unknown granularity %q", ErrInvalidGranularity, s)
	}
}

// Supported reports whether g is available for target t. Samples support
// both granularities; profiles only the profile granularity.
func Supported(t Target, g Granularity) bool {
	switch t {
	case BySample:
		return g == Sample || g == Profile
	case ByProfile:
		return g == Profile
	default:
		return false
	}
}
