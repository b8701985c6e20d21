package spectral

import (
	"errors"
	"fmt"
)

// ErrInvalidClusterConfiguration is returned when a cluster count is
// incompatible with the size or connectivity of the data.
var ErrInvalidClusterConfiguration = errors.New("invalid cluster configuration")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidClusterConfiguration, fmt.Sprintf(format, args...))
}
