package construct

import (
	"fmt"

	"github.com/hupe1980/lja/profile"
)

// Strategy selects candidate write vectors and maps targets between layers.
// Both operations are defined for layer >= 1 and read layer-1 data.
type Strategy interface {
	Target() Target
	Granularity() Granularity
	// Validate fails with ErrIndexOutOfRange if target is not a valid
	// index at layer.
	Validate(layer, target int) error
	// Candidates returns the write vectors, one per source dimension,
	// used to approximate read vectors of layer for target.
	Candidates(layer, target int) ([][]float64, error)
	// Propagate returns the target index for the recursion into layer-1.
	Propagate(layer, target int) (int, error)
}

// NewStrategy returns the strategy for target t at granularity g.
func NewStrategy(d *Data, t Target, g Granularity) (Strategy, error) {
	if !Supported(t, g) {
		return nil, fmt.Errorf("%w: %s is not available by %s", ErrInvalidGranularity, g, t)
	}
	switch {
	case t == BySample && g == Sample:
		return &sampleStrategy{data: d}, nil
	case t == BySample && g == Profile:
		return &sampleProfileStrategy{data: d}, nil
	default:
		return &profileStrategy{data: d}, nil
	}
}

// sampleStrategy uses the write vectors of the sample itself.
type sampleStrategy struct {
	data *Data
}

func (s *sampleStrategy) Target() Target           { return BySample }
func (s *sampleStrategy) Granularity() Granularity { return Sample }

func (s *sampleStrategy) Validate(layer, target int) error {
	_, err := s.data.WriteVectors(layer-1, target)
	return err
}

func (s *sampleStrategy) Candidates(layer, target int) ([][]float64, error) {
	return s.data.WriteVectors(layer-1, target)
}

func (s *sampleStrategy) Propagate(_, target int) (int, error) { return target, nil }

// sampleProfileStrategy uses, per dimension, the centroid of the cluster
// the sample was assigned to.
type sampleProfileStrategy struct {
	data *Data
}

func (s *sampleProfileStrategy) Target() Target           { return BySample }
func (s *sampleProfileStrategy) Granularity() Granularity { return Profile }

func (s *sampleProfileStrategy) Validate(layer, target int) error {
	c, err := s.data.Clusters(layer - 1)
	if err != nil {
		return err
	}
	if target < 0 || target >= len(c.Labels) {
		return fmt.Errorf("layer %d: %w", layer-1, outOfRange("sample", target, len(c.Labels)))
	}
	return nil
}

func (s *sampleProfileStrategy) Candidates(layer, target int) ([][]float64, error) {
	if err := s.Validate(layer, target); err != nil {
		return nil, err
	}
	c, _ := s.data.Clusters(layer - 1)
	return centroidsOf(c.Centroids, c.Labels[target]), nil
}

func (s *sampleProfileStrategy) Propagate(_, target int) (int, error) { return target, nil }

// profileStrategy uses the centroids of a distinct profile. Targets are
// carried backwards by majority vote over the samples of the profile.
type profileStrategy struct {
	data *Data
}

func (s *profileStrategy) Target() Target           { return ByProfile }
func (s *profileStrategy) Granularity() Granularity { return Profile }

func (s *profileStrategy) Validate(layer, target int) error {
	t, err := s.data.Profiles(layer - 1)
	if err != nil {
		return err
	}
	if target < 0 || target >= t.Len() {
		return fmt.Errorf("layer %d: %w", layer-1, outOfRange("profile", target, t.Len()))
	}
	return nil
}

func (s *profileStrategy) Candidates(layer, target int) ([][]float64, error) {
	if err := s.Validate(layer, target); err != nil {
		return nil, err
	}
	c, _ := s.data.Clusters(layer - 1)
	t, _ := s.data.Profiles(layer - 1)
	return centroidsOf(c.Centroids, t.At(target)), nil
}

func (s *profileStrategy) Propagate(layer, target int) (int, error) {
	if layer == 1 {
		return target, nil
	}
	if err := s.Validate(layer, target); err != nil {
		return 0, err
	}
	cur, _ := s.data.Profiles(layer - 1)
	prev, err := s.data.Profiles(layer - 2)
	if err != nil {
		return 0, err
	}

	p, err := prev.Majority(cur.Members(target))
	if err != nil {
		return 0, fmt.Errorf("%w: profile %d of layer %d: %w", ErrProfileLookup, target, layer-1, err)
	}
	next, ok := prev.Index(p)
	if !ok {
		return 0, fmt.Errorf("%w: profile %s not enumerated at layer %d", ErrProfileLookup, p, layer-2)
	}
	return next, nil
}

func centroidsOf(centroids [][]float64, p profile.Profile) [][]float64 {
	out := make([][]float64, len(p))
	for d, label := range p {
		out[d] = centroids[label]
	}
	return out
}
