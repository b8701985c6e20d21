// Package profile enumerates the cluster-label profiles of samples.
//
// A profile is the tuple of per-dimension cluster labels that one sample
// received at one layer. Profiles are enumerated in lexicographic order, so
// profile indices are stable for a given label assignment.
package profile

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

var (
	// ErrShape is returned for ragged label matrices.
	ErrShape = errors.New("profile: ragged label matrix")
	// ErrNoSamples is returned by Majority for an empty sample set.
	ErrNoSamples = errors.New("profile: no samples")
	// ErrSampleOutOfRange is returned for a sample index outside the table.
	ErrSampleOutOfRange = errors.New("profile: sample out of range")
)

// Profile is a tuple of cluster labels, one per dimension.
type Profile []int

// Compare orders profiles lexicographically.
func (p Profile) Compare(o Profile) int {
	return slices.Compare(p, o)
}

func (p Profile) key() string {
	var sb strings.Builder
	for i, l := range p {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(l))
	}
	return sb.String()
}

func (p Profile) String() string {
	return "(" + p.key() + ")"
}

// Table indexes the profiles of one layer.
type Table struct {
	labels  [][]int
	unique  []Profile
	index   map[string]int
	members []*roaring.Bitmap
	of      []int
}

// New builds a profile table from a (samples, dims) label matrix.
func New(labels [][]int) (*Table, error) {
	t := &Table{
		labels: labels,
		index:  make(map[string]int),
		of:     make([]int, len(labels)),
	}

	for s, row := range labels {
		if len(row) != len(labels[0]) {
			return nil, fmt.Errorf("%w: sample %d has %d labels, want %d", ErrShape, s, len(row), len(labels[0]))
		}
		if _, ok := t.index[Profile(row).key()]; !ok {
			t.index[Profile(row).key()] = -1
			t.unique = append(t.unique, Profile(slices.Clone(row)))
		}
	}

	slices.SortFunc(t.unique, Profile.Compare)

	t.members = make([]*roaring.Bitmap, len(t.unique))
	for i, p := range t.unique {
		t.index[p.key()] = i
		t.members[i] = roaring.New()
	}
	for s, row := range labels {
		i := t.index[Profile(row).key()]
		t.of[s] = i
		t.members[i].Add(uint32(s))
	}
	return t, nil
}

// Len returns the number of distinct profiles.
func (t *Table) Len() int { return len(t.unique) }

// Samples returns the number of samples.
func (t *Table) Samples() int { return len(t.labels) }

// Unique returns the distinct profiles in lexicographic order.
func (t *Table) Unique() []Profile { return t.unique }

// At returns the profile with the given index.
func (t *Table) At(i int) Profile { return t.unique[i] }

// Index returns the enumeration index of p.
func (t *Table) Index(p Profile) (int, bool) {
	i, ok := t.index[p.key()]
	return i, ok
}

// Of returns the profile index of sample s.
func (t *Table) Of(s int) int { return t.of[s] }

// Members returns the samples sharing the profile with index i.
// The bitmap must not be modified.
func (t *Table) Members(i int) *roaring.Bitmap { return t.members[i] }

// Majority returns the most frequent profile among samples. Ties go to the
// lexicographically smallest profile.
func (t *Table) Majority(samples *roaring.Bitmap) (Profile, error) {
	if samples == nil || samples.IsEmpty() {
		return nil, ErrNoSamples
	}

	counts := make([]int, len(t.unique))
	it := samples.Iterator()
	for it.HasNext() {
		s := int(it.Next())
		if s >= len(t.of) {
			return nil, fmt.Errorf("%w: %d >= %d", ErrSampleOutOfRange, s, len(t.of))
		}
		counts[t.of[s]]++
	}

	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return t.unique[best], nil
}
