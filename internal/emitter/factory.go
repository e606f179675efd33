package emitter

import "math/rand"

// The restricted set variants are factory functions rather than distinct
// types: the invariants and operations are identical to the general Set,
// only construction is constrained.

// NewEmptySet returns a valid zero-row set.
func NewEmptySet() *Set {
	s, _ := NewFromColumns(ColumnSpec{}, true)
	return s
}

// NewCoordinateOnlySet builds a set from coordinates alone: one photon per
// emitter, all rows on frame 0. Useful for synthetic inputs and tests.
func NewCoordinateOnlySet(xyz [][3]float64) (*Set, error) {
	return NewSingleFrame(xyz, constVector(len(xyz), 1), 0)
}

// NewRandomSet builds a coordinate-only set of n emitters uniformly placed
// in [0, extent) on each axis.
func NewRandomSet(rng *rand.Rand, n int, extent float64) *Set {
	xyz := make([][3]float64, n)
	for i := range xyz {
		xyz[i] = [3]float64{
			rng.Float64() * extent,
			rng.Float64() * extent,
			rng.Float64() * extent,
		}
	}
	s, _ := NewCoordinateOnlySet(xyz)
	return s
}
