// Package blink models continuous-time blink events and rasterizes them
// into discrete per-frame emitter records.
package blink

import (
	"math"

	"github.com/lumadata/smlm/internal/emitter"
)

// LooseSet describes emitters before rasterization: a position, an identity,
// a continuous blink-start time, an on-duration in frame units and a constant
// intensity (photons per unit time). There is no frame concept yet.
type LooseSet struct {
	XYZ       [][3]float64
	Intensity []float64
	ID        []float64
	T0        []float64
	OnTime    []float64
}

// NewLooseSet builds a LooseSet and checks that all columns are row-aligned.
// A nil id column is filled with sequential identities 0..n-1.
func NewLooseSet(xyz [][3]float64, intensity, t0, ontime, id []float64) (*LooseSet, error) {
	n := len(xyz)
	if id == nil {
		id = make([]float64, n)
		for i := range id {
			id[i] = float64(i)
		}
	}
	for _, c := range []struct {
		name string
		got  int
	}{
		{"intensity", len(intensity)},
		{"t0", len(t0)},
		{"ontime", len(ontime)},
		{"id", len(id)},
	} {
		if c.got != n {
			return nil, &emitter.ShapeMismatchError{Column: c.name, Got: c.got, Want: n}
		}
	}
	return &LooseSet{XYZ: xyz, Intensity: intensity, ID: id, T0: t0, OnTime: ontime}, nil
}

// Len returns the number of loose emitters.
func (ls *LooseSet) Len() int {
	return len(ls.XYZ)
}

// Phot is undefined for a loose set: photon counts only exist once
// Rasterize has distributed intensity over frames.
func (ls *LooseSet) Phot() ([]float64, error) {
	return nil, &emitter.UnsupportedOperationError{Op: "photon counts on a loose set; rasterize first"}
}

// Rasterize distributes each blink event over the frames it overlaps and
// allocates photons proportionally to the temporal overlap with each frame's
// exposure window [f, f+1).
//
// An emitter on from t0 for ontime covers the integer frames
// [floor(t0), ceil(t0+ontime)); its photon count on frame f is
// (min(te, f+1) - max(t0, f)) * intensity. An emitter ending exactly on a
// frame boundary contributes zero-width overlap to the boundary frame, so no
// row is emitted there; negative start times need no special casing.
//
// Output rows are emitter-major, frame-minor and not frame-sorted; callers
// needing frame order follow up with SortByFrame.
func (ls *LooseSet) Rasterize() (*emitter.Set, error) {
	// Frame spans per emitter, and the exact output size up front.
	first := make([]int, ls.Len())
	span := make([]int, ls.Len())
	total := 0
	for i := range ls.XYZ {
		te := ls.T0[i] + ls.OnTime[i]
		first[i] = int(math.Floor(ls.T0[i]))
		span[i] = int(math.Ceil(te)) - first[i]
		total += span[i]
	}

	xyz := make([][3]float64, total)
	phot := make([]float64, total)
	frameIx := make([]float64, total)
	id := make([]float64, total)

	c := 0
	for i := range ls.XYZ {
		te := ls.T0[i] + ls.OnTime[i]
		for j := 0; j < span[i]; j++ {
			f := float64(first[i] + j)
			xyz[c] = ls.XYZ[i]
			frameIx[c] = f
			id[c] = ls.ID[i]
			phot[c] = (math.Min(te, f+1) - math.Max(ls.T0[i], f)) * ls.Intensity[i]
			c++
		}
	}

	return emitter.NewFromColumns(emitter.ColumnSpec{
		XYZ:     xyz,
		Phot:    phot,
		FrameIx: frameIx,
		ID:      id,
	}, true)
}
