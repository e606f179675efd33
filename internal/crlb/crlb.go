// Package crlb estimates Cramér-Rao precision bounds for localized emitters
// and writes them back into emitter sets frame by frame.
package crlb

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lumadata/smlm/internal/emitter"
)

// Bounds holds squared precision-bound columns, row-aligned to the emitters
// they were estimated for.
type Bounds struct {
	XYZCR  [][3]float64
	PhotCR []float64
	BGCR   []float64
}

// Model estimates precision bounds for a batch of emitters imaged on one
// frame. Implementations must accept any number of rows, including zero, and
// return columns row-aligned to their input.
type Model interface {
	Estimate(ctx context.Context, xyz [][3]float64, phot, bg []float64) (Bounds, error)
}

// PopulateConfig holds configuration for Populate.
type PopulateConfig struct {
	// Workers caps the number of concurrent per-frame model calls.
	Workers int
}

// DefaultPopulateConfig returns sensible defaults for precision estimation.
func DefaultPopulateConfig() PopulateConfig {
	return PopulateConfig{Workers: runtime.GOMAXPROCS(0)}
}

// Populate estimates precision bounds for every emitter in s and replaces
// s's contents wholesale with the result. A no-op on an empty set.
//
// The set is split over its observed frame range, the model is invoked once
// per non-empty frame group on a bounded worker pool, and the groups are
// reassembled in frame-ascending order regardless of completion order: each
// worker writes only into its own group, so the merge needs no buffering
// beyond the group slice itself.
func Populate(ctx context.Context, s *emitter.Set, model Model, cfg PopulateConfig) error {
	if s.Len() == 0 {
		return nil
	}

	lo, hi, _ := s.FrameRange()
	groups := emitter.SplitFrames(s, lo, hi)

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for _, grp := range groups {
		if grp.Len() == 0 {
			continue
		}
		grp := grp
		g.Go(func() error {
			b, err := model.Estimate(ctx, grp.XYZ, grp.Phot, grp.BG)
			if err != nil {
				return fmt.Errorf("crlb: estimate frame %v: %w", grp.FrameIx[0], err)
			}
			if err := checkAligned(grp.Len(), b); err != nil {
				return err
			}
			grp.XYZCR = b.XYZCR
			grp.PhotCR = b.PhotCR
			grp.BGCR = b.BGCR
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Frame indices are already absolute, so the groups merge with zero shift.
	merged, err := emitter.Cat(groups, nil)
	if err != nil {
		return err
	}
	*s = *merged
	return nil
}

func checkAligned(n int, b Bounds) error {
	for _, c := range []struct {
		name string
		got  int
	}{
		{"xyz_cr", len(b.XYZCR)},
		{"phot_cr", len(b.PhotCR)},
		{"bg_cr", len(b.BGCR)},
	} {
		if c.got != n {
			return &emitter.ShapeMismatchError{Column: c.name, Got: c.got, Want: n}
		}
	}
	return nil
}
