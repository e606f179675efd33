package emitter

import "fmt"

// CatOptions controls how frame indices are offset when concatenating.
// RemapFrameIx gives an explicit shift per input; StepFrameIx derives the
// shift for input i as i*step. They are mutually exclusive; with neither,
// frame indices pass through unshifted.
type CatOptions struct {
	RemapFrameIx []float64
	StepFrameIx  *float64
}

// Cat concatenates sets into one, in input order, offsetting each input's
// frame indices by its shift. Per-frame sub-sets that index frames from zero
// (as the rasterizer emits them) can be reassembled into a dataset-global
// set this way.
func Cat(sets []*Set, opts *CatOptions) (*Set, error) {
	if opts == nil {
		opts = &CatOptions{}
	}

	shift, err := catShift(len(sets), opts)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, s := range sets {
		total += s.Len()
	}

	spec := ColumnSpec{
		XYZ:     make([][3]float64, 0, total),
		Phot:    make([]float64, 0, total),
		FrameIx: make([]float64, 0, total),
		ID:      make([]float64, 0, total),
		Prob:    make([]float64, 0, total),
		BG:      make([]float64, 0, total),
		XYZCR:   make([][3]float64, 0, total),
		PhotCR:  make([]float64, 0, total),
		BGCR:    make([]float64, 0, total),
	}
	for i, s := range sets {
		spec.XYZ = append(spec.XYZ, s.XYZ...)
		spec.Phot = append(spec.Phot, s.Phot...)
		for _, f := range s.FrameIx {
			spec.FrameIx = append(spec.FrameIx, f+shift[i])
		}
		spec.ID = append(spec.ID, s.ID...)
		spec.Prob = append(spec.Prob, s.Prob...)
		spec.BG = append(spec.BG, s.BG...)
		spec.XYZCR = append(spec.XYZCR, s.XYZCR...)
		spec.PhotCR = append(spec.PhotCR, s.PhotCR...)
		spec.BGCR = append(spec.BGCR, s.BGCR...)
	}

	return NewFromColumns(spec, true)
}

func catShift(n int, opts *CatOptions) ([]float64, error) {
	if opts.RemapFrameIx != nil && opts.StepFrameIx != nil {
		return nil, &ConfigurationError{Reason: "cat: remap and step frame shifts are mutually exclusive"}
	}
	switch {
	case opts.RemapFrameIx != nil:
		if len(opts.RemapFrameIx) != n {
			return nil, &ConfigurationError{
				Reason: fmt.Sprintf("cat: remap has %d shifts for %d sets", len(opts.RemapFrameIx), n),
			}
		}
		return append([]float64(nil), opts.RemapFrameIx...), nil
	case opts.StepFrameIx != nil:
		shift := make([]float64, n)
		for i := range shift {
			shift[i] = float64(i) * (*opts.StepFrameIx)
		}
		return shift, nil
	default:
		return make([]float64, n), nil
	}
}
