package emitter

import "fmt"

// ConvertCoordinates returns a transformed copy of the position column.
// The application order is fixed: scale by factor, add shift, permute axes.
// A two-element factor is extended with a unit third component. Nil
// arguments skip their stage. The input set is not mutated.
func ConvertCoordinates(s *Set, factor, shift []float64, axis []int) ([][3]float64, error) {
	f, err := expandFactor(factor)
	if err != nil {
		return nil, err
	}
	sh, err := expandShift(shift)
	if err != nil {
		return nil, err
	}
	if axis != nil {
		if err := checkAxis(axis); err != nil {
			return nil, err
		}
	}

	out := make([][3]float64, s.Len())
	for i, p := range s.XYZ {
		for d := 0; d < 3; d++ {
			p[d] = p[d]*f[d] + sh[d]
		}
		if axis != nil {
			p = [3]float64{p[axis[0]], p[axis[1]], p[axis[2]]}
		}
		out[i] = p
	}
	return out, nil
}

// ConvertClone applies ConvertCoordinates to a clone of s and shifts its
// frame indices by frameShift.
func ConvertClone(s *Set, factor, shift []float64, axis []int, frameShift float64) (*Set, error) {
	out := s.Clone()
	if err := ConvertInPlace(out, factor, shift, axis, frameShift); err != nil {
		return nil, err
	}
	return out, nil
}

// ConvertInPlace transforms s's coordinates and frame indices in place.
func ConvertInPlace(s *Set, factor, shift []float64, axis []int, frameShift float64) error {
	xyz, err := ConvertCoordinates(s, factor, shift, axis)
	if err != nil {
		return err
	}
	s.XYZ = xyz
	for i := range s.FrameIx {
		s.FrameIx[i] += frameShift
	}
	return nil
}

func expandFactor(factor []float64) ([3]float64, error) {
	switch len(factor) {
	case 0:
		return [3]float64{1, 1, 1}, nil
	case 2:
		return [3]float64{factor[0], factor[1], 1}, nil
	case 3:
		return [3]float64{factor[0], factor[1], factor[2]}, nil
	default:
		return [3]float64{}, &ConfigurationError{
			Reason: fmt.Sprintf("convert: factor has %d components, want 2 or 3", len(factor)),
		}
	}
}

func expandShift(shift []float64) ([3]float64, error) {
	switch len(shift) {
	case 0:
		return [3]float64{}, nil
	case 3:
		return [3]float64{shift[0], shift[1], shift[2]}, nil
	default:
		return [3]float64{}, &ConfigurationError{
			Reason: fmt.Sprintf("convert: shift has %d components, want 3", len(shift)),
		}
	}
}

func checkAxis(axis []int) error {
	if len(axis) != 3 {
		return &ConfigurationError{
			Reason: fmt.Sprintf("convert: axis permutation has %d components, want 3", len(axis)),
		}
	}
	var seen [3]bool
	for _, a := range axis {
		if a < 0 || a > 2 || seen[a] {
			return &ConfigurationError{Reason: fmt.Sprintf("convert: axis %v is not a permutation of 0,1,2", axis)}
		}
		seen[a] = true
	}
	return nil
}
