package emitter

import (
	"errors"
	"testing"
)

func transformFixture(t *testing.T) *Set {
	t.Helper()
	s, err := New(
		[][3]float64{{1, 2, 3}},
		[]float64{10},
		[]float64{4},
	)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestConvertCoordinates_Order(t *testing.T) {
	s := transformFixture(t)

	// Scale then shift: 1*2 + 1 = 3. The reverse order would give 4.
	xyz, err := ConvertCoordinates(s, []float64{2, 2, 2}, []float64{1, 1, 1}, nil)
	if err != nil {
		t.Fatalf("ConvertCoordinates: %v", err)
	}
	want := [3]float64{3, 5, 7}
	if xyz[0] != want {
		t.Errorf("got %v, want %v (scale must precede shift)", xyz[0], want)
	}
}

func TestConvertCoordinates_TwoElementFactor(t *testing.T) {
	s := transformFixture(t)
	xyz, err := ConvertCoordinates(s, []float64{10, 10}, nil, nil)
	if err != nil {
		t.Fatalf("ConvertCoordinates: %v", err)
	}
	// z keeps the implicit unit factor.
	want := [3]float64{10, 20, 3}
	if xyz[0] != want {
		t.Errorf("got %v, want %v", xyz[0], want)
	}
}

func TestConvertCoordinates_AxisPermutation(t *testing.T) {
	s := transformFixture(t)
	xyz, err := ConvertCoordinates(s, nil, nil, []int{1, 0, 2})
	if err != nil {
		t.Fatalf("ConvertCoordinates: %v", err)
	}
	want := [3]float64{2, 1, 3}
	if xyz[0] != want {
		t.Errorf("got %v, want %v", xyz[0], want)
	}
}

func TestConvertCoordinates_PermutationAfterShift(t *testing.T) {
	s := transformFixture(t)
	xyz, err := ConvertCoordinates(s, nil, []float64{10, 20, 30}, []int{2, 0, 1})
	if err != nil {
		t.Fatalf("ConvertCoordinates: %v", err)
	}
	// Shift yields (11, 22, 33); permutation then picks axes 2, 0, 1.
	want := [3]float64{33, 11, 22}
	if xyz[0] != want {
		t.Errorf("got %v, want %v (permute must come last)", xyz[0], want)
	}
}

func TestConvertCoordinates_DoesNotMutate(t *testing.T) {
	s := transformFixture(t)
	if _, err := ConvertCoordinates(s, []float64{2, 2, 2}, []float64{1, 1, 1}, []int{2, 1, 0}); err != nil {
		t.Fatal(err)
	}
	if s.XYZ[0] != [3]float64{1, 2, 3} {
		t.Errorf("input mutated: %v", s.XYZ[0])
	}
}

func TestConvertCoordinates_BadArguments(t *testing.T) {
	s := transformFixture(t)
	cases := []struct {
		name   string
		factor []float64
		shift  []float64
		axis   []int
	}{
		{"one-element factor", []float64{2}, nil, nil},
		{"two-element shift", nil, []float64{1, 2}, nil},
		{"short axis", nil, nil, []int{0, 1}},
		{"repeated axis", nil, nil, []int{0, 0, 2}},
		{"out-of-range axis", nil, nil, []int{0, 1, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ConvertCoordinates(s, tc.factor, tc.shift, tc.axis)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err = %v, want ConfigurationError", err)
			}
		})
	}
}

func TestConvertClone(t *testing.T) {
	s := transformFixture(t)
	conv, err := ConvertClone(s, []float64{2, 2, 2}, nil, nil, 5)
	if err != nil {
		t.Fatalf("ConvertClone: %v", err)
	}
	if conv.XYZ[0] != [3]float64{2, 4, 6} {
		t.Errorf("coordinates not converted: %v", conv.XYZ[0])
	}
	if conv.FrameIx[0] != 9 {
		t.Errorf("FrameIx = %v, want 9 (4 + frame shift 5)", conv.FrameIx[0])
	}
	// The original is untouched.
	if s.XYZ[0] != [3]float64{1, 2, 3} || s.FrameIx[0] != 4 {
		t.Error("ConvertClone mutated its input")
	}
}

func TestConvertInPlace(t *testing.T) {
	s := transformFixture(t)
	if err := ConvertInPlace(s, nil, []float64{1, 1, 1}, nil, -4); err != nil {
		t.Fatalf("ConvertInPlace: %v", err)
	}
	if s.XYZ[0] != [3]float64{2, 3, 4} {
		t.Errorf("coordinates = %v, want shifted", s.XYZ[0])
	}
	if s.FrameIx[0] != 0 {
		t.Errorf("FrameIx = %v, want 0", s.FrameIx[0])
	}
}
