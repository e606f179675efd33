package emitter

import (
	"testing"
)

func splitFixture(t *testing.T) *Set {
	t.Helper()
	s, err := New(
		[][3]float64{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}, {5, 0, 0}},
		[]float64{10, 20, 30, 40, 50},
		[]float64{3, 1, 3, 0, 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSplitFrames(t *testing.T) {
	s := splitFixture(t)
	groups := SplitFrames(s, 0, 3)

	if len(groups) != 4 {
		t.Fatalf("got %d groups, want 4", len(groups))
	}
	wantCounts := []int{1, 2, 0, 2}
	for f, g := range groups {
		if g.Len() != wantCounts[f] {
			t.Errorf("frame %d has %d rows, want %d", f, g.Len(), wantCounts[f])
		}
		for _, fx := range g.FrameIx {
			if int(fx) != f {
				t.Errorf("frame %d group contains frame %v", f, fx)
			}
		}
	}
	// Frame 2 has no rows but must still be a valid empty set.
	if err := groups[2].Validate(); err != nil {
		t.Errorf("empty group invalid: %v", err)
	}
}

func TestSplitFrames_DoesNotMutateInput(t *testing.T) {
	s := splitFixture(t)
	before := s.Clone()
	SplitFrames(s, 0, 3)
	if !s.ApproxEqual(before) {
		t.Error("SplitFrames reordered the input set")
	}
	if s.Sorted() {
		t.Error("SplitFrames must not mark the input sorted")
	}
}

func TestSplitFrames_WiderRange(t *testing.T) {
	s := splitFixture(t)
	groups := SplitFrames(s, -2, 5)
	if len(groups) != 8 {
		t.Fatalf("got %d groups, want 8", len(groups))
	}
	total := 0
	for _, g := range groups {
		total += g.Len()
	}
	if total != s.Len() {
		t.Errorf("groups hold %d rows, want %d", total, s.Len())
	}
	for _, f := range []int{0, 1, 6, 7} {
		if groups[f].Len() != 0 {
			t.Errorf("out-of-data frame slot %d not empty", f)
		}
	}
}

func TestSplitFrames_EmptyInputExplicitBounds(t *testing.T) {
	groups := SplitFrames(NewEmptySet(), 2, 6)
	if len(groups) != 5 {
		t.Fatalf("got %d groups, want hi-lo+1 = 5", len(groups))
	}
	for i, g := range groups {
		if g.Len() != 0 {
			t.Errorf("group %d not empty", i)
		}
	}
	// Every slot is an independent set, not the same instance.
	groups[0].Phot = append(groups[0].Phot, 1)
	if len(groups[1].Phot) != 0 {
		t.Error("groups share backing storage")
	}
}

func TestSplitFrames_InvertedBounds(t *testing.T) {
	if groups := SplitFrames(splitFixture(t), 3, 1); groups != nil {
		t.Errorf("inverted bounds yield %d groups, want none", len(groups))
	}
}

func TestSplitAllFrames(t *testing.T) {
	t.Run("observed range", func(t *testing.T) {
		groups := SplitAllFrames(splitFixture(t))
		if len(groups) != 4 {
			t.Fatalf("got %d groups, want 4 over frames [0, 3]", len(groups))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		groups := SplitAllFrames(NewEmptySet())
		if len(groups) != 1 || groups[0].Len() != 0 {
			t.Fatalf("empty input must yield a single empty set, got %d", len(groups))
		}
	})
}

func TestSplitThenCat_RoundTrip(t *testing.T) {
	s := splitFixture(t)
	groups := SplitFrames(s, -1, 5) // any lo <= min, hi >= max

	// Frames are already absolute: zero shift.
	merged, err := Cat(groups, nil)
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}

	sorted := s.Clone()
	sorted.SortByFrame()
	if !merged.ApproxEqual(sorted) {
		t.Error("split followed by cat must reproduce the frame-sorted original")
	}
}

func TestSplitFrames_NegativeFrames(t *testing.T) {
	s, err := New(
		[][3]float64{{1, 0, 0}, {2, 0, 0}},
		[]float64{1, 2},
		[]float64{-2, 0},
	)
	if err != nil {
		t.Fatal(err)
	}
	groups := SplitFrames(s, -2, 0)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if groups[0].Len() != 1 || groups[1].Len() != 0 || groups[2].Len() != 1 {
		t.Errorf("counts = %d,%d,%d, want 1,0,1", groups[0].Len(), groups[1].Len(), groups[2].Len())
	}
}
