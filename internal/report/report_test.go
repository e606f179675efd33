package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lumadata/smlm/internal/emitter"
)

func reportFixture(t *testing.T) *emitter.Set {
	t.Helper()
	s, err := emitter.NewFromColumns(emitter.ColumnSpec{
		XYZ:     [][3]float64{{1, 1, 0}, {2, 2, 0}, {3, 3, 0}, {4, 4, 0}},
		Phot:    []float64{100, 300, 200, 400},
		FrameIx: []float64{0, 0, 2, 2},
		BG:      []float64{5, math.NaN(), math.NaN(), math.NaN()},
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFrameStats(t *testing.T) {
	got := FrameStats(reportFixture(t))

	want := []FrameStat{
		{
			Frame: 0, Count: 2,
			PhotTotal: 400, PhotMean: 200,
			PhotStdDev:  math.Sqrt(20000),
			MedianProb:  1,
			KnownBGRows: 1,
		},
		{Frame: 1},
		{
			Frame: 2, Count: 2,
			PhotTotal: 600, PhotMean: 300,
			PhotStdDev: math.Sqrt(20000),
			MedianProb: 1,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FrameStats mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameStats_EmptySet(t *testing.T) {
	if got := FrameStats(emitter.NewEmptySet()); got != nil {
		t.Errorf("empty set stats = %v, want nil", got)
	}
}

func TestFrameStats_GapFramesVisible(t *testing.T) {
	got := FrameStats(reportFixture(t))
	if len(got) != 3 {
		t.Fatalf("got %d frames, want 3 including the empty frame 1", len(got))
	}
	if got[1].Count != 0 {
		t.Errorf("frame 1 count = %d, want 0", got[1].Count)
	}
}

func TestWriteHTML(t *testing.T) {
	stats := FrameStats(reportFixture(t))

	var buf bytes.Buffer
	if err := WriteHTML(&buf, "test run", stats); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "test run") {
		t.Error("report must carry its title")
	}
	if !strings.Contains(out, "localizations") {
		t.Error("report must contain the count series")
	}
}
