package emitter

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// EqTol is the elementwise tolerance used by ApproxEqual.
const EqTol = 1e-6

// UnknownID is the sentinel identity for emitters without a known id.
// It is non-unique and means "unknown", not "invalid".
const UnknownID = -1

// Set stores N localized emitters as row-aligned columns. All columns share
// the same length; XYZ and XYZCR carry three values per row. A zero-row Set
// is a fully valid empty instance.
//
// Frame indices are integer-valued but stored as float64 like every other
// column, so a Set round-trips through tabular numeric formats unchanged.
type Set struct {
	XYZ     [][3]float64 // spatial coordinate (x, y, z)
	Phot    []float64    // detected photon count
	FrameIx []float64    // frame the row belongs to
	ID      []float64    // emitter identity, UnknownID when unset
	Prob    []float64    // detection probability, nominally [0, 1]
	BG      []float64    // assumed background level, NaN when unknown
	XYZCR   [][3]float64 // squared precision bound of XYZ, NaN until estimated
	PhotCR  []float64    // squared precision bound of Phot
	BGCR    []float64    // squared precision bound of BG

	// sorted is set by SortByFrame only and tracked through nothing else.
	sorted bool
}

// ColumnSpec carries the full column specification for NewFromColumns.
// Nil optional columns are filled with their sentinel defaults.
type ColumnSpec struct {
	XYZ     [][3]float64
	Phot    []float64
	FrameIx []float64
	ID      []float64
	Prob    []float64
	BG      []float64
	XYZCR   [][3]float64
	PhotCR  []float64
	BGCR    []float64
}

// New builds a Set from the required columns, filling every optional column
// with its sentinel default, and validates the result.
func New(xyz [][3]float64, phot, frameIx []float64) (*Set, error) {
	return NewFromColumns(ColumnSpec{XYZ: xyz, Phot: phot, FrameIx: frameIx}, true)
}

// NewSingleFrame builds a Set whose rows all belong to one frame, the
// scalar-broadcast form of the frame column.
func NewSingleFrame(xyz [][3]float64, phot []float64, frame float64) (*Set, error) {
	frameIx := make([]float64, len(xyz))
	for i := range frameIx {
		frameIx[i] = frame
	}
	return New(xyz, phot, frameIx)
}

// NewFromColumns builds a Set from spec, filling nil optional columns with
// sentinels (UnknownID for identities, 1 for probabilities, NaN for
// background and precision bounds). When validate is true the cross-column
// invariants are checked; validation runs only after all columns are
// assigned, so a failed construction leaves nothing half-built.
func NewFromColumns(spec ColumnSpec, validate bool) (*Set, error) {
	n := len(spec.XYZ)

	s := &Set{
		XYZ:     spec.XYZ,
		Phot:    spec.Phot,
		FrameIx: spec.FrameIx,
		ID:      spec.ID,
		Prob:    spec.Prob,
		BG:      spec.BG,
		XYZCR:   spec.XYZCR,
		PhotCR:  spec.PhotCR,
		BGCR:    spec.BGCR,
	}
	if s.XYZ == nil {
		s.XYZ = make([][3]float64, 0)
	}
	if s.ID == nil {
		s.ID = constVector(n, UnknownID)
	}
	if s.Prob == nil {
		s.Prob = constVector(n, 1)
	}
	if s.BG == nil {
		s.BG = constVector(n, math.NaN())
	}
	if s.XYZCR == nil {
		s.XYZCR = nanCoords(n)
	}
	if s.PhotCR == nil {
		s.PhotCR = constVector(n, math.NaN())
	}
	if s.BGCR == nil {
		s.BGCR = constVector(n, math.NaN())
	}

	if validate {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// CoordColumn converts loosely-shaped rows into an N×3 coordinate column.
// Two-value rows are promoted by appending a zero z component; any other
// width fails with a RankMismatchError.
func CoordColumn(name string, rows [][]float64) ([][3]float64, error) {
	out := make([][3]float64, len(rows))
	for i, r := range rows {
		switch len(r) {
		case 2:
			out[i] = [3]float64{r[0], r[1], 0}
		case 3:
			out[i] = [3]float64{r[0], r[1], r[2]}
		default:
			return nil, &RankMismatchError{Column: name, Got: len(r), Want: 3}
		}
	}
	return out, nil
}

// VectorColumn converts loosely-shaped rows into a rank-1 column. Every row
// must carry exactly one value.
func VectorColumn(name string, rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, r := range rows {
		if len(r) != 1 {
			return nil, &RankMismatchError{Column: name, Got: len(r), Want: 1}
		}
		out[i] = r[0]
	}
	return out, nil
}

// Validate checks the cross-column invariants: every column has the same row
// count as XYZ. It never mutates the Set.
func (s *Set) Validate() error {
	n := len(s.XYZ)
	for _, c := range []struct {
		name string
		got  int
	}{
		{"phot", len(s.Phot)},
		{"frame_ix", len(s.FrameIx)},
		{"id", len(s.ID)},
		{"prob", len(s.Prob)},
		{"bg", len(s.BG)},
		{"xyz_cr", len(s.XYZCR)},
		{"phot_cr", len(s.PhotCR)},
		{"bg_cr", len(s.BGCR)},
	} {
		if c.got != n {
			return &ShapeMismatchError{Column: c.name, Got: c.got, Want: n}
		}
	}
	return nil
}

// Len returns the number of emitters in the set.
func (s *Set) Len() int {
	return len(s.XYZ)
}

// FrameRange returns the observed minimum and maximum frame index.
// ok is false for an empty set.
func (s *Set) FrameRange() (lo, hi int, ok bool) {
	if s.Len() == 0 {
		return 0, 0, false
	}
	return int(floats.Min(s.FrameIx)), int(floats.Max(s.FrameIx)), true
}

// SingleFrame reports whether all rows belong to the same frame.
func (s *Set) SingleFrame() bool {
	lo, hi, ok := s.FrameRange()
	return ok && lo == hi
}

func (s *Set) String() string {
	if s.Len() == 0 {
		return "EmitterSet\n::num emitters: 0\n::frame range: n.a.\n::spanned volume: n.a."
	}
	lo, hi, _ := s.FrameRange()
	min, max := s.spannedVolume()
	return fmt.Sprintf("EmitterSet\n::num emitters: %d\n::frame range: %d - %d\n::spanned volume: %v - %v",
		s.Len(), lo, hi, min, max)
}

func (s *Set) spannedVolume() (min, max [3]float64) {
	min = s.XYZ[0]
	max = s.XYZ[0]
	for _, p := range s.XYZ[1:] {
		for d := 0; d < 3; d++ {
			if p[d] < min[d] {
				min[d] = p[d]
			}
			if p[d] > max[d] {
				max[d] = p[d]
			}
		}
	}
	return min, max
}

// Clone returns a deep copy sharing no backing storage with s.
func (s *Set) Clone() *Set {
	return &Set{
		XYZ:     append([][3]float64(nil), s.XYZ...),
		Phot:    append([]float64(nil), s.Phot...),
		FrameIx: append([]float64(nil), s.FrameIx...),
		ID:      append([]float64(nil), s.ID...),
		Prob:    append([]float64(nil), s.Prob...),
		BG:      append([]float64(nil), s.BG...),
		XYZCR:   append([][3]float64(nil), s.XYZCR...),
		PhotCR:  append([]float64(nil), s.PhotCR...),
		BGCR:    append([]float64(nil), s.BGCR...),
		sorted:  s.sorted,
	}
}

// Subset returns a new Set holding the rows at the given indices, in order.
// The parent is known valid, so the subset is not re-validated.
func (s *Set) Subset(indices []int) *Set {
	out := &Set{
		XYZ:     make([][3]float64, len(indices)),
		Phot:    make([]float64, len(indices)),
		FrameIx: make([]float64, len(indices)),
		ID:      make([]float64, len(indices)),
		Prob:    make([]float64, len(indices)),
		BG:      make([]float64, len(indices)),
		XYZCR:   make([][3]float64, len(indices)),
		PhotCR:  make([]float64, len(indices)),
		BGCR:    make([]float64, len(indices)),
	}
	for j, ix := range indices {
		out.XYZ[j] = s.XYZ[ix]
		out.Phot[j] = s.Phot[ix]
		out.FrameIx[j] = s.FrameIx[ix]
		out.ID[j] = s.ID[ix]
		out.Prob[j] = s.Prob[ix]
		out.BG[j] = s.BG[ix]
		out.XYZCR[j] = s.XYZCR[ix]
		out.PhotCR[j] = s.PhotCR[ix]
		out.BGCR[j] = s.BGCR[ix]
	}
	return out
}

// SubsetMask returns a new Set holding the rows where mask is true.
func (s *Set) SubsetMask(mask []bool) *Set {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return s.Subset(indices)
}

// SubsetFrame returns the rows whose frame index lies in the inclusive
// range [lo, hi].
func (s *Set) SubsetFrame(lo, hi int) *Set {
	mask := make([]bool, s.Len())
	for i, f := range s.FrameIx {
		mask[i] = f >= float64(lo) && f <= float64(hi)
	}
	return s.SubsetMask(mask)
}

// SubsetFrameShifted is SubsetFrame with the selected frame indices shifted
// so the lowest one becomes shiftTo. Shifting an empty selection is a no-op.
func (s *Set) SubsetFrameShifted(lo, hi, shiftTo int) *Set {
	out := s.SubsetFrame(lo, hi)
	if out.Len() == 0 {
		return out
	}
	min := floats.Min(out.FrameIx)
	floats.AddConst(float64(shiftTo)-min, out.FrameIx)
	return out
}

// SortByFrame stably reorders all columns in place by ascending frame index
// and marks the set sorted. The flag is transient: no other mutation tracks it.
func (s *Set) SortByFrame() {
	perm := s.frameOrder()
	reordered := s.Subset(perm)
	*s = *reordered
	s.sorted = true
}

// Sorted reports whether the set was frame-sorted by the last mutation.
func (s *Set) Sorted() bool {
	return s.sorted
}

// frameOrder returns the stable ascending-frame permutation of row indices.
func (s *Set) frameOrder() []int {
	perm := make([]int, s.Len())
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return s.FrameIx[perm[a]] < s.FrameIx[perm[b]]
	})
	return perm
}

// ApproxEqual reports elementwise equality within EqTol. Position, frame,
// photon and probability columns must agree elementwise; background and
// precision columns additionally compare equal when both sides are entirely
// NaN ("not yet estimated" matches only itself, never a numeric value).
// Identities are deliberately excluded.
func (s *Set) ApproxEqual(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	if !coordsEqualApprox(s.XYZ, other.XYZ, EqTol) {
		return false
	}
	if !floats.EqualApprox(s.FrameIx, other.FrameIx, EqTol) {
		return false
	}
	if !floats.EqualApprox(s.Phot, other.Phot, EqTol) {
		return false
	}
	if !floats.EqualApprox(s.Prob, other.Prob, EqTol) {
		return false
	}
	if !nanVectorEqual(s.BG, other.BG) {
		return false
	}
	if !nanCoordsEqual(s.XYZCR, other.XYZCR) {
		return false
	}
	if !nanVectorEqual(s.PhotCR, other.PhotCR) {
		return false
	}
	if !nanVectorEqual(s.BGCR, other.BGCR) {
		return false
	}
	return true
}

// XYZSCR returns the square roots of the XYZ precision bounds.
func (s *Set) XYZSCR() [][3]float64 {
	out := make([][3]float64, s.Len())
	for i, cr := range s.XYZCR {
		out[i] = [3]float64{math.Sqrt(cr[0]), math.Sqrt(cr[1]), math.Sqrt(cr[2])}
	}
	return out
}

// PhotSCR returns the square roots of the photon precision bounds.
func (s *Set) PhotSCR() []float64 {
	return sqrtVector(s.PhotCR)
}

// BGSCR returns the square roots of the background precision bounds.
func (s *Set) BGSCR() []float64 {
	return sqrtVector(s.BGCR)
}

func sqrtVector(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Sqrt(x)
	}
	return out
}

func constVector(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func nanCoords(n int) [][3]float64 {
	nan := math.NaN()
	out := make([][3]float64, n)
	for i := range out {
		out[i] = [3]float64{nan, nan, nan}
	}
	return out
}

func coordsEqualApprox(a, b [][3]float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		for d := 0; d < 3; d++ {
			// NaN never compares equal on the elementwise path.
			if !(math.Abs(a[i][d]-b[i][d]) <= tol) {
				return false
			}
		}
	}
	return true
}

func allNaN(v []float64) bool {
	for _, x := range v {
		if !math.IsNaN(x) {
			return false
		}
	}
	return true
}

func coordsAllNaN(c [][3]float64) bool {
	for i := range c {
		for d := 0; d < 3; d++ {
			if !math.IsNaN(c[i][d]) {
				return false
			}
		}
	}
	return true
}

// nanVectorEqual compares NaN-bearing columns: both entirely NaN is equal,
// otherwise the columns must match elementwise within EqTol.
func nanVectorEqual(a, b []float64) bool {
	if allNaN(a) {
		return allNaN(b)
	}
	return floats.EqualApprox(a, b, EqTol)
}

func nanCoordsEqual(a, b [][3]float64) bool {
	if coordsAllNaN(a) {
		return coordsAllNaN(b)
	}
	return coordsEqualApprox(a, b, EqTol)
}
