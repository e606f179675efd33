package emitter

// SplitFrames partitions s into one sub-set per integer frame in the
// inclusive range [lo, hi], ordered by ascending frame. Frames with no rows
// yield independent empty sets, so the result is always hi-lo+1 long (nil
// when hi < lo). Rows outside the range are dropped.
//
// The set is sorted once, then a single linear scan partitions contiguous
// runs of equal frame index into per-frame groups. This is the hot path for
// large datasets; the scan allocates only the per-frame subsets.
func SplitFrames(s *Set, lo, hi int) []*Set {
	if hi < lo {
		return nil
	}

	perm := s.frameOrder()

	out := make([]*Set, 0, hi-lo+1)
	pos := 0
	for pos < len(perm) && int(s.FrameIx[perm[pos]]) < lo {
		pos++
	}
	for f := lo; f <= hi; f++ {
		start := pos
		for pos < len(perm) && int(s.FrameIx[perm[pos]]) == f {
			pos++
		}
		out = append(out, s.Subset(perm[start:pos]))
	}
	return out
}

// SplitAllFrames splits s over its observed frame range. An empty set has no
// observable range and yields a single empty set.
func SplitAllFrames(s *Set) []*Set {
	lo, hi, ok := s.FrameRange()
	if !ok {
		return []*Set{NewEmptySet()}
	}
	return SplitFrames(s, lo, hi)
}
