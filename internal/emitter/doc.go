// Package emitter stores sets of point-like emission events localized across
// imaging frames. A Set is a columnar, invariant-checked collection of
// per-emitter attributes; the package also provides frame-indexed grouping
// (SplitFrames), merging (Cat) and coordinate transforms over any Set.
package emitter
