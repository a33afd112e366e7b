package cip

// holes.go: excluded open sub-intervals of an otherwise continuous domain.
// Hole lists are kept sorted by left endpoint and pairwise disjoint;
// inserting an overlapping hole merges instead of duplicating.

import "fmt"

// Hole is an open interval (Left, Right) excluded from a domain.
// Left < Right always holds for a stored hole.
type Hole struct {
	Left  float64
	Right float64
}

// String renders the hole in open-interval notation.
func (h Hole) String() string { return fmt.Sprintf("(%g,%g)", h.Left, h.Right) }

// holeList is an ordered list of disjoint holes, sorted by left endpoint.
type holeList []Hole

// clone returns an independent copy; a nil list stays nil.
func (hl holeList) clone() holeList {
	if hl == nil {
		return nil
	}
	out := make(holeList, len(hl))
	copy(out, hl)
	return out
}

// insert returns a new list with the open interval (left,right) excluded,
// merging any holes it strictly overlaps. Touching open intervals stay
// separate: (1,2) and (2,3) both exclude nothing at 2, so 2 remains in the
// domain. The receiver is not modified.
func (hl holeList) insert(ns Settings, left, right float64) holeList {
	out := make(holeList, 0, len(hl)+1)
	merged := Hole{Left: left, Right: right}
	placed := false
	for _, h := range hl {
		switch {
		case ns.isLE(h.Right, merged.Left):
			// entirely before the new hole, or touching its left endpoint
			out = append(out, h)
		case ns.isGE(h.Left, merged.Right):
			// entirely after or touching: flush the merged hole first
			if !placed {
				out = append(out, merged)
				placed = true
			}
			out = append(out, h)
		default:
			// strict overlap: widen the merged hole
			merged.Left = min(merged.Left, h.Left)
			merged.Right = max(merged.Right, h.Right)
		}
	}
	if !placed {
		out = append(out, merged)
	}
	return out
}

// covers returns true if v lies strictly inside one of the holes.
func (hl holeList) covers(ns Settings, v float64) bool {
	for _, h := range hl {
		if ns.isGT(v, h.Left) && ns.isLT(v, h.Right) {
			return true
		}
	}
	return false
}

// clip returns the list restricted to holes strictly inside (lb, ub),
// trimming holes that stick out over a bound.
func (hl holeList) clip(ns Settings, lb, ub float64) holeList {
	if len(hl) == 0 {
		return nil
	}
	var out holeList
	for _, h := range hl {
		l := max(h.Left, lb)
		r := min(h.Right, ub)
		if ns.isLT(l, r) && ns.isGT(r, lb) && ns.isLT(l, ub) {
			out = append(out, Hole{Left: l, Right: r})
		}
	}
	return out
}

// HoleChange records one hole-list swap on a variable's domain so that it
// can be deferred, applied, and undone exactly like a bound change.
type HoleChange struct {
	v        *Variable
	global   bool
	oldHoles holeList
	newHoles holeList
	applied  bool
}

// Var returns the variable whose hole list the change swaps.
func (hc *HoleChange) Var() *Variable { return hc.v }
