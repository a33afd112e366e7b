package cip

// domain.go: the (lower bound, upper bound, holes) triple describing the
// values a variable may take at one scope. Every variable carries a global
// domain (valid in all nodes) and a local domain (valid in the current
// subtree); original-status variables additionally keep the untouched
// problem-definition domain.

import "fmt"

// Dom is a closed interval [Lb, Ub] minus a list of open holes.
// Invariants: Lb <= Ub (equality denotes a fixed value), and every hole
// lies strictly inside (Lb, Ub).
type Dom struct {
	lb    float64
	ub    float64
	holes holeList
}

// Lb returns the lower bound.
func (d *Dom) Lb() float64 { return d.lb }

// Ub returns the upper bound.
func (d *Dom) Ub() float64 { return d.ub }

// Holes returns the excluded open intervals, sorted by left endpoint.
func (d *Dom) Holes() []Hole { return d.holes }

// String renders the domain as an interval, listing holes when present.
func (d *Dom) String() string {
	if len(d.holes) == 0 {
		return fmt.Sprintf("[%g,%g]", d.lb, d.ub)
	}
	return fmt.Sprintf("[%g,%g]\\%v", d.lb, d.ub, d.holes)
}

// contains reports whether v is inside the domain under feasibility
// tolerance, respecting holes.
func (d *Dom) contains(ns Settings, v float64) bool {
	if ns.isFeasLT(v, d.lb) || ns.isFeasGT(v, d.ub) {
		return false
	}
	return !d.holes.covers(ns, v)
}

// addHole excludes the open interval (left,right), merging with existing
// holes and clipping to the current bounds.
func (d *Dom) addHole(ns Settings, left, right float64) {
	d.holes = d.holes.insert(ns, left, right).clip(ns, d.lb, d.ub)
}

// setLb moves the lower bound and drops holes no longer strictly inside.
func (d *Dom) setLb(ns Settings, lb float64) {
	d.lb = lb
	d.holes = d.holes.clip(ns, d.lb, d.ub)
}

// setUb moves the upper bound and drops holes no longer strictly inside.
func (d *Dom) setUb(ns Settings, ub float64) {
	d.ub = ub
	d.holes = d.holes.clip(ns, d.lb, d.ub)
}

// checkInvariant panics if the Lb <= Ub invariant is violated beyond the
// feasibility tolerance. Used at mutation boundaries.
func (d *Dom) checkInvariant(ns Settings, name string) {
	if ns.isFeasGT(d.lb, d.ub) {
		panic(fmt.Sprintf("cip: domain of <%s> violated: lb %g > ub %g", name, d.lb, d.ub))
	}
}
