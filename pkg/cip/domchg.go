package cip

// domchg.go: the ordered, undoable sequence of bound and hole changes owned
// by one search-tree node. A list is built while the node's deductions are
// collected, applied when the node is activated, and undone in exact
// reverse order when the search backtracks past the node.

import "fmt"

// DomChgKind describes the physical representation of a DomChg. The
// representations trade memory for mutability but are observationally a
// single abstract sequence; conversions preserve order and content.
type DomChgKind int

const (
	// DomChgEmpty holds no changes.
	DomChgEmpty DomChgKind = iota
	// DomChgStaticBound holds a compacted list of bound changes only.
	DomChgStaticBound
	// DomChgStatic holds compacted bound and hole changes.
	DomChgStatic
	// DomChgDynamic holds growable bound and hole change lists.
	DomChgDynamic
)

// DomChg is the domain-change list of one search-tree node.
type DomChg struct {
	kind      DomChgKind
	boundChgs []*BoundChange
	holeChgs  []*HoleChange
	applied   bool
	depth     int // search depth of the last Apply
}

// NewDomChg returns an empty, dynamic domain-change list.
func NewDomChg() *DomChg { return &DomChg{kind: DomChgDynamic} }

// Kind returns the current physical representation.
func (dc *DomChg) Kind() DomChgKind { return dc.kind }

// Len returns the number of bound changes in the list.
func (dc *DomChg) Len() int { return len(dc.boundChgs) }

// BoundChg returns the i-th bound change.
func (dc *DomChg) BoundChg(i int) *BoundChange { return dc.boundChgs[i] }

// NHoleChgs returns the number of hole changes in the list.
func (dc *DomChg) NHoleChgs() int { return len(dc.holeChgs) }

// MakeStatic compacts the list into its tightest static representation.
// Order and content are preserved exactly; only the ability to grow in
// place is given up until the next append upgrades the list again.
func (dc *DomChg) MakeStatic() {
	switch {
	case len(dc.boundChgs) == 0 && len(dc.holeChgs) == 0:
		dc.kind = DomChgEmpty
		dc.boundChgs = nil
		dc.holeChgs = nil
	case len(dc.holeChgs) == 0:
		dc.kind = DomChgStaticBound
		dc.boundChgs = append(make([]*BoundChange, 0, len(dc.boundChgs)), dc.boundChgs...)
		dc.holeChgs = nil
	default:
		dc.kind = DomChgStatic
		dc.boundChgs = append(make([]*BoundChange, 0, len(dc.boundChgs)), dc.boundChgs...)
		dc.holeChgs = append(make([]*HoleChange, 0, len(dc.holeChgs)), dc.holeChgs...)
	}
}

// makeDynamic upgrades a static representation for appending. Existing
// elements are copied in order.
func (dc *DomChg) makeDynamic() {
	if dc.kind == DomChgDynamic {
		return
	}
	dc.boundChgs = append([]*BoundChange(nil), dc.boundChgs...)
	dc.holeChgs = append([]*HoleChange(nil), dc.holeChgs...)
	dc.kind = DomChgDynamic
}

// BoundChangeOpts carries the optional provenance of a bound change. The
// required fields depend on the change type: branching may carry the LP
// solution value of the variable, constraint inference must name the
// inference constraint, propagator inference may name the propagator; both
// inference kinds may carry the inference variable, its bound type, and a
// consumer-defined payload.
type BoundChangeOpts struct {
	LpSolVal       float64
	InferVar       *Variable
	InferCons      Constraint
	InferProp      Propagator
	InferInfo      int
	InferBoundType BoundType
}

// AddBoundChange validates and appends a bound change tightening the given
// bound of v to newBound. The change is not applied yet; Apply commits the
// whole list. The variable is resolved through its status chain, so the
// recorded change always targets an active variable with the transformed
// bound value. Any inference constraint is captured for the lifetime of the
// entry.
func (dc *DomChg) AddBoundChange(v *Variable, bt BoundType, newBound float64, chgType BoundChgType, opts BoundChangeOpts) error {
	if dc.applied {
		return fmt.Errorf("DomChg: cannot add bound changes to an applied list")
	}
	switch chgType {
	case BoundChgTypeBranching:
		if opts.InferCons != nil || opts.InferProp != nil || opts.InferVar != nil {
			return fmt.Errorf("DomChg: branching bound change must not carry inference data")
		}
	case BoundChgTypeConsInfer:
		if opts.InferCons == nil {
			return fmt.Errorf("DomChg: constraint-inferred bound change requires a constraint reference")
		}
		if opts.InferProp != nil {
			return fmt.Errorf("DomChg: constraint-inferred bound change cannot carry a propagator")
		}
	case BoundChgTypePropInfer:
		if opts.InferCons != nil {
			return fmt.Errorf("DomChg: propagator-inferred bound change cannot carry a constraint")
		}
	default:
		panic(fmt.Sprintf("cip: invalid bound change type %d", int(chgType)))
	}
	if bt != BoundTypeLower && bt != BoundTypeUpper {
		panic(fmt.Sprintf("cip: invalid bound type %d", int(bt)))
	}

	// resolve onto the active representative
	repr, scalar, constant := v.active()
	switch repr.data.(type) {
	case looseData, columnData:
	case multAggrData:
		panic(fmt.Sprintf("cip: cannot change bounds of multi-aggregated variable <%s>", v.Name()))
	default:
		panic(fmt.Sprintf("cip: cannot record bound change for %s variable <%s>", repr.Status(), repr.Name()))
	}
	rbt := bt
	if scalar < 0 {
		rbt = bt.Opposite()
	}
	rbound := (newBound - constant) / scalar
	rbound = repr.adjustBd(rbt, rbound)

	if opts.InferCons != nil {
		opts.InferCons.Capture()
	}
	dc.makeDynamic()
	dc.boundChgs = append(dc.boundChgs, &BoundChange{
		v:              repr,
		boundType:      rbt,
		newBound:       rbound,
		chgType:        chgType,
		lpSolVal:       opts.LpSolVal,
		inferVar:       opts.InferVar,
		inferCons:      opts.InferCons,
		inferProp:      opts.InferProp,
		inferInfo:      opts.InferInfo,
		inferBoundType: opts.InferBoundType,
	})
	return nil
}

// AddHoleChange appends a hole-list swap for v's local (and optionally
// global) domain, to be applied and undone with the list.
func (dc *DomChg) AddHoleChange(v *Variable, global bool, oldHoles, newHoles []Hole) error {
	if dc.applied {
		return fmt.Errorf("DomChg: cannot add hole changes to an applied list")
	}
	repr, scalar, constant := v.active()
	if scalar != 1 || constant != 0 {
		return fmt.Errorf("DomChg: hole change must target an active variable, <%s> resolves affinely", v.Name())
	}
	dc.makeDynamic()
	dc.holeChgs = append(dc.holeChgs, &HoleChange{
		v:        repr,
		global:   global,
		oldHoles: holeList(oldHoles).clone(),
		newHoles: holeList(newHoles).clone(),
	})
	return nil
}

// Apply commits the list's changes at the given search depth, in index
// order. Each bound change is re-validated against the variable's current
// local bounds first: entries that no longer tighten anything (a later,
// deeper node may have relaxed the window since the change was queued) are
// invalidated and compacted away in a single pass, releasing any captured
// inference reference. Apply returns cutoff=true the instant one entry's
// new bound would cross the opposite current bound; the caller must then
// prune the node and Undo the partially applied list.
func (dc *DomChg) Apply(p *Problem, depth int) (cutoff bool) {
	if dc.applied {
		panic("cip: domain-change list applied twice")
	}
	ns := p.settings
	dc.applied = true
	dc.depth = depth

	for _, bc := range dc.boundChgs {
		v := bc.v
		if bc.boundType == BoundTypeLower {
			if ns.isFeasGT(bc.newBound, v.locDom.ub) {
				p.stats.countCutoff()
				return true
			}
			if ns.isLE(bc.newBound, v.locDom.lb) {
				bc.v = nil // no longer tightens anything
				bc.releaseReferences()
				continue
			}
		} else {
			if ns.isFeasLT(bc.newBound, v.locDom.lb) {
				p.stats.countCutoff()
				return true
			}
			if ns.isGE(bc.newBound, v.locDom.ub) {
				bc.v = nil
				bc.releaseReferences()
				continue
			}
		}
		bc.idx = p.nextBdChgIdx(depth)
		bc.oldBound = domBound(&v.locDom, bc.boundType)
		if bc.boundType == BoundTypeLower {
			v.lbChgs = append(v.lbChgs, bc)
		} else {
			v.ubChgs = append(v.ubChgs, bc)
		}
		bc.applied = true
		v.processChgBdLocal(bc.boundType, bc.newBound)
	}

	// single-pass compaction of invalidated entries
	chgs := dc.boundChgs[:0]
	for _, bc := range dc.boundChgs {
		if bc.v != nil {
			chgs = append(chgs, bc)
		}
	}
	dc.boundChgs = chgs

	for _, hc := range dc.holeChgs {
		if hc.global {
			hc.v.glbDom.holes = hc.newHoles.clone()
		}
		hc.v.locDom.holes = hc.newHoles.clone()
		hc.applied = true
	}
	return false
}

// Undo reverts the list: hole changes are unwound last-to-first, then bound
// changes in reverse index order. Each undone bound change must be the most
// recent entry of its variable's history for that bound; anything else is a
// broken LIFO discipline and panics.
func (dc *DomChg) Undo(p *Problem) {
	if !dc.applied {
		panic("cip: cannot undo a domain-change list that was not applied")
	}
	for i := len(dc.holeChgs) - 1; i >= 0; i-- {
		hc := dc.holeChgs[i]
		if !hc.applied {
			continue
		}
		if hc.global {
			hc.v.glbDom.holes = hc.oldHoles.clone()
		}
		hc.v.locDom.holes = hc.oldHoles.clone()
		hc.applied = false
	}
	for i := len(dc.boundChgs) - 1; i >= 0; i-- {
		bc := dc.boundChgs[i]
		if !bc.applied || bc.v == nil {
			continue
		}
		v := bc.v
		if bc.boundType == BoundTypeLower {
			n := len(v.lbChgs)
			if n == 0 || v.lbChgs[n-1] != bc {
				panic(fmt.Sprintf("cip: bound change of <%s> undone out of order", v.name))
			}
			v.lbChgs = v.lbChgs[:n-1]
		} else {
			n := len(v.ubChgs)
			if n == 0 || v.ubChgs[n-1] != bc {
				panic(fmt.Sprintf("cip: bound change of <%s> undone out of order", v.name))
			}
			v.ubChgs = v.ubChgs[:n-1]
		}
		v.processChgBdLocal(bc.boundType, bc.oldBound)
		bc.applied = false
	}
	dc.applied = false
	p.retractDepth(dc.depth)
}

// Free releases every captured inference reference of the list and empties
// it. The list must not be applied.
func (dc *DomChg) Free() {
	if dc.applied {
		panic("cip: cannot free an applied domain-change list")
	}
	for _, bc := range dc.boundChgs {
		bc.releaseReferences()
	}
	dc.boundChgs = nil
	dc.holeChgs = nil
	dc.kind = DomChgEmpty
}
