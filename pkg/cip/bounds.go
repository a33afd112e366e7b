package cip

// bounds.go: global and local bound changes. The exported entry points
// dispatch on the variable's status and forward through the transformation
// graph; the process* routines commit a change to an active variable and
// recurse into the parent back-references so that every aggregated and
// negated image stays consistent.

import "fmt"

// ChgLbGlobal tightens (or relaxes) the global lower bound of the variable.
// The bound is adjusted for integrality first. Returns tightened=false if
// the adjusted bound equals the current one, and infeasible=true if the new
// bound would cross the global upper bound beyond the feasibility
// tolerance. Fixing a binary variable this way fires its implications and
// clique memberships transitively.
func (v *Variable) ChgLbGlobal(newBound float64) (tightened, infeasible bool) {
	return v.chgBdGlobal(BoundTypeLower, newBound)
}

// ChgUbGlobal is the upper-bound counterpart of ChgLbGlobal.
func (v *Variable) ChgUbGlobal(newBound float64) (tightened, infeasible bool) {
	return v.chgBdGlobal(BoundTypeUpper, newBound)
}

func (v *Variable) chgBdGlobal(bt BoundType, newBound float64) (tightened, infeasible bool) {
	ns := v.prob.settings
	switch d := v.data.(type) {
	case originalData:
		if d.transVar != nil {
			return d.transVar.chgBdGlobal(bt, newBound)
		}
		// untransformed original variable: problem-definition stage
		adjusted := v.adjustBd(bt, newBound)
		if bt == BoundTypeLower {
			if ns.isFeasGT(adjusted, v.origDom.ub) {
				return false, true
			}
			v.origDom.setLb(ns, adjusted)
			v.glbDom.setLb(ns, adjusted)
			v.locDom.setLb(ns, adjusted)
		} else {
			if ns.isFeasLT(adjusted, v.origDom.lb) {
				return false, true
			}
			v.origDom.setUb(ns, adjusted)
			v.glbDom.setUb(ns, adjusted)
			v.locDom.setUb(ns, adjusted)
		}
		return true, false
	case looseData, columnData:
		adjusted := v.adjustBd(bt, newBound)
		if ns.isEQ(adjusted, domBound(&v.glbDom, bt)) {
			return false, false
		}
		if bt == BoundTypeLower && ns.isFeasGT(adjusted, v.glbDom.ub) {
			return false, true
		}
		if bt == BoundTypeUpper && ns.isFeasLT(adjusted, v.glbDom.lb) {
			return false, true
		}
		return true, v.processChgBdGlobal(bt, adjusted)
	case fixedData:
		panic(fmt.Sprintf("cip: cannot change bounds of fixed variable <%s>", v.name))
	case aggregatedData:
		// v = a*y + c  =>  bound on y at (b-c)/a, flipped if a < 0
		inner := bt
		if d.scalar < 0 {
			inner = bt.Opposite()
		}
		return d.aggVar.chgBdGlobal(inner, v.prob.affineInv(newBound, d.scalar, d.constant))
	case multAggrData:
		panic(fmt.Sprintf("cip: cannot change bounds of multi-aggregated variable <%s>", v.name))
	case negatedData:
		return d.negVar.chgBdGlobal(bt.Opposite(), d.offset-newBound)
	default:
		panic(fmt.Sprintf("cip: variable <%s> has invalid status", v.name))
	}
}

// processChgBdGlobal commits an adjusted global bound to an active variable,
// follows the parent back-references, keeps the local domain nested inside
// the global one, and fires implications and cliques when a binary variable
// becomes globally fixed.
func (v *Variable) processChgBdGlobal(bt BoundType, newBound float64) (infeasible bool) {
	ns := v.prob.settings
	var old float64
	if bt == BoundTypeLower {
		old = v.glbDom.lb
		v.glbDom.setLb(ns, newBound)
	} else {
		old = v.glbDom.ub
		v.glbDom.setUb(ns, newBound)
	}
	v.glbDom.checkInvariant(ns, v.name)

	v.logger().Debug().
		Str("bound", bt.String()).
		Float64("old", old).
		Float64("new", newBound).
		Msg("global bound changed")
	v.prob.stats.countBoundChange()

	kind := EventGlbChanged
	if bt == BoundTypeUpper {
		kind = EventGubChanged
	}
	v.prob.enqueue(Event{Kind: kind, Var: v, OldValue: old, NewValue: newBound})

	// the local domain must stay nested within the global one
	if bt == BoundTypeLower && ns.isLT(v.locDom.lb, newBound) {
		infeasible = v.processChgBdLocal(BoundTypeLower, newBound) || infeasible
	}
	if bt == BoundTypeUpper && ns.isGT(v.locDom.ub, newBound) {
		infeasible = v.processChgBdLocal(BoundTypeUpper, newBound) || infeasible
	}

	infeasible = v.processParentsGlobal(bt, newBound) || infeasible

	// a binary variable that became globally fixed fires its relationships
	if v.varType == VarTypeBinary {
		if bt == BoundTypeLower && newBound > 0.5 {
			infeasible = v.fireGlobalFixing(true) || infeasible
		}
		if bt == BoundTypeUpper && newBound < 0.5 {
			infeasible = v.fireGlobalFixing(false) || infeasible
		}
	}
	return infeasible
}

// processParentsGlobal pushes a committed global bound change of v into the
// variables whose payload references v. The recursion terminates on the
// acyclic transformation graph; repeated visits are no-ops because equal
// bounds are never re-committed.
func (v *Variable) processParentsGlobal(bt BoundType, newBound float64) (infeasible bool) {
	for _, parent := range v.parents {
		switch d := parent.data.(type) {
		case originalData:
			// problem-definition bounds of original variables are frozen
		case aggregatedData:
			if d.aggVar != v {
				panic(fmt.Sprintf("cip: corrupt parent link <%s> -> <%s>", parent.name, v.name))
			}
			inner := bt
			if d.scalar < 0 {
				inner = bt.Opposite()
			}
			tightened, inf := parent.chgMirrorGlobal(inner, v.prob.affine(newBound, d.scalar, d.constant))
			_ = tightened
			infeasible = inf || infeasible
		case multAggrData:
			// bounds of multi-aggregated variables are not maintained
		case negatedData:
			if d.negVar != v {
				panic(fmt.Sprintf("cip: corrupt parent link <%s> -> <%s>", parent.name, v.name))
			}
			_, inf := parent.chgMirrorGlobal(bt.Opposite(), d.offset-newBound)
			infeasible = inf || infeasible
		default:
			panic(fmt.Sprintf("cip: variable <%s> cannot be a parent of <%s>", parent.name, v.name))
		}
	}
	return infeasible
}

// chgMirrorGlobal updates the mirrored global domain of an aggregated or
// negated variable after its representative moved. Mirrors do not carry own
// relationships, so no firing happens here.
func (v *Variable) chgMirrorGlobal(bt BoundType, newBound float64) (tightened, infeasible bool) {
	ns := v.prob.settings
	if ns.isEQ(domBound(&v.glbDom, bt), newBound) {
		return false, false
	}
	var old float64
	if bt == BoundTypeLower {
		old = v.glbDom.lb
		v.glbDom.setLb(ns, newBound)
		if ns.isLT(v.locDom.lb, newBound) {
			v.locDom.setLb(ns, newBound)
		}
	} else {
		old = v.glbDom.ub
		v.glbDom.setUb(ns, newBound)
		if ns.isGT(v.locDom.ub, newBound) {
			v.locDom.setUb(ns, newBound)
		}
	}
	kind := EventGlbChanged
	if bt == BoundTypeUpper {
		kind = EventGubChanged
	}
	v.prob.enqueue(Event{Kind: kind, Var: v, OldValue: old, NewValue: newBound})
	return true, v.processParentsGlobal(bt, newBound)
}

// fireGlobalFixing applies all implications and clique memberships of a
// binary variable that was just globally fixed to the given value. Returns
// infeasible if any deduced bound crosses.
func (v *Variable) fireGlobalFixing(value bool) (infeasible bool) {
	v.prob.stats.countPropagation()
	if v.implics != nil {
		infeasible = v.implics.apply(value) || infeasible
	}
	if v.cliques != nil {
		infeasible = v.cliques.applyFixing(v, value) || infeasible
	}
	return infeasible
}

// ChgLbLocal tightens or relaxes the local lower bound without creating a
// bound-change record. Node-attached changes go through DomChg instead so
// that they participate in apply/undo.
func (v *Variable) ChgLbLocal(newBound float64) (tightened, infeasible bool) {
	return v.chgBdLocal(BoundTypeLower, newBound)
}

// ChgUbLocal is the upper-bound counterpart of ChgLbLocal.
func (v *Variable) ChgUbLocal(newBound float64) (tightened, infeasible bool) {
	return v.chgBdLocal(BoundTypeUpper, newBound)
}

func (v *Variable) chgBdLocal(bt BoundType, newBound float64) (tightened, infeasible bool) {
	ns := v.prob.settings
	switch d := v.data.(type) {
	case originalData:
		if d.transVar == nil {
			panic(fmt.Sprintf("cip: cannot change local bounds of untransformed original variable <%s>", v.name))
		}
		return d.transVar.chgBdLocal(bt, newBound)
	case looseData, columnData:
		adjusted := v.adjustBd(bt, newBound)
		if ns.isEQ(adjusted, domBound(&v.locDom, bt)) {
			return false, false
		}
		if bt == BoundTypeLower && ns.isFeasGT(adjusted, v.locDom.ub) {
			return false, true
		}
		if bt == BoundTypeUpper && ns.isFeasLT(adjusted, v.locDom.lb) {
			return false, true
		}
		return true, v.processChgBdLocal(bt, adjusted)
	case fixedData:
		panic(fmt.Sprintf("cip: cannot change bounds of fixed variable <%s>", v.name))
	case aggregatedData:
		inner := bt
		if d.scalar < 0 {
			inner = bt.Opposite()
		}
		return d.aggVar.chgBdLocal(inner, v.prob.affineInv(newBound, d.scalar, d.constant))
	case multAggrData:
		panic(fmt.Sprintf("cip: cannot change bounds of multi-aggregated variable <%s>", v.name))
	case negatedData:
		return d.negVar.chgBdLocal(bt.Opposite(), d.offset-newBound)
	default:
		panic(fmt.Sprintf("cip: variable <%s> has invalid status", v.name))
	}
}

// processChgBdLocal commits an adjusted local bound to an active variable,
// mirrors it into the LP column if one exists, and recurses into parents.
func (v *Variable) processChgBdLocal(bt BoundType, newBound float64) (infeasible bool) {
	ns := v.prob.settings
	var old float64
	if bt == BoundTypeLower {
		old = v.locDom.lb
		v.locDom.setLb(ns, newBound)
	} else {
		old = v.locDom.ub
		v.locDom.setUb(ns, newBound)
	}
	v.locDom.checkInvariant(ns, v.name)

	v.logger().Trace().
		Str("bound", bt.String()).
		Float64("old", old).
		Float64("new", newBound).
		Msg("local bound changed")
	v.prob.stats.countBoundChange()

	if cd, ok := v.data.(columnData); ok && cd.col != nil {
		if bt == BoundTypeLower {
			cd.col.SetLb(newBound)
		} else {
			cd.col.SetUb(newBound)
		}
	}

	kind := EventLbChanged
	if bt == BoundTypeUpper {
		kind = EventUbChanged
	}
	v.prob.enqueue(Event{Kind: kind, Var: v, OldValue: old, NewValue: newBound})

	for _, parent := range v.parents {
		switch d := parent.data.(type) {
		case originalData, multAggrData:
			// nothing to maintain
		case aggregatedData:
			inner := bt
			if d.scalar < 0 {
				inner = bt.Opposite()
			}
			infeasible = parent.chgMirrorLocal(inner, v.prob.affine(newBound, d.scalar, d.constant)) || infeasible
		case negatedData:
			infeasible = parent.chgMirrorLocal(bt.Opposite(), d.offset-newBound) || infeasible
		default:
			panic(fmt.Sprintf("cip: variable <%s> cannot be a parent of <%s>", parent.name, v.name))
		}
	}
	return infeasible
}

// chgMirrorLocal updates the mirrored local domain of an aggregated or
// negated variable.
func (v *Variable) chgMirrorLocal(bt BoundType, newBound float64) (infeasible bool) {
	ns := v.prob.settings
	if ns.isEQ(domBound(&v.locDom, bt), newBound) {
		return false
	}
	var old float64
	if bt == BoundTypeLower {
		old = v.locDom.lb
		v.locDom.setLb(ns, newBound)
	} else {
		old = v.locDom.ub
		v.locDom.setUb(ns, newBound)
	}
	kind := EventLbChanged
	if bt == BoundTypeUpper {
		kind = EventUbChanged
	}
	v.prob.enqueue(Event{Kind: kind, Var: v, OldValue: old, NewValue: newBound})
	for _, parent := range v.parents {
		switch d := parent.data.(type) {
		case aggregatedData:
			inner := bt
			if d.scalar < 0 {
				inner = bt.Opposite()
			}
			infeasible = parent.chgMirrorLocal(inner, v.prob.affine(newBound, d.scalar, d.constant)) || infeasible
		case negatedData:
			infeasible = parent.chgMirrorLocal(bt.Opposite(), d.offset-newBound) || infeasible
		}
	}
	return infeasible
}

// adjustBd applies integrality adjustment to a requested bound value.
func (v *Variable) adjustBd(bt BoundType, bound float64) float64 {
	ns := v.prob.settings
	if bt == BoundTypeLower {
		return ns.adjustedLb(v.varType.Integral(), bound)
	}
	return ns.adjustedUb(v.varType.Integral(), bound)
}

// AddHoleGlobal excludes the open interval (left,right) from the global and
// local domains. Holes are informational refinements: they never produce
// infeasibility by themselves, and callers record local hole changes in a
// DomChg for undo.
func (v *Variable) AddHoleGlobal(left, right float64) error {
	av, scalar, constant := v.active()
	if scalar != 1 || constant != 0 {
		// transform the interval into the representative's space
		l := (left - constant) / scalar
		r := (right - constant) / scalar
		if scalar < 0 {
			l, r = r, l
		}
		left, right = l, r
	}
	return av.addHole(true, left, right)
}

// AddHoleLocal excludes the open interval (left,right) from the local
// domain only.
func (v *Variable) AddHoleLocal(left, right float64) error {
	av, scalar, constant := v.active()
	if scalar != 1 || constant != 0 {
		l := (left - constant) / scalar
		r := (right - constant) / scalar
		if scalar < 0 {
			l, r = r, l
		}
		left, right = l, r
	}
	return av.addHole(false, left, right)
}

func (v *Variable) addHole(global bool, left, right float64) error {
	ns := v.prob.settings
	if !ns.isLT(left, right) {
		return fmt.Errorf("Variable: hole (%g,%g) of <%s> is not a valid open interval", left, right, v.name)
	}
	switch v.data.(type) {
	case looseData, columnData:
	default:
		return fmt.Errorf("Variable: cannot add hole to %s variable <%s>", v.Status(), v.name)
	}
	if global {
		v.glbDom.addHole(ns, left, right)
	}
	v.locDom.addHole(ns, left, right)
	return nil
}
