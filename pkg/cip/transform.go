package cip

// transform.go: the irreversible status transitions. Fixing, aggregation,
// multi-aggregation, and negation remove a variable from the active problem
// by redirecting it onto representative variables; each operation first
// evaluates its feasibility checks and bound fixpoint, and only then
// performs the structural transfer of locks, objective, and relationship
// lists.

import (
	"fmt"
	"math"
)

// Fix fixes the variable to the given value. Valid from loose status or
// through a chain of original/aggregated/negated forwards ending in a loose
// variable; fixing a column variable directly is a programming error.
//
// Returns fixed=false if the variable is already fixed to the same value,
// and infeasible=true if the value lies outside the current local domain
// (or, for already fixed variables, differs from the fixed value).
func (v *Variable) Fix(val float64) (fixed, infeasible bool) {
	ns := v.prob.settings
	switch d := v.data.(type) {
	case originalData:
		if d.transVar == nil {
			panic(fmt.Sprintf("cip: cannot fix untransformed original variable <%s>", v.name))
		}
		return d.transVar.Fix(val)
	case aggregatedData:
		return d.aggVar.Fix(v.prob.affineInv(val, d.scalar, d.constant))
	case negatedData:
		return d.negVar.Fix(d.offset - val)
	case fixedData:
		if ns.isFeasEQ(val, v.glbDom.lb) {
			return false, false
		}
		return false, true
	case columnData:
		panic(fmt.Sprintf("cip: cannot fix column variable <%s> directly", v.name))
	case multAggrData:
		panic(fmt.Sprintf("cip: cannot fix multi-aggregated variable <%s>", v.name))
	case looseData:
		// fall through to the actual fixing below
	default:
		panic(fmt.Sprintf("cip: variable <%s> has invalid status", v.name))
	}

	if v.varType.Integral() && !ns.isIntegral(val) {
		return false, true
	}
	if !v.locDom.contains(ns, val) {
		return false, true
	}
	if v.varType.Integral() {
		val = math.Round(val)
	}

	v.logger().Debug().Float64("value", val).Msg("fixing variable")

	// fold the objective contribution into the problem offset
	if !ns.isZero(v.obj) {
		oldObj := v.obj
		v.prob.addObjOffset(val * v.obj)
		v.obj = 0
		v.prob.enqueue(Event{Kind: EventObjChanged, Var: v, OldValue: oldObj, NewValue: 0})
	}

	// holes are meaningless on a point domain
	v.glbDom.holes = nil
	v.locDom.holes = nil

	// close both domains onto the value; this fires implications and clique
	// memberships of a binary variable before its lists are torn down
	if _, inf := v.ChgLbGlobal(val); inf {
		infeasible = true
	}
	if _, inf := v.ChgUbGlobal(val); inf {
		infeasible = true
	}

	v.removeRelationships()
	v.history.reset()
	v.branchDir = BranchDirAuto

	v.data = fixedData{}
	v.prob.enqueue(Event{Kind: EventVarFixed, Var: v})
	v.prob.stats.countFixing()
	return true, infeasible
}

// removeRelationships deletes every variable bound, implication, and clique
// membership that references v, both from v itself and from every peer.
func (v *Variable) removeRelationships() {
	if v.implics != nil {
		v.implics.removeMirrors(v)
		v.implics = nil
	}
	v.vlbs = nil
	v.vubs = nil
	v.prob.removeVBoundsReferencing(v)
	if v.cliques != nil {
		v.cliques.removeFromAll(v)
		v.cliques = nil
	}
}

// Aggregate redirects v onto aggVar via v = scalar*aggVar + constant.
// Both variables are resolved through their status chains first; the actual
// aggregation happens between the two loose representatives with the
// equation rewritten accordingly.
//
// Degenerate cases follow the equation: a self-aggregation fixes the
// variable (or is infeasible for scalar=1 with nonzero constant), a fixed
// representative on either side fixes the other, and a bound intersection
// that collapses to a point fixes both variables instead of aggregating.
// When both representatives are binary and the rewritten equation is
// x = 1 - y, the cheaper negated pairing is produced instead.
//
// Returns aggregated=false (without infeasibility) when the pair cannot be
// aggregated structurally, e.g. because a representative is
// multi-aggregated.
func (v *Variable) Aggregate(aggVar *Variable, scalar, constant float64) (aggregated, infeasible bool) {
	ns := v.prob.settings
	if ns.isZero(scalar) {
		return v.Fix(constant)
	}

	xr, sx, cx := v.active()
	yr, sy, cy := aggVar.active()

	if _, ok := xr.data.(multAggrData); ok {
		return false, false
	}
	if _, ok := yr.data.(multAggrData); ok {
		return false, false
	}

	// rewrite v = scalar*aggVar + constant between the representatives:
	// sx*xr + cx = scalar*(sy*yr + cy) + constant
	a := scalar * sy / sx
	c := (scalar*cy + constant - cx) / sx

	if xr == yr {
		// xr = a*xr + c
		if ns.isEQ(a, 1) {
			if ns.isZero(c) {
				return false, false // redundant
			}
			return false, true
		}
		return xr.Fix(c / (1 - a))
	}

	if _, ok := yr.data.(fixedData); ok {
		return xr.Fix(a*yr.glbDom.lb + c)
	}
	if _, ok := xr.data.(fixedData); ok {
		return yr.Fix((xr.glbDom.lb - c) / a)
	}

	xr.mustBeLoose("aggregate")
	yr.mustBeLoose("aggregate")

	// two-sided global bound fixpoint under xr = a*yr + c; each tightening
	// can enable the next, so iterate until nothing moves
	for {
		changed := false
		t, inf := tightenFromImage(xr, yr, a, c)
		if inf {
			return false, true
		}
		changed = changed || t
		t, inf = tightenFromPreimage(yr, xr, a, c)
		if inf {
			return false, true
		}
		changed = changed || t
		if !changed {
			break
		}
	}

	if ns.isFeasEQ(xr.glbDom.lb, xr.glbDom.ub) {
		// the intersection collapsed to a point: fix both, do not aggregate
		val := xr.glbDom.lb
		if _, inf := xr.Fix(val); inf {
			return false, true
		}
		_, inf := yr.Fix((val - c) / a)
		return false, inf
	}

	v.logger().Debug().
		Str("aggvar", yr.name).
		Float64("scalar", a).
		Float64("constant", c).
		Msg("aggregating variable")

	// structural transfer: from here on the operation commits
	infeasible = xr.transferRelationships(yr, a, c) || infeasible
	xr.transferLocks(yr, a)
	xr.transferObjective(yr, a, c)
	yr.history.unite(&xr.history, a < 0)
	xr.history.reset()
	yr.branchFactor = math.Max(yr.branchFactor, xr.branchFactor)
	yr.branchPriority = max(yr.branchPriority, xr.branchPriority)
	yr.branchDir = mergeBranchDirs(yr.branchDir, flipDir(xr.branchDir, a < 0))

	// status flip: binary x = 1 - y becomes a negated pairing
	if xr.IsBinary() && yr.IsBinary() && ns.isEQ(a, -1) && ns.isEQ(c, 1) &&
		xr.negatedVar == nil && yr.negatedVar == nil {
		xr.data = negatedData{negVar: yr, offset: 1}
		xr.negatedVar = yr
		yr.negatedVar = xr
	} else {
		xr.data = aggregatedData{aggVar: yr, scalar: a, constant: c}
	}
	yr.addParent(xr)

	// the aggregated variable's domains become the exact image of yr's
	xr.glbDom = imageDom(ns, &yr.glbDom, a, c)
	xr.locDom = imageDom(ns, &yr.locDom, a, c)

	xr.prob.enqueue(Event{Kind: EventVarFixed, Var: xr})
	xr.prob.stats.countAggregation()
	return true, infeasible
}

// tightenFromImage tightens x's global bounds from y's under x = a*y + c.
func tightenFromImage(x, y *Variable, a, c float64) (changed, infeasible bool) {
	ns := x.prob.settings
	var lo, hi float64
	if a > 0 {
		lo, hi = a*y.glbDom.lb+c, a*y.glbDom.ub+c
	} else {
		lo, hi = a*y.glbDom.ub+c, a*y.glbDom.lb+c
	}
	if !ns.IsNegInfinity(lo) && ns.isGT(lo, x.glbDom.lb) {
		t, inf := x.ChgLbGlobal(lo)
		if inf {
			return changed, true
		}
		changed = changed || t
	}
	if !ns.IsInfinity(hi) && ns.isLT(hi, x.glbDom.ub) {
		t, inf := x.ChgUbGlobal(hi)
		if inf {
			return changed, true
		}
		changed = changed || t
	}
	return changed, false
}

// tightenFromPreimage tightens y's global bounds from x's under x = a*y + c,
// i.e. y = (x-c)/a.
func tightenFromPreimage(y, x *Variable, a, c float64) (changed, infeasible bool) {
	ns := y.prob.settings
	var lo, hi float64
	if a > 0 {
		lo, hi = (x.glbDom.lb-c)/a, (x.glbDom.ub-c)/a
	} else {
		lo, hi = (x.glbDom.ub-c)/a, (x.glbDom.lb-c)/a
	}
	if !ns.IsNegInfinity(lo) && ns.isGT(lo, y.glbDom.lb) {
		t, inf := y.ChgLbGlobal(lo)
		if inf {
			return changed, true
		}
		changed = changed || t
	}
	if !ns.IsInfinity(hi) && ns.isLT(hi, y.glbDom.ub) {
		t, inf := y.ChgUbGlobal(hi)
		if inf {
			return changed, true
		}
		changed = changed || t
	}
	return changed, false
}

// imageDom maps a domain through x = a*y + c, including holes.
func imageDom(ns Settings, d *Dom, a, c float64) Dom {
	var out Dom
	if a > 0 {
		out.lb, out.ub = ns.clampInf(a*d.lb+c), ns.clampInf(a*d.ub+c)
	} else {
		out.lb, out.ub = ns.clampInf(a*d.ub+c), ns.clampInf(a*d.lb+c)
	}
	for _, h := range d.holes {
		l, r := a*h.Left+c, a*h.Right+c
		if a < 0 {
			l, r = r, l
		}
		out.holes = out.holes.insert(ns, l, r)
	}
	return out
}

// transferRelationships replays xr's variable bounds, implications, and
// clique memberships onto yr under xr = a*yr + c, then clears them on xr.
// Replaying goes through the regular add paths so that the usual redundancy
// and conflict checks apply.
func (xr *Variable) transferRelationships(yr *Variable, a, c float64) (infeasible bool) {
	// variable lower bounds: xr >= b*z + d  =>  a*yr + c >= b*z + d
	if xr.vlbs != nil {
		for i := 0; i < xr.vlbs.Len(); i++ {
			z, b, d := xr.vlbs.Entry(i)
			if a > 0 {
				infeasible = yr.AddVlb(z, b/a, (d-c)/a, false) || infeasible
			} else {
				infeasible = yr.AddVub(z, b/a, (d-c)/a, false) || infeasible
			}
		}
		xr.vlbs = nil
	}
	// variable upper bounds: xr <= b*z + d
	if xr.vubs != nil {
		for i := 0; i < xr.vubs.Len(); i++ {
			z, b, d := xr.vubs.Entry(i)
			if a > 0 {
				infeasible = yr.AddVub(z, b/a, (d-c)/a, false) || infeasible
			} else {
				infeasible = yr.AddVlb(z, b/a, (d-c)/a, false) || infeasible
			}
		}
		xr.vubs = nil
	}
	// implications and cliques exist on binary variables only; a feasible
	// binary-binary aggregation is either the identity or the negation, so
	// the fixing value maps directly (a>0) or flips (a<0)
	if xr.implics != nil {
		neg := a < 0
		xr.implics.removeMirrors(xr)
		xr.implics.forEach(func(fixing bool, y *Variable, bt BoundType, bound float64) {
			f := fixing
			if neg {
				f = !fixing
			}
			infeasible = yr.AddImplic(f, y, bt, bound, false) || infeasible
		})
		xr.implics = nil
	}
	xr.prob.removeVBoundsReferencing(xr)
	if xr.cliques != nil {
		neg := a < 0
		memberships := xr.cliques.snapshot()
		xr.cliques.removeFromAll(xr)
		xr.cliques = nil
		for _, m := range memberships {
			val := m.value
			if neg {
				val = !val
			}
			infeasible = xr.prob.addVarToClique(m.clique, yr, val) || infeasible
		}
	}
	return infeasible
}

// transferLocks moves xr's rounding locks onto yr, swapping directions for
// a negative scalar.
func (xr *Variable) transferLocks(yr *Variable, a float64) {
	down, up := xr.nLocksDown, xr.nLocksUp
	xr.nLocksDown, xr.nLocksUp = 0, 0
	if a > 0 {
		yr.AddLocks(down, up)
	} else {
		yr.AddLocks(up, down)
	}
}

// transferObjective folds xr's objective into yr and the problem offset:
// obj*xr = obj*(a*yr + c).
func (xr *Variable) transferObjective(yr *Variable, a, c float64) {
	ns := xr.prob.settings
	if ns.isZero(xr.obj) {
		return
	}
	oldObj := xr.obj
	yr.AddObjDelta(oldObj * a)
	xr.prob.addObjOffset(oldObj * c)
	xr.obj = 0
	xr.prob.enqueue(Event{Kind: EventObjChanged, Var: xr, OldValue: oldObj, NewValue: 0})
}

// MultiAggregate redirects v onto a weighted sum: v = sum scalars[i]*vars[i]
// + constant. Zero terms degenerate to Fix, one term to Aggregate. Bound
// tightening between the variable and its aggregation is not performed
// (known limitation of the multi-aggregated representation: it would
// require rewriting a linear constraint), and bound operations on the
// multi-aggregated variable panic afterwards.
func (v *Variable) MultiAggregate(vars []*Variable, scalars []float64, constant float64) (aggregated, infeasible bool) {
	if len(vars) != len(scalars) {
		panic(fmt.Sprintf("cip: multi-aggregation of <%s> with %d variables but %d scalars", v.name, len(vars), len(scalars)))
	}
	ns := v.prob.settings

	xr, sx, cx := v.active()
	if _, ok := xr.data.(multAggrData); ok {
		return false, false
	}
	if _, ok := xr.data.(fixedData); ok {
		return false, false
	}

	// flatten every term to its active representative and merge duplicates;
	// sx*xr + cx = sum scalars[i]*vars[i] + constant
	type termKey = *Variable
	coefs := map[termKey]float64{}
	order := make([]*Variable, 0, len(vars))
	c := (constant - cx) / sx
	selfCoef := 0.0
	for i, tv := range vars {
		tr, st, ct := tv.active()
		coef := scalars[i] * st / sx
		c += scalars[i] * ct / sx
		if tr == xr {
			selfCoef += coef
			continue
		}
		if _, ok := tr.data.(fixedData); ok {
			c += coef * tr.glbDom.lb
			continue
		}
		if _, seen := coefs[tr]; !seen {
			order = append(order, tr)
		}
		coefs[tr] += coef
	}
	if !ns.isZero(selfCoef) {
		if ns.isEQ(selfCoef, 1) {
			// xr cancels out of its own definition
			if len(order) == 0 && ns.isZero(c) {
				return false, false
			}
			return false, false
		}
		scale := 1 - selfCoef
		for _, tr := range order {
			coefs[tr] /= scale
		}
		c /= scale
	}

	flatVars := make([]*Variable, 0, len(order))
	flatScalars := make([]float64, 0, len(order))
	for _, tr := range order {
		if ns.isZero(coefs[tr]) {
			continue
		}
		flatVars = append(flatVars, tr)
		flatScalars = append(flatScalars, coefs[tr])
	}

	switch len(flatVars) {
	case 0:
		return xr.Fix(c)
	case 1:
		return xr.Aggregate(flatVars[0], flatScalars[0], c)
	}

	xr.mustBeLoose("multi-aggregate")

	v.logger().Debug().Int("nterms", len(flatVars)).Msg("multi-aggregating variable")

	// objective distribution: obj*xr = obj*(sum a_i*y_i + c)
	if !ns.isZero(xr.obj) {
		oldObj := xr.obj
		for i, tv := range flatVars {
			tv.AddObjDelta(oldObj * flatScalars[i])
		}
		xr.prob.addObjOffset(oldObj * c)
		xr.obj = 0
		xr.prob.enqueue(Event{Kind: EventObjChanged, Var: xr, OldValue: oldObj, NewValue: 0})
	}

	// lock transfer per term sign
	down, up := xr.nLocksDown, xr.nLocksUp
	xr.nLocksDown, xr.nLocksUp = 0, 0
	for i, tv := range flatVars {
		if flatScalars[i] > 0 {
			tv.AddLocks(down, up)
		} else {
			tv.AddLocks(up, down)
		}
	}

	// relationship lists cannot be expressed on a sum; drop them entirely,
	// including implications on peers that still target xr, which would
	// otherwise fire bound deductions on the multi-aggregated variable
	xr.removeRelationships()
	xr.prob.removeImplicsReferencing(xr)
	xr.history.reset()

	xr.data = multAggrData{vars: flatVars, scalars: flatScalars, constant: c}
	for _, tv := range flatVars {
		tv.addParent(xr)
	}
	xr.prob.enqueue(Event{Kind: EventVarFixed, Var: xr})
	xr.prob.stats.countAggregation()
	return true, false
}

// Negated returns the negation partner x' = offset - x of the variable,
// lazily creating it on first request. The offset is 1 for binary variables
// and lb+ub of the global domain otherwise; requesting the negation of an
// unbounded non-binary variable is a programming error. Negation is
// idempotent: the negation of the negated variable is the original.
func (v *Variable) Negated() *Variable {
	if d, ok := v.data.(negatedData); ok {
		return d.negVar
	}
	if v.negatedVar != nil {
		return v.negatedVar
	}
	if d, ok := v.data.(originalData); ok && d.transVar != nil {
		return d.transVar.Negated()
	}
	ns := v.prob.settings
	var offset float64
	if v.IsBinary() {
		offset = 1
	} else {
		if ns.IsNegInfinity(v.glbDom.lb) || ns.IsInfinity(v.glbDom.ub) {
			panic(fmt.Sprintf("cip: cannot negate unbounded variable <%s>", v.name))
		}
		offset = v.glbDom.lb + v.glbDom.ub
	}

	neg := v.prob.newVariableRaw(v.name+"_neg", v.varType)
	neg.data = negatedData{negVar: v, offset: offset}
	neg.obj = 0
	neg.glbDom = imageDom(ns, &v.glbDom, -1, offset)
	neg.locDom = imageDom(ns, &v.locDom, -1, offset)
	neg.branchFactor = v.branchFactor
	neg.branchPriority = v.branchPriority
	neg.branchDir = v.branchDir.opposite()

	v.addParent(neg)
	v.negatedVar = neg
	neg.negatedVar = v
	return neg
}

// AddObjDelta adds delta to the variable's objective coefficient,
// forwarding through the transformation graph: fixed variables fold the
// delta into the problem's objective offset, aggregations scale it, and
// negations flip it.
func (v *Variable) AddObjDelta(delta float64) {
	if v.prob.settings.isZero(delta) {
		return
	}
	switch d := v.data.(type) {
	case originalData:
		v.obj += delta
		if d.transVar != nil {
			d.transVar.AddObjDelta(delta)
		}
	case looseData:
		old := v.obj
		v.obj += delta
		v.prob.enqueue(Event{Kind: EventObjChanged, Var: v, OldValue: old, NewValue: v.obj})
	case columnData:
		old := v.obj
		v.obj += delta
		if d.col != nil {
			d.col.SetObj(v.obj)
		}
		v.prob.enqueue(Event{Kind: EventObjChanged, Var: v, OldValue: old, NewValue: v.obj})
	case fixedData:
		v.prob.addObjOffset(v.glbDom.lb * delta)
	case aggregatedData:
		d.aggVar.AddObjDelta(d.scalar * delta)
		v.prob.addObjOffset(d.constant * delta)
	case multAggrData:
		for i, tv := range d.vars {
			tv.AddObjDelta(d.scalars[i] * delta)
		}
		v.prob.addObjOffset(d.constant * delta)
	case negatedData:
		d.negVar.AddObjDelta(-delta)
		v.prob.addObjOffset(d.offset * delta)
	default:
		panic(fmt.Sprintf("cip: variable <%s> has invalid status", v.name))
	}
}

// mustBeLoose panics unless the variable is loose.
func (v *Variable) mustBeLoose(op string) {
	if _, ok := v.data.(looseData); !ok {
		panic(fmt.Sprintf("cip: cannot %s %s variable <%s>", op, v.Status(), v.name))
	}
}

// flipDir flips a branching direction when flip is true.
func flipDir(d BranchDir, flip bool) BranchDir {
	if flip {
		return d.opposite()
	}
	return d
}

// mergeBranchDirs reconciles two branching directions: equal values stay,
// auto yields to the other side, and a conflict resets to auto.
func mergeBranchDirs(a, b BranchDir) BranchDir {
	switch {
	case a == b:
		return a
	case a == BranchDirAuto:
		return b
	case b == BranchDirAuto:
		return a
	default:
		return BranchDirAuto
	}
}
