package cip

// vbounds.go: variable bounds, the weakest of the three relationship
// strengths. A variable lower bound x >= b*z + d (or upper bound
// x <= b*z + d) is stored on x keyed by z. Accepting one immediately
// tightens the global bounds of both participants as far as the other's
// known bounds allow, and optionally walks one level into z's own variable
// bounds to derive second-order relationships.

import (
	"fmt"
	"sort"
)

// VBounds is an ordered list of variable-bound entries x {>=,<=} b*z + d,
// sorted by the bounding variable's index for canonical iteration and
// deduplication.
type VBounds struct {
	vars   []*Variable
	coefs  []float64
	consts []float64
}

// Len returns the number of entries.
func (vb *VBounds) Len() int {
	if vb == nil {
		return 0
	}
	return len(vb.vars)
}

// Entry returns the i-th entry: the bounding variable z, coefficient b, and
// constant d.
func (vb *VBounds) Entry(i int) (z *Variable, b, d float64) {
	return vb.vars[i], vb.coefs[i], vb.consts[i]
}

// find returns the position of z in the list, or the insertion position and
// false if absent.
func (vb *VBounds) find(z *Variable) (int, bool) {
	i := sort.Search(len(vb.vars), func(k int) bool { return vb.vars[k].index >= z.index })
	if i < len(vb.vars) && vb.vars[i] == z {
		return i, true
	}
	return i, false
}

// insert places (z,b,d) keeping the index order, replacing an existing
// entry for z.
func (vb *VBounds) insert(z *Variable, b, d float64) {
	i, found := vb.find(z)
	if found {
		vb.coefs[i] = b
		vb.consts[i] = d
		return
	}
	vb.vars = append(vb.vars, nil)
	vb.coefs = append(vb.coefs, 0)
	vb.consts = append(vb.consts, 0)
	copy(vb.vars[i+1:], vb.vars[i:])
	copy(vb.coefs[i+1:], vb.coefs[i:])
	copy(vb.consts[i+1:], vb.consts[i:])
	vb.vars[i] = z
	vb.coefs[i] = b
	vb.consts[i] = d
}

// remove deletes the entry for z if present.
func (vb *VBounds) remove(z *Variable) {
	if vb == nil {
		return
	}
	i, found := vb.find(z)
	if !found {
		return
	}
	vb.vars = append(vb.vars[:i], vb.vars[i+1:]...)
	vb.coefs = append(vb.coefs[:i], vb.coefs[i+1:]...)
	vb.consts = append(vb.consts[:i], vb.consts[i+1:]...)
}

// AddVlb adds the variable lower bound v >= b*z + d. The relationship is
// checked for redundancy and conflict against the current global bounds
// first; a conflicting relationship degenerates into a direct bound
// deduction on z instead of being stored. With transitive true, z's own
// variable bounds are walked one level to derive second-order bounds on v.
//
// Returns infeasible=true if any deduced global tightening crosses a bound.
func (v *Variable) AddVlb(z *Variable, b, d float64, transitive bool) (infeasible bool) {
	return v.addVBound(BoundTypeLower, z, b, d, transitive)
}

// AddVub adds the variable upper bound v <= b*z + d. See AddVlb.
func (v *Variable) AddVub(z *Variable, b, d float64, transitive bool) (infeasible bool) {
	return v.addVBound(BoundTypeUpper, z, b, d, transitive)
}

func (v *Variable) addVBound(bt BoundType, z *Variable, b, d float64, transitive bool) (infeasible bool) {
	ns := v.prob.settings

	// rewrite both sides onto their active representatives:
	// sx*xr + cx {>=,<=} b*(sz*zr + cz) + d
	xr, sx, cx := v.active()
	zr, sz, cz := z.active()
	if xr != v || zr != z {
		bb := b * sz / sx
		dd := (b*cz + d - cx) / sx
		inner := bt
		if sx < 0 {
			inner = bt.Opposite()
		}
		return xr.addVBound(inner, zr, bb, dd, transitive)
	}

	if _, ok := z.data.(multAggrData); ok {
		return false
	}
	if !z.varType.Integral() {
		panic(fmt.Sprintf("cip: variable bound with non-integral bounding variable <%s>", z.name))
	}

	// a fixed or zero-coefficient relationship is a plain bound on v
	if ns.isZero(b) {
		return v.deduceGlobalBound(bt, d)
	}
	if _, ok := z.data.(fixedData); ok {
		return v.deduceGlobalBound(bt, b*z.glbDom.lb+d)
	}
	if _, ok := v.data.(fixedData); ok {
		// v fixed: the relationship becomes a direct bound on z
		return v.tightenBoundingVar(bt, z, b, d)
	}

	zlb, zub := z.glbDom.lb, z.glbDom.ub

	if bt == BoundTypeLower {
		// implied bound over z's range: min of b*z+d
		implied := b*zlb + d
		if b < 0 {
			implied = b*zub + d
		}
		if !ns.IsNegInfinity(implied) && ns.isFeasGT(implied, v.glbDom.ub) {
			// relationship conflicts with v's bounds for every value of z:
			// it degenerates into a bound deduction on z
			return v.tightenBoundingVar(bt, z, b, d)
		}
		if finiteRange(ns, zlb, zub) && ns.isLE(bestImplied(b, zlb, zub, d, true), v.glbDom.lb) {
			return false // redundant: cannot ever tighten v
		}
	} else {
		implied := b*zub + d
		if b < 0 {
			implied = b*zlb + d
		}
		if !ns.IsInfinity(implied) && ns.isFeasLT(implied, v.glbDom.lb) {
			return v.tightenBoundingVar(bt, z, b, d)
		}
		if finiteRange(ns, zlb, zub) && ns.isGE(bestImplied(b, zlb, zub, d, false), v.glbDom.ub) {
			return false // redundant
		}
	}

	// store the relationship
	if bt == BoundTypeLower {
		if v.vlbs == nil {
			v.vlbs = &VBounds{}
		}
		v.vlbs.insert(z, b, d)
	} else {
		if v.vubs == nil {
			v.vubs = &VBounds{}
		}
		v.vubs.insert(z, b, d)
	}
	v.logger().Debug().
		Str("bound", bt.String()).
		Str("boundingvar", z.name).
		Float64("coef", b).
		Float64("const", d).
		Msg("variable bound added")

	// immediate two-sided tightening
	infeasible = v.tightenFromVBound(bt, z, b, d) || infeasible
	infeasible = v.tightenBoundingVar(bt, z, b, d) || infeasible

	// one level of transitive closure through z's own variable bounds:
	// v {>=,<=} b*z + d composed with z {>=,<=} b2*w + d2 gives
	// v {>=,<=} b*b2*w + b*d2 + d when the inequality directions line up
	if transitive && !infeasible {
		// a positive b composes with z's bound of the same sense, a
		// negative b with the opposite sense
		inner := z.vlbs
		if (bt == BoundTypeLower) == (b < 0) {
			inner = z.vubs
		}
		for i := 0; i < inner.Len(); i++ {
			w, b2, d2 := inner.Entry(i)
			if w == v {
				continue
			}
			infeasible = v.addVBound(bt, w, b*b2, b*d2+d, false) || infeasible
		}
	}
	return infeasible
}

// tightenFromVBound tightens v's global bound from z's known range under
// the relationship v {>=,<=} b*z + d.
func (v *Variable) tightenFromVBound(bt BoundType, z *Variable, b, d float64) (infeasible bool) {
	ns := v.prob.settings
	zlb, zub := z.glbDom.lb, z.glbDom.ub
	if bt == BoundTypeLower {
		implied := b*zlb + d
		if b < 0 {
			implied = b*zub + d
		}
		if ns.IsNegInfinity(implied) {
			return false
		}
		if ns.isGT(implied, v.glbDom.lb) {
			_, inf := v.ChgLbGlobal(implied)
			return inf
		}
		return false
	}
	implied := b*zub + d
	if b < 0 {
		implied = b*zlb + d
	}
	if ns.IsInfinity(implied) {
		return false
	}
	if ns.isLT(implied, v.glbDom.ub) {
		_, inf := v.ChgUbGlobal(implied)
		return inf
	}
	return false
}

// tightenBoundingVar tightens z's global bound from v's under the
// relationship v {>=,<=} b*z + d: for a variable lower bound, b*z + d must
// stay below v's upper bound; for a variable upper bound, above v's lower
// bound.
func (v *Variable) tightenBoundingVar(bt BoundType, z *Variable, b, d float64) (infeasible bool) {
	ns := v.prob.settings
	var limit float64
	if bt == BoundTypeLower {
		limit = v.glbDom.ub // b*z + d <= ub(v)
		if ns.IsInfinity(limit) {
			return false
		}
		bound := (limit - d) / b
		if b > 0 {
			return z.deduceGlobalBound(BoundTypeUpper, bound)
		}
		return z.deduceGlobalBound(BoundTypeLower, bound)
	}
	limit = v.glbDom.lb // b*z + d >= lb(v)
	if ns.IsNegInfinity(limit) {
		return false
	}
	bound := (limit - d) / b
	if b > 0 {
		return z.deduceGlobalBound(BoundTypeLower, bound)
	}
	return z.deduceGlobalBound(BoundTypeUpper, bound)
}

// deduceGlobalBound applies a direct global bound of the given type.
func (v *Variable) deduceGlobalBound(bt BoundType, bound float64) (infeasible bool) {
	ns := v.prob.settings
	if bt == BoundTypeLower {
		if ns.isGT(bound, v.glbDom.lb) {
			_, inf := v.ChgLbGlobal(bound)
			return inf
		}
		return false
	}
	if ns.isLT(bound, v.glbDom.ub) {
		_, inf := v.ChgUbGlobal(bound)
		return inf
	}
	return false
}

// bestImplied returns the strongest bound on x implied by b*z+d over
// [zlb,zub]: the maximum for a lower bound, the minimum for an upper bound.
func bestImplied(b, zlb, zub, d float64, lower bool) float64 {
	hi := b*zub + d
	lo := b*zlb + d
	if b < 0 {
		hi, lo = lo, hi
	}
	if lower {
		return hi
	}
	return lo
}

// finiteRange reports whether both endpoints are finite.
func finiteRange(ns Settings, lb, ub float64) bool {
	return !ns.IsNegInfinity(lb) && !ns.IsInfinity(ub)
}
