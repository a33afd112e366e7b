package cip

// implics.go: implications x==0/1 => y {<=,>=} b of a binary variable x.
// Binary targets keep explicit implication entries (plus the contrapositive
// on the target), non-binary targets additionally derive the equivalent
// variable bound so that the two mechanisms stay consistent.

import (
	"fmt"
	"sort"
)

// implicEntry is one implication target: if the owning variable takes the
// owning list's fixing value, then y {<=,>=} bound.
type implicEntry struct {
	y         *Variable
	boundType BoundType // BoundTypeUpper: y <= bound; BoundTypeLower: y >= bound
	bound     float64
}

// implicList keeps entries sorted by (target index, bound type) for
// canonical iteration and deduplication.
type implicList []implicEntry

func (il implicList) find(y *Variable, bt BoundType) (int, bool) {
	i := sort.Search(len(il), func(k int) bool {
		if il[k].y.index != y.index {
			return il[k].y.index > y.index
		}
		return il[k].boundType >= bt
	})
	if i < len(il) && il[i].y == y && il[i].boundType == bt {
		return i, true
	}
	return i, false
}

// Implics stores the two implication lists of a binary variable, one per
// fixing value.
type Implics struct {
	owner *Variable
	lists [2]implicList // index 0: fixing to 0, index 1: fixing to 1
}

func fixingIndex(fixing bool) int {
	if fixing {
		return 1
	}
	return 0
}

// Count returns the number of implications for the given fixing value.
func (im *Implics) Count(fixing bool) int {
	if im == nil {
		return 0
	}
	return len(im.lists[fixingIndex(fixing)])
}

// Find returns the implied bound for (fixing, y, boundType), if stored.
func (im *Implics) Find(fixing bool, y *Variable, bt BoundType) (bound float64, ok bool) {
	if im == nil {
		return 0, false
	}
	il := im.lists[fixingIndex(fixing)]
	i, found := il.find(y, bt)
	if !found {
		return 0, false
	}
	return il[i].bound, true
}

// forEach visits every implication of both fixing values.
func (im *Implics) forEach(f func(fixing bool, y *Variable, bt BoundType, bound float64)) {
	if im == nil {
		return
	}
	for fi, il := range im.lists {
		for _, e := range il {
			f(fi == 1, e.y, e.boundType, e.bound)
		}
	}
}

// insert stores or strengthens an entry, returning true if the list changed.
func (im *Implics) insert(fixing bool, y *Variable, bt BoundType, bound float64) bool {
	ns := im.owner.prob.settings
	il := im.lists[fixingIndex(fixing)]
	i, found := il.find(y, bt)
	if found {
		// keep only the stronger of the two implied bounds
		if bt == BoundTypeUpper && ns.isLT(bound, il[i].bound) {
			il[i].bound = bound
			return true
		}
		if bt == BoundTypeLower && ns.isGT(bound, il[i].bound) {
			il[i].bound = bound
			return true
		}
		return false
	}
	il = append(il, implicEntry{})
	copy(il[i+1:], il[i:])
	il[i] = implicEntry{y: y, boundType: bt, bound: bound}
	im.lists[fixingIndex(fixing)] = il
	return true
}

// removeTarget deletes all implications onto y for both fixing values.
func (im *Implics) removeTarget(y *Variable) {
	if im == nil {
		return
	}
	for fi := range im.lists {
		il := im.lists[fi][:0]
		for _, e := range im.lists[fi] {
			if e.y != y {
				il = append(il, e)
			}
		}
		im.lists[fi] = il
	}
}

// removeMirrors removes, from every binary target of v's implications, the
// contrapositive entries pointing back at v. Called before v leaves the
// active problem.
func (im *Implics) removeMirrors(v *Variable) {
	if im == nil {
		return
	}
	im.forEach(func(_ bool, y *Variable, _ BoundType, _ float64) {
		if y.IsBinary() && y.implics != nil {
			y.implics.removeTarget(v)
		}
	})
}

// apply fires every implication of the given fixing value as a global
// bound deduction. Returns infeasible=true on the first crossing bound;
// per the batch contract no structural mutation happens after that.
func (im *Implics) apply(fixing bool) (infeasible bool) {
	if im == nil {
		return false
	}
	// iterate over a snapshot: deductions may recursively edit lists
	entries := append(implicList(nil), im.lists[fixingIndex(fixing)]...)
	for _, e := range entries {
		if e.y.Status() == StatusFixed {
			ns := e.y.prob.settings
			fixedVal := e.y.glbDom.lb
			if e.boundType == BoundTypeUpper && ns.isFeasGT(fixedVal, e.bound) {
				return true
			}
			if e.boundType == BoundTypeLower && ns.isFeasLT(fixedVal, e.bound) {
				return true
			}
			continue
		}
		if e.y.deduceGlobalBound(e.boundType, e.bound) {
			return true
		}
	}
	return false
}

// AddImplic adds the implication v==fixing => y {<=,>=} bound.
// v must be binary. The implication is checked against y's global bounds
// first: a redundant implication is dropped, a conflicting one degenerates
// into fixing v to the opposite value. For a binary y, the contrapositive
// implication is stored on y as well; for a non-binary y the equivalent
// variable bound on y is derived. With transitive true and an implication
// that fixes a binary y, y's own implications for that fixing are added
// onto v one level deep.
//
// Returns infeasible=true if any deduced global tightening crosses a bound.
func (v *Variable) AddImplic(fixing bool, y *Variable, bt BoundType, bound float64, transitive bool) (infeasible bool) {
	ns := v.prob.settings
	if !v.IsBinary() {
		panic(fmt.Sprintf("cip: implication on non-binary variable <%s>", v.name))
	}

	// rewrite both sides onto their active representatives
	xr, sxr, _ := v.active()
	if xr != v {
		if !xr.IsBinary() {
			return false
		}
		// a binary chain is the identity or the negation
		f := fixing
		if sxr < 0 {
			f = !fixing
		}
		return xr.AddImplic(f, y, bt, bound, transitive)
	}
	yr, syr, cyr := y.active()
	if yr != y {
		// y = syr*yr + cyr, so y <= b becomes a bound on yr
		inner := bt
		if syr < 0 {
			inner = bt.Opposite()
		}
		return v.AddImplic(fixing, yr, inner, (bound-cyr)/syr, transitive)
	}
	if !yr.IsActive() {
		return false
	}

	// v already globally fixed: the implication either fires now or is void
	if ns.isFeasEQ(v.glbDom.lb, v.glbDom.ub) {
		fixedToOne := v.glbDom.lb > 0.5
		if fixedToOne == fixing {
			return y.deduceGlobalBound(bt, bound)
		}
		return false
	}

	// redundancy and conflict against y's current global bounds
	if bt == BoundTypeUpper {
		if ns.isGE(bound, y.glbDom.ub) {
			return false // redundant
		}
		if ns.isFeasLT(bound, y.glbDom.lb) {
			// implication can never hold: v must take the opposite value
			return v.fixToOpposite(fixing)
		}
	} else {
		if ns.isLE(bound, y.glbDom.lb) {
			return false
		}
		if ns.isFeasGT(bound, y.glbDom.ub) {
			return v.fixToOpposite(fixing)
		}
	}

	if v.implics == nil {
		v.implics = &Implics{owner: v}
	}
	if !v.implics.insert(fixing, y, bt, bound) {
		return false // already known at least as strongly
	}
	v.logger().Debug().
		Bool("fixing", fixing).
		Str("target", y.name).
		Str("bound", bt.String()).
		Float64("value", bound).
		Msg("implication added")
	v.prob.enqueue(Event{Kind: EventImplAdded, Var: v})

	if y.IsBinary() {
		// contrapositive: v==fixing => y==yval  becomes  y==!yval => v==!fixing
		if yval, isFixingImplic := binaryFixingValue(bt, bound); isFixingImplic {
			if y.implics == nil {
				y.implics = &Implics{owner: y}
			}
			cbt, cbound := binaryFixingBound(!fixing)
			y.implics.insert(!yval, v, cbt, cbound)
		}
	} else {
		// derive the equivalent variable bound on y:
		//   v==1 => y <= b gives y <= (b-ub)*v + ub   (y <= ub when v==0)
		//   v==0 => y <= b gives y <= (ub-b)*v + b
		// and symmetrically for lower bounds with lb in place of ub
		if bt == BoundTypeUpper {
			ub := y.glbDom.ub
			if !ns.IsInfinity(ub) {
				if fixing {
					infeasible = y.AddVub(v, bound-ub, ub, false) || infeasible
				} else {
					infeasible = y.AddVub(v, ub-bound, bound, false) || infeasible
				}
			}
		} else {
			lb := y.glbDom.lb
			if !ns.IsNegInfinity(lb) {
				if fixing {
					infeasible = y.AddVlb(v, bound-lb, lb, false) || infeasible
				} else {
					infeasible = y.AddVlb(v, lb-bound, bound, false) || infeasible
				}
			}
		}
	}

	// one level of transitive closure: if the implication fixes a binary y,
	// everything y's fixing implies is implied by v as well
	if transitive && y.IsBinary() {
		if yval, isFixingImplic := binaryFixingValue(bt, bound); isFixingImplic && y.implics != nil {
			entries := append(implicList(nil), y.implics.lists[fixingIndex(yval)]...)
			for _, e := range entries {
				if e.y == v {
					continue
				}
				infeasible = v.AddImplic(fixing, e.y, e.boundType, e.bound, false) || infeasible
			}
		}
	}
	return infeasible
}

// fixToOpposite fixes the binary variable v globally to the value opposite
// to the given fixing.
func (v *Variable) fixToOpposite(fixing bool) (infeasible bool) {
	if fixing {
		_, inf := v.ChgUbGlobal(0)
		return inf
	}
	_, inf := v.ChgLbGlobal(1)
	return inf
}

// binaryFixingValue interprets an implied bound on a binary variable as a
// fixing: y <= 0 fixes y to 0, y >= 1 fixes y to 1.
func binaryFixingValue(bt BoundType, bound float64) (value, ok bool) {
	if bt == BoundTypeUpper && bound < 0.5 {
		return false, true
	}
	if bt == BoundTypeLower && bound > 0.5 {
		return true, true
	}
	return false, false
}

// binaryFixingBound renders a binary fixing as (boundType, bound).
func binaryFixingBound(value bool) (BoundType, float64) {
	if value {
		return BoundTypeLower, 1
	}
	return BoundTypeUpper, 0
}
