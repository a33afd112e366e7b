package cip

// variable.go: the central entity of the bound core. A Variable's status is
// a closed sum over seven variants; every bound, objective, and lock
// operation is an exhaustive match over the variant and, for non-leaf
// variants, recurses onto the referenced variable(s) with an affinely
// transformed value.

import (
	"fmt"

	"github.com/rs/zerolog"
)

// VarType classifies the values a variable may take.
type VarType int

const (
	// VarTypeBinary restricts the variable to {0,1}.
	VarTypeBinary VarType = iota
	// VarTypeInteger restricts the variable to integral values.
	VarTypeInteger
	// VarTypeImplInt marks a continuous variable that is integral in every
	// optimal solution (implied integrality).
	VarTypeImplInt
	// VarTypeContinuous allows any real value within the bounds.
	VarTypeContinuous
)

// Integral reports whether bounds of this type are rounded to integers.
func (vt VarType) Integral() bool { return vt != VarTypeContinuous }

// String returns a short type name.
func (vt VarType) String() string {
	switch vt {
	case VarTypeBinary:
		return "binary"
	case VarTypeInteger:
		return "integer"
	case VarTypeImplInt:
		return "implint"
	case VarTypeContinuous:
		return "continuous"
	default:
		return "unknown"
	}
}

// VarStatus is the algebraic status of a variable.
type VarStatus int

const (
	// StatusOriginal marks a problem-definition variable; once transformed it
	// forwards every operation to its transformed counterpart.
	StatusOriginal VarStatus = iota
	// StatusLoose marks an active variable not (yet) represented by an LP column.
	StatusLoose
	// StatusColumn marks an active variable materialized as an LP column.
	StatusColumn
	// StatusFixed marks a variable fixed to a single value.
	StatusFixed
	// StatusAggregated marks a variable represented as scalar*aggvar + constant.
	StatusAggregated
	// StatusMultiAggregated marks a variable represented as a weighted sum of
	// several variables plus a constant.
	StatusMultiAggregated
	// StatusNegated marks a variable paired as offset - negvar.
	StatusNegated
)

// String returns a short status name.
func (s VarStatus) String() string {
	switch s {
	case StatusOriginal:
		return "original"
	case StatusLoose:
		return "loose"
	case StatusColumn:
		return "column"
	case StatusFixed:
		return "fixed"
	case StatusAggregated:
		return "aggregated"
	case StatusMultiAggregated:
		return "multaggr"
	case StatusNegated:
		return "negated"
	default:
		return "unknown"
	}
}

// statusData is the sealed per-variant payload. Exactly one implementation
// exists per VarStatus, so a type switch over statusData is an exhaustive
// match over the status.
type statusData interface {
	kind() VarStatus
}

type originalData struct {
	transVar *Variable // transformed counterpart, nil before transformation
}

type looseData struct{}

type columnData struct {
	col Column
}

type fixedData struct{}

type aggregatedData struct {
	aggVar   *Variable
	scalar   float64
	constant float64
}

type multAggrData struct {
	vars     []*Variable
	scalars  []float64
	constant float64
}

type negatedData struct {
	negVar *Variable
	offset float64
}

func (originalData) kind() VarStatus   { return StatusOriginal }
func (looseData) kind() VarStatus      { return StatusLoose }
func (columnData) kind() VarStatus     { return StatusColumn }
func (fixedData) kind() VarStatus      { return StatusFixed }
func (aggregatedData) kind() VarStatus { return StatusAggregated }
func (multAggrData) kind() VarStatus   { return StatusMultiAggregated }
func (negatedData) kind() VarStatus    { return StatusNegated }

// Scope selects which of a variable's domains a bound query reads.
type Scope int

const (
	// ScopeOriginal reads the problem-definition bounds.
	ScopeOriginal Scope = iota
	// ScopeGlobal reads the bounds valid in every node.
	ScopeGlobal
	// ScopeLocal reads the bounds valid in the current subtree.
	ScopeLocal
)

// Variable is one decision variable of the problem. Variables are reference
// counted: Capture increments, Release decrements and frees at zero. They
// are created through Problem and must not be copied.
type Variable struct {
	prob    *Problem
	name    string
	index   int // unique, immutable, total order for canonical iteration
	varType VarType
	data    statusData

	// negation partner, lazily created by Variable.Negated; linked both ways
	negatedVar *Variable

	obj     float64
	origDom *Dom // only for original-status variables
	glbDom  Dom
	locDom  Dom

	// bound-change history, ordered by strictly increasing bound-change index
	lbChgs []*BoundChange
	ubChgs []*BoundChange

	// variables whose status payload references this variable
	parents []*Variable

	vlbs    *VBounds
	vubs    *VBounds
	implics *Implics
	cliques *CliqueList

	history        History
	branchFactor   float64
	branchPriority int
	branchDir      BranchDir

	nLocksDown int
	nLocksUp   int

	useCount int
}

// Name returns the variable's name.
func (v *Variable) Name() string { return v.name }

// Index returns the unique creation index of the variable.
func (v *Variable) Index() int { return v.index }

// Type returns the variable's type.
func (v *Variable) Type() VarType { return v.varType }

// Status returns the algebraic status of the variable.
func (v *Variable) Status() VarStatus { return v.data.kind() }

// IsActive reports whether the variable carries independent bounds, i.e.
// has status loose or column.
func (v *Variable) IsActive() bool {
	switch v.data.(type) {
	case looseData, columnData:
		return true
	default:
		return false
	}
}

// IsBinary reports whether the variable is of binary type.
func (v *Variable) IsBinary() bool { return v.varType == VarTypeBinary }

// Obj returns the variable's objective coefficient. For fixed and
// aggregated variables this is zero; their contribution lives in the
// representative variable and the problem's objective offset.
func (v *Variable) Obj() float64 { return v.obj }

// Capture increments the reference count.
func (v *Variable) Capture() { v.useCount++ }

// Release decrements the reference count and frees the variable at zero:
// payload references are released and the variable is unlinked from their
// parent lists. Releasing below zero panics.
func (v *Variable) Release() {
	v.useCount--
	if v.useCount < 0 {
		panic(fmt.Sprintf("cip: variable <%s> released more often than captured", v.name))
	}
	if v.useCount > 0 {
		return
	}
	switch d := v.data.(type) {
	case originalData:
		if d.transVar != nil {
			d.transVar.removeParent(v)
			d.transVar.Release()
		}
	case aggregatedData:
		d.aggVar.removeParent(v)
		d.aggVar.Release()
	case multAggrData:
		for _, av := range d.vars {
			av.removeParent(v)
			av.Release()
		}
	case negatedData:
		d.negVar.removeParent(v)
		d.negVar.negatedVar = nil
		d.negVar.Release()
	}
	v.data = nil
}

// addParent links parent into v's back-reference list. The parent's status
// payload holds a reference to v, so v is captured on the parent's behalf;
// the parent's teardown releases it again.
func (v *Variable) addParent(parent *Variable) {
	v.Capture()
	v.parents = append(v.parents, parent)
}

// removeParent unlinks parent from the back-reference list. The caller owns
// the release of the payload's capture.
func (v *Variable) removeParent(parent *Variable) {
	for i, p := range v.parents {
		if p == parent {
			v.parents = append(v.parents[:i], v.parents[i+1:]...)
			return
		}
	}
}

// Lb returns the lower bound at the requested scope.
func (v *Variable) Lb(scope Scope) float64 { return v.bound(BoundTypeLower, scope) }

// Ub returns the upper bound at the requested scope.
func (v *Variable) Ub(scope Scope) float64 { return v.bound(BoundTypeUpper, scope) }

// LbGlobal returns the global lower bound.
func (v *Variable) LbGlobal() float64 { return v.bound(BoundTypeLower, ScopeGlobal) }

// UbGlobal returns the global upper bound.
func (v *Variable) UbGlobal() float64 { return v.bound(BoundTypeUpper, ScopeGlobal) }

// LbLocal returns the local lower bound.
func (v *Variable) LbLocal() float64 { return v.bound(BoundTypeLower, ScopeLocal) }

// UbLocal returns the local upper bound.
func (v *Variable) UbLocal() float64 { return v.bound(BoundTypeUpper, ScopeLocal) }

func (v *Variable) bound(bt BoundType, scope Scope) float64 {
	switch d := v.data.(type) {
	case originalData:
		if scope == ScopeOriginal || d.transVar == nil {
			if v.origDom == nil {
				panic(fmt.Sprintf("cip: variable <%s> has no original domain", v.name))
			}
			return domBound(v.origDom, bt)
		}
		return d.transVar.bound(bt, scope)
	case looseData, columnData, fixedData:
		switch scope {
		case ScopeGlobal:
			return domBound(&v.glbDom, bt)
		case ScopeLocal:
			return domBound(&v.locDom, bt)
		case ScopeOriginal:
			panic(fmt.Sprintf("cip: variable <%s> is not an original variable", v.name))
		default:
			panic(fmt.Sprintf("cip: invalid scope %d", int(scope)))
		}
	case aggregatedData:
		inner := bt
		if d.scalar < 0 {
			inner = bt.Opposite()
		}
		b := d.aggVar.bound(inner, scope)
		return v.prob.affine(b, d.scalar, d.constant)
	case multAggrData:
		// Bounds of a multi-aggregated variable are maintained on its
		// aggregation variables; direct queries are not supported.
		panic(fmt.Sprintf("cip: cannot query bounds of multi-aggregated variable <%s>", v.name))
	case negatedData:
		b := d.negVar.bound(bt.Opposite(), scope)
		return d.offset - b
	default:
		panic(fmt.Sprintf("cip: variable <%s> has invalid status", v.name))
	}
}

// domBound selects the requested bound of a domain.
func domBound(d *Dom, bt BoundType) float64 {
	if bt == BoundTypeLower {
		return d.lb
	}
	return d.ub
}

// HolesLocal returns the excluded intervals of the local domain.
func (v *Variable) HolesLocal() []Hole {
	av, _, _ := v.active()
	return av.locDom.Holes()
}

// HolesGlobal returns the excluded intervals of the global domain.
func (v *Variable) HolesGlobal() []Hole {
	av, _, _ := v.active()
	return av.glbDom.Holes()
}

// AggrVar returns the aggregation variable of an aggregated variable.
func (v *Variable) AggrVar() *Variable { return v.mustAggr().aggVar }

// AggrScalar returns the scalar of the aggregation self = scalar*y + constant.
func (v *Variable) AggrScalar() float64 { return v.mustAggr().scalar }

// AggrConstant returns the constant of the aggregation.
func (v *Variable) AggrConstant() float64 { return v.mustAggr().constant }

func (v *Variable) mustAggr() aggregatedData {
	d, ok := v.data.(aggregatedData)
	if !ok {
		panic(fmt.Sprintf("cip: variable <%s> is not aggregated", v.name))
	}
	return d
}

// MultAggr returns the terms of a multi-aggregated variable:
// self = sum scalars[i]*vars[i] + constant.
func (v *Variable) MultAggr() (vars []*Variable, scalars []float64, constant float64) {
	d, ok := v.data.(multAggrData)
	if !ok {
		panic(fmt.Sprintf("cip: variable <%s> is not multi-aggregated", v.name))
	}
	return d.vars, d.scalars, d.constant
}

// NegationVar returns the counterpart x of a negated variable x' = offset - x.
func (v *Variable) NegationVar() *Variable {
	d, ok := v.data.(negatedData)
	if !ok {
		panic(fmt.Sprintf("cip: variable <%s> is not negated", v.name))
	}
	return d.negVar
}

// NegationConstant returns the offset of a negated variable x' = offset - x.
func (v *Variable) NegationConstant() float64 {
	d, ok := v.data.(negatedData)
	if !ok {
		panic(fmt.Sprintf("cip: variable <%s> is not negated", v.name))
	}
	return d.offset
}

// TransVar returns the transformed counterpart of an original variable, or
// nil if the variable was not transformed yet.
func (v *Variable) TransVar() *Variable {
	d, ok := v.data.(originalData)
	if !ok {
		panic(fmt.Sprintf("cip: variable <%s> is not an original variable", v.name))
	}
	return d.transVar
}

// active resolves the variable through its status chain to an active (or
// fixed / multi-aggregated) representative, returning scalar and constant
// such that v = scalar*repr + constant. Multi-aggregated representatives
// cannot be reduced further and are returned as-is.
func (v *Variable) active() (repr *Variable, scalar, constant float64) {
	repr, scalar, constant = v, 1.0, 0.0
	for {
		switch d := repr.data.(type) {
		case originalData:
			if d.transVar == nil {
				return repr, scalar, constant
			}
			repr = d.transVar
		case aggregatedData:
			// v = scalar*(a*y + c) + constant
			scalar, constant = scalar*d.scalar, scalar*d.constant+constant
			repr = d.aggVar
		case negatedData:
			// v = scalar*(offset - y) + constant
			scalar, constant = -scalar, scalar*d.offset+constant
			repr = d.negVar
		default:
			return repr, scalar, constant
		}
	}
}

// BranchFactor returns the branching preference factor of the variable.
func (v *Variable) BranchFactor() float64 { return v.branchFactor }

// BranchPriority returns the branching priority of the variable.
func (v *Variable) BranchPriority() int { return v.branchPriority }

// BranchDirection returns the preferred branching direction.
func (v *Variable) BranchDirection() BranchDir { return v.branchDir }

// SetBranchFactor sets the branching preference factor.
func (v *Variable) SetBranchFactor(f float64) { v.branchFactor = f }

// SetBranchPriority sets the branching priority.
func (v *Variable) SetBranchPriority(p int) { v.branchPriority = p }

// SetBranchDirection sets the preferred branching direction.
func (v *Variable) SetBranchDirection(d BranchDir) { v.branchDir = d }

// History exposes the branching statistics of the variable.
func (v *Variable) History() *History { return &v.history }

// NLocksDown returns the number of down-rounding locks.
func (v *Variable) NLocksDown() int { return v.nLocksDown }

// NLocksUp returns the number of up-rounding locks.
func (v *Variable) NLocksUp() int { return v.nLocksUp }

// AddLocks adds rounding locks of the variable, forwarding through the
// transformation graph: a negative aggregation scalar and negation swap the
// lock directions, a multi-aggregation distributes them per term sign.
func (v *Variable) AddLocks(down, up int) {
	if down == 0 && up == 0 {
		return
	}
	switch d := v.data.(type) {
	case originalData:
		if d.transVar != nil {
			d.transVar.AddLocks(down, up)
			return
		}
		v.applyLocks(down, up)
	case looseData, columnData, fixedData:
		v.applyLocks(down, up)
	case aggregatedData:
		if d.scalar > 0 {
			d.aggVar.AddLocks(down, up)
		} else {
			d.aggVar.AddLocks(up, down)
		}
	case multAggrData:
		for i, av := range d.vars {
			if d.scalars[i] > 0 {
				av.AddLocks(down, up)
			} else {
				av.AddLocks(up, down)
			}
		}
	case negatedData:
		d.negVar.AddLocks(up, down)
	default:
		panic(fmt.Sprintf("cip: variable <%s> has invalid status", v.name))
	}
}

func (v *Variable) applyLocks(down, up int) {
	hadLocks := v.nLocksDown+v.nLocksUp > 0
	v.nLocksDown += down
	v.nLocksUp += up
	if v.nLocksDown < 0 || v.nLocksUp < 0 {
		panic(fmt.Sprintf("cip: variable <%s> rounding locks became negative", v.name))
	}
	if hadLocks && v.nLocksDown+v.nLocksUp == 0 {
		v.prob.enqueue(Event{Kind: EventVarUnlocked, Var: v})
	}
}

// BdAtIndex answers the point-in-time query "what was the given bound of v
// at bound-change index idx". With includeAfter true, a change made exactly
// at idx is considered already applied. Sentinel indices from
// BdChgIdxBeforeSolve and BdChgIdxPresolve sort before every index of the
// search.
func (v *Variable) BdAtIndex(bt BoundType, idx BdChgIdx, includeAfter bool) float64 {
	switch d := v.data.(type) {
	case originalData:
		if d.transVar == nil {
			return domBound(v.origDom, bt)
		}
		return d.transVar.BdAtIndex(bt, idx, includeAfter)
	case looseData, columnData:
		return v.boundAtIndex(bt, idx, includeAfter)
	case fixedData:
		return domBound(&v.glbDom, bt)
	case aggregatedData:
		inner := bt
		if d.scalar < 0 {
			inner = bt.Opposite()
		}
		return v.prob.affine(d.aggVar.BdAtIndex(inner, idx, includeAfter), d.scalar, d.constant)
	case multAggrData:
		panic(fmt.Sprintf("cip: cannot query bounds of multi-aggregated variable <%s>", v.name))
	case negatedData:
		return d.offset - d.negVar.BdAtIndex(bt.Opposite(), idx, includeAfter)
	default:
		panic(fmt.Sprintf("cip: variable <%s> has invalid status", v.name))
	}
}

func (v *Variable) boundAtIndex(bt BoundType, idx BdChgIdx, includeAfter bool) float64 {
	chgs := v.lbChgs
	if bt == BoundTypeUpper {
		chgs = v.ubChgs
	}
	cur := domBound(&v.locDom, bt)
	// walk the history backwards to the latest change at or before idx
	for i := len(chgs) - 1; i >= 0; i-- {
		bc := chgs[i]
		if bc.idx.Before(idx) || (includeAfter && bc.idx == idx) {
			return bc.newBound
		}
		cur = bc.oldBound
	}
	return cur
}

// WasFixedEarlier reports whether the variable's local domain was already a
// point at the given bound-change index.
func (v *Variable) WasFixedEarlier(idx BdChgIdx) bool {
	ns := v.prob.settings
	return ns.isFeasEQ(v.BdAtIndex(BoundTypeLower, idx, false), v.BdAtIndex(BoundTypeUpper, idx, false))
}

// LbChgs returns the lower-bound change history, ordered by strictly
// increasing bound-change index.
func (v *Variable) LbChgs() []*BoundChange { return v.lbChgs }

// UbChgs returns the upper-bound change history, ordered by strictly
// increasing bound-change index.
func (v *Variable) UbChgs() []*BoundChange { return v.ubChgs }

// Vlbs returns the variable lower bounds x >= b*z + d stored on v.
func (v *Variable) Vlbs() *VBounds { return v.vlbs }

// Vubs returns the variable upper bounds x <= b*z + d stored on v.
func (v *Variable) Vubs() *VBounds { return v.vubs }

// Implics returns the implication lists of a binary variable.
func (v *Variable) Implics() *Implics { return v.implics }

// Cliques returns the clique membership list of a binary variable.
func (v *Variable) Cliques() *CliqueList { return v.cliques }

// String renders the variable with its status and local bounds.
func (v *Variable) String() string {
	return fmt.Sprintf("<%s>[%s,%s]", v.name, v.Status(), v.locDomString())
}

func (v *Variable) locDomString() string {
	switch v.data.(type) {
	case multAggrData:
		return "-"
	default:
		return (&Dom{lb: v.LbLocal(), ub: v.UbLocal()}).String()
	}
}

// logger returns a logger pre-tagged with the variable name.
func (v *Variable) logger() *zerolog.Logger {
	l := v.prob.log.With().Str("var", v.name).Logger()
	return &l
}
