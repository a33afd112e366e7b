package cip

// boundchg.go: the immutable log entry describing one tightening of a local
// bound, and the (depth, position) index that totally orders all bound
// changes of a search path for point-in-time queries.

import "fmt"

// BoundType selects the lower or the upper bound of a variable.
type BoundType int

const (
	// BoundTypeLower selects the lower bound.
	BoundTypeLower BoundType = iota
	// BoundTypeUpper selects the upper bound.
	BoundTypeUpper
)

// Opposite returns the other bound type.
func (bt BoundType) Opposite() BoundType {
	switch bt {
	case BoundTypeLower:
		return BoundTypeUpper
	case BoundTypeUpper:
		return BoundTypeLower
	default:
		panic(fmt.Sprintf("cip: invalid bound type %d", int(bt)))
	}
}

// String returns "lower" or "upper".
func (bt BoundType) String() string {
	if bt == BoundTypeLower {
		return "lower"
	}
	return "upper"
}

// BoundChgType records the provenance of a bound change.
type BoundChgType int

const (
	// BoundChgTypeBranching marks a bound change made by a branching decision.
	BoundChgTypeBranching BoundChgType = iota
	// BoundChgTypeConsInfer marks a bound change inferred by a constraint.
	BoundChgTypeConsInfer
	// BoundChgTypePropInfer marks a bound change inferred by a propagator.
	BoundChgTypePropInfer
)

// String returns a short provenance name.
func (ct BoundChgType) String() string {
	switch ct {
	case BoundChgTypeBranching:
		return "branching"
	case BoundChgTypeConsInfer:
		return "consinfer"
	case BoundChgTypePropInfer:
		return "propinfer"
	default:
		return "unknown"
	}
}

// Sentinel depths of BdChgIdx. Regular search-tree depths are >= 0;
// the sentinels sort before every regular index.
const (
	depthBeforeSolve = -2
	depthPresolve    = -1
)

// BdChgIdx is the bound-change index: the position of a bound change in the
// (depth, positionInDepth) total order. It answers "was this bound already
// tightened at time T" queries against a variable's history arrays.
type BdChgIdx struct {
	Depth int
	Pos   int
}

// BdChgIdxBeforeSolve sorts before every bound change of the solve.
func BdChgIdxBeforeSolve() BdChgIdx { return BdChgIdx{Depth: depthBeforeSolve} }

// BdChgIdxPresolve sorts after BdChgIdxBeforeSolve and before every bound
// change made in the search tree.
func BdChgIdxPresolve() BdChgIdx { return BdChgIdx{Depth: depthPresolve} }

// Before reports whether idx strictly precedes other in the total order.
func (idx BdChgIdx) Before(other BdChgIdx) bool {
	if idx.Depth != other.Depth {
		return idx.Depth < other.Depth
	}
	return idx.Pos < other.Pos
}

// String renders the index as depth:pos.
func (idx BdChgIdx) String() string { return fmt.Sprintf("%d:%d", idx.Depth, idx.Pos) }

// Constraint is the captured reference a constraint-inferred bound change
// holds on its inference constraint. Capture and Release mirror the
// reference-counting contract of the surrounding solver.
type Constraint interface {
	Name() string
	Capture()
	Release()
}

// Propagator identifies the propagator that inferred a bound change.
// Propagators are not reference counted.
type Propagator interface {
	Name() string
}

// BoundChange is one tightening of a variable's local bound. It is created
// when a domain-change list accepts the change and stays immutable
// afterwards apart from the applied flag maintained by apply/undo.
type BoundChange struct {
	v         *Variable
	boundType BoundType
	oldBound  float64
	newBound  float64
	idx       BdChgIdx
	chgType   BoundChgType
	applied   bool

	// branching provenance
	lpSolVal float64 // LP solution value of the variable at branching time

	// inference provenance
	inferVar       *Variable
	inferCons      Constraint
	inferProp      Propagator
	inferInfo      int
	inferBoundType BoundType
}

// Var returns the changed variable, or nil if the entry was invalidated
// during apply because a later node had already relaxed the window.
func (bc *BoundChange) Var() *Variable { return bc.v }

// BoundType returns which bound the change tightens.
func (bc *BoundChange) BoundType() BoundType { return bc.boundType }

// OldBound returns the bound value before the change.
func (bc *BoundChange) OldBound() float64 { return bc.oldBound }

// NewBound returns the bound value after the change.
func (bc *BoundChange) NewBound() float64 { return bc.newBound }

// Index returns the bound-change index assigned when the change was applied.
func (bc *BoundChange) Index() BdChgIdx { return bc.idx }

// ChgType returns the provenance of the change.
func (bc *BoundChange) ChgType() BoundChgType { return bc.chgType }

// InferVar returns the variable that triggered the inference, if any.
func (bc *BoundChange) InferVar() *Variable { return bc.inferVar }

// InferInfo returns the consumer-defined inference payload.
func (bc *BoundChange) InferInfo() int { return bc.inferInfo }

// Applied reports whether the change is currently committed to its variable.
func (bc *BoundChange) Applied() bool { return bc.applied }

// releaseReferences drops the captured constraint reference, if any.
// Called when the entry is invalidated or its owning list is destroyed.
func (bc *BoundChange) releaseReferences() {
	if bc.inferCons != nil {
		bc.inferCons.Release()
		bc.inferCons = nil
	}
}
