package cip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// countingCons is a test constraint that tracks its reference count.
type countingCons struct {
	name string
	refs int
}

func (c *countingCons) Name() string { return c.name }
func (c *countingCons) Capture()     { c.refs++ }
func (c *countingCons) Release()     { c.refs-- }

func TestDomChgApplyUndoRoundTrip(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeInteger, 0, 10, 0)

	dc := NewDomChg()
	require.NoError(t, dc.AddBoundChange(x, BoundTypeLower, 3, BoundChgTypeBranching, BoundChangeOpts{LpSolVal: 2.4}))
	require.NoError(t, dc.AddBoundChange(x, BoundTypeUpper, 7, BoundChgTypeBranching, BoundChangeOpts{LpSolVal: 2.4}))

	cutoff := dc.Apply(p, 0)
	require.False(t, cutoff)
	require.Equal(t, 3.0, x.LbLocal())
	require.Equal(t, 7.0, x.UbLocal())
	require.Equal(t, 0.0, x.LbGlobal(), "node-local changes leave the global domain alone")
	require.Len(t, x.LbChgs(), 1)
	require.Len(t, x.UbChgs(), 1)
	require.Equal(t, BdChgIdx{Depth: 0, Pos: 0}, x.LbChgs()[0].Index())
	require.Equal(t, BdChgIdx{Depth: 0, Pos: 1}, x.UbChgs()[0].Index())

	dc.Undo(p)
	require.Equal(t, 0.0, x.LbLocal())
	require.Equal(t, 10.0, x.UbLocal())
	require.Empty(t, x.LbChgs())
	require.Empty(t, x.UbChgs())
}

func TestDomChgPointInTimeQueries(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeInteger, 0, 10, 0)

	dc := NewDomChg()
	require.NoError(t, dc.AddBoundChange(x, BoundTypeLower, 3, BoundChgTypeBranching, BoundChangeOpts{}))
	require.False(t, dc.Apply(p, 0))

	dc2 := NewDomChg()
	require.NoError(t, dc2.AddBoundChange(x, BoundTypeLower, 5, BoundChgTypeBranching, BoundChangeOpts{}))
	require.False(t, dc2.Apply(p, 1))

	at := x.LbChgs()[0].Index() // the depth-0 change
	require.Equal(t, 0.0, x.BdAtIndex(BoundTypeLower, at, false), "before the change applies")
	require.Equal(t, 3.0, x.BdAtIndex(BoundTypeLower, at, true), "at the change with includeAfter")
	require.Equal(t, 3.0, x.BdAtIndex(BoundTypeLower, BdChgIdx{Depth: 1, Pos: 0}, false))
	require.Equal(t, 5.0, x.BdAtIndex(BoundTypeLower, BdChgIdx{Depth: 1, Pos: 0}, true))
	require.Equal(t, 0.0, x.BdAtIndex(BoundTypeLower, BdChgIdxPresolve(), true))
	require.False(t, x.WasFixedEarlier(BdChgIdx{Depth: 1, Pos: 0}))
}

func TestDomChgCompactsStaleEntries(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeInteger, 0, 10, 0)
	cons := &countingCons{name: "c"}

	dc := NewDomChg()
	require.NoError(t, dc.AddBoundChange(x, BoundTypeLower, 4, BoundChgTypeBranching, BoundChangeOpts{}))
	require.False(t, dc.Apply(p, 0))

	// a change queued before the depth-0 tightening no longer tightens
	stale := NewDomChg()
	require.NoError(t, stale.AddBoundChange(x, BoundTypeLower, 2, BoundChgTypeConsInfer, BoundChangeOpts{InferCons: cons}))
	require.Equal(t, 1, cons.refs, "the inference constraint is captured on add")

	require.False(t, stale.Apply(p, 1))
	require.Equal(t, 0, stale.Len(), "stale entries are compacted away")
	require.Equal(t, 0, cons.refs, "compaction releases the captured constraint")
	require.Equal(t, 4.0, x.LbLocal())
	require.Empty(t, x.UbChgs())
	require.Len(t, x.LbChgs(), 1)
}

func TestDomChgCutoff(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeInteger, 0, 10, 0)
	_, inf := x.ChgUbLocal(6)
	require.False(t, inf)

	dc := NewDomChg()
	require.NoError(t, dc.AddBoundChange(x, BoundTypeLower, 8, BoundChgTypeBranching, BoundChangeOpts{}))
	require.True(t, dc.Apply(p, 0), "a bound crossing the window cuts the node off")
	require.Equal(t, 0.0, x.LbLocal(), "nothing is committed past the cutoff")

	dc.Undo(p)
	require.Equal(t, 0.0, x.LbLocal())
}

func TestDomChgLifoDiscipline(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeInteger, 0, 10, 0)

	dc1 := NewDomChg()
	require.NoError(t, dc1.AddBoundChange(x, BoundTypeLower, 3, BoundChgTypeBranching, BoundChangeOpts{}))
	require.False(t, dc1.Apply(p, 0))

	dc2 := NewDomChg()
	require.NoError(t, dc2.AddBoundChange(x, BoundTypeLower, 5, BoundChgTypeBranching, BoundChangeOpts{}))
	require.False(t, dc2.Apply(p, 1))

	require.Panics(t, func() { dc1.Undo(p) }, "undoing out of order breaks the history stack")
}

func TestDomChgProvenanceValidation(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeInteger, 0, 10, 0)
	cons := &countingCons{name: "c"}

	dc := NewDomChg()
	err := dc.AddBoundChange(x, BoundTypeLower, 3, BoundChgTypeConsInfer, BoundChangeOpts{})
	require.Error(t, err, "constraint inference needs a constraint")

	err = dc.AddBoundChange(x, BoundTypeLower, 3, BoundChgTypeBranching, BoundChangeOpts{InferCons: cons})
	require.Error(t, err, "branching carries no inference data")

	err = dc.AddBoundChange(x, BoundTypeLower, 3, BoundChgTypePropInfer, BoundChangeOpts{InferCons: cons})
	require.Error(t, err, "propagator inference cannot carry a constraint")
}

// requireOrderedChgs asserts that the recorded bound changes of v carry
// strictly increasing indices along both history stacks.
func requireOrderedChgs(t *testing.T, v *Variable) {
	t.Helper()
	for _, stack := range [][]*BoundChange{v.LbChgs(), v.UbChgs()} {
		for i := 1; i < len(stack); i++ {
			require.True(t, stack[i-1].Index().Before(stack[i].Index()),
				"index %s of change %d does not precede %s", stack[i-1].Index(), i-1, stack[i].Index())
		}
	}
}

func TestBoundChangeIndicesIncreaseAcrossDepths(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeInteger, 0, 100, 0)
	y := looseVar(t, p, "y", VarTypeInteger, 0, 100, 0)

	var applied []*DomChg
	for depth, bounds := range [][2]float64{{5, 90}, {10, 80}, {20, 70}} {
		dc := NewDomChg()
		require.NoError(t, dc.AddBoundChange(x, BoundTypeLower, bounds[0], BoundChgTypeBranching, BoundChangeOpts{}))
		require.NoError(t, dc.AddBoundChange(y, BoundTypeUpper, bounds[1], BoundChgTypeBranching, BoundChangeOpts{}))
		require.False(t, dc.Apply(p, depth))
		applied = append(applied, dc)
		requireOrderedChgs(t, x)
		requireOrderedChgs(t, y)
	}

	// a re-descent after an undo reuses positions without breaking the order
	applied[2].Undo(p)
	redo := NewDomChg()
	require.NoError(t, redo.AddBoundChange(x, BoundTypeLower, 30, BoundChgTypeBranching, BoundChangeOpts{}))
	require.False(t, redo.Apply(p, 2))
	requireOrderedChgs(t, x)
	requireOrderedChgs(t, y)
	require.Equal(t, BdChgIdx{Depth: 2, Pos: 0}, x.LbChgs()[2].Index())
}

func TestDomChgResolvesAggregatedVariables(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 10, 0)
	y := looseVar(t, p, "y", VarTypeContinuous, 0, 10, 0)
	aggregated, _ := x.Aggregate(y, 2, 1) // x = 2y + 1
	require.True(t, aggregated)

	dc := NewDomChg()
	require.NoError(t, dc.AddBoundChange(x, BoundTypeLower, 5, BoundChgTypeBranching, BoundChangeOpts{}))
	require.Equal(t, 1, dc.Len())
	require.Same(t, y, dc.BoundChg(0).Var(), "the record targets the active representative")
	require.Equal(t, 2.0, dc.BoundChg(0).NewBound())

	require.False(t, dc.Apply(p, 0))
	require.Equal(t, 2.0, y.LbLocal())
	require.Equal(t, 5.0, x.LbLocal(), "the aggregated image mirrors the local change")
}

func TestDomChgRepresentations(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeInteger, 0, 10, 0)

	dc := NewDomChg()
	require.Equal(t, DomChgDynamic, dc.Kind())
	dc.MakeStatic()
	require.Equal(t, DomChgEmpty, dc.Kind())

	require.NoError(t, dc.AddBoundChange(x, BoundTypeLower, 3, BoundChgTypeBranching, BoundChangeOpts{}))
	require.Equal(t, DomChgDynamic, dc.Kind(), "appending upgrades the representation")
	dc.MakeStatic()
	require.Equal(t, DomChgStaticBound, dc.Kind())
	require.Equal(t, 1, dc.Len())

	dc.Free()
	require.Equal(t, DomChgEmpty, dc.Kind())
	require.Equal(t, 0, dc.Len())
}
