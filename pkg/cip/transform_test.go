package cip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFix(t *testing.T) {
	p := NewProblem()
	rec := &RecordingSink{}
	p.Events().AddSink(rec)
	x := looseVar(t, p, "x", VarTypeInteger, 0, 10, 3)

	fixed, infeasible := x.Fix(4)
	require.True(t, fixed)
	require.False(t, infeasible)
	require.Equal(t, StatusFixed, x.Status())
	require.Equal(t, 4.0, x.LbGlobal())
	require.Equal(t, 4.0, x.UbGlobal())
	require.Equal(t, 0.0, x.Obj(), "objective moves into the problem offset")
	require.Equal(t, 12.0, p.ObjOffset())

	var sawFixed bool
	for _, ev := range rec.Events {
		if ev.Kind == EventVarFixed && ev.Var == x {
			sawFixed = true
		}
	}
	require.True(t, sawFixed)

	// refixing to the same value is a no-op, a different value infeasible
	fixed, infeasible = x.Fix(4)
	require.False(t, fixed)
	require.False(t, infeasible)
	fixed, infeasible = x.Fix(5)
	require.False(t, fixed)
	require.True(t, infeasible)
}

func TestFixRejectsValuesOutsideDomain(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeInteger, 0, 10, 0)

	fixed, infeasible := x.Fix(11)
	require.False(t, fixed)
	require.True(t, infeasible)
	require.Equal(t, StatusLoose, x.Status())

	fixed, infeasible = x.Fix(4.5)
	require.False(t, fixed)
	require.True(t, infeasible, "non-integral value on an integer variable")
}

func TestAggregate(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 10, 4)
	y := looseVar(t, p, "y", VarTypeContinuous, 0, 10, 1)
	x.AddLocks(2, 3)

	aggregated, infeasible := x.Aggregate(y, 2, 1) // x = 2y + 1
	require.True(t, aggregated)
	require.False(t, infeasible)
	require.Equal(t, StatusAggregated, x.Status())
	require.Same(t, y, x.AggrVar())
	require.Equal(t, 2.0, x.AggrScalar())
	require.Equal(t, 1.0, x.AggrConstant())

	// bound fixpoint: x >= 2*0+1, y <= (10-1)/2
	require.Equal(t, 1.0, x.LbGlobal())
	require.Equal(t, 4.5, y.UbGlobal())

	// objective transfer: obj(x)*x = obj(x)*(2y+1)
	require.Equal(t, 0.0, x.Obj())
	require.Equal(t, 1.0+4*2, y.Obj())
	require.Equal(t, 4.0, p.ObjOffset())

	// lock transfer keeps directions for a positive scalar
	require.Equal(t, 2, y.NLocksDown())
	require.Equal(t, 3, y.NLocksUp())
}

func TestAggregateNegativeScalarSwapsLocks(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 10, 0)
	y := looseVar(t, p, "y", VarTypeContinuous, -10, 10, 0)
	x.AddLocks(2, 3)

	aggregated, infeasible := x.Aggregate(y, -1, 5) // x = -y + 5
	require.True(t, aggregated)
	require.False(t, infeasible)
	require.Equal(t, 3, y.NLocksDown())
	require.Equal(t, 2, y.NLocksUp())
}

func TestAggregateBinaryBecomesNegation(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	y := binVar(t, p, "y")

	aggregated, infeasible := x.Aggregate(y, -1, 1) // x = 1 - y
	require.True(t, aggregated)
	require.False(t, infeasible)
	require.Equal(t, StatusNegated, x.Status())
	require.Same(t, y, x.NegationVar())
	require.Equal(t, 1.0, x.NegationConstant())
	require.Same(t, x, y.Negated())
	require.Same(t, y, x.Negated())
}

func TestAggregateSelf(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 20, 0)

	aggregated, infeasible := x.Aggregate(x, 1, 0)
	require.False(t, aggregated, "x = x is redundant")
	require.False(t, infeasible)

	aggregated, infeasible = x.Aggregate(x, 1, 5)
	require.False(t, aggregated)
	require.True(t, infeasible, "x = x + 5 has no solution")

	aggregated, infeasible = x.Aggregate(x, 0.5, 3) // x = x/2 + 3 => x = 6
	require.True(t, aggregated)
	require.False(t, infeasible)
	require.Equal(t, StatusFixed, x.Status())
	require.Equal(t, 6.0, x.LbGlobal())
}

func TestAggregateCollapsesToFixing(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 5, 0)
	y := looseVar(t, p, "y", VarTypeContinuous, 0, 5, 0)

	// x = y - 5 intersected with both domains leaves only x=0, y=5
	aggregated, infeasible := x.Aggregate(y, 1, -5)
	require.False(t, aggregated)
	require.False(t, infeasible)
	require.Equal(t, StatusFixed, x.Status())
	require.Equal(t, 0.0, x.LbGlobal())
	require.Equal(t, StatusFixed, y.Status())
	require.Equal(t, 5.0, y.LbGlobal())
}

func TestAggregateWithFixedSide(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 20, 0)
	y := looseVar(t, p, "y", VarTypeContinuous, 0, 20, 0)
	y.Fix(3)

	aggregated, infeasible := x.Aggregate(y, 2, 1)
	require.True(t, aggregated, "aggregating onto a fixed variable fixes instead")
	require.False(t, infeasible)
	require.Equal(t, StatusFixed, x.Status())
	require.Equal(t, 7.0, x.LbGlobal())
}

func TestAggregateUnitesHistory(t *testing.T) {
	p := NewProblem()
	ns := p.Settings()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 10, 0)
	y := looseVar(t, p, "y", VarTypeContinuous, 0, 10, 0)
	x.History().UpdatePseudocost(ns, 1, 2, 1)  // upwards on x
	y.History().UpdatePseudocost(ns, -1, 3, 1) // downwards on y

	aggregated, _ := x.Aggregate(y, -1, 10) // negative scalar switches directions
	require.True(t, aggregated)

	// x's up observation (unit gain 2) joins y's down direction (unit gain 3)
	require.Equal(t, 2.5, y.History().Pseudocost(BranchDirDown))
	require.Equal(t, 2.0, y.History().PseudocostCount(BranchDirDown))
	require.Equal(t, 0.0, x.History().Pseudocost(BranchDirUp), "x's history is cleared")
}

func TestMultiAggregate(t *testing.T) {
	p := NewProblem()
	z := looseVar(t, p, "z", VarTypeContinuous, 0, 30, 2)
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 5, 0)
	y := looseVar(t, p, "y", VarTypeContinuous, 0, 5, 1)

	aggregated, infeasible := z.MultiAggregate([]*Variable{x, y}, []float64{1, 2}, 3)
	require.True(t, aggregated)
	require.False(t, infeasible)
	require.Equal(t, StatusMultiAggregated, z.Status())

	vars, scalars, constant := z.MultAggr()
	require.Equal(t, []*Variable{x, y}, vars)
	require.Equal(t, []float64{1, 2}, scalars)
	require.Equal(t, 3.0, constant)

	// objective distribution: 2z = 2x + 4y + 6
	require.Equal(t, 0.0, z.Obj())
	require.Equal(t, 2.0, x.Obj())
	require.Equal(t, 5.0, y.Obj())
	require.Equal(t, 6.0, p.ObjOffset())

	require.Panics(t, func() { z.Fix(4) })
}

func TestMultiAggregateDegenerates(t *testing.T) {
	p := NewProblem()
	z := looseVar(t, p, "z", VarTypeContinuous, 0, 30, 0)
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 5, 0)

	aggregated, infeasible := z.MultiAggregate([]*Variable{x}, []float64{2}, 1)
	require.True(t, aggregated, "a single term is a plain aggregation")
	require.False(t, infeasible)
	require.Equal(t, StatusAggregated, z.Status())

	w := looseVar(t, p, "w", VarTypeContinuous, 0, 30, 0)
	aggregated, infeasible = w.MultiAggregate(nil, nil, 7)
	require.True(t, aggregated, "zero terms fix the variable")
	require.False(t, infeasible)
	require.Equal(t, StatusFixed, w.Status())
	require.Equal(t, 7.0, w.LbGlobal())
}

func TestMultiAggregateDropsIncomingImplications(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	w := looseVar(t, p, "w", VarTypeContinuous, 0, 30, 0)
	a := looseVar(t, p, "a", VarTypeContinuous, 0, 10, 0)
	b := looseVar(t, p, "b", VarTypeContinuous, 0, 10, 0)

	require.False(t, x.AddImplic(true, w, BoundTypeLower, 4, false))
	require.Equal(t, 1, x.Implics().Count(true))

	aggregated, infeasible := w.MultiAggregate([]*Variable{a, b}, []float64{1, 1}, 0)
	require.True(t, aggregated)
	require.False(t, infeasible)
	require.Equal(t, 0, x.Implics().Count(true), "implications onto the sum are dropped")

	// fixing x must not fire a bound deduction on the multi-aggregated w
	require.NotPanics(t, func() {
		_, inf := x.ChgLbGlobal(1)
		require.False(t, inf)
	})
}

func TestNegated(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 2, 8, 0)

	neg := x.Negated()
	require.Equal(t, StatusNegated, neg.Status())
	require.Equal(t, 10.0, neg.NegationConstant(), "offset is lb+ub for non-binary variables")
	require.Same(t, x, neg.Negated(), "negation is an involution")
	require.Same(t, neg, x.Negated(), "the pairing is cached")

	b := binVar(t, p, "b")
	nb := b.Negated()
	require.Equal(t, 1.0, nb.NegationConstant())

	u := looseVar(t, p, "u", VarTypeContinuous, 0, p.Settings().Infinity, 0)
	require.Panics(t, func() { u.Negated() })
}

func TestAddObjDeltaForwards(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 10, 1)

	x.Fix(4)
	x.AddObjDelta(2)
	require.Equal(t, 4.0+8.0, p.ObjOffset(), "a fixed variable folds deltas into the offset")

	y := looseVar(t, p, "y", VarTypeContinuous, 2, 8, 0)
	neg := y.Negated()
	neg.AddObjDelta(3) // obj*(10-y): -3 on y, +30 offset
	require.Equal(t, -3.0, y.Obj())
	require.Equal(t, 42.0, p.ObjOffset())
}
