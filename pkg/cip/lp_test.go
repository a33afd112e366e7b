package cip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeColumn records the setter calls a variable issues on its LP column.
type fakeColumn struct {
	v   *Variable
	lb  float64
	ub  float64
	obj float64
}

func (c *fakeColumn) SetLb(lb float64)   { c.lb = lb }
func (c *fakeColumn) SetUb(ub float64)   { c.ub = ub }
func (c *fakeColumn) SetObj(obj float64) { c.obj = obj }

type fakeFactory struct {
	created []*fakeColumn
}

func (f *fakeFactory) NewColumn(v *Variable) Column {
	c := &fakeColumn{v: v}
	f.created = append(f.created, c)
	return c
}

// fakeRow accumulates coefficient and constant contributions per column.
type fakeRow struct {
	coefs    map[Column]float64
	constant float64
}

func newFakeRow() *fakeRow { return &fakeRow{coefs: map[Column]float64{}} }

func (r *fakeRow) AddCoef(col Column, coef float64) { r.coefs[col] += coef }
func (r *fakeRow) AddConstant(c float64)            { r.constant += c }

func TestMakeColumnPrimesBoundsAndObjective(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 1, 9, 2.5)
	f := &fakeFactory{}

	col := x.MakeColumn(f)
	require.Same(t, col, x.Col())
	require.Equal(t, StatusColumn, x.Status())

	fc := f.created[0]
	require.Same(t, x, fc.v)
	require.Equal(t, 1.0, fc.lb)
	require.Equal(t, 9.0, fc.ub)
	require.Equal(t, 2.5, fc.obj)

	require.Panics(t, func() { x.MakeColumn(f) }, "column variables cannot enter twice")
}

func TestMakeLoose(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 5, 0)

	require.Panics(t, func() { x.MakeLoose() }, "only column variables can leave the LP")

	x.MakeColumn(&fakeFactory{})
	x.MakeLoose()
	require.Equal(t, StatusLoose, x.Status())
	require.Nil(t, x.Col())
}

func TestBoundChangesReachTheColumn(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 10, 0)
	f := &fakeFactory{}
	x.MakeColumn(f)
	fc := f.created[0]

	tightened, infeasible := x.ChgLbLocal(2)
	require.True(t, tightened)
	require.False(t, infeasible)
	tightened, infeasible = x.ChgUbLocal(7)
	require.True(t, tightened)
	require.False(t, infeasible)
	x.AddObjDelta(1.5)

	require.Equal(t, 2.0, fc.lb)
	require.Equal(t, 7.0, fc.ub)
	require.Equal(t, 1.5, fc.obj)
}

func TestAddToRowLoosePullsVariableIn(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 10, 0)
	f := &fakeFactory{}
	row := newFakeRow()

	require.NoError(t, x.AddToRow(row, 3, f))
	require.Equal(t, StatusColumn, x.Status())
	require.Equal(t, 3.0, row.coefs[x.Col()])

	require.NoError(t, x.AddToRow(row, 2, nil), "column variables need no factory")
	require.Equal(t, 5.0, row.coefs[x.Col()])
}

func TestAddToRowLooseWithoutFactoryFails(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 10, 0)
	require.Error(t, x.AddToRow(newFakeRow(), 1, nil))
}

func TestAddToRowFixedContributesConstant(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 10, 0)
	fixed, infeasible := x.Fix(4)
	require.True(t, fixed)
	require.False(t, infeasible)

	row := newFakeRow()
	require.NoError(t, x.AddToRow(row, 3, nil))
	require.Equal(t, 12.0, row.constant)
	require.Empty(t, row.coefs)
}

func TestAddToRowResolvesAggregation(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 1, 9, 0)
	y := looseVar(t, p, "y", VarTypeContinuous, 0, 4, 0)
	aggregated, infeasible := x.Aggregate(y, 2, 1) // x = 2y + 1
	require.True(t, aggregated)
	require.False(t, infeasible)

	f := &fakeFactory{}
	row := newFakeRow()
	require.NoError(t, x.AddToRow(row, 3, f))

	// 3x = 3(2y + 1) = 6y + 3
	require.Equal(t, 3.0, row.constant)
	require.Equal(t, 6.0, row.coefs[y.Col()])
}

func TestAddToRowResolvesNegation(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	nx := x.Negated()

	f := &fakeFactory{}
	row := newFakeRow()
	require.NoError(t, nx.AddToRow(row, 2, f))

	// 2(1 - x) = 2 - 2x
	require.Equal(t, 2.0, row.constant)
	require.Equal(t, -2.0, row.coefs[x.Col()])
}

func TestAddToRowDistributesMultiAggregation(t *testing.T) {
	p := NewProblem()
	x := looseVar(t, p, "x", VarTypeContinuous, 0, 10, 0)
	y := looseVar(t, p, "y", VarTypeContinuous, 0, 10, 0)
	z := looseVar(t, p, "z", VarTypeContinuous, 0, 100, 0)
	aggregated, infeasible := z.MultiAggregate([]*Variable{x, y}, []float64{1, 2}, 3)
	require.True(t, aggregated)
	require.False(t, infeasible)

	f := &fakeFactory{}
	row := newFakeRow()
	require.NoError(t, z.AddToRow(row, 2, f))

	// 2z = 2(x + 2y + 3) = 2x + 4y + 6
	require.Equal(t, 6.0, row.constant)
	require.Equal(t, 2.0, row.coefs[x.Col()])
	require.Equal(t, 4.0, row.coefs[y.Col()])
}

func TestAddToRowOriginalForwardsToTransformed(t *testing.T) {
	p := NewProblem()
	orig, err := p.NewVariable("x", VarTypeContinuous, 0, 10, 1)
	require.NoError(t, err)

	require.Error(t, orig.AddToRow(newFakeRow(), 1, nil), "untransformed originals cannot enter a row")

	trans, err := p.TransformVar(orig)
	require.NoError(t, err)

	f := &fakeFactory{}
	row := newFakeRow()
	require.NoError(t, orig.AddToRow(row, 5, f))
	require.Equal(t, 5.0, row.coefs[trans.Col()])
}
