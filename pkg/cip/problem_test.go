package cip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// looseVar creates an original variable and returns its transformed, active
// counterpart. Most tests operate on active variables.
func looseVar(t *testing.T, p *Problem, name string, vt VarType, lb, ub, obj float64) *Variable {
	t.Helper()
	o, err := p.NewVariable(name, vt, lb, ub, obj)
	require.NoError(t, err)
	v, err := p.TransformVar(o)
	require.NoError(t, err)
	return v
}

func binVar(t *testing.T, p *Problem, name string) *Variable {
	t.Helper()
	return looseVar(t, p, name, VarTypeBinary, 0, 1, 0)
}

func TestNewVariableValidation(t *testing.T) {
	p := NewProblem()

	_, err := p.NewVariable("empty", VarTypeContinuous, 3, 2, 0)
	require.ErrorIs(t, err, ErrEmptyDomain)

	_, err = p.NewVariable("b", VarTypeBinary, -1, 1, 0)
	require.Error(t, err)

	_, err = p.NewVariable("x", VarTypeContinuous, 0, 1, 0)
	require.NoError(t, err)
	_, err = p.NewVariable("x", VarTypeContinuous, 0, 1, 0)
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestNewVariableAdjustsIntegralBounds(t *testing.T) {
	p := NewProblem()
	v, err := p.NewVariable("i", VarTypeInteger, 0.4, 3.6, 0)
	require.NoError(t, err)
	require.Equal(t, 1.0, v.Lb(ScopeOriginal))
	require.Equal(t, 3.0, v.Ub(ScopeOriginal))
}

func TestTransformVar(t *testing.T) {
	p := NewProblem()
	o, err := p.NewVariable("x", VarTypeInteger, 1, 5, 2.5)
	require.NoError(t, err)

	v, err := p.TransformVar(o)
	require.NoError(t, err)
	require.Equal(t, StatusLoose, v.Status())
	require.Equal(t, StatusOriginal, o.Status())
	require.Same(t, v, o.TransVar())
	require.Equal(t, 1.0, v.LbGlobal())
	require.Equal(t, 5.0, v.UbGlobal())
	require.Equal(t, 2.5, v.Obj())

	again, err := p.TransformVar(o)
	require.NoError(t, err)
	require.Same(t, v, again, "transforming twice must return the same variable")

	_, err = p.TransformVar(v)
	require.ErrorIs(t, err, ErrNotOriginal)

	// queries on the original forward to the transformed variable
	v.ChgLbGlobal(3)
	require.Equal(t, 3.0, o.LbGlobal())
	require.Equal(t, 1.0, o.Lb(ScopeOriginal), "original domain stays frozen")
}

func TestAffineInfinityConventions(t *testing.T) {
	p := NewProblem()
	ns := p.Settings()

	require.Equal(t, ns.Infinity, p.affine(ns.Infinity, 2, -7))
	require.Equal(t, -ns.Infinity, p.affine(ns.Infinity, -2, 7))
	require.Equal(t, ns.Infinity, p.affine(-ns.Infinity, -1, 0))
	require.Equal(t, 11.0, p.affine(3, 2, 5))

	require.Equal(t, 3.0, p.affineInv(11, 2, 5))
	require.Equal(t, -ns.Infinity, p.affineInv(ns.Infinity, -2, 5))
}

func TestBdChgIdxMinting(t *testing.T) {
	p := NewProblem()

	require.Equal(t, BdChgIdx{Depth: 0, Pos: 0}, p.nextBdChgIdx(0))
	require.Equal(t, BdChgIdx{Depth: 0, Pos: 1}, p.nextBdChgIdx(0))
	require.Equal(t, BdChgIdx{Depth: 2, Pos: 0}, p.nextBdChgIdx(2))

	p.retractDepth(1)
	require.Equal(t, BdChgIdx{Depth: 1, Pos: 0}, p.nextBdChgIdx(1))
	require.Equal(t, BdChgIdx{Depth: 0, Pos: 2}, p.nextBdChgIdx(0), "shallower counters survive a retract")

	require.Panics(t, func() { p.nextBdChgIdx(depthPresolve) })
}

func TestInvalidSettingsPanic(t *testing.T) {
	require.Panics(t, func() {
		NewProblem(WithSettings(Settings{Epsilon: 1e-3, Feastol: 1e-6, Infinity: 1e20}))
	})
}
