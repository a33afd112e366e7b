package cip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddClique(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	y := binVar(t, p, "y")
	z := binVar(t, p, "z")

	c, infeasible := p.AddClique([]*Variable{x, y, z}, []bool{true, true, true})
	require.False(t, infeasible)
	require.Equal(t, 3, c.Len())
	require.Equal(t, 1, x.Cliques().Len())
	require.Equal(t, 1, y.Cliques().Len())
	require.True(t, c.contains(x, true))
	require.False(t, c.contains(x, false))
}

func TestCliqueFixingPropagates(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	y := binVar(t, p, "y")
	z := binVar(t, p, "z")
	_, infeasible := p.AddClique([]*Variable{x, y, z}, []bool{true, true, true})
	require.False(t, infeasible)

	// at most one of x,y,z is 1: fixing x to 1 zeroes the others
	_, infeasible = x.ChgLbGlobal(1)
	require.False(t, infeasible)
	require.Equal(t, 0.0, y.UbGlobal())
	require.Equal(t, 0.0, z.UbGlobal())
}

func TestCliqueWithNegatedLiterals(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	y := binVar(t, p, "y")
	z := binVar(t, p, "z")

	// at most one of {x==1, y==0, z==1}
	_, infeasible := p.AddClique([]*Variable{x, y, z}, []bool{true, false, true})
	require.False(t, infeasible)

	_, infeasible = y.ChgUbGlobal(0) // y==0 holds
	require.False(t, infeasible)
	require.Equal(t, 0.0, x.UbGlobal())
	require.Equal(t, 0.0, z.UbGlobal())
}

func TestCliqueSameLiteralTwiceFixesOpposite(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	y := binVar(t, p, "y")

	// x==1 appearing twice in an at-most-one set means x can never be 1
	_, infeasible := p.AddClique([]*Variable{x, x, y}, []bool{true, true, true})
	require.False(t, infeasible)
	require.Equal(t, 0.0, x.UbGlobal())
}

func TestCliqueBothValuesFixesOthers(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	y := binVar(t, p, "y")
	z := binVar(t, p, "z")

	// x==1 and x==0 both in the set: one of them always holds, so y and z
	// must take the opposite of their clique values
	_, infeasible := p.AddClique([]*Variable{y, z, x, x}, []bool{true, true, true, false})
	require.False(t, infeasible)
	require.Equal(t, 0.0, y.UbGlobal())
	require.Equal(t, 0.0, z.UbGlobal())
	require.Equal(t, 1.0, x.UbGlobal(), "x itself stays free")
	require.Equal(t, 0.0, x.LbGlobal())
}

func TestCliqueResolvesNegatedMembers(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	y := binVar(t, p, "y")
	nx := x.Negated()

	// nx==1 is the literal x==0
	c, infeasible := p.AddClique([]*Variable{nx, y}, []bool{true, true})
	require.False(t, infeasible)
	require.True(t, c.contains(x, false))
	require.True(t, c.contains(y, true))
}

func TestCliqueMemberRemovedOnFix(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	y := binVar(t, p, "y")
	z := binVar(t, p, "z")
	c, infeasible := p.AddClique([]*Variable{x, y, z}, []bool{true, true, true})
	require.False(t, infeasible)

	fixed, infeasible := x.Fix(0)
	require.True(t, fixed)
	require.False(t, infeasible)
	require.False(t, c.containsVar(x), "fixed members leave their cliques")
	require.Equal(t, 2, c.Len())
	require.Equal(t, 1.0, y.UbGlobal(), "fixing to the harmless value does not propagate")
}

func TestAddCliqueLengthMismatchPanics(t *testing.T) {
	p := NewProblem()
	x := binVar(t, p, "x")
	require.Panics(t, func() { p.AddClique([]*Variable{x}, []bool{true, false}) })
}
