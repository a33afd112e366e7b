package cip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHoleListInsertKeepsOrderAndMerges(t *testing.T) {
	ns := DefaultSettings()
	var hl holeList

	hl = hl.insert(ns, 5, 6)
	hl = hl.insert(ns, 1, 2)
	hl = hl.insert(ns, 8, 9)
	require.Equal(t, holeList{{1, 2}, {5, 6}, {8, 9}}, hl)

	// Overlapping the middle and the last hole collapses them into one.
	hl = hl.insert(ns, 5.5, 8.5)
	require.Equal(t, holeList{{1, 2}, {5, 9}}, hl)

	// An insert spanning everything leaves a single hole.
	hl = hl.insert(ns, 0, 10)
	require.Equal(t, holeList{{0, 10}}, hl)
}

func TestHoleListInsertKeepsTouchingHolesSeparate(t *testing.T) {
	ns := DefaultSettings()
	var hl holeList

	hl = hl.insert(ns, 1, 2)
	hl = hl.insert(ns, 2, 3)
	require.Equal(t, holeList{{1, 2}, {2, 3}}, hl, "open intervals sharing an endpoint do not merge")
	require.False(t, hl.covers(ns, 2.0), "the shared endpoint stays in the domain")

	hl = hl.insert(ns, 0, 1)
	require.Equal(t, holeList{{0, 1}, {1, 2}, {2, 3}}, hl)
}

func TestHoleListInsertDoesNotMutateReceiver(t *testing.T) {
	ns := DefaultSettings()
	orig := holeList{{1, 2}}
	_ = orig.insert(ns, 1.5, 3)
	require.Equal(t, holeList{{1, 2}}, orig)
}

func TestHoleListCovers(t *testing.T) {
	ns := DefaultSettings()
	hl := holeList{{1, 2}, {5, 6}}

	require.True(t, hl.covers(ns, 1.5))
	require.True(t, hl.covers(ns, 5.9))
	require.False(t, hl.covers(ns, 1.0), "holes are open intervals")
	require.False(t, hl.covers(ns, 2.0))
	require.False(t, hl.covers(ns, 3.0))
}

func TestHoleListClip(t *testing.T) {
	ns := DefaultSettings()
	hl := holeList{{1, 2}, {4, 8}, {9, 10}}

	clipped := hl.clip(ns, 1.5, 7)
	require.Equal(t, holeList{{1.5, 2}, {4, 7}}, clipped)

	require.Nil(t, hl.clip(ns, 20, 30))
	require.Nil(t, holeList(nil).clip(ns, 0, 1))
}

func TestDomContains(t *testing.T) {
	ns := DefaultSettings()
	d := Dom{lb: 0, ub: 10}
	d.addHole(ns, 3, 5)

	require.True(t, d.contains(ns, 0))
	require.True(t, d.contains(ns, 3))
	require.False(t, d.contains(ns, 4))
	require.True(t, d.contains(ns, 5))
	require.False(t, d.contains(ns, 10.5))
	require.False(t, d.contains(ns, -1))
}

func TestDomBoundMovesClipHoles(t *testing.T) {
	ns := DefaultSettings()
	d := Dom{lb: 0, ub: 10}
	d.addHole(ns, 2, 4)
	d.addHole(ns, 6, 8)

	d.setLb(ns, 3)
	require.Equal(t, holeList{{3, 4}, {6, 8}}, d.holes)

	d.setUb(ns, 6)
	require.Equal(t, holeList{{3, 4}}, d.holes, "holes past the new bound are dropped")

	d.setUb(ns, 3)
	require.Empty(t, d.holes)
}

func TestDomAddHoleClipsToBounds(t *testing.T) {
	ns := DefaultSettings()
	d := Dom{lb: 2, ub: 8}
	d.addHole(ns, 0, 3)
	require.Equal(t, holeList{{2, 3}}, d.holes)
}

func TestDomCheckInvariant(t *testing.T) {
	ns := DefaultSettings()
	ok := Dom{lb: 1, ub: 1}
	ok.checkInvariant(ns, "x")

	bad := Dom{lb: 2, ub: 1}
	require.Panics(t, func() { bad.checkInvariant(ns, "x") })
}
