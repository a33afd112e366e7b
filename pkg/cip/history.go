package cip

// history.go: branching statistics and pseudocosts. Each variable carries a
// History that accumulates the objective gain per unit of bound change
// observed when branching on it; aggregation merges two histories, flipping
// directions when the aggregation scalar is negative.

import "fmt"

// BranchDir is a preferred branching direction for a variable.
type BranchDir int

const (
	// BranchDirAuto lets the branching rule decide.
	BranchDirAuto BranchDir = iota
	// BranchDirDown prefers the down branch first.
	BranchDirDown
	// BranchDirUp prefers the up branch first.
	BranchDirUp
)

// opposite flips down and up; auto stays auto.
func (d BranchDir) opposite() BranchDir {
	switch d {
	case BranchDirDown:
		return BranchDirUp
	case BranchDirUp:
		return BranchDirDown
	default:
		return BranchDirAuto
	}
}

// String returns a short direction name.
func (d BranchDir) String() string {
	switch d {
	case BranchDirDown:
		return "down"
	case BranchDirUp:
		return "up"
	default:
		return "auto"
	}
}

// direction indices into the pseudocost arrays.
const (
	dirDown = 0
	dirUp   = 1
)

// History accumulates branching statistics of one variable: pseudocost sums
// and sample weights per direction, and branching counters.
type History struct {
	pscostCount [2]float64 // sample weight per direction
	pscostSum   [2]float64 // weighted unit gains per direction
	nBranchings [2]int64   // number of branchings per direction
	branchDepth [2]int64   // summed depths of those branchings
}

// reset clears all statistics.
func (h *History) reset() { *h = History{} }

// UpdatePseudocost adds one observation: the variable's solution value
// moved by solValDelta (sign selects the direction) and the LP objective
// gained objDelta. Weight scales the observation; branching uses 1.
func (h *History) UpdatePseudocost(ns Settings, solValDelta, objDelta, weight float64) {
	if ns.isZero(solValDelta) || weight <= 0 {
		return
	}
	dir := dirUp
	if solValDelta < 0 {
		dir = dirDown
		solValDelta = -solValDelta
	}
	if objDelta < 0 {
		objDelta = 0 // relaxation gain is nonnegative per direction
	}
	h.pscostSum[dir] += weight * objDelta / solValDelta
	h.pscostCount[dir] += weight
}

// Pseudocost returns the average unit gain observed in the given direction,
// or 0 if no observation exists.
func (h *History) Pseudocost(dir BranchDir) float64 {
	var i int
	switch dir {
	case BranchDirDown:
		i = dirDown
	case BranchDirUp:
		i = dirUp
	default:
		panic(fmt.Sprintf("cip: pseudocost query for direction %v", dir))
	}
	if h.pscostCount[i] <= 0 {
		return 0
	}
	return h.pscostSum[i] / h.pscostCount[i]
}

// PseudocostCount returns the accumulated sample weight in the direction.
func (h *History) PseudocostCount(dir BranchDir) float64 {
	if dir == BranchDirDown {
		return h.pscostCount[dirDown]
	}
	return h.pscostCount[dirUp]
}

// CountBranching records one branching at the given search depth.
func (h *History) CountBranching(dir BranchDir, depth int) {
	i := dirUp
	if dir == BranchDirDown {
		i = dirDown
	}
	h.nBranchings[i]++
	h.branchDepth[i] += int64(depth)
}

// NBranchings returns the number of recorded branchings in the direction.
func (h *History) NBranchings(dir BranchDir) int64 {
	if dir == BranchDirDown {
		return h.nBranchings[dirDown]
	}
	return h.nBranchings[dirUp]
}

// unite merges other into h. With switched true the down statistics of
// other count as up statistics of h and vice versa, which is how histories
// combine under a negative aggregation scalar.
func (h *History) unite(other *History, switched bool) {
	d, u := dirDown, dirUp
	if switched {
		d, u = dirUp, dirDown
	}
	h.pscostCount[dirDown] += other.pscostCount[d]
	h.pscostCount[dirUp] += other.pscostCount[u]
	h.pscostSum[dirDown] += other.pscostSum[d]
	h.pscostSum[dirUp] += other.pscostSum[u]
	h.nBranchings[dirDown] += other.nBranchings[d]
	h.nBranchings[dirUp] += other.nBranchings[u]
	h.branchDepth[dirDown] += other.branchDepth[d]
	h.branchDepth[dirUp] += other.branchDepth[u]
}
