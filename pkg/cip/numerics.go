package cip

// numerics.go: tolerance-aware comparison predicates and integrality
// adjustment. Every numeric decision in the package goes through a Settings
// value so that epsilon and feasibility-tolerance semantics are uniform.

import (
	"fmt"
	"math"
)

// Settings bundles the numeric tolerances that govern all comparison
// predicates of the package, together with the value treated as infinity.
//
// Epsilon is the tolerance for "essentially equal" comparisons of computed
// values (round-off noise), Feastol the coarser tolerance used when deciding
// whether a bound assignment is still feasible. Bounds at or beyond
// Infinity in absolute value are treated as unbounded.
type Settings struct {
	Epsilon  float64 // tolerance for equality of computed values
	Feastol  float64 // feasibility tolerance for bound comparisons
	Infinity float64 // values >= Infinity are treated as +infinity
}

// DefaultSettings returns the tolerances used when none are injected:
// epsilon 1e-9, feasibility tolerance 1e-6, infinity 1e20.
func DefaultSettings() Settings {
	return Settings{Epsilon: 1e-9, Feastol: 1e-6, Infinity: 1e20}
}

// validate reports a descriptive error for nonsensical tolerance values.
func (ns Settings) validate() error {
	if ns.Epsilon <= 0 || ns.Feastol <= 0 || ns.Infinity <= 0 {
		return fmt.Errorf("Settings: tolerances must be positive, got %+v", ns)
	}
	if ns.Epsilon > ns.Feastol {
		return fmt.Errorf("Settings: epsilon (%g) must not exceed feastol (%g)", ns.Epsilon, ns.Feastol)
	}
	return nil
}

// IsInfinity returns true if v counts as +infinity.
func (ns Settings) IsInfinity(v float64) bool { return v >= ns.Infinity }

// IsNegInfinity returns true if v counts as -infinity.
func (ns Settings) IsNegInfinity(v float64) bool { return v <= -ns.Infinity }

func (ns Settings) isEQ(a, b float64) bool { return math.Abs(a-b) <= ns.Epsilon }
func (ns Settings) isLT(a, b float64) bool { return a < b-ns.Epsilon }
func (ns Settings) isLE(a, b float64) bool { return a <= b+ns.Epsilon }
func (ns Settings) isGT(a, b float64) bool { return a > b+ns.Epsilon }
func (ns Settings) isGE(a, b float64) bool { return a >= b-ns.Epsilon }
func (ns Settings) isZero(v float64) bool  { return math.Abs(v) <= ns.Epsilon }

func (ns Settings) isFeasEQ(a, b float64) bool { return math.Abs(a-b) <= ns.Feastol }
func (ns Settings) isFeasLT(a, b float64) bool { return a < b-ns.Feastol }
func (ns Settings) isFeasLE(a, b float64) bool { return a <= b+ns.Feastol }
func (ns Settings) isFeasGT(a, b float64) bool { return a > b+ns.Feastol }
func (ns Settings) isFeasGE(a, b float64) bool { return a >= b-ns.Feastol }

// feasCeil rounds v up to an integer, forgiving values that are within the
// feasibility tolerance below one.
func (ns Settings) feasCeil(v float64) float64 { return math.Ceil(v - ns.Feastol) }

// feasFloor rounds v down to an integer, forgiving values that are within
// the feasibility tolerance above one.
func (ns Settings) feasFloor(v float64) float64 { return math.Floor(v + ns.Feastol) }

// isIntegral returns true if v is integral within the feasibility tolerance.
func (ns Settings) isIntegral(v float64) bool {
	return math.Abs(v-math.Round(v)) <= ns.Feastol
}

// clampInf snaps values at or beyond the infinity threshold to exactly
// +/-Infinity so that arithmetic on unbounded domains cannot produce
// finite-looking garbage.
func (ns Settings) clampInf(v float64) float64 {
	switch {
	case v >= ns.Infinity:
		return ns.Infinity
	case v <= -ns.Infinity:
		return -ns.Infinity
	default:
		return v
	}
}

// adjustedLb returns the lower bound after integrality adjustment: integral
// variable types get their bound rounded up, tiny values snap to zero, and
// infinities pass through untouched.
func (ns Settings) adjustedLb(integral bool, lb float64) float64 {
	switch {
	case ns.IsNegInfinity(lb):
		return -ns.Infinity
	case ns.IsInfinity(lb):
		return ns.Infinity
	case integral:
		return ns.feasCeil(lb)
	case ns.isZero(lb):
		return 0.0
	default:
		return lb
	}
}

// adjustedUb is the mirror of adjustedLb for upper bounds.
func (ns Settings) adjustedUb(integral bool, ub float64) float64 {
	switch {
	case ns.IsInfinity(ub):
		return ns.Infinity
	case ns.IsNegInfinity(ub):
		return -ns.Infinity
	case integral:
		return ns.feasFloor(ub)
	case ns.isZero(ub):
		return 0.0
	default:
		return ub
	}
}
