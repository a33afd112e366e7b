package cip

// problem.go: the Problem owns every variable, the event queue, the clique
// table, tolerance settings and counters, and mints the (depth, position)
// indices that order bound changes. All operations are single-threaded; the
// Problem carries no locking.

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Recognizable error classes of variable construction. Callers match them
// with errors.Is; the wrapped message carries the offending values.
var (
	// ErrEmptyDomain is returned when a variable's bounds cross.
	ErrEmptyDomain = errors.New("empty domain")
	// ErrDuplicateName is returned when a variable name is already in use.
	ErrDuplicateName = errors.New("duplicate variable name")
	// ErrNotOriginal is returned when a transformation-stage operation is
	// applied to a variable that is not an original variable.
	ErrNotOriginal = errors.New("not an original variable")
)

// Problem is the container for a variable system. Create one with
// NewProblem, then add variables with NewVariable and transform them with
// TransformVar before solving operations touch them.
type Problem struct {
	settings Settings
	log      zerolog.Logger
	events   *EventQueue
	stats    *stats

	vars     []*Variable
	varIndex map[string]*Variable

	objOffset float64

	cliqueTable *CliqueTable

	// per-depth position counters for bound-change index minting
	nextPos []int
}

// Option configures a Problem at construction time.
type Option func(*Problem)

// WithSettings injects numeric tolerances. Invalid tolerances make
// NewProblem panic.
func WithSettings(ns Settings) Option { return func(p *Problem) { p.settings = ns } }

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(p *Problem) { p.log = l } }

// WithMetrics registers the problem's counters with the given registerer.
func WithMetrics(reg metricsRegisterer) Option {
	return func(p *Problem) { p.stats = newStats(reg) }
}

// NewProblem creates an empty problem with default settings, a no-op
// logger, and unregistered counters.
func NewProblem(opts ...Option) *Problem {
	p := &Problem{
		settings:    DefaultSettings(),
		log:         zerolog.Nop(),
		events:      NewEventQueue(),
		stats:       newStats(nil),
		varIndex:    make(map[string]*Variable),
		cliqueTable: &CliqueTable{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.settings.validate(); err != nil {
		panic(fmt.Sprintf("cip: %v", err))
	}
	return p
}

// Settings returns the problem's numeric tolerances.
func (p *Problem) Settings() Settings { return p.settings }

// Events returns the problem's event queue for sink registration and
// delayed processing.
func (p *Problem) Events() *EventQueue { return p.events }

// NVars returns the number of variables ever created in the problem,
// including transformed, negated, and inactive ones.
func (p *Problem) NVars() int { return len(p.vars) }

// Var returns the i-th variable in creation order.
func (p *Problem) Var(i int) *Variable { return p.vars[i] }

// VarByName returns the variable with the given name, or nil.
func (p *Problem) VarByName(name string) *Variable { return p.varIndex[name] }

// ObjOffset returns the constant objective contribution accumulated from
// fixings and aggregations.
func (p *Problem) ObjOffset() float64 { return p.objOffset }

func (p *Problem) addObjOffset(delta float64) { p.objOffset += delta }

func (p *Problem) enqueue(ev Event) { p.events.Enqueue(ev) }

// NewVariable creates an original variable with the given bounds and
// objective coefficient. Bounds are adjusted for integrality; binary
// variables must have bounds inside [0,1]. The caller holds one reference.
func (p *Problem) NewVariable(name string, vt VarType, lb, ub, obj float64) (*Variable, error) {
	ns := p.settings
	lb = ns.adjustedLb(vt.Integral(), lb)
	ub = ns.adjustedUb(vt.Integral(), ub)
	if lb > ub {
		return nil, fmt.Errorf("Variable: <%s> has %w [%g,%g]", name, ErrEmptyDomain, lb, ub)
	}
	if vt == VarTypeBinary && (ns.isLT(lb, 0) || ns.isGT(ub, 1)) {
		return nil, fmt.Errorf("Variable: binary <%s> must have bounds inside [0,1], got [%g,%g]", name, lb, ub)
	}
	if _, dup := p.varIndex[name]; dup {
		return nil, fmt.Errorf("Variable: <%s>: %w", name, ErrDuplicateName)
	}
	v := p.newVariableRaw(name, vt)
	v.data = originalData{}
	v.origDom = &Dom{lb: lb, ub: ub}
	v.glbDom = Dom{lb: lb, ub: ub}
	v.locDom = Dom{lb: lb, ub: ub}
	v.obj = obj
	return v, nil
}

// newVariableRaw registers a fresh loose variable with unbounded domain and
// zero objective. Negation and transformation build on it.
func (p *Problem) newVariableRaw(name string, vt VarType) *Variable {
	v := &Variable{
		prob:         p,
		name:         name,
		index:        len(p.vars),
		varType:      vt,
		data:         looseData{},
		glbDom:       Dom{lb: -p.settings.Infinity, ub: p.settings.Infinity},
		locDom:       Dom{lb: -p.settings.Infinity, ub: p.settings.Infinity},
		branchFactor: 1,
		branchDir:    BranchDirAuto,
		useCount:     1,
	}
	p.vars = append(p.vars, v)
	p.varIndex[name] = v
	return v
}

// TransformVar creates (or returns) the transformed counterpart of an
// original variable: a loose variable with the same type, bounds, and
// objective, linked back to the original. All solving operations on the
// original forward to it from then on.
func (p *Problem) TransformVar(v *Variable) (*Variable, error) {
	d, ok := v.data.(originalData)
	if !ok {
		return nil, fmt.Errorf("Variable: <%s>: %w", v.name, ErrNotOriginal)
	}
	if d.transVar != nil {
		return d.transVar, nil
	}
	t := p.newVariableRaw("t_"+v.name, v.varType)
	t.glbDom = Dom{lb: v.origDom.lb, ub: v.origDom.ub, holes: holeList(v.origDom.holes).clone()}
	t.locDom = Dom{lb: v.origDom.lb, ub: v.origDom.ub, holes: holeList(v.origDom.holes).clone()}
	t.obj = v.obj
	t.branchFactor = v.branchFactor
	t.branchPriority = v.branchPriority
	t.branchDir = v.branchDir
	v.data = originalData{transVar: t}
	t.addParent(v)
	p.log.Debug().Str("var", v.name).Str("trans", t.name).Msg("transformed variable")
	return t, nil
}

// affine evaluates a*b + c treating values at the infinity threshold as
// true infinities.
func (p *Problem) affine(b, a, c float64) float64 {
	ns := p.settings
	switch {
	case ns.IsInfinity(b):
		if a < 0 {
			return -ns.Infinity
		}
		return ns.Infinity
	case ns.IsNegInfinity(b):
		if a < 0 {
			return ns.Infinity
		}
		return -ns.Infinity
	default:
		return ns.clampInf(a*b + c)
	}
}

// affineInv inverts affine: given y = a*x + c it returns x = (y-c)/a, with
// the same infinity conventions.
func (p *Problem) affineInv(y, a, c float64) float64 {
	ns := p.settings
	switch {
	case ns.IsInfinity(y):
		if a < 0 {
			return -ns.Infinity
		}
		return ns.Infinity
	case ns.IsNegInfinity(y):
		if a < 0 {
			return ns.Infinity
		}
		return -ns.Infinity
	default:
		return ns.clampInf((y - c) / a)
	}
}

// removeVBoundsReferencing strips every variable-bound entry whose bounding
// variable is rem. Called when rem leaves the set of active variables.
func (p *Problem) removeVBoundsReferencing(rem *Variable) {
	for _, v := range p.vars {
		if v == rem {
			continue
		}
		v.vlbs.remove(rem)
		v.vubs.remove(rem)
	}
}

// removeImplicsReferencing strips every implication entry whose target is
// rem. Called when rem leaves the set of active variables; entries left
// behind would fire bound deductions on a variable that no longer accepts
// them.
func (p *Problem) removeImplicsReferencing(rem *Variable) {
	for _, v := range p.vars {
		if v == rem {
			continue
		}
		v.implics.removeTarget(rem)
	}
}

// nextBdChgIdx mints the next bound-change index at the given depth.
// Positions are consecutive per depth and survive re-descents, so indices
// of live records are strictly increasing along any root-to-node path.
func (p *Problem) nextBdChgIdx(depth int) BdChgIdx {
	if depth < 0 {
		panic(fmt.Sprintf("cip: cannot mint bound-change index at sentinel depth %d", depth))
	}
	for len(p.nextPos) <= depth {
		p.nextPos = append(p.nextPos, 0)
	}
	idx := BdChgIdx{Depth: depth, Pos: p.nextPos[depth]}
	p.nextPos[depth]++
	return idx
}

// retractDepth resets the position counters at and below the undone depth.
// All records minted there have been popped, so positions can be reused
// without breaking the index order of live records.
func (p *Problem) retractDepth(depth int) {
	if depth < 0 {
		return
	}
	for d := depth; d < len(p.nextPos); d++ {
		p.nextPos[d] = 0
	}
}
