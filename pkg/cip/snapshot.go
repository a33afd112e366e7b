package cip

// snapshot.go: a compact, versioned serialization of the problem's global
// domain state. Snapshots capture the presolve result (global bounds, holes,
// objective offset) so a reduced problem can be persisted and reloaded
// without replaying the reductions. Structural state such as aggregations
// and cliques is not serialized; a restored problem applies the recorded
// bounds onto its own variables instead.

import (
	"fmt"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"
)

// snapshotVersion follows semantic versioning: readers accept any snapshot
// with the same major version.
var snapshotVersion = semver.MustParse("1.0.0")

type snapshotVar struct {
	Name  string  `cbor:"n"`
	Type  int     `cbor:"t"`
	Lb    float64 `cbor:"l"`
	Ub    float64 `cbor:"u"`
	Holes []Hole  `cbor:"h,omitempty"`
	Obj   float64 `cbor:"o"`
}

type snapshot struct {
	Version   string        `cbor:"v"`
	ObjOffset float64       `cbor:"off"`
	Vars      []snapshotVar `cbor:"vars"`
}

// Snapshot serializes the global domains, holes, and objective coefficients
// of every active variable, plus the accumulated objective offset.
func (p *Problem) Snapshot() ([]byte, error) {
	s := snapshot{
		Version:   snapshotVersion.String(),
		ObjOffset: p.objOffset,
	}
	for _, v := range p.vars {
		if !v.IsActive() {
			continue
		}
		s.Vars = append(s.Vars, snapshotVar{
			Name:  v.name,
			Type:  int(v.varType),
			Lb:    v.glbDom.lb,
			Ub:    v.glbDom.ub,
			Holes: holeList(v.glbDom.holes).clone(),
			Obj:   v.obj,
		})
	}
	return cbor.Marshal(s)
}

// Restore applies a snapshot onto the problem: every recorded variable must
// exist by name, be active, and have the recorded type; its global bounds
// are tightened to the recorded values. Restoring never relaxes a bound.
//
// Returns infeasible=true if a recorded bound crosses a current bound, and
// an error for malformed or incompatible input.
func (p *Problem) Restore(data []byte) (infeasible bool, err error) {
	var s snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return false, fmt.Errorf("Problem: malformed snapshot: %w", err)
	}
	ver, err := semver.Parse(s.Version)
	if err != nil {
		return false, fmt.Errorf("Problem: snapshot has invalid version %q: %w", s.Version, err)
	}
	if ver.Major != snapshotVersion.Major {
		return false, fmt.Errorf("Problem: snapshot version %s is incompatible with %s", ver, snapshotVersion)
	}
	for _, sv := range s.Vars {
		v := p.varIndex[sv.Name]
		if v == nil {
			return false, fmt.Errorf("Problem: snapshot references unknown variable <%s>", sv.Name)
		}
		if !v.IsActive() {
			return false, fmt.Errorf("Problem: snapshot target <%s> is not active", sv.Name)
		}
		if int(v.varType) != sv.Type {
			return false, fmt.Errorf("Problem: snapshot type mismatch for <%s>", sv.Name)
		}
		// apply only bounds that tighten the current domain
		if p.settings.isGT(sv.Lb, v.glbDom.lb) {
			if _, inf := v.ChgLbGlobal(sv.Lb); inf {
				return true, nil
			}
		}
		if p.settings.isLT(sv.Ub, v.glbDom.ub) {
			if _, inf := v.ChgUbGlobal(sv.Ub); inf {
				return true, nil
			}
		}
		for _, h := range sv.Holes {
			if err := v.AddHoleGlobal(h.Left, h.Right); err != nil {
				return false, fmt.Errorf("Problem: snapshot hole for <%s>: %w", sv.Name, err)
			}
		}
	}
	p.objOffset = s.ObjOffset
	return false, nil
}
