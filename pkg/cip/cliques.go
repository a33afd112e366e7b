package cip

// cliques.go: cliques, the strongest relationship form. A clique is a set
// of (binary variable, value) literals of which at most one may hold.
// Membership is recorded twice: in the problem-wide clique table and in
// each member's per-variable clique list.

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Clique is an at-most-one constraint over binary literals.
type Clique struct {
	id     int
	vars   []*Variable
	values []bool
	// members tracks the variable indices present in the clique for O(1)
	// containment checks; the literal values live in the parallel slices
	members *bitset.BitSet
}

// ID returns the clique's identifier within its table.
func (c *Clique) ID() int { return c.id }

// Len returns the number of literals in the clique.
func (c *Clique) Len() int { return len(c.vars) }

// Member returns the i-th literal.
func (c *Clique) Member(i int) (*Variable, bool) { return c.vars[i], c.values[i] }

// contains reports whether v participates with the given value.
func (c *Clique) contains(v *Variable, value bool) bool {
	if !c.members.Test(uint(v.index)) {
		return false
	}
	for i, cv := range c.vars {
		if cv == v && c.values[i] == value {
			return true
		}
	}
	return false
}

// containsVar reports whether v participates with any value.
func (c *Clique) containsVar(v *Variable) bool { return c.members.Test(uint(v.index)) }

// add appends a literal without checks; callers go through
// Problem.addVarToClique.
func (c *Clique) add(v *Variable, value bool) {
	c.vars = append(c.vars, v)
	c.values = append(c.values, value)
	c.members.Set(uint(v.index))
}

// removeVar deletes every literal of v from the clique.
func (c *Clique) removeVar(v *Variable) {
	vars := c.vars[:0]
	values := c.values[:0]
	for i, cv := range c.vars {
		if cv != v {
			vars = append(vars, cv)
			values = append(values, c.values[i])
		}
	}
	c.vars = vars
	c.values = values
	c.members.Clear(uint(v.index))
}

// String renders the clique's literals.
func (c *Clique) String() string {
	s := fmt.Sprintf("clique#%d{", c.id)
	for i, v := range c.vars {
		if i > 0 {
			s += ","
		}
		if !c.values[i] {
			s += "~"
		}
		s += v.name
	}
	return s + "}"
}

// CliqueTable is the problem-wide registry of cliques.
type CliqueTable struct {
	cliques []*Clique
}

// NCliques returns the number of cliques in the table.
func (ct *CliqueTable) NCliques() int { return len(ct.cliques) }

// Clique returns the i-th clique.
func (ct *CliqueTable) Clique(i int) *Clique { return ct.cliques[i] }

func (ct *CliqueTable) newClique() *Clique {
	c := &Clique{id: len(ct.cliques), members: bitset.New(64)}
	ct.cliques = append(ct.cliques, c)
	return c
}

// cliqueMembership is one entry of a variable's clique list.
type cliqueMembership struct {
	clique *Clique
	value  bool
}

// CliqueList records the cliques a binary variable participates in.
type CliqueList struct {
	memberships []cliqueMembership
}

// Len returns the number of memberships.
func (cl *CliqueList) Len() int {
	if cl == nil {
		return 0
	}
	return len(cl.memberships)
}

// Membership returns the i-th membership.
func (cl *CliqueList) Membership(i int) (*Clique, bool) {
	m := cl.memberships[i]
	return m.clique, m.value
}

// snapshot copies the membership list; used when memberships are replayed
// while being torn down.
func (cl *CliqueList) snapshot() []cliqueMembership {
	if cl == nil {
		return nil
	}
	return append([]cliqueMembership(nil), cl.memberships...)
}

func (cl *CliqueList) add(c *Clique, value bool) {
	cl.memberships = append(cl.memberships, cliqueMembership{clique: c, value: value})
}

func (cl *CliqueList) remove(c *Clique) {
	ms := cl.memberships[:0]
	for _, m := range cl.memberships {
		if m.clique != c {
			ms = append(ms, m)
		}
	}
	cl.memberships = ms
}

// removeFromAll removes v from every clique it participates in.
func (cl *CliqueList) removeFromAll(v *Variable) {
	if cl == nil {
		return
	}
	for _, m := range cl.memberships {
		m.clique.removeVar(v)
	}
	cl.memberships = nil
}

// applyFixing propagates the global fixing of v to the given value through
// all cliques that contain the literal (v,value): every other member must
// take the opposite of its clique value.
func (cl *CliqueList) applyFixing(v *Variable, value bool) (infeasible bool) {
	if cl == nil {
		return false
	}
	for _, m := range cl.snapshot() {
		if m.value != value {
			continue
		}
		for i := 0; i < m.clique.Len(); i++ {
			w, wval := m.clique.Member(i)
			if w == v {
				continue
			}
			if w.fixGlobalBinary(!wval) {
				return true
			}
		}
	}
	return false
}

// fixGlobalBinary fixes a binary variable globally via bound tightening.
func (v *Variable) fixGlobalBinary(value bool) (infeasible bool) {
	if value {
		_, inf := v.ChgLbGlobal(1)
		return inf
	}
	_, inf := v.ChgUbGlobal(0)
	return inf
}

// AddClique creates a new clique over the given literals: at most one of
// vars[i]==values[i] may hold. Every member is added through the degenerate
// checks of addVarToClique, so duplicate and contradictory literals
// immediately turn into fixings.
//
// Returns the created clique and infeasible=true if a deduced fixing
// crossed a bound.
func (p *Problem) AddClique(vars []*Variable, values []bool) (*Clique, bool) {
	if len(vars) != len(values) {
		panic(fmt.Sprintf("cip: clique with %d variables but %d values", len(vars), len(values)))
	}
	c := p.cliqueTable.newClique()
	infeasible := false
	for i, v := range vars {
		infeasible = p.addVarToClique(c, v, values[i]) || infeasible
		if infeasible {
			break
		}
	}
	return c, infeasible
}

// AddVarToClique adds the literal (v,value) to an existing clique,
// applying the degenerate rules of re-adding known literals.
func (p *Problem) AddVarToClique(c *Clique, v *Variable, value bool) (infeasible bool) {
	return p.addVarToClique(c, v, value)
}

func (p *Problem) addVarToClique(c *Clique, v *Variable, value bool) (infeasible bool) {
	vr, s, _ := v.active()
	if vr != v {
		if !vr.IsBinary() {
			return false
		}
		val := value
		if s < 0 {
			val = !value
		}
		return p.addVarToClique(c, vr, val)
	}
	if !v.IsBinary() {
		panic(fmt.Sprintf("cip: cannot add non-binary variable <%s> to a clique", v.name))
	}
	if !v.IsActive() {
		return false
	}

	ns := p.settings
	if c.contains(v, value) {
		// the same literal twice in an at-most-one set: it can never hold
		return v.fixGlobalBinary(!value)
	}
	if c.containsVar(v) {
		// v is present with the opposite value; adding this literal means
		// both values of v appear, so one of them always holds and every
		// other member must take the opposite of its clique value
		for i := 0; i < c.Len(); i++ {
			w, wval := c.Member(i)
			if w == v {
				continue
			}
			if w.fixGlobalBinary(!wval) {
				return true
			}
		}
		c.add(v, value)
		v.cliqueList().add(c, value)
		return false
	}

	// a member already globally fixed to its clique value forces all others
	if ns.isFeasEQ(v.glbDom.lb, v.glbDom.ub) {
		fixedVal := v.glbDom.lb > 0.5
		if fixedVal == value {
			for i := 0; i < c.Len(); i++ {
				w, wval := c.Member(i)
				if w.fixGlobalBinary(!wval) {
					return true
				}
			}
		}
		return false // fixed members need no membership entry
	}

	c.add(v, value)
	v.cliqueList().add(c, value)
	p.stats.countCliqueAdd()

	// if some other member is already fixed to its clique value, v must
	// take the opposite of the new literal
	for i := 0; i < c.Len(); i++ {
		w, wval := c.Member(i)
		if w == v || !ns.isFeasEQ(w.glbDom.lb, w.glbDom.ub) {
			continue
		}
		if (w.glbDom.lb > 0.5) == wval {
			return v.fixGlobalBinary(!value)
		}
	}
	return false
}

// cliqueList returns the variable's clique list, creating it on demand.
func (v *Variable) cliqueList() *CliqueList {
	if v.cliques == nil {
		v.cliques = &CliqueList{}
	}
	return v.cliques
}
