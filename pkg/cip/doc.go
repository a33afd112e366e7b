// Package cip implements the variable-bound and domain-propagation core of a
// constraint-integer-programming solver.
//
// The package maintains, for every decision variable of a branch-and-bound
// search, a consistent set of bounds (global bounds valid everywhere and
// local bounds valid in the current subtree), records how every bound was
// derived (branching decision, constraint inference, or propagator
// inference), and propagates bound tightenings through a graph of algebraic
// variable relationships: aggregation, negation, multi-aggregation, variable
// bounds, implications, and cliques.
//
// Core concepts:
//   - Variable: the central entity, with a status (loose, column, fixed,
//     aggregated, multi-aggregated, negated, or original) that determines how
//     every bound and objective operation is forwarded through the
//     transformation graph.
//   - BoundChange: an immutable log entry describing one tightening of a
//     local bound, totally ordered by its (depth, position) index so that
//     point-in-time queries ("what was the bound before this inference?")
//     can be answered from the per-variable history arrays.
//   - DomChg: the ordered, undoable list of bound and hole changes owned by
//     one search-tree node. Applying a list commits its changes to the
//     variables; undoing it restores the previous bounds in exact LIFO
//     order, which is what makes backtracking correct.
//   - Variable bounds, implications, and cliques: three escalating forms of
//     proven relationships between variables. Adding one immediately
//     tightens the global bounds of both participants and may recurse one
//     level into already-known relationships.
//
// Expected infeasibility (a node whose bounds are contradictory) is a normal
// solver outcome and is always reported through a boolean return value,
// never through an error or panic. Calling an operation that is undefined
// for a variable's status (for example changing the bounds of a
// multi-aggregated variable) is a programming error and panics.
//
// The package is single-threaded: all propagation is a synchronous,
// re-entrant call graph owned by one Problem, and the caller
// (the branch-and-bound driver) is responsible for serializing node
// exploration.
package cip
