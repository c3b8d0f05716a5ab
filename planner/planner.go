// Package planner defines the problem-space contract shared by every
// search engine in this module: heuristic distance, successor
// enumeration, and predecessor enumeration over an opaque state type.
//
// A state is any comparable Go value the caller chooses — an int, a
// string, a struct of small fields, anything usable as a map key.
// Solvers never inspect state contents; they only ever compare states
// for equality, hash them (via being a map key), and hand them back to
// the ProblemSpace.
package planner

// Edge is one step in the implicit graph a ProblemSpace describes: the
// state reached and the non-negative cost of reaching it.
type Edge[S comparable] struct {
	State S
	Cost  float64
}

// ProblemSpace is the capability every solver requires. Successors and
// predecessors must be consistent: s2 appears in Successors(s1) with
// cost c iff s1 appears in Predecessors(s2) with the same cost,
// otherwise the backward solvers (D* Lite, AD-A*) diverge from the
// forward ones.
type ProblemSpace[S comparable] interface {
	// Heuristic estimates the cost from a to b. Must be non-negative;
	// admissibility (never overestimating true cost) is the caller's
	// responsibility and only matters for AD-A*'s optimality bound.
	Heuristic(a, b S) float64

	// Successors returns the states reachable from s in one step.
	Successors(s S) []Edge[S]

	// Predecessors returns the states that reach s in one step.
	Predecessors(s S) []Edge[S]
}

// Lifelong is the optional capability D* Lite uses to tell the caller's
// problem space that edge costs around s may have changed. The
// caller's implementation mutates whatever internal graph state it
// maintains; the solver then re-derives successors/predecessors for
// the affected states.
type Lifelong[S comparable] interface {
	Update(s S)
}

// Stepper describes a per-step notification hook. mcts.Solve does not
// look for it: it takes its per-step callback as a function argument.
type Stepper[S comparable] interface {
	Callback(s S)
}

// SharedStates is the optional capability MAD-A* requires from a
// problem space partitioned across agents: which states are visible to
// other agents, and how to serialise/deserialise the wire messages
// agents exchange.
type SharedStates[S comparable] interface {
	// IsPublic reports whether s is observable by other agents.
	IsPublic(s S) bool

	// Serialize renders a message of the given type carrying s and an
	// optional parameter vector (g/h values, for instance) as the
	// semicolon-delimited wire payload described in the external
	// interfaces section of this module's design.
	Serialize(msgType int, s S, params []float64) (string, error)

	// Deserialize is the inverse of Serialize.
	Deserialize(msg string) (msgType int, s S, params []float64, err error)
}
