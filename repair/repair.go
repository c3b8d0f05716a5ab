// Package repair implements conflict-driven iterative repair: a local
// search that repeatedly picks the highest-priority conflict in a
// mutable problem and fixes it, re-enumerating conflicts from scratch
// every step.
package repair

import "github.com/basinwire/planner/key"

// Conflict is an opaque, user-defined identifier for a conflict found
// in the problem, paired with a priority: higher priority is resolved
// first. Interpretation of priority is entirely up to the caller; ties
// are broken by heap order.
type Conflict[C comparable] struct {
	ID       C
	Priority float64
}

// Problem is a mutable problem space that can enumerate its current
// conflicts and fix one of them.
type Problem[C comparable] interface {
	// FindConflicts returns every conflict currently present. Called
	// fresh at the start of every step, since fixing one conflict may
	// introduce or remove others.
	FindConflicts() []Conflict[C]

	// FixConflict mutates the problem to resolve conflict.
	FixConflict(conflict C)
}

// Solve runs up to maxSteps repair iterations against ps. Returns
// solved=true and the number of iterations actually used if a
// conflict-free state was reached; otherwise solved=false and
// iterations=maxSteps-1, the last step attempted without success.
func Solve[C comparable](ps Problem[C], maxSteps int) (solved bool, iterations int) {
	for i := 0; i < maxSteps; i++ {
		iterations = i

		conflicts := ps.FindConflicts()
		if len(conflicts) == 0 {
			return true, i
		}

		h := key.NewMaxHeap[C]()
		for _, c := range conflicts {
			h.Push(c.ID, key.Pair{K0: c.Priority, K1: 0})
		}

		worst, _, _ := h.Pop()
		ps.FixConflict(worst)
	}
	return false, iterations
}
