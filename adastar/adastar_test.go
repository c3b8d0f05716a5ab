package adastar

import (
	"testing"

	"github.com/basinwire/planner/planner"
)

func TestStateKeySanity(t *testing.T) {
	got := stateKey(stateData{rhs: 1, g: 2}, 1, 1)
	if got.K0 != 2 || got.K1 != 1 {
		t.Errorf("overconsistent key: got %+v, want (2,1)", got)
	}
	got = stateKey(stateData{rhs: 2, g: 2}, 1, 1)
	if got.K0 != 3 || got.K1 != 2 {
		t.Errorf("consistent key: got %+v, want (3,2)", got)
	}
}

// chainGraph is the canonical 5-node chain: 0->1(1), 1->2(1), 1->3(1),
// 2->4(1), 3->4(5), with a constant heuristic of 1 (matching the
// h = 1 fixture AD-A*'s scenario is grounded on).
type chainGraph struct{}

func (chainGraph) Heuristic(a, b int) float64 { return 1 }

func (chainGraph) Successors(s int) []planner.Edge[int] {
	switch s {
	case 0:
		return []planner.Edge[int]{{State: 1, Cost: 1}}
	case 1:
		return []planner.Edge[int]{{State: 2, Cost: 1}, {State: 3, Cost: 1}}
	case 2:
		return []planner.Edge[int]{{State: 4, Cost: 1}}
	case 3:
		return []planner.Edge[int]{{State: 4, Cost: 5}}
	}
	return nil
}

func (chainGraph) Predecessors(s int) []planner.Edge[int] {
	switch s {
	case 1:
		return []planner.Edge[int]{{State: 0, Cost: 1}}
	case 2:
		return []planner.Edge[int]{{State: 1, Cost: 1}}
	case 3:
		return []planner.Edge[int]{{State: 1, Cost: 1}}
	case 4:
		return []planner.Edge[int]{{State: 2, Cost: 1}, {State: 3, Cost: 5}}
	}
	return nil
}

var _ planner.ProblemSpace[int] = chainGraph{}

func TestSolveEpsilonTwoPublishesChainPlan(t *testing.T) {
	g := chainGraph{}
	var got Plan[int]
	Solve[int](g, 0, 4, func(p Plan[int]) { got = p }, func(s *Solver[int]) { s.eps = 2 })

	want := []int{1, 2, 4}
	if len(got.States) != len(want) {
		t.Fatalf("got %v, want %v", got.States, want)
	}
	for i := range want {
		if got.States[i] != want[i] {
			t.Fatalf("got %v, want %v", got.States, want)
		}
	}
}

func TestUpdateStateUnknownState(t *testing.T) {
	ps := singleEdgeExample{}
	s := NewSolver[int](ps, 0, 1, 1.0)
	s.data[0] = &stateData{g: 1, rhs: 1}
	s.data[1] = &stateData{g: 1, rhs: 1}

	s.updateState(2)
	if s.data[2].rhs != 2 {
		t.Errorf("got rhs=%v, want 2 (cost 1 + g(succ) 1)", s.data[2].rhs)
	}

	s.data[3] = &stateData{g: 1, rhs: 10}
	s.updateState(3)
	if !s.open.Contains(3) {
		t.Errorf("expected inconsistent state 3 to be pushed to open")
	}

	s.closed[3] = true
	s.updateState(3)
	if !s.incons[3] {
		t.Errorf("expected state 3, already closed, to be pushed to incons instead of open")
	}
}

// singleEdgeExample mirrors the reference test fixture: every state
// has exactly one successor (1) and one predecessor (0), with
// heuristic and cost both 1.
type singleEdgeExample struct{}

func (singleEdgeExample) Heuristic(a, b int) float64          { return 1 }
func (singleEdgeExample) Successors(int) []planner.Edge[int]   { return []planner.Edge[int]{{State: 1, Cost: 1}} }
func (singleEdgeExample) Predecessors(int) []planner.Edge[int] { return []planner.Edge[int]{{State: 0, Cost: 1}} }

var _ planner.ProblemSpace[int] = singleEdgeExample{}

func TestRefineLowersEpsilonAndReexpands(t *testing.T) {
	g := chainGraph{}
	var first, refined Plan[int]
	solver := Solve[int](g, 0, 4, func(p Plan[int]) { first = p })
	solver.Refine(1.0, func(p Plan[int]) { refined = p })

	if !first.Complete || !refined.Complete {
		t.Fatalf("expected both plans complete, got first=%v refined=%v", first, refined)
	}
	if refined.States[len(refined.States)-1] != 4 {
		t.Errorf("expected refined plan to still reach goal 4, got %v", refined.States)
	}
}
