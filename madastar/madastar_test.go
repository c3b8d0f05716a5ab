package madastar

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/basinwire/planner/planner"
)

// simpleExample mirrors the reference single-agent fixture: every
// state but the goal has a fixed successor/predecessor fan-out with
// no branching per-agent territory.
type simpleExample struct{}

func (simpleExample) Heuristic(int, int) float64 { return 0 }

func (simpleExample) Successors(s int) []planner.Edge[int] {
	switch s {
	case 0:
		return []planner.Edge[int]{{State: 1, Cost: 0.7}, {State: 2, Cost: 1.0}}
	case 1:
		return []planner.Edge[int]{{State: 3, Cost: 1.0}, {State: 2, Cost: 0.1}}
	default:
		return []planner.Edge[int]{{State: 3, Cost: 0.2}}
	}
}

func (simpleExample) Predecessors(s int) []planner.Edge[int] {
	switch s {
	case 3:
		return []planner.Edge[int]{{State: 1, Cost: 1.0}, {State: 2, Cost: 0.2}}
	case 5:
		return []planner.Edge[int]{{State: 4, Cost: 1.0}}
	case 6:
		return []planner.Edge[int]{{State: 5, Cost: 1.0}}
	default:
		return nil
	}
}

func (simpleExample) IsPublic(s int) bool { return s == 2 || s == 1 || s == 4 }

func (simpleExample) Serialize(msgType int, s int, params []float64) (string, error) {
	parts := []string{strconv.Itoa(msgType), strconv.Itoa(s)}
	for _, p := range params {
		parts = append(parts, fmt.Sprintf("%v", p))
	}
	return strings.Join(parts, ";"), nil
}

func (simpleExample) Deserialize(msg string) (int, int, []float64, error) {
	parts := strings.Split(msg, ";")
	msgType, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, nil, err
	}
	state, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, nil, err
	}
	var params []float64
	for _, p := range parts[2:] {
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, 0, nil, err
		}
		params = append(params, v)
	}
	return msgType, state, params, nil
}

var _ ProblemSpace[int] = simpleExample{}

type noopAgent struct{ msgs []string }

func (a *noopAgent) Broadcast(string)   {}
func (a *noopAgent) Retrieve() []string { return a.msgs }

func TestProcessMessageSanity(t *testing.T) {
	ps := simpleExample{}
	s := newSolver[int](&noopAgent{}, ps, 3)

	s.processMessage(1, stateValues{gVal: 1.0, hVal: 1.0})
	if s.data[1].gVal != 1.0 || s.data[1].hVal != 1.0 {
		t.Fatalf("got %+v, want g=1.0 h=1.0", s.data[1])
	}

	s.closed[1] = 1.0
	s.processMessage(1, stateValues{gVal: 1.0, hVal: 1.0})
	if s.data[1].gVal != 1.0 {
		t.Errorf("expected no change when in open+closed and not improved, got %+v", s.data[1])
	}

	s.processMessage(1, stateValues{gVal: 0.5, hVal: 1.0})
	if s.data[1].gVal != 0.5 {
		t.Errorf("expected g to improve to 0.5, got %+v", s.data[1])
	}

	s.processMessage(1, stateValues{gVal: 2.0, hVal: 1.0})
	if s.data[1].gVal != 0.5 {
		t.Errorf("expected worse g to be rejected, got %+v", s.data[1])
	}
}

func TestExpandSanity(t *testing.T) {
	ps := simpleExample{}
	s := newSolver[int](&noopAgent{msgs: []string{"foo"}}, ps, 3)
	s.data[0] = &stateValues{gVal: 0, hVal: 0}

	if done := s.expand(0); done {
		t.Fatalf("expanding the start should not signal done")
	}

	if done := s.expand(1); done {
		t.Fatalf("expanding a public non-goal state should not signal done")
	}
	if s.data[1].gVal != 0.7 {
		t.Errorf("got g(1)=%v, want 0.7", s.data[1].gVal)
	}

	s.expand(2)
	if math.Abs(s.data[2].gVal-0.8) > 1e-9 {
		t.Errorf("got g(2)=%v, want 0.8 (relaxed via state 1's cheaper edge)", s.data[2].gVal)
	}

	if done := s.expand(3); !done {
		t.Fatalf("expanding the goal should signal done")
	}
	if _, ok := s.closed[3]; !ok {
		t.Errorf("expected goal to be recorded in closed")
	}
}

func TestTracebackSanity(t *testing.T) {
	ps := simpleExample{}
	s := newSolver[int](&noopAgent{}, ps, 6)
	s.closed[4] = 0.0
	s.closed[5] = 1.0
	s.closed[6] = 2.0

	res, err := s.traceback(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{4, 5}
	if len(res) != len(want) {
		t.Fatalf("got %v, want %v", res, want)
	}
	for i := range want {
		if res[i] != want[i] {
			t.Fatalf("got %v, want %v", res, want)
		}
	}
}

func TestTracebackWaitsForHandoff(t *testing.T) {
	ps := simpleExample{}
	s := newSolver[int](&noopAgent{msgs: []string{"1;6"}}, ps, 7)
	s.closed[4] = 0.0
	s.closed[5] = 1.0
	s.closed[6] = 2.0

	res, err := s.traceback(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{4, 5}
	if len(res) != len(want) {
		t.Fatalf("got %v, want %v", res, want)
	}
	for i := range want {
		if res[i] != want[i] {
			t.Fatalf("got %v, want %v", res, want)
		}
	}
}

// --- two-agent picker scenario, grounded on the reference "two picker
// robots" example: picker 0 moves a package from (0,0) to the handoff
// cell (1,1); picker 1 continues it from (1,1) to (2,2). ---

type coord struct{ x, y int }

type picker struct{ id int }

func (picker) Heuristic(coord, coord) float64 { return 0 }

func (p picker) Successors(s coord) []planner.Edge[coord] {
	switch {
	case p.id == 0 && s == coord{0, 0}:
		return []planner.Edge[coord]{{State: coord{0, 1}, Cost: 0.5}, {State: coord{1, 1}, Cost: 0.7}}
	case p.id == 0 && s == coord{0, 1}:
		return []planner.Edge[coord]{{State: coord{0, 0}, Cost: 0.5}, {State: coord{0, 2}, Cost: 0.5}, {State: coord{1, 1}, Cost: 0.5}}
	case p.id == 0 && s == coord{0, 2}:
		return []planner.Edge[coord]{{State: coord{0, 1}, Cost: 0.5}, {State: coord{1, 1}, Cost: 0.7}}
	case p.id == 0 && s == coord{1, 1}:
		return []planner.Edge[coord]{{State: coord{0, 0}, Cost: 0.7}, {State: coord{0, 1}, Cost: 0.5}, {State: coord{0, 2}, Cost: 0.7}}
	case p.id == 1 && s == coord{1, 1}:
		return []planner.Edge[coord]{{State: coord{2, 1}, Cost: 0.5}}
	case p.id == 1 && s == coord{2, 0}:
		return []planner.Edge[coord]{{State: coord{2, 1}, Cost: 0.5}}
	case p.id == 1 && s == coord{2, 1}:
		return []planner.Edge[coord]{{State: coord{2, 0}, Cost: 0.5}, {State: coord{2, 2}, Cost: 0.5}, {State: coord{1, 1}, Cost: 0.5}}
	case p.id == 1 && s == coord{2, 2}:
		return []planner.Edge[coord]{{State: coord{2, 1}, Cost: 0.5}}
	default:
		return nil
	}
}

func (p picker) Predecessors(s coord) []planner.Edge[coord] { return p.Successors(s) }

func (picker) IsPublic(s coord) bool { return s == coord{1, 1} }

func (picker) Serialize(msgType int, s coord, params []float64) (string, error) {
	parts := []string{strconv.Itoa(msgType), strconv.Itoa(s.x), strconv.Itoa(s.y)}
	for _, p := range params {
		parts = append(parts, fmt.Sprintf("%v", p))
	}
	return strings.Join(parts, ";"), nil
}

func (picker) Deserialize(msg string) (int, coord, []float64, error) {
	parts := strings.Split(msg, ";")
	msgType, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, coord{}, nil, err
	}
	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, coord{}, nil, err
	}
	y, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, coord{}, nil, err
	}
	var params []float64
	for _, p := range parts[3:] {
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, coord{}, nil, err
		}
		params = append(params, v)
	}
	return msgType, coord{x, y}, params, nil
}

var _ ProblemSpace[coord] = picker{}

// busAgent connects two solvers with mutex-guarded in-memory inboxes
// standing in for the reference ZeroMQ transport.
type busAgent struct {
	mu   sync.Mutex
	in   []string
	peer *busAgent
}

func (a *busAgent) Broadcast(msg string) {
	a.peer.mu.Lock()
	a.peer.in = append(a.peer.in, msg)
	a.peer.mu.Unlock()
}

func (a *busAgent) Retrieve() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.in) == 0 {
		return nil
	}
	out := a.in
	a.in = nil
	return out
}

func TestSolveTwoPickerHandoff(t *testing.T) {
	a0 := &busAgent{}
	a1 := &busAgent{}
	a0.peer, a1.peer = a1, a0

	start, goal := coord{0, 0}, coord{2, 2}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var plan0, plan1 []coord
	var err0, err1 error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		plan0, err0 = Solve[coord](ctx, a0, picker{id: 0}, start, goal, WithPollInterval[coord](5*time.Millisecond))
	}()
	go func() {
		defer wg.Done()
		plan1, err1 = Solve[coord](ctx, a1, picker{id: 1}, start, goal, WithPollInterval[coord](5*time.Millisecond))
	}()
	wg.Wait()

	if err0 != nil {
		t.Fatalf("agent 0: %v", err0)
	}
	if err1 != nil {
		t.Fatalf("agent 1: %v", err1)
	}

	wantPlan1 := []coord{{1, 1}, {2, 1}}
	if len(plan1) != len(wantPlan1) {
		t.Fatalf("agent 1 plan: got %v, want %v", plan1, wantPlan1)
	}
	for i := range wantPlan1 {
		if plan1[i] != wantPlan1[i] {
			t.Fatalf("agent 1 plan: got %v, want %v", plan1, wantPlan1)
		}
	}

	wantPlan0 := []coord{{0, 0}}
	if len(plan0) != len(wantPlan0) || plan0[0] != wantPlan0[0] {
		t.Fatalf("agent 0 plan: got %v, want %v", plan0, wantPlan0)
	}
}
