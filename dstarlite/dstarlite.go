// Package dstarlite implements D* Lite: an incremental backward
// shortest-path search that repairs a plan in place when the caller
// reports edge-cost changes, rather than recomputing it from scratch.
//
// The search runs backward from goal to start, maintaining for every
// visited state a best-known cost g and a one-step lookahead rhs. A
// state is locally consistent when g == rhs; the open set holds
// exactly the inconsistent states, ordered by a two-element key that
// favours states closer to becoming consistent and closer to start.
package dstarlite

import (
	"context"
	"math"

	"github.com/charmbracelet/log"

	"github.com/basinwire/planner/internal/validation"
	"github.com/basinwire/planner/key"
	"github.com/basinwire/planner/planner"
)

// ProblemSpace is what D* Lite requires of the caller's problem: the
// base successor/predecessor/heuristic contract plus the Lifelong
// update hook invoked on every cost-change notification.
type ProblemSpace[S comparable] interface {
	planner.ProblemSpace[S]
	planner.Lifelong[S]
}

// Event is a single lifelong-replanning notification: the caller
// reports that edge costs around Changed may have shifted, and that
// the agent's position is now NewStart. Sending an event with
// NewStart equal to goal tells the solver to stop.
type Event[S comparable] struct {
	Changed  S
	NewStart S
}

// Plan is one published path, delivered to the callback after the
// initial search and after every replan.
type Plan[S comparable] struct {
	// States is the forward walk from start to goal, excluding start
	// itself. Empty if start already equals goal.
	States []S
	// Reachable is false if the walk hit a state with g == infinity
	// before reaching goal; States then holds the partial path walked
	// so far.
	Reachable bool
}

type stateData struct {
	g, rhs float64
}

// Option configures a solver.
type Option[S comparable] func(*solver[S])

// WithLogger attaches a logger the solver uses to trace replanning
// activity. Nil (the default) disables logging.
func WithLogger[S comparable](l *log.Logger) Option[S] {
	return func(s *solver[S]) { s.log = l }
}

type solver[S comparable] struct {
	ps   ProblemSpace[S]
	goal S
	data map[S]*stateData
	open *key.Heap[S]
	log  *log.Logger
}

func newSolver[S comparable](ps ProblemSpace[S], goal S, opts ...Option[S]) *solver[S] {
	s := &solver[S]{
		ps:   ps,
		goal: goal,
		data: make(map[S]*stateData),
		open: key.NewMinHeap[S](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stateKey computes the min-first priority for d given the heuristic
// distance h from this state to the current start. Note this is not a
// literal transcription of min(g,rhs)+h / min(g,rhs): it matches the
// reference implementation's actual (and test-verified) formula,
// min(g, rhs+h) / max(g, rhs), which is what the scenario fixtures in
// this module's tests were generated against.
func stateKey(d stateData, h float64) key.Pair {
	k0 := d.g
	if d.rhs+h < k0 {
		k0 = d.rhs + h
	}
	k1 := d.g
	if d.rhs > k1 {
		k1 = d.rhs
	}
	return key.Pair{K0: k0, K1: k1}
}

func (s *solver[S]) get(state S) *stateData {
	d, ok := s.data[state]
	if !ok {
		d = &stateData{g: math.Inf(1), rhs: math.Inf(1)}
		s.data[state] = d
	}
	return d
}

func (s *solver[S]) updateState(state, start S) {
	d := s.get(state)
	if state != s.goal {
		tmp := math.Inf(1)
		for _, e := range s.ps.Successors(state) {
			if succ, ok := s.data[e.State]; ok {
				if c := e.Cost + succ.g; c < tmp {
					tmp = c
				}
			}
		}
		d.rhs = tmp
	}
	s.open.Remove(state)
	if !key.Consistent(d.g, d.rhs) {
		s.open.Push(state, stateKey(*d, s.ps.Heuristic(state, start)))
	}
}

func (s *solver[S]) computePath(start S) {
	for {
		_, topKey, ok := s.open.Peek()
		startData := s.get(start)
		startKey := stateKey(*startData, s.ps.Heuristic(start, start))
		if !ok || !(key.Less(topKey, startKey) || !key.Consistent(startData.g, startData.rhs)) {
			return
		}
		state, _, _ := s.open.Pop()
		d := s.get(state)
		if d.g > d.rhs {
			d.g = d.rhs
		} else {
			d.g = math.Inf(1)
			s.updateState(state, start)
		}
		for _, e := range s.ps.Predecessors(state) {
			s.updateState(e.State, start)
		}
	}
}

func (s *solver[S]) publishPath(start, goal S) Plan[S] {
	var res []S
	curr := start
	for curr != goal {
		d, ok := s.data[curr]
		if !ok || math.IsInf(d.g, 1) {
			return Plan[S]{States: res, Reachable: false}
		}
		minCost := math.Inf(1)
		next := curr
		found := false
		for _, e := range s.ps.Successors(curr) {
			if sd, ok := s.data[e.State]; ok && sd.g < minCost {
				minCost = sd.g
				next = e.State
				found = true
			}
		}
		if !found {
			return Plan[S]{States: res, Reachable: false}
		}
		res = append(res, next)
		curr = next
	}
	return Plan[S]{States: res, Reachable: true}
}

// Solve runs D* Lite from start to goal over ps, publishing the
// initial plan and then every repaired plan to callback. It blocks
// reading events until one arrives with NewStart == goal, or until ctx
// is cancelled.
func Solve[S comparable](ctx context.Context, ps ProblemSpace[S], start, goal S, events <-chan Event[S], callback func(Plan[S]), opts ...Option[S]) error {
	if result := validation.CheckProblemSpace[S](ps, start, goal); !result.IsValid() {
		panic("dstarlite: invalid problem space:\n" + result.String())
	}

	s := newSolver(ps, goal, opts...)
	s.get(start)
	s.get(goal).rhs = 0
	s.open.Push(goal, stateKey(*s.get(goal), ps.Heuristic(goal, start)))

	s.computePath(start)
	callback(s.publishPath(start, goal))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.NewStart == goal {
				if s.log != nil {
					s.log.Info("dstarlite: terminating on goal sentinel")
				}
				return nil
			}
			start = ev.NewStart
			ps.Update(ev.Changed)
			s.updateState(ev.Changed, start)
			s.computePath(start)
			plan := s.publishPath(start, goal)
			if s.log != nil {
				s.log.Info("dstarlite: replanned", "start", start, "reachable", plan.Reachable, "steps", len(plan.States))
			}
			callback(plan)
		}
	}
}
