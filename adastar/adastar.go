// Package adastar implements Anytime Dynamic A* (AD-A*): a bounded
// suboptimal search that publishes a fast first plan under an inflated
// heuristic (epsilon > 1) and can be told to refine toward optimality
// by lowering epsilon and re-expanding previously closed states.
package adastar

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/basinwire/planner/internal/validation"
	"github.com/basinwire/planner/key"
	"github.com/basinwire/planner/planner"
)

// DefaultEpsilon matches the inflation factor the reference solve()
// entry point used: fast first solution, roughly twice optimal.
const DefaultEpsilon = 2.0

// Plan is the path published after the initial search or a refinement
// pass: the forward walk from start toward goal. Complete is false if
// the walk hit a state whose rhs is infinite before reaching goal.
type Plan[S comparable] struct {
	States   []S
	Complete bool
}

type stateData struct {
	g, rhs float64
}

// Option configures a Solver.
type Option[S comparable] func(*Solver[S])

// WithLogger attaches a logger used to trace expansion and refinement
// activity. Nil (the default) disables logging.
func WithLogger[S comparable](l *log.Logger) Option[S] {
	return func(s *Solver[S]) { s.log = l }
}

// WithInitialEpsilon overrides DefaultEpsilon for the initial search.
func WithInitialEpsilon[S comparable](eps float64) Option[S] {
	return func(s *Solver[S]) { s.eps = eps }
}

// Solver holds the search state across an initial solve and any number
// of subsequent Refine calls.
type Solver[S comparable] struct {
	ps          planner.ProblemSpace[S]
	start, goal S
	eps         float64

	data   map[S]*stateData
	open   *key.Heap[S]
	closed map[S]bool
	incons map[S]bool

	log *log.Logger
}

// NewSolver constructs a solver for ps over [start, goal] with the
// given initial epsilon.
func NewSolver[S comparable](ps planner.ProblemSpace[S], start, goal S, eps float64, opts ...Option[S]) *Solver[S] {
	s := &Solver[S]{
		ps:     ps,
		start:  start,
		goal:   goal,
		eps:    eps,
		data:   make(map[S]*stateData),
		open:   key.NewMinHeap[S](),
		closed: make(map[S]bool),
		incons: make(map[S]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func stateKey(d stateData, h, eps float64) key.Pair {
	if d.g > d.rhs {
		return key.Pair{K0: d.rhs + eps*h, K1: d.rhs}
	}
	return key.Pair{K0: d.g + h, K1: d.g}
}

func (s *Solver[S]) get(state S) *stateData {
	d, ok := s.data[state]
	if !ok {
		d = &stateData{g: math.Inf(1), rhs: math.Inf(1)}
		s.data[state] = d
	}
	return d
}

func (s *Solver[S]) updateState(state S) {
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

	// A correct removal, unlike the reference implementation which
	// only warned about duplicate OPEN entries on cyclic graphs: the
	// indexed heap lets us just drop any stale entry before deciding
	// whether to reinsert.
	s.open.Remove(state)

	if !key.Consistent(d.g, d.rhs) {
		if !s.closed[state] {
			s.open.Push(state, stateKey(*d, s.ps.Heuristic(state, s.start), s.eps))
		} else {
			s.incons[state] = true
		}
	}
}

func (s *Solver[S]) computePath() {
	for {
		_, topKey, ok := s.open.Peek()
		startData := s.get(s.start)
		startKey := stateKey(*startData, s.ps.Heuristic(s.start, s.start), s.eps)
		if !ok || !(key.Less(topKey, startKey) || !key.Consistent(startData.g, startData.rhs)) {
			return
		}
		state, _, _ := s.open.Pop()
		d := s.get(state)
		if d.g > d.rhs {
			d.g = d.rhs
			s.closed[state] = true
			for _, e := range s.ps.Predecessors(state) {
				s.updateState(e.State)
			}
		} else {
			d.g = math.Inf(1)
			s.updateState(state)
			for _, e := range s.ps.Predecessors(state) {
				s.updateState(e.State)
			}
		}
	}
}

// publishPlan walks forward from start, at every step picking the
// successor that minimises g(successor)+cost, ties broken toward the
// later-discovered successor (<=, not <) — preserved exactly as the
// reference fixtures expect.
func (s *Solver[S]) publishPlan() Plan[S] {
	var plan []S
	curr := s.start
	for {
		minCost := math.Inf(1)
		next := curr
		for _, e := range s.ps.Successors(curr) {
			if d, ok := s.data[e.State]; ok && d.g+e.Cost <= minCost {
				minCost = d.g + e.Cost
				next = e.State
			}
		}
		if next == curr {
			// No improving successor found: the walk cannot progress.
			return Plan[S]{States: plan, Complete: false}
		}
		curr = next
		plan = append(plan, curr)

		d := s.get(curr)
		if curr == s.goal || math.IsInf(d.rhs, 1) {
			return Plan[S]{States: plan, Complete: curr == s.goal}
		}
	}
}

// Solve runs the initial bounded-suboptimal search and invokes
// callback once with the resulting plan.
func Solve[S comparable](ps planner.ProblemSpace[S], start, goal S, callback func(Plan[S]), opts ...Option[S]) *Solver[S] {
	if result := validation.CheckProblemSpace[S](ps, start, goal); !result.IsValid() {
		panic("adastar: invalid problem space:\n" + result.String())
	}

	s := NewSolver(ps, start, goal, DefaultEpsilon, opts...)

	s.get(start)
	s.get(goal).rhs = 0

	s.open.Push(goal, stateKey(*s.get(goal), ps.Heuristic(goal, start), s.eps))

	s.computePath()
	plan := s.publishPlan()
	if s.log != nil {
		s.log.Info("adastar: initial plan published", "eps", s.eps, "complete", plan.Complete, "steps", len(plan.States))
	}
	callback(plan)
	return s
}

// Refine lowers epsilon to newEps and re-expands every state that was
// closed (or became inconsistent after closing) under the previous
// epsilon, then republishes. The reference implementation left this
// as an unimplemented "forever loop" TODO; this module exposes it as
// an explicit, caller-driven operation instead.
func (s *Solver[S]) Refine(newEps float64, callback func(Plan[S])) {
	s.eps = newEps

	for state := range s.closed {
		s.open.Push(state, stateKey(*s.get(state), s.ps.Heuristic(state, s.start), s.eps))
	}
	for state := range s.incons {
		s.open.Push(state, stateKey(*s.get(state), s.ps.Heuristic(state, s.start), s.eps))
	}
	s.closed = make(map[S]bool)
	s.incons = make(map[S]bool)

	s.computePath()
	plan := s.publishPlan()
	if s.log != nil {
		s.log.Info("adastar: refined plan published", "eps", s.eps, "complete", plan.Complete, "steps", len(plan.States))
	}
	callback(plan)
}
