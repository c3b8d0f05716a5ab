// Package mcts implements Monte Carlo Tree Search with UCT selection:
// expand an unseen child when one exists, otherwise descend via UCB1;
// roll out greedily to estimate a reward; back the reward up every
// ancestor touched this iteration; and commit to the best child once
// the iteration budget for this step is spent.
package mcts

import (
	"errors"
	"math"

	"github.com/charmbracelet/log"

	"github.com/basinwire/planner/planner"
)

// MCTS deliberately does not run internal/validation's
// CheckProblemSpace: that check probes Heuristic and Predecessors,
// neither of which MCTS ever calls, and a ProblemSpace supplied here
// is free to leave both unimplemented (panicking, as the reference
// fixture's does) without it being a contract violation.

// DefaultIterations is the per-step simulation budget used when none
// is supplied.
const DefaultIterations = 1000

// ErrNoChildren is returned by Solve when the current state (the start
// or any state committed to since) has no successors and is not the
// goal.
var ErrNoChildren = errors.New("mcts: state has no successors and is not the goal")

type tree[S comparable] struct {
	children map[S][]S
	visits   map[S]uint64
	reward   map[S]float64
}

func newTree[S comparable]() *tree[S] {
	return &tree[S]{
		children: make(map[S][]S),
		visits:   make(map[S]uint64),
		reward:   make(map[S]float64),
	}
}

// expand adds the first not-yet-seen successor of v to the tree and
// returns it. Returns (zero, false) once every successor has already
// been added.
func expand[S comparable](ps planner.ProblemSpace[S], v S, t *tree[S]) (S, bool) {
	var zero S
	for _, e := range ps.Successors(v) {
		seen := false
		for _, c := range t.children[v] {
			if c == e.State {
				seen = true
				break
			}
		}
		if !seen {
			t.children[v] = append(t.children[v], e.State)
			return e.State, true
		}
	}
	return zero, false
}

// bestChild picks v's child maximising the UCB1 score. cUCT == 0
// disables the exploration term, reducing the choice to pure
// exploitation (used when committing to an actual move).
func bestChild[S comparable](v S, t *tree[S], cUCT float64) (S, bool) {
	maxVal := 0.0
	res := v
	for _, child := range t.children[v] {
		var score float64
		if cUCT > 0 {
			score = t.reward[child]/float64(t.visits[child]) +
				cUCT*math.Sqrt((2*math.Log(float64(t.visits[v])))/float64(t.visits[child]))
		} else {
			score = t.reward[child] / float64(t.visits[child])
		}
		if score >= maxVal {
			maxVal = score
			res = child
		}
	}
	return res, res != v
}

// treePolicy walks down the tree from state, expanding the first
// unvisited child it finds, or descending via bestChild when every
// child has already been added. Returns state unchanged if it's a
// leaf (no successors at all).
func treePolicy[S comparable](ps planner.ProblemSpace[S], state S, t *tree[S]) S {
	v := state
	for len(ps.Successors(v)) != 0 {
		if existing, ok := t.children[v]; !ok || len(ps.Successors(v)) != len(existing) {
			next, _ := expand(ps, v, t)
			v = next
			break
		}
		next, ok := bestChild(v, t, 1.0)
		if !ok {
			break
		}
		v = next
	}
	return v
}

// defaultPolicy rolls out greedily from v to a terminal state,
// recording the walk's parent links, and returns 1 + 1/totalCost —
// cheaper rollouts score higher.
func defaultPolicy[S comparable](ps planner.ProblemSpace[S], v S, parents map[S]S) float64 {
	s := v
	reward := 0.0
	for len(ps.Successors(s)) != 0 {
		minCost := math.Inf(1)
		next := s
		for _, e := range ps.Successors(s) {
			if e.Cost <= minCost {
				minCost = e.Cost
				next = e.State
			}
		}
		parents[next] = s
		s = next
		reward += minCost
	}
	return 1.0 + (1.0 / reward)
}

// backup walks from v up through parents, incrementing the visit
// count and accumulating delta at every node on the path.
func backup[S comparable](v S, delta float64, t *tree[S], parents map[S]S) {
	node := v
	for {
		t.visits[node]++
		t.reward[node] += delta
		p, ok := parents[node]
		if !ok {
			break
		}
		node = p
	}
}

// Option configures Solve.
type Option[S comparable] func(*config)

type config struct {
	iterations int
	log        *log.Logger
}

// WithIterations overrides the per-step simulation budget.
func WithIterations[S comparable](n int) Option[S] {
	return func(c *config) { c.iterations = n }
}

// WithLogger attaches a logger used to trace each committed step.
// Nil (the default) disables logging.
func WithLogger[S comparable](l *log.Logger) Option[S] {
	return func(c *config) { c.log = l }
}

// Solve runs iterative MCTS steps from start, committing to a best
// child at the end of each step's simulation budget, until goal is
// reached. callback is invoked with every committed state, including
// the final one.
func Solve[S comparable](ps planner.ProblemSpace[S], start, goal S, callback func(S), opts ...Option[S]) (S, error) {
	cfg := &config{iterations: DefaultIterations}
	for _, o := range opts {
		o(cfg)
	}

	t := newTree[S]()
	curr := start

	for curr != goal {
		if len(ps.Successors(curr)) == 0 {
			return curr, ErrNoChildren
		}
		for i := 0; i < cfg.iterations; i++ {
			parents := make(map[S]S)
			vi := treePolicy(ps, curr, t)
			parents[vi] = curr
			delta := defaultPolicy(ps, vi, parents)
			backup(vi, delta, t, parents)
		}
		next, ok := bestChild(curr, t, 0.0)
		if !ok {
			return curr, ErrNoChildren
		}
		curr = next
		if cfg.log != nil {
			cfg.log.Info("mcts: committed step", "state", curr)
		}
		callback(curr)
	}
	return curr, nil
}
