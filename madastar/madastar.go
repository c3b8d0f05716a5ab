// Package madastar implements MAD-A*: forward A* search distributed
// across cooperating agents, each owning a partial problem space.
// Agents advertise improved costs on states they declare public and
// hand off the final traceback to whichever agent reaches the goal.
package madastar

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/basinwire/planner/internal/validation"
	"github.com/basinwire/planner/key"
	"github.com/basinwire/planner/planner"
)

// DefaultPollInterval matches the reference cadence: one OPEN
// expansion and one inbox drain per iteration, throttled so a
// user-supplied transport isn't saturated.
const DefaultPollInterval = 250 * time.Millisecond

// Agent is the transport-facing capability MAD-A* needs from the
// host: broadcasting a wire message to every peer, and draining
// whatever has arrived since the last call. Delivery is assumed FIFO
// per peer but unordered across peers. An advertisement for a state
// that is both in OPEN and closed is discarded unless it improves the
// local g-value; any other advertisement is accepted (see
// processMessage).
type Agent interface {
	Broadcast(msg string)
	Retrieve() []string
}

// ProblemSpace is what MAD-A* requires beyond the base contract: the
// ability to tell public states apart from private ones, and to
// serialise/deserialise the messages agents exchange.
type ProblemSpace[S comparable] interface {
	planner.ProblemSpace[S]
	planner.SharedStates[S]
}

type stateValues struct {
	gVal, hVal float64
}

// Option configures a solve.
type Option[S comparable] func(*solver[S])

// WithPollInterval overrides the per-iteration message-poll/expand/sleep
// cadence.
func WithPollInterval[S comparable](d time.Duration) Option[S] {
	return func(s *solver[S]) { s.pollInterval = d }
}

// WithLogger attaches a logger used to trace message exchange and
// traceback hand-offs. Nil (the default) disables logging.
func WithLogger[S comparable](l *log.Logger) Option[S] {
	return func(s *solver[S]) { s.log = l }
}

type solver[S comparable] struct {
	agent Agent
	ps    ProblemSpace[S]
	goal  S

	data   map[S]*stateValues
	open   *key.Heap[S]
	closed map[S]float64

	pollInterval time.Duration
	log          *log.Logger
}

func newSolver[S comparable](agent Agent, ps ProblemSpace[S], goal S, opts ...Option[S]) *solver[S] {
	s := &solver[S]{
		agent:        agent,
		ps:           ps,
		goal:         goal,
		data:         make(map[S]*stateValues),
		open:         key.NewMinHeap[S](),
		closed:       make(map[S]float64),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// processMessage folds an incoming public-state advertisement into
// local search data. The guard is deliberately the short-circuit form
// the reference solver used — !(inOpen && inClosed) || improved —
// rather than the more obvious "always insert if improved": a state
// the agent has neither opened nor closed is always accepted, whether
// or not it happens to improve anything.
func (s *solver[S]) processMessage(st S, vals stateValues) {
	inOpen := s.open.Contains(st)
	_, inClosed := s.closed[st]

	improved := false
	if cur, ok := s.data[st]; ok && cur.gVal > vals.gVal {
		improved = true
	}

	if !(inOpen && inClosed) || improved {
		s.pushIfBetter(st, key.Pair{K0: vals.gVal, K1: 0})
		hVal := vals.hVal
		if h := s.ps.Heuristic(st, s.goal); h > hVal {
			hVal = h
		}
		s.data[st] = &stateValues{gVal: vals.gVal, hVal: hVal}
	}
}

// expand takes a state just popped from OPEN, advertises it if public, and
// relaxes its successors. Returns true once the goal has been
// expanded.
func (s *solver[S]) expand(st S) bool {
	d := s.data[st]

	if st == s.goal {
		s.broadcastAdvert(st, *d)
		s.closed[st] = d.gVal + s.ps.Heuristic(st, s.goal)
		return true
	}

	if s.ps.IsPublic(st) {
		f := d.gVal + s.ps.Heuristic(st, s.goal)
		if prev, ok := s.closed[st]; !ok || prev > f {
			s.broadcastAdvert(st, *d)
		}
	}
	s.closed[st] = d.gVal + s.ps.Heuristic(st, s.goal)

	for _, e := range s.ps.Successors(st) {
		sDash := e.State
		gVal := d.gVal + e.Cost
		hVal := s.ps.Heuristic(sDash, s.goal)
		fVal := gVal + hVal

		if cur, ok := s.data[sDash]; ok {
			if cur.gVal > gVal {
				s.data[sDash] = &stateValues{gVal: gVal, hVal: hVal}
			}
		} else {
			s.data[sDash] = &stateValues{gVal: gVal, hVal: hVal}
		}

		oldFVal := -1.0
		prevClosed, wasClosed := s.closed[sDash]
		if wasClosed {
			oldFVal = prevClosed
		}
		if !wasClosed || (oldFVal > 0 && fVal < oldFVal) {
			s.pushIfBetter(sDash, key.Pair{K0: fVal, K1: 0})
		}
	}
	return false
}

// pushIfBetter inserts state into OPEN, or updates its key only if the
// new priority actually improves on what's there. Plain re-priced
// Push would let a worse candidate f-value clobber a better one
// already sitting in the indexed heap, which a naive duplicate-entry
// binary heap (the reference implementation's approach) never risked.
func (s *solver[S]) pushIfBetter(state S, p key.Pair) {
	if cur, ok := s.open.PriorityOf(state); ok && !key.Less(p, cur) {
		return
	}
	s.open.Push(state, p)
}

func (s *solver[S]) broadcastAdvert(st S, d stateValues) {
	msg, err := s.ps.Serialize(0, st, []float64{d.gVal, d.hVal})
	if err != nil {
		if s.log != nil {
			s.log.Error("madastar: failed to serialise advertisement", "state", st, "error", err)
		}
		return
	}
	s.agent.Broadcast(msg)
}

// traceback walks predecessors from goal back toward start, picking
// at each step the predecessor minimising closed[pred]+cost(pred,curr).
// When the local predecessor set is empty it polls the inbox for a
// type-1 hand-off from whichever agent owns the missing portion of the
// path. The result is returned start-first.
func (s *solver[S]) traceback(ctx context.Context, start S) ([]S, error) {
	var res []S
	curr := s.goal

	for {
		preds := s.ps.Predecessors(curr)
		if len(preds) == 0 {
			msgs := s.agent.Retrieve()
			if len(msgs) > 0 {
				for _, m := range msgs {
					msgType, pState, _, err := s.ps.Deserialize(m)
					if err != nil {
						continue
					}
					if msgType == 1 {
						curr = pState
					}
				}
			} else {
				select {
				case <-ctx.Done():
					return res, ctx.Err()
				case <-time.After(s.pollInterval):
				}
				continue
			}
		}

		minCost := math.Inf(1)
		next := curr
		for _, p := range s.ps.Predecessors(curr) {
			if cf, ok := s.closed[p.State]; ok {
				if c := cf + p.Cost; c < minCost {
					minCost = c
					next = p.State
				}
			}
		}
		res = append(res, next)
		curr = next

		if s.ps.IsPublic(curr) {
			msg, err := s.ps.Serialize(1, curr, nil)
			if err == nil {
				s.agent.Broadcast(msg)
			}
			break
		}
		if curr == start {
			break
		}
	}

	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res, nil
}

// Solve runs the forward search loop — drain inbox, expand one OPEN
// entry, sleep — until the goal is reached locally or advertised by a
// peer, then tracebacks to produce this agent's portion of the plan.
func Solve[S comparable](ctx context.Context, agent Agent, ps ProblemSpace[S], start, goal S, opts ...Option[S]) ([]S, error) {
	if result := validation.CheckProblemSpace[S](ps, start, goal); !result.IsValid() {
		panic("madastar: invalid problem space:\n" + result.String())
	}

	s := newSolver(agent, ps, goal, opts...)
	s.data[start] = &stateValues{gVal: 0, hVal: ps.Heuristic(start, goal)}
	s.open.Push(start, key.Pair{K0: 0, K1: 0})

	var handoff []S
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		done := false
		if msgs := agent.Retrieve(); len(msgs) > 0 {
			for _, m := range msgs {
				msgType, st, params, err := ps.Deserialize(m)
				if err != nil {
					continue
				}
				if msgType == 1 {
					handoff = append(handoff, st)
					continue
				}
				if st == goal {
					done = true
					continue
				}
				if msgType == 0 && len(params) >= 2 {
					s.processMessage(st, stateValues{gVal: params[0], hVal: params[1]})
				}
			}
			if done {
				break
			}
		}

		if s.open.Len() > 0 {
			st, _, _ := s.open.Pop()
			if s.expand(st) {
				break
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}

	// traceback starts from s.goal. An agent that owns no predecessor of
	// goal resumes from a hand-off instead, and one drained above would
	// otherwise never reach traceback's own inbox poll.
	if len(handoff) > 0 && len(ps.Predecessors(goal)) == 0 {
		s.goal = handoff[len(handoff)-1]
	}

	if s.log != nil {
		s.log.Info("madastar: forward search complete, starting traceback")
	}
	return s.traceback(ctx, start)
}
