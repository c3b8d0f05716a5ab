// Package key implements the two-element priority used by the search
// engines in this module: a lexicographically ordered (k0, k1) pair of
// floats, and an indexed binary heap keyed by that pair.
//
// Floats are quantised to 20-bit fixed point before comparison so that
// repeated key recomputation (the search engines recompute keys on
// almost every iteration) yields a stable total order instead of being
// at the mercy of float rounding noise.
package key

import (
	"container/heap"
	"math"
)

// scale is the fixed-point factor applied before comparing key
// coordinates: 2^20, per the quantisation scheme in the spec.
const scale = 1 << 20

// Pair is a two-element priority, compared lexicographically: K0 first,
// K1 to break ties.
type Pair struct {
	K0, K1 float64
}

func quantize(v float64) int64 {
	if math.IsInf(v, 1) {
		return math.MaxInt64
	}
	if math.IsInf(v, -1) {
		return math.MinInt64
	}
	return int64(math.Round(v * scale))
}

// Less reports whether a sorts before b under lexicographic order on
// the quantised coordinates.
func Less(a, b Pair) bool {
	aq0, bq0 := quantize(a.K0), quantize(b.K0)
	if aq0 != bq0 {
		return aq0 < bq0
	}
	return quantize(a.K1) < quantize(b.K1)
}

// Equal reports whether a and b quantise to the same coordinates.
func Equal(a, b Pair) bool {
	return quantize(a.K0) == quantize(b.K0) && quantize(a.K1) == quantize(b.K1)
}

// Consistent reports whether a and b quantise to the same fixed-point
// value. D* Lite and Anytime Dynamic A* use this in place of float
// equality (g == rhs) so that key recomputation noise can't cause the
// termination predicate to misfire.
func Consistent(a, b float64) bool {
	return quantize(a) == quantize(b)
}

// entry is one slot of the heap: a state paired with its current
// priority.
type entry[S comparable] struct {
	state    S
	priority Pair
}

// innerHeap is the container/heap.Interface implementation backing
// Heap. It is kept unexported so Heap can guard every mutation with its
// own index bookkeeping.
type innerHeap[S comparable] struct {
	items []*entry[S]
	index map[S]int
	less  func(a, b Pair) bool
}

func (h *innerHeap[S]) Len() int { return len(h.items) }

func (h *innerHeap[S]) Less(i, j int) bool {
	return h.less(h.items[i].priority, h.items[j].priority)
}

func (h *innerHeap[S]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.index[h.items[i].state] = i
	h.index[h.items[j].state] = j
}

func (h *innerHeap[S]) Push(x interface{}) {
	e := x.(*entry[S])
	h.index[e.state] = len(h.items)
	h.items = append(h.items, e)
}

func (h *innerHeap[S]) Pop() interface{} {
	old := h.items
	n := len(old)
	e := old[n-1]
	h.items = old[:n-1]
	delete(h.index, e.state)
	return e
}

// Heap is an indexed priority queue over states: besides the usual
// push/pop it supports O(log n) removal and priority update by state,
// which D* Lite and Anytime Dynamic A* both need every time a state's
// open-set entry must be refreshed or dropped (see updateState in
// dstarlite and adastar).
type Heap[S comparable] struct {
	h *innerHeap[S]
}

// NewMinHeap returns an empty min-first heap: the smallest Pair (per
// Less) is always at the top. This is what every solver but iterative
// repair uses.
func NewMinHeap[S comparable]() *Heap[S] {
	return &Heap[S]{h: &innerHeap[S]{index: make(map[S]int), less: Less}}
}

// NewMaxHeap returns an empty max-first heap, used by iterative repair
// to pick the highest-priority conflict.
func NewMaxHeap[S comparable]() *Heap[S] {
	return &Heap[S]{h: &innerHeap[S]{index: make(map[S]int), less: func(a, b Pair) bool { return Less(b, a) }}}
}

// Len returns the number of entries currently in the heap.
func (q *Heap[S]) Len() int { return q.h.Len() }

// Contains reports whether state currently has an entry in the heap.
func (q *Heap[S]) Contains(state S) bool {
	_, ok := q.h.index[state]
	return ok
}

// PriorityOf returns the current priority of state, if present.
func (q *Heap[S]) PriorityOf(state S) (Pair, bool) {
	i, ok := q.h.index[state]
	if !ok {
		return Pair{}, false
	}
	return q.h.items[i].priority, true
}

// Push inserts state with the given priority, or re-prioritises it in
// place if it is already present.
func (q *Heap[S]) Push(state S, priority Pair) {
	if i, ok := q.h.index[state]; ok {
		q.h.items[i].priority = priority
		heap.Fix(q.h, i)
		return
	}
	heap.Push(q.h, &entry[S]{state: state, priority: priority})
}

// Remove drops state from the heap, if present. Reports whether
// anything was removed.
func (q *Heap[S]) Remove(state S) bool {
	i, ok := q.h.index[state]
	if !ok {
		return false
	}
	heap.Remove(q.h, i)
	return true
}

// Peek returns the top entry without removing it.
func (q *Heap[S]) Peek() (state S, priority Pair, ok bool) {
	if len(q.h.items) == 0 {
		return state, priority, false
	}
	top := q.h.items[0]
	return top.state, top.priority, true
}

// Pop removes and returns the top entry.
func (q *Heap[S]) Pop() (state S, priority Pair, ok bool) {
	if len(q.h.items) == 0 {
		return state, priority, false
	}
	top := heap.Pop(q.h).(*entry[S])
	return top.state, top.priority, true
}
