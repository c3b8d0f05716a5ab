package key

import "testing"

func TestHeapOrdering(t *testing.T) {
	t.Run("lexicographic pop order", func(t *testing.T) {
		h := NewMinHeap[string]()
		h.Push("A", Pair{1.0, 1.0})
		h.Push("B", Pair{1.0, 0.0})
		h.Push("C", Pair{2.0, 1.0})
		h.Push("D", Pair{1.0, 2.0})

		if state, _, _ := h.Peek(); state != "B" {
			t.Errorf("expected peek to be B, got %v", state)
		}

		want := []Pair{{1, 0}, {1, 1}, {1, 2}, {2, 1}}
		for _, w := range want {
			_, got, ok := h.Pop()
			if !ok {
				t.Fatalf("expected an entry, heap empty early")
			}
			if !Equal(got, w) {
				t.Errorf("expected %+v, got %+v", w, got)
			}
		}
		if h.Len() != 0 {
			t.Errorf("expected heap to be drained, len=%d", h.Len())
		}
	})

	t.Run("max heap inverts order", func(t *testing.T) {
		h := NewMaxHeap[int]()
		h.Push(1, Pair{1, 0})
		h.Push(2, Pair{5, 0})
		h.Push(3, Pair{3, 0})

		state, _, _ := h.Pop()
		if state != 2 {
			t.Errorf("expected max-priority state 2 first, got %v", state)
		}
	})
}

func TestHeapReprioritizeAndRemove(t *testing.T) {
	h := NewMinHeap[int]()
	h.Push(1, Pair{5, 0})
	h.Push(2, Pair{1, 0})

	// Re-prioritising an existing state updates it in place rather than
	// duplicating the entry.
	h.Push(1, Pair{0, 0})
	if h.Len() != 2 {
		t.Fatalf("expected 2 entries after re-prioritising, got %d", h.Len())
	}
	state, _, _ := h.Peek()
	if state != 1 {
		t.Errorf("expected state 1 to now be on top, got %v", state)
	}

	if !h.Remove(2) {
		t.Errorf("expected Remove(2) to report removal")
	}
	if h.Contains(2) {
		t.Errorf("expected state 2 to be gone after Remove")
	}
	if h.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", h.Len())
	}
}

func TestQuantisation(t *testing.T) {
	// Values within the same fixed-point bucket compare equal; values a
	// full bucket apart do not.
	a := Pair{1.0, 1.0}
	b := Pair{1.0 + 1.0/(1<<22), 1.0} // a quarter of a quantisation unit away
	if !Equal(a, b) {
		t.Errorf("expected %+v and %+v to quantise equal", a, b)
	}

	c := Pair{1.0 + 1.0/(1<<19), 1.0} // two quantisation units away
	if Equal(a, c) {
		t.Errorf("expected %+v and %+v to quantise distinct", a, c)
	}
	if !Less(a, c) {
		t.Errorf("expected %+v < %+v", a, c)
	}
}
