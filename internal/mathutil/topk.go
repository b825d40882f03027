package mathutil

import "container/heap"

// ScoredItem is one candidate in a TopKHeap: a payload, its score
// (higher is better), and a tie-break order (spec §4.2: "equal-score
// tie-break is defined (prefer lower rowid)" — Order carries that
// rowid, or any other monotonic sequence the caller wants ties broken
// on).
type ScoredItem[T any] struct {
	Value T
	Score float32
	Order int64
}

// TopKHeap retains the K highest-scoring items seen across Push calls
// without ever materialising the full candidate set, the bounded-memory
// requirement behind spec §4.2's search_filtered and §4.5's
// cursor-streamed fallback path. Internally a min-heap on (score, -order)
// so the worst of the current top-K is always evictable in O(log K).
type TopKHeap[T any] struct {
	k     int
	items minHeap[T]
}

// NewTopKHeap creates a heap that retains at most k items.
func NewTopKHeap[T any](k int) *TopKHeap[T] {
	return &TopKHeap[T]{k: k}
}

// Push offers a candidate. It is kept if the heap has fewer than k items
// or it outranks the current minimum (higher score, or equal score with
// a lower Order).
func (h *TopKHeap[T]) Push(item ScoredItem[T]) {
	if h.k <= 0 {
		return
	}
	if len(h.items) < h.k {
		heap.Push(&h.items, item)
		return
	}
	if less(h.items[0], item) {
		h.items[0] = item
		heap.Fix(&h.items, 0)
	}
}

// Items drains the heap, returning items sorted best-first.
func (h *TopKHeap[T]) Items() []ScoredItem[T] {
	out := make([]ScoredItem[T], len(h.items))
	cp := append(minHeap[T]{}, h.items...)
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&cp).(ScoredItem[T])
	}
	return out
}

// Len reports how many items are currently retained.
func (h *TopKHeap[T]) Len() int { return len(h.items) }

// less reports whether a ranks worse than b (a is the current heap
// minimum candidate for eviction): lower score loses; on a tie, the
// higher Order loses (so the surviving item has the lower Order, per
// spec's "prefer lower rowid").
func less[T any](a, b ScoredItem[T]) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Order > b.Order
}

type minHeap[T any] []ScoredItem[T]

func (h minHeap[T]) Len() int            { return len(h) }
func (h minHeap[T]) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h minHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap[T]) Push(x interface{}) { *h = append(*h, x.(ScoredItem[T])) }
func (h *minHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
