package analysis

import (
	"container/heap"
	"sort"
)

// ReverseBFSResult is the output of a (possibly multi-source) reverse
// BFS: the shortest reverse-reachable depth for every visited name, plus
// which seed produced that minimal depth.
type ReverseBFSResult struct {
	Depths     map[string]int
	Provenance map[string]string
}

// ReverseBFS is the single-source case (spec §4.6): shortest-path
// distance in reverse from target, with target itself at depth 0.
// Visited names are never re-enqueued.
func ReverseBFS(reverse map[string]map[string]struct{}, target string, maxDepth int) map[string]int {
	return ReverseBFSMulti(reverse, []string{target}, maxDepth).Depths
}

// ReverseBFSMulti runs a single BFS across every seed with a priority
// queue keyed by depth, so a node's recorded depth is genuinely the
// minimum over all seeds (spec §4.6). provenance[name] records which
// seed produced that minimal depth; on a tie between seeds reaching a
// node at the same depth, the lexicographically smallest seed wins —
// guaranteed here because the queue orders ties by seed name, so the
// first pop to finalize a node is always the lexicographically smallest
// candidate at that depth.
func ReverseBFSMulti(reverse map[string]map[string]struct{}, seeds []string, maxDepth int) ReverseBFSResult {
	depths := make(map[string]int)
	provenance := make(map[string]string)

	pq := make(bfsQueue, 0, len(seeds))
	for _, s := range dedupSortedStrings(seeds) {
		pq = append(pq, bfsItem{name: s, seed: s, depth: 0})
	}
	heap.Init(&pq)

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(bfsItem)
		if _, seen := depths[item.name]; seen {
			continue
		}
		depths[item.name] = item.depth
		provenance[item.name] = item.seed
		if item.depth >= maxDepth {
			continue
		}
		for neighbor := range reverse[item.name] {
			if _, seen := depths[neighbor]; seen {
				continue
			}
			heap.Push(&pq, bfsItem{name: neighbor, seed: item.seed, depth: item.depth + 1})
		}
	}
	return ReverseBFSResult{Depths: depths, Provenance: provenance}
}

type bfsItem struct {
	name  string
	seed  string
	depth int
}

type bfsQueue []bfsItem

func (q bfsQueue) Len() int { return len(q) }
func (q bfsQueue) Less(i, j int) bool {
	if q[i].depth != q[j].depth {
		return q[i].depth < q[j].depth
	}
	return q[i].seed < q[j].seed
}
func (q bfsQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *bfsQueue) Push(x any)   { *q = append(*q, x.(bfsItem)) }
func (q *bfsQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func dedupSortedStrings(in []string) []string {
	set := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := set[s]; ok {
			continue
		}
		set[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
