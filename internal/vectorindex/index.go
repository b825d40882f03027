package vectorindex

import (
	"context"
	"math"
	"strconv"
	"sync"

	"github.com/coder/hnsw"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/mathutil"
)

// Index is an in-memory HNSW graph over {all chunks ∪ all notes} (spec
// §3), addressed by string id rather than the library's native uint64
// key. Deletion is lazy: the graph keeps the node, only the id mapping
// is dropped, mirroring the teacher's HNSWStore ("avoids a bug in
// coder/hnsw where deleting the last node breaks the graph").
type Index struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config Config

	idMap   map[string]uint64
	keyMap  map[uint64]string
	vectors map[uint64][]float32
	nextKey uint64

	closed bool
}

// New builds an empty index with the given configuration.
func New(cfg Config) (*Index, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 1.0 / math.Log(float64(cfg.M))

	return &Index{
		graph:   graph,
		config:  cfg,
		idMap:   make(map[string]uint64),
		keyMap:  make(map[uint64]string),
		vectors: make(map[uint64][]float32),
		nextKey: 0,
	}, nil
}

// Add inserts or replaces points. Re-adding an existing id orphans its
// old graph node (lazy deletion) rather than mutating the graph
// in-place.
func (idx *Index) Add(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return cqserrors.New(cqserrors.KindVectorIndex, "index is closed")
	}

	for _, p := range points {
		if err := ctx.Err(); err != nil {
			return cqserrors.Cancelled("vector index add")
		}
		if len(p.Embedding) != idx.config.Dimensions {
			return cqserrors.New(cqserrors.KindVectorIndex, "embedding dimension mismatch").
				WithDetail("expected", strconv.Itoa(idx.config.Dimensions)).
				WithDetail("got", strconv.Itoa(len(p.Embedding)))
		}

		if existingKey, exists := idx.idMap[p.ID]; exists {
			delete(idx.keyMap, existingKey)
			delete(idx.idMap, p.ID)
			delete(idx.vectors, existingKey)
		}

		vec := make([]float32, len(p.Embedding))
		copy(vec, p.Embedding)
		mathutil.Normalize(vec)

		key := idx.nextKey
		idx.nextKey++

		idx.graph.Add(hnsw.MakeNode(key, vec))
		idx.idMap[p.ID] = key
		idx.keyMap[key] = p.ID
		idx.vectors[key] = vec
	}
	return nil
}

// Delete tombstones ids: the graph nodes stay resident (coder/hnsw has
// no safe single-node removal for the last node in a layer) but the id
// mapping is dropped so they never again surface from Search.
func (idx *Index) Delete(ctx context.Context, ids []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return cqserrors.New(cqserrors.KindVectorIndex, "index is closed")
	}

	for _, id := range ids {
		if key, exists := idx.idMap[id]; exists {
			delete(idx.keyMap, key)
			delete(idx.idMap, id)
			delete(idx.vectors, key)
		}
	}
	return nil
}

// Search returns up to k nearest neighbours at the given efSearch (spec
// §4.3: "search(query_emb, k, ef) → Vec<(id, distance)>"). ef <= 0 uses
// the configured default. Takes the full lock, not a read lock: ef is
// threaded through by mutating the underlying graph's shared EfSearch
// field, which two concurrent searches could otherwise race on. The
// read-lock-only discipline spec §5 describes is enforced one level up,
// at the Cell's pointer swap (cell.go), not inside a single Index.
func (idx *Index) Search(ctx context.Context, query []float32, k int, ef int) ([]Result, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil, cqserrors.New(cqserrors.KindVectorIndex, "index is closed")
	}
	if len(query) != idx.config.Dimensions {
		return nil, cqserrors.New(cqserrors.KindVectorIndex, "query dimension mismatch").
			WithDetail("expected", strconv.Itoa(idx.config.Dimensions)).
			WithDetail("got", strconv.Itoa(len(query)))
	}
	if idx.graph.Len() == 0 {
		return nil, nil
	}
	if ef <= 0 {
		ef = idx.config.EfSearch
	}
	idx.graph.EfSearch = ef

	q := make([]float32, len(query))
	copy(q, query)
	mathutil.Normalize(q)

	nodes := idx.graph.Search(q, k)
	out := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		id, ok := idx.keyMap[node.Key]
		if !ok {
			continue // tombstoned or never-mapped key, drop per spec §5
		}
		distance := idx.graph.Distance(q, node.Value)
		out = append(out, Result{ID: id, Distance: distance, Score: 1 - distance})
	}
	return out, nil
}

// SearchAdaptive retries Search with a widening efSearch while the
// result count comes up short of k, up to MaxEfSearch (spec §4.3:
// "efSearch default 100, adaptive up to 500 when result count < requested
// after dedup"). Dedup happens above this package (internal/search,
// parent-chunk collapsing); this is the raw pre-dedup widening knob.
func (idx *Index) SearchAdaptive(ctx context.Context, query []float32, k int) ([]Result, error) {
	ef := idx.config.EfSearch
	var results []Result
	for {
		res, err := idx.Search(ctx, query, k, ef)
		if err != nil {
			return nil, err
		}
		results = res
		if len(results) >= k || ef >= idx.config.MaxEfSearch {
			return results, nil
		}
		ef *= 2
		if ef > idx.config.MaxEfSearch {
			ef = idx.config.MaxEfSearch
		}
	}
}

// Len returns the number of live (non-tombstoned) ids.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return 0
	}
	return len(idx.idMap)
}

// Contains reports whether id currently resolves to a live graph node.
func (idx *Index) Contains(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return false
	}
	_, ok := idx.idMap[id]
	return ok
}

// Stats reports occupancy including orphaned (tombstoned) graph nodes.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return Stats{}
	}
	valid := len(idx.idMap)
	total := idx.graph.Len()
	return Stats{ValidIDs: valid, GraphNodes: total, Orphans: total - valid}
}

// Close releases the graph. Close is idempotent.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	idx.closed = true
	idx.graph = nil
	return nil
}
