// Package index suggests known operation names for a misspelled one, using an
// HNSW graph over hashed character n-grams.
package index

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/coder/hnsw"
)

const (
	// dimensions of the hashed n-gram vectors.
	dimensions = 128
	// maxDistance is the cosine distance beyond which a name is not offered
	// as a suggestion.
	maxDistance = 0.6
)

// Names is an approximate nearest-neighbour index over method names. It is
// used to suggest the intended method when a call names one the service does
// not define.
type Names struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string] // keyed by normalized name
	names map[string]string   // normalized -> display name
}

// NewNames indexes the given names.
func NewNames(names ...string) *Names {
	idx := &Names{
		graph: hnsw.NewGraph[string](),
		names: make(map[string]string),
	}
	idx.Add(names...)
	return idx
}

// Add indexes names that are not already present.
func (idx *Names) Add(names ...string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var nodes []hnsw.Node[string]
	for _, name := range names {
		key := normalize(name)
		if _, exists := idx.names[key]; exists {
			continue
		}
		idx.names[key] = name
		nodes = append(nodes, hnsw.MakeNode(key, Vector(name)))
	}
	if len(nodes) > 0 {
		idx.graph.Add(nodes...)
	}
}

// Len returns the number of indexed names.
func (idx *Names) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.graph.Len()
}

// Suggest returns up to k indexed names closest to query, nearest first.
// Names too far from the query are left out, so the result may be empty.
func (idx *Names) Suggest(query string, k int) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph.Len() == 0 || k <= 0 {
		return nil
	}

	q := Vector(query)
	type scored struct {
		name string
		dist float32
	}
	var hits []scored
	// Over-fetch and rerank exactly; the graph search is approximate.
	for _, n := range idx.graph.Search(q, k*2) {
		d := distance(q, n.Value)
		if d > maxDistance {
			continue
		}
		hits = append(hits, scored{idx.names[n.Key], d})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].name < hits[j].name
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

// Vector embeds a name as an L2-normalized bag of hashed character bigrams
// and trigrams. "GetObject", "get_object" and "getobject" embed identically.
func Vector(name string) []float32 {
	vec := make([]float32, dimensions)
	s := "^" + normalize(name) + "$"
	for n := 2; n <= 3; n++ {
		for i := 0; i+n <= len(s); i++ {
			h := fnv.New32a()
			h.Write([]byte(s[i : i+n]))
			vec[h.Sum32()%dimensions]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// distance is the cosine distance between two normalized vectors.
func distance(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return 1 - dot
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "")
}
