// Package vectorindex holds one normalized vector per agent and answers
// top-k dot-product lookups. An index is immutable once built; the router
// replaces it wholesale on every initialize.
package vectorindex

import (
	"errors"
	"fmt"
	"sort"

	"github.com/viterin/vek/vek32"

	"github.com/agentrelay/relay/internal/catalog"
)

// ErrVectorLengthMismatch indicates a query vector of the wrong width.
var ErrVectorLengthMismatch = errors.New("vector length mismatch")

// Entry pairs an agent with its unit-length embedding vector.
type Entry struct {
	Agent  catalog.AgentDescriptor
	Vector []float32
}

// Match is one ranked lookup result carrying the raw dot-product score.
type Match struct {
	AgentName string  `json:"agent_name"`
	Score     float64 `json:"score"`
}

// Index is a read-only similarity index over a fixed set of entries.
type Index struct {
	entries []Entry
	byName  map[string]int
	dims    int
}

// Build constructs an index from entries, all dims wide. The input slice is
// copied; callers cannot mutate a built index.
func Build(entries []Entry, dims int) (*Index, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("invalid dims: %d", dims)
	}
	own := make([]Entry, len(entries))
	byName := make(map[string]int, len(entries))
	for i, e := range entries {
		if len(e.Vector) != dims {
			return nil, fmt.Errorf("entry %d (%s): %w: got %d, want %d", i, e.Agent.Name, ErrVectorLengthMismatch, len(e.Vector), dims)
		}
		v := make([]float32, dims)
		copy(v, e.Vector)
		own[i] = Entry{Agent: e.Agent, Vector: v}
		byName[e.Agent.Name] = i
	}
	return &Index{entries: own, byName: byName, dims: dims}, nil
}

// Len returns the number of indexed agents.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Agent returns the descriptor indexed under name.
func (ix *Index) Agent(name string) (catalog.AgentDescriptor, bool) {
	i, ok := ix.byName[name]
	if !ok {
		return catalog.AgentDescriptor{}, false
	}
	return ix.entries[i].Agent, true
}

// TopK returns up to k matches, descending by dot product against query.
// Scores are cosine similarities when both sides are unit length. Ties break
// toward the earlier catalog entry. An empty index yields an empty result.
func (ix *Index) TopK(query []float32, k int) ([]Match, error) {
	if len(ix.entries) == 0 || k <= 0 {
		return []Match{}, nil
	}
	if len(query) != ix.dims {
		return nil, fmt.Errorf("query: %w: got %d, want %d", ErrVectorLengthMismatch, len(query), ix.dims)
	}

	scores := make([]float64, len(ix.entries))
	for i, e := range ix.entries {
		scores[i] = float64(vek32.Dot(query, e.Vector))
	}

	order := make([]int, len(ix.entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	out := make([]Match, k)
	for i := 0; i < k; i++ {
		idx := order[i]
		out[i] = Match{AgentName: ix.entries[idx].Agent.Name, Score: scores[idx]}
	}
	return out, nil
}
