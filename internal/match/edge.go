package match

import (
	"sort"

	"github.com/campusmatch/matchmaker/internal/ai"
)

// Edge is one scored admissible pair. A < B always holds so the pair is
// ordering-independent. Edges are immutable once created.
type Edge struct {
	A, B       int
	Score      float64
	Assessment *ai.Assessment
}

// EdgeSet is the complete scored edge set of one run.
type EdgeSet struct {
	Items []*Edge

	// Warnings counts edges that degraded to a zero score because an
	// external judgment failed.
	Warnings int
}

func (e *EdgeSet) Len() int {
	return len(e.Items)
}

// Sort orders edges by (A, B) so downstream tie-breaking is deterministic
// regardless of scoring completion order.
func (e *EdgeSet) Sort() {
	sort.Slice(e.Items, func(i, j int) bool {
		if e.Items[i].A != e.Items[j].A {
			return e.Items[i].A < e.Items[j].A
		}
		return e.Items[i].B < e.Items[j].B
	})
}

// TopN returns the n highest-scoring edges without mutating the set.
// Ties keep the (A, B) ordering established by Sort.
func (e *EdgeSet) TopN(n int) []*Edge {
	ranked := make([]*Edge, len(e.Items))
	copy(ranked, e.Items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Find returns the edge for the unordered pair (a, b), or nil.
func (e *EdgeSet) Find(a, b int) *Edge {
	if a > b {
		a, b = b, a
	}
	for _, edge := range e.Items {
		if edge.A == a && edge.B == b {
			return edge
		}
	}
	return nil
}
