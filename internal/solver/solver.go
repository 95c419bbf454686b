// Package solver computes an optimal pairing from a scored edge set using
// maximum weight matching on a general graph.
package solver

import (
	"fmt"
	"sort"

	"github.com/campusmatch/matchmaker/internal/match"
	"github.com/campusmatch/matchmaker/internal/profile"

	"go.uber.org/zap"
)

// Pair is one matched couple in the final assignment, ordered so A < B.
type Pair struct {
	A, B  int
	Score float64
}

// Result is the complete outcome of one solve: the chosen pairs, everyone
// who remains unmatched, and the total weight of the assignment.
type Result struct {
	Pairs       []Pair
	Unmatched   []int
	TotalWeight float64
}

// Solver wraps the matching algorithm with roster bookkeeping.
type Solver struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{logger: logger}
}

// Solve computes the maximum weight matching over the roster. Edges with a
// non-positive score are excluded, so a profile with no positive edge stays
// unmatched rather than being paired at zero compatibility. The returned
// pairing maximizes total score, not the number of couples.
func (s *Solver) Solve(roster *profile.Roster, edges *match.EdgeSet) (*Result, error) {
	ids := roster.IDs()
	index := make(map[int]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	var wmEdges []weightedEdge
	for _, edge := range edges.Items {
		if edge.Score <= 0 {
			continue
		}
		i, ok := index[edge.A]
		if !ok {
			return nil, fmt.Errorf("edge references unknown profile %d", edge.A)
		}
		j, ok := index[edge.B]
		if !ok {
			return nil, fmt.Errorf("edge references unknown profile %d", edge.B)
		}
		wmEdges = append(wmEdges, weightedEdge{from: i, to: j, weight: edge.Score})
	}

	s.logger.Debug("solving assignment",
		zap.Int("profiles", len(ids)),
		zap.Int("edges", len(wmEdges)),
	)

	mate := maxWeightMatching(len(ids), wmEdges)

	result := &Result{}
	for i, j := range mate {
		if j == -1 {
			result.Unmatched = append(result.Unmatched, ids[i])
			continue
		}
		if i > j {
			continue // each couple is reported once
		}
		a, b := ids[i], ids[j]
		if a > b {
			a, b = b, a
		}
		score := 0.0
		if edge := edges.Find(a, b); edge != nil {
			score = edge.Score
		}
		result.Pairs = append(result.Pairs, Pair{A: a, B: b, Score: score})
		result.TotalWeight += score
	}

	sort.Slice(result.Pairs, func(i, j int) bool {
		if result.Pairs[i].Score != result.Pairs[j].Score {
			return result.Pairs[i].Score > result.Pairs[j].Score
		}
		return result.Pairs[i].A < result.Pairs[j].A
	})
	sort.Ints(result.Unmatched)

	s.logger.Info("assignment solved",
		zap.Int("pairs", len(result.Pairs)),
		zap.Int("unmatched", len(result.Unmatched)),
		zap.Float64("total_weight", result.TotalWeight),
	)

	return result, nil
}
