package solver

import (
	"math/rand"
	"testing"

	"github.com/campusmatch/matchmaker/internal/ai"
	"github.com/campusmatch/matchmaker/internal/match"
	"github.com/campusmatch/matchmaker/internal/profile"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func rosterWithIDs(ids ...int) *profile.Roster {
	roster := &profile.Roster{}
	for _, id := range ids {
		roster.Items = append(roster.Items, &profile.Profile{ID: id})
	}
	return roster
}

func edgeSet(edges ...*match.Edge) *match.EdgeSet {
	set := &match.EdgeSet{Items: edges}
	set.Sort()
	return set
}

func TestSolvePrefersTotalWeightOverGreedy(t *testing.T) {
	// Greedy would take A-B (90) and leave C and D unmatched for a total
	// of 90; the optimum pairs A-C and B-D for 130.
	roster := rosterWithIDs(1, 2, 3, 4)
	set := edgeSet(
		&match.Edge{A: 1, B: 2, Score: 90},
		&match.Edge{A: 1, B: 3, Score: 70},
		&match.Edge{A: 2, B: 4, Score: 60},
	)

	result, err := New(zap.NewNop()).Solve(roster, set)
	require.NoError(t, err)

	require.Equal(t, 130.0, result.TotalWeight)
	require.Equal(t, []Pair{{A: 1, B: 3, Score: 70}, {A: 2, B: 4, Score: 60}}, result.Pairs)
	require.Empty(t, result.Unmatched)
}

func TestSolveTriangleLeavesOneUnmatched(t *testing.T) {
	roster := rosterWithIDs(1, 2, 3)
	set := edgeSet(
		&match.Edge{A: 1, B: 2, Score: 90},
		&match.Edge{A: 1, B: 3, Score: 70},
		&match.Edge{A: 2, B: 3, Score: 60},
	)

	result, err := New(zap.NewNop()).Solve(roster, set)
	require.NoError(t, err)

	require.Equal(t, []Pair{{A: 1, B: 2, Score: 90}}, result.Pairs)
	require.Equal(t, []int{3}, result.Unmatched)
	require.Equal(t, 90.0, result.TotalWeight)
}

func TestSolveIgnoresNonPositiveEdges(t *testing.T) {
	roster := rosterWithIDs(1, 2)
	set := edgeSet(&match.Edge{A: 1, B: 2, Score: 0, Assessment: &ai.Assessment{Degraded: true}})

	result, err := New(zap.NewNop()).Solve(roster, set)
	require.NoError(t, err)

	require.Empty(t, result.Pairs)
	require.Equal(t, []int{1, 2}, result.Unmatched)
}

func TestSolveSparseIDs(t *testing.T) {
	// Profile IDs need not be contiguous.
	roster := rosterWithIDs(10, 25, 300)
	set := edgeSet(&match.Edge{A: 10, B: 300, Score: 55})

	result, err := New(zap.NewNop()).Solve(roster, set)
	require.NoError(t, err)

	require.Equal(t, []Pair{{A: 10, B: 300, Score: 55}}, result.Pairs)
	require.Equal(t, []int{25}, result.Unmatched)
}

func TestSolveRejectsDanglingEdge(t *testing.T) {
	roster := rosterWithIDs(1, 2)
	set := edgeSet(&match.Edge{A: 1, B: 99, Score: 50})

	_, err := New(zap.NewNop()).Solve(roster, set)
	require.ErrorContains(t, err, "unknown profile")
}

func TestSolveEmptyInputs(t *testing.T) {
	result, err := New(zap.NewNop()).Solve(rosterWithIDs(), &match.EdgeSet{})
	require.NoError(t, err)
	require.Empty(t, result.Pairs)
	require.Empty(t, result.Unmatched)
}

// bruteForce tries every valid matching by picking, for the lowest
// unpaired vertex, each possible partner (or none) recursively.
func bruteForce(n int, edges []weightedEdge) float64 {
	weight := make(map[[2]int]float64, len(edges))
	for _, e := range edges {
		a, b := e.from, e.to
		if a > b {
			a, b = b, a
		}
		weight[[2]int{a, b}] = e.weight
	}

	used := make([]bool, n)
	var best func() float64
	best = func() float64 {
		first := -1
		for v := 0; v < n; v++ {
			if !used[v] {
				first = v
				break
			}
		}
		if first == -1 {
			return 0
		}

		used[first] = true
		// Leaving first unmatched is always an option.
		result := best()
		for w := first + 1; w < n; w++ {
			if used[w] {
				continue
			}
			wt, ok := weight[[2]int{first, w}]
			if !ok {
				continue
			}
			used[w] = true
			if total := wt + best(); total > result {
				result = total
			}
			used[w] = false
		}
		used[first] = false
		return result
	}
	return best()
}

func matchingWeight(t *testing.T, n int, edges []weightedEdge, mate []int) float64 {
	t.Helper()

	weight := make(map[[2]int]float64, len(edges))
	for _, e := range edges {
		a, b := e.from, e.to
		if a > b {
			a, b = b, a
		}
		weight[[2]int{a, b}] = e.weight
	}

	var total float64
	for v, w := range mate {
		if w == -1 {
			continue
		}
		require.Equal(t, v, mate[w], "matching must be symmetric")
		if v < w {
			wt, ok := weight[[2]int{v, w}]
			require.True(t, ok, "matched pair %d-%d has no edge", v, w)
			total += wt
		}
	}
	return total
}

func TestMaxWeightMatchingAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(20260831))

	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(8)
		var edges []weightedEdge
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if rng.Float64() < 0.6 {
					edges = append(edges, weightedEdge{
						from:   i,
						to:     j,
						weight: 1 + float64(rng.Intn(100)),
					})
				}
			}
		}

		mate := maxWeightMatching(n, edges)
		require.Len(t, mate, n)

		got := matchingWeight(t, n, edges, mate)
		want := bruteForce(n, edges)
		require.InDelta(t, want, got, 1e-6,
			"trial %d: n=%d edges=%v mate=%v", trial, n, edges, mate)
	}
}

func TestMaxWeightMatchingBlossomCase(t *testing.T) {
	// A 5-cycle with one chord forces blossom contraction.
	edges := []weightedEdge{
		{0, 1, 8}, {1, 2, 9}, {2, 3, 10}, {3, 4, 7}, {4, 0, 6}, {1, 3, 5},
	}

	mate := maxWeightMatching(5, edges)
	got := matchingWeight(t, 5, edges, mate)
	require.Equal(t, bruteForce(5, edges), got)
}

func TestMaxWeightMatchingNoEdges(t *testing.T) {
	mate := maxWeightMatching(3, nil)
	require.Equal(t, []int{-1, -1, -1}, mate)
}
