package ai

import (
	"context"

	"github.com/campusmatch/matchmaker/internal/profile"
)

// Assessment is one pairwise compatibility judgment, shared by every scoring
// strategy. Score is always on the 0-100 scale.
type Assessment struct {
	Score           float64
	Reason          string
	Breakdown       map[string]float64
	SharedInterests []string
	KeyMatches      []string
	Concerns        []string

	// Degraded marks a judgment that fell back to zero because the
	// underlying service failed; the run continues but counts a warning.
	Degraded bool

	// Raw keeps the unmodified provider response for debugging/export.
	Raw string
}

// Scorer produces a compatibility assessment for an admissible pair.
// Implementations must be safe for concurrent use and must return a defined
// assessment for every call; unrecoverable per-pair failures are reported as
// degraded zero-score assessments, not errors. An error return is reserved
// for conditions that invalidate the whole run (context cancellation).
type Scorer interface {
	Name() string
	Score(ctx context.Context, a, b *profile.Profile) (*Assessment, error)
}
