package embedding

import (
	"context"
	"errors"
	"math"
	"strings"
)

// ErrEmptyText is returned when an embedding is requested for blank input.
// Callers that compare texts should use Similarity, which treats blank input
// as zero similarity instead of an error.
var ErrEmptyText = errors.New("text is empty")

// Embedder turns a text into a fixed-length vector. Implementations must be
// deterministic for a fixed input text and safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Provider() string
}

// Similarity returns the cosine similarity of the two texts clamped to
// [0, 1]. Blank text on either side yields 0 without touching the embedder.
func Similarity(ctx context.Context, e Embedder, a, b string) (float64, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0, nil
	}

	va, err := e.Embed(ctx, a)
	if err != nil {
		return 0, err
	}

	vb, err := e.Embed(ctx, b)
	if err != nil {
		return 0, err
	}

	sim := Cosine(va, vb)
	if sim < 0 {
		return 0, nil
	}
	if sim > 1 {
		return 1, nil
	}
	return sim, nil
}

// Cosine computes the cosine similarity between two vectors. Mismatched
// lengths or zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
