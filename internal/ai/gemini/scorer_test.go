package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/campusmatch/matchmaker/internal/enrich"
	"github.com/campusmatch/matchmaker/internal/profile"

	"go.uber.org/zap"
)

// stubGenerator returns one canned body or error for every prompt.
type stubGenerator struct {
	body    string
	err     error
	prompts []string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.body, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

func pairProfiles() (*profile.Profile, *profile.Profile) {
	a := &profile.Profile{ID: 1, Name: "Alex"}
	b := &profile.Profile{ID: 2, Name: "Blair"}
	return a, b
}

func TestScoreParsesFencedJSON(t *testing.T) {
	gen := &stubGenerator{body: "```json\n" + `{
  "compatibility_score": 78,
  "reasoning": "Strong hobby overlap",
  "shared_interests": ["hiking", "cooking"],
  "key_matches": ["both outdoorsy"],
  "potential_concerns": ["distance"]
}` + "\n```"}

	scorer := NewScorer(gen, nil, 0, zap.NewNop())
	a, b := pairProfiles()

	got, err := scorer.Score(context.Background(), a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 78 {
		t.Errorf("score = %v, want 78", got.Score)
	}
	if got.Reason != "Strong hobby overlap" {
		t.Errorf("reason = %q", got.Reason)
	}
	if len(got.SharedInterests) != 2 || got.SharedInterests[0] != "hiking" {
		t.Errorf("shared interests = %v", got.SharedInterests)
	}
	if got.Degraded {
		t.Error("expected a non-degraded assessment")
	}
	if got.Raw == "" {
		t.Error("expected raw response to be preserved")
	}
}

func TestScoreCoercesStringScore(t *testing.T) {
	gen := &stubGenerator{body: `{"compatibility_score": "83.5", "reasoning": "ok"}`}

	scorer := NewScorer(gen, nil, 0, zap.NewNop())
	a, b := pairProfiles()

	got, err := scorer.Score(context.Background(), a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 83.5 {
		t.Errorf("score = %v, want 83.5", got.Score)
	}
}

func TestScoreClampsOutOfRangeScore(t *testing.T) {
	gen := &stubGenerator{body: `{"compatibility_score": 140}`}

	scorer := NewScorer(gen, nil, 0, zap.NewNop())
	a, b := pairProfiles()

	got, err := scorer.Score(context.Background(), a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 100 {
		t.Errorf("score = %v, want 100", got.Score)
	}
}

func TestScoreDegradesOnGeneratorError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}

	scorer := NewScorer(gen, nil, 0, zap.NewNop())
	a, b := pairProfiles()

	got, err := scorer.Score(context.Background(), a, b)
	if err != nil {
		t.Fatalf("generator failure must degrade, not fail: %v", err)
	}
	if !got.Degraded {
		t.Error("expected a degraded assessment")
	}
	if got.Score != 0 {
		t.Errorf("score = %v, want 0", got.Score)
	}
}

func TestScoreDegradesOnUnparsableResponse(t *testing.T) {
	gen := &stubGenerator{body: "I think they would get along great!"}

	scorer := NewScorer(gen, nil, 0, zap.NewNop())
	a, b := pairProfiles()

	got, err := scorer.Score(context.Background(), a, b)
	if err != nil {
		t.Fatalf("unparsable response must degrade, not fail: %v", err)
	}
	if !got.Degraded {
		t.Error("expected a degraded assessment")
	}
	if got.Raw == "" {
		t.Error("expected raw response to be preserved for inspection")
	}
}

func TestScoreDegradesOnMissingScore(t *testing.T) {
	gen := &stubGenerator{body: `{"reasoning": "no score here"}`}

	scorer := NewScorer(gen, nil, 0, zap.NewNop())
	a, b := pairProfiles()

	got, err := scorer.Score(context.Background(), a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Degraded {
		t.Error("expected a degraded assessment")
	}
}

func TestScorePropagatesContextCancellation(t *testing.T) {
	gen := &stubGenerator{err: context.Canceled}

	scorer := NewScorer(gen, nil, 0, zap.NewNop())
	a, b := pairProfiles()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := scorer.Score(ctx, a, b); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScoreInjectsBackground(t *testing.T) {
	gen := &stubGenerator{body: `{"compatibility_score": 50}`}
	backgrounds := map[int]*enrich.Background{
		1: {Role: "Research assistant", Organization: "Biology department"},
	}

	scorer := NewScorer(gen, backgrounds, 0, zap.NewNop())
	a, b := pairProfiles()

	if _, err := scorer.Score(context.Background(), a, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "Research assistant") {
		t.Error("expected background to appear in the prompt")
	}
	if !strings.Contains(gen.prompts[0], "Alex") || !strings.Contains(gen.prompts[0], "Blair") {
		t.Error("expected both profiles in the prompt")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.in); got != tc.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
