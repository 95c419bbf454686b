package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/campusmatch/matchmaker/internal/ai"
	"github.com/campusmatch/matchmaker/internal/enrich"
	applogger "github.com/campusmatch/matchmaker/internal/logger"
	"github.com/campusmatch/matchmaker/internal/profile"
	"github.com/campusmatch/matchmaker/internal/utils"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Scorer delegates the compatibility judgment of an admissible pair to the
// Gemini API. Failures degrade to a zero-score assessment so one broken call
// never aborts the batch.
type Scorer struct {
	generator   contentGenerator
	backgrounds map[int]*enrich.Background
	maxLogLen   int
	logger      *zap.Logger
}

// NewScorer builds the delegated scorer. backgrounds holds optional
// enrichment data keyed by profile ID and may be nil.
func NewScorer(generator contentGenerator, backgrounds map[int]*enrich.Background, maxLogLength int, logger *zap.Logger) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var model string
	if generator != nil {
		model = generator.Model()
	}
	logger = applogger.WithCommonFields(logger, "gemini", model)

	return &Scorer{
		generator:   generator,
		backgrounds: backgrounds,
		maxLogLen:   maxLogLength,
		logger:      logger,
	}
}

func (s *Scorer) Name() string { return "gemini" }

func (s *Scorer) Score(ctx context.Context, a, b *profile.Profile) (*ai.Assessment, error) {
	prompt, err := s.buildPrompt(a, b)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	s.logger.Debug("gemini judgment request",
		zap.Int("profile_a", a.ID),
		zap.Int("profile_b", b.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("gemini judgment failed, degrading pair to zero score",
			zap.Int("profile_a", a.ID),
			zap.Int("profile_b", b.ID),
			zap.Error(err),
		)
		return degradedAssessment(fmt.Sprintf("AI evaluation failed: %v", err), ""), nil
	}

	s.logger.Debug("gemini judgment response",
		zap.Int("profile_a", a.ID),
		zap.Int("profile_b", b.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		s.logger.Warn("gemini response was unparsable, degrading pair to zero score",
			zap.Int("profile_a", a.ID),
			zap.Int("profile_b", b.ID),
			zap.Error(err),
		)
		return degradedAssessment(fmt.Sprintf("AI response unparsable: %v", err), raw), nil
	}

	assessment.Raw = raw
	return assessment, nil
}

func (s *Scorer) buildPrompt(a, b *profile.Profile) (string, error) {
	payloadA := s.payloadFor(a)
	payloadB := s.payloadFor(b)

	jsonA, err := json.MarshalIndent(payloadA, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile %d: %w", a.ID, err)
	}
	jsonB, err := json.MarshalIndent(payloadB, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile %d: %w", b.ID, err)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{PROFILE_A_JSON}}", string(jsonA))
	prompt = strings.ReplaceAll(prompt, "{{PROFILE_B_JSON}}", string(jsonB))
	return prompt, nil
}

func (s *Scorer) payloadFor(p *profile.Profile) map[string]any {
	payload := p.PromptPayload()
	if background := s.backgrounds[p.ID]; background != nil {
		payload["background"] = map[string]any{
			"role":         background.Role,
			"organization": background.Organization,
			"education":    background.Education,
			"skills":       background.Skills,
		}
	}
	return payload
}

func degradedAssessment(reason, raw string) *ai.Assessment {
	return &ai.Assessment{
		Score:    0,
		Reason:   reason,
		Concerns: []string{"AI evaluation unavailable"},
		Degraded: true,
		Raw:      raw,
	}
}

func parseResponse(raw string) (*ai.Assessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["compatibility_score"])
	if math.IsNaN(score) {
		return nil, fmt.Errorf("response is missing a numeric compatibility_score")
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return &ai.Assessment{
		Score:           score,
		Reason:          coerceString(data["reasoning"]),
		SharedInterests: coerceStrings(data["shared_interests"]),
		KeyMatches:      coerceStrings(data["key_matches"]),
		Concerns:        coerceStrings(data["potential_concerns"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		s := coerceString(item)
		if s == "" {
			continue
		}
		result = append(result, s)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
