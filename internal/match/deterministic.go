package match

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/campusmatch/matchmaker/internal/ai"
	"github.com/campusmatch/matchmaker/internal/embedding"
	"github.com/campusmatch/matchmaker/internal/profile"

	"go.uber.org/zap"
)

// Breakdown keys for the deterministic sub-scores.
const (
	FactorSocialBattery  = "social_battery"
	FactorFridayNight    = "friday_night"
	FactorSharedHobbies  = "shared_hobbies"
	FactorDreamDate      = "dream_date"
	FactorDrinking       = "drinking"
	FactorWeed           = "weed"
	FactorAmbition       = "ambition"
	FactorPartnerValues  = "partner_values"
	FactorTraitMatch     = "trait_match"
	FactorTypeSimilarity = "type_similarity"
)

// factorOrder fixes the iteration order over the breakdown. Float addition
// is not associative and map order is randomized, so summing in map order
// would make the total vary in the last ulp between runs.
var factorOrder = []string{
	FactorSocialBattery,
	FactorFridayNight,
	FactorSharedHobbies,
	FactorDreamDate,
	FactorDrinking,
	FactorWeed,
	FactorAmbition,
	FactorPartnerValues,
	FactorTraitMatch,
	FactorTypeSimilarity,
}

// Weights holds the point allotment per factor. Every sub-score is capped at
// its allotment, so the total never exceeds the sum of allotments (100 with
// the defaults).
type Weights struct {
	SocialBattery  float64
	FridayNight    float64
	SharedHobbies  float64
	DreamDate      float64
	Drinking       float64
	Weed           float64
	Ambition       float64
	PartnerValues  float64
	TraitMatch     float64
	TypeSimilarity float64

	// TraitValues maps a self-reported trait label to the partner-value
	// label it satisfies (e.g. "funny" satisfies "sense of humor").
	TraitValues map[string]string
}

// DefaultWeights returns the standard 100-point allocation.
func DefaultWeights() Weights {
	return Weights{
		SocialBattery:  15,
		FridayNight:    10,
		SharedHobbies:  20,
		DreamDate:      10,
		Drinking:       10,
		Weed:           5,
		Ambition:       10,
		PartnerValues:  5,
		TraitMatch:     15,
		TypeSimilarity: 10,
		TraitValues:    DefaultTraitValues(),
	}
}

// DefaultTraitValues is the standard trait-to-partner-value lookup table.
func DefaultTraitValues() map[string]string {
	return map[string]string{
		"funny":             "sense of humor",
		"smart":             "smart/intellectual",
		"hardworking":       "ambition/has goals",
		"ambitious/driven":  "ambition/has goals",
		"adventurous":       "adventurous",
		"kind/caring":       "kind/caring",
		"life of the party": "fun/spontaneous",
		"spontaneous":       "fun/spontaneous",
		"reliable/loyal":    "good communicator",
	}
}

// DeterministicScorer computes a multi-factor compatibility score with no
// external judgment calls. The embedding lookup is its only collaborator
// and must itself be deterministic for fixed input text.
type DeterministicScorer struct {
	weights  Weights
	embedder embedding.Embedder
	logger   *zap.Logger
}

func NewDeterministicScorer(weights Weights, embedder embedding.Embedder, logger *zap.Logger) *DeterministicScorer {
	if weights.TraitValues == nil {
		weights.TraitValues = DefaultTraitValues()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeterministicScorer{
		weights:  weights,
		embedder: embedder,
		logger:   logger,
	}
}

func (s *DeterministicScorer) Name() string { return "deterministic" }

// Score computes the pair's compatibility. Every directional comparison is
// evaluated both ways and averaged, so argument order never changes the
// result.
func (s *DeterministicScorer) Score(ctx context.Context, a, b *profile.Profile) (*ai.Assessment, error) {
	w := s.weights
	breakdown := make(map[string]float64, 10)

	breakdown[FactorSocialBattery] = ordinalCloseness(a.SocialBattery, b.SocialBattery, w.SocialBattery, 5)
	breakdown[FactorFridayNight] = exactMatch(a.FridayNight, b.FridayNight, w.FridayNight)
	breakdown[FactorSharedHobbies] = s.hobbyOverlap(a, b)
	breakdown[FactorDreamDate] = exactMatch(a.DreamDate, b.DreamDate, w.DreamDate)
	breakdown[FactorDrinking] = ordinalCloseness(a.Drinking, b.Drinking, w.Drinking, 3)
	breakdown[FactorWeed] = weedAlignment(a.Weed, b.Weed, w.Weed)
	breakdown[FactorAmbition] = ambitionAlignment(a.Ambition, b.Ambition, w.Ambition)
	breakdown[FactorPartnerValues] = overlapCredit(a.PartnerValues, b.PartnerValues, w.PartnerValues)
	breakdown[FactorTraitMatch] = s.traitMatch(a, b)

	similarity, err := s.typeSimilarity(ctx, a, b)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The similarity component alone is dropped; the pair still gets
		// the other nine factors.
		s.logger.Warn("type similarity unavailable for pair",
			zap.Int("profile_a", a.ID),
			zap.Int("profile_b", b.ID),
			zap.Error(err),
		)
		similarity = 0
	}
	breakdown[FactorTypeSimilarity] = similarity

	var total float64
	for _, factor := range factorOrder {
		total += breakdown[factor]
	}
	total = math.Min(100, total)

	shared := a.SharedHobbies(b)

	return &ai.Assessment{
		Score:           total,
		Reason:          summarize(breakdown, shared),
		Breakdown:       breakdown,
		SharedInterests: shared,
	}, nil
}

// ordinalCloseness grants full points for identical ordinal levels and
// subtracts penalty per level of distance, floored at zero. Unknown levels
// (0) earn nothing.
func ordinalCloseness(a, b int, max, penalty float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	diff := math.Abs(float64(a - b))
	return math.Max(0, max-diff*penalty)
}

func exactMatch(a, b string, points float64) float64 {
	if a == "" || b == "" {
		return 0
	}
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return points
	}
	return 0
}

func weedAlignment(a, b profile.Weed, points float64) float64 {
	if a == profile.WeedUnspecified || b == profile.WeedUnspecified {
		return 0
	}
	if a == b {
		return points
	}
	return 0
}

// ambitionAlignment gives full credit for an exact match and half credit
// when either side reports a balanced ambition level, which pairs broadly.
func ambitionAlignment(a, b string, points float64) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" && b == "" {
		return 0
	}
	if a != "" && strings.EqualFold(a, b) {
		return points
	}
	if strings.Contains(strings.ToLower(a), "balanced") || strings.Contains(strings.ToLower(b), "balanced") {
		return points / 2
	}
	return 0
}

// overlapCredit grants proportional credit for set overlap against a capped
// denominator of three, so long lists earn no extra credit.
func overlapCredit(a, b map[string]bool, max float64) float64 {
	var shared float64
	for label := range a {
		if b[label] {
			shared++
		}
	}
	credit := shared / 3 * max
	return math.Min(max, credit)
}

// hobbyOverlap is overlap credit scaled by how much both respondents say
// shared interests matter to them (1-5 scale, averaged).
func (s *DeterministicScorer) hobbyOverlap(a, b *profile.Profile) float64 {
	base := overlapCredit(a.Hobbies, b.Hobbies, s.weights.SharedHobbies)
	importance := (a.SharedInterestsImportance + b.SharedInterestsImportance) / 2
	return math.Min(s.weights.SharedHobbies, base*importance/5)
}

// traitMatch counts, per direction, how many of one side's wanted partner
// values the other side actually reports as a trait, then averages the two
// directions against a cap of three matches.
func (s *DeterministicScorer) traitMatch(a, b *profile.Profile) float64 {
	countAB := s.matchedWants(a, b)
	countBA := s.matchedWants(b, a)

	avg := (countAB + countBA) / 2
	credit := avg / 3 * s.weights.TraitMatch
	return math.Min(s.weights.TraitMatch, credit)
}

func (s *DeterministicScorer) matchedWants(wants, offers *profile.Profile) float64 {
	var count float64
	for trait, value := range s.weights.TraitValues {
		if wants.PartnerValues[value] && offers.Traits[trait] {
			count++
		}
	}
	return count
}

// typeSimilarity compares each side's free-text "type" description against
// the other's self-description, averaged over both directions.
func (s *DeterministicScorer) typeSimilarity(ctx context.Context, a, b *profile.Profile) (float64, error) {
	if s.embedder == nil {
		return 0, nil
	}

	aToB, err := embedding.Similarity(ctx, s.embedder, a.TypeDescription, b.DescriptionText())
	if err != nil {
		return 0, err
	}

	bToA, err := embedding.Similarity(ctx, s.embedder, b.TypeDescription, a.DescriptionText())
	if err != nil {
		return 0, err
	}

	avg := (aToB + bToA) / 2
	return math.Min(s.weights.TypeSimilarity, avg*s.weights.TypeSimilarity), nil
}

func summarize(breakdown map[string]float64, shared []string) string {
	var strongest string
	var best float64
	for _, factor := range factorOrder {
		if points := breakdown[factor]; points > best {
			best = points
			strongest = factor
		}
	}

	if strongest == "" {
		return "No overlapping factors"
	}

	reason := fmt.Sprintf("Strongest factor: %s (%.1f points)", strongest, best)
	if len(shared) > 0 {
		reason += ", shared hobbies: " + strings.Join(shared, ", ")
	}
	return reason
}
