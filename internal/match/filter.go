package match

import (
	"strings"

	"github.com/campusmatch/matchmaker/internal/profile"
)

// FilterConfig controls the admissibility rules.
type FilterConfig struct {
	// AssumeInterestedWhenUnspecified decides how a blank "interested in"
	// answer is treated: true assumes compatibility with every gender,
	// false excludes the respondent from all pairs. This materially changes
	// outcomes, so it is configuration rather than a constant.
	AssumeInterestedWhenUnspecified bool
}

func DefaultFilterConfig() FilterConfig {
	return FilterConfig{AssumeInterestedWhenUnspecified: true}
}

// Filter decides whether a pair of profiles may receive a compatibility
// edge at all. It is a pure, symmetric predicate with no side effects.
type Filter struct {
	cfg FilterConfig
}

func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Admissible reports whether the unordered pair (a, b) may be scored.
func (f *Filter) Admissible(a, b *profile.Profile) bool {
	if a == nil || b == nil || a.ID == b.ID {
		return false
	}

	// Both directions of the orientation gate must pass.
	if !f.interestedIn(a, b) || !f.interestedIn(b, a) {
		return false
	}

	return dealbreakersPass(a, b) && dealbreakersPass(b, a)
}

func (f *Filter) interestedIn(who, other *profile.Profile) bool {
	if len(who.Interests) == 0 {
		return f.cfg.AssumeInterestedWhenUnspecified
	}

	for interest := range who.Interests {
		if interest.Matches(other.Gender) {
			return true
		}
	}
	return false
}

// dealbreakersPass checks whether who's declared deal-breakers eliminate
// other. Only the substance-use deal-breaker maps to a survey field;
// declared deal-breakers with no corresponding data are accepted as no-ops.
func dealbreakersPass(who, other *profile.Profile) bool {
	if strings.Contains(who.Dealbreakers, "smoker") && other.Weed == profile.WeedYes {
		return false
	}
	return true
}
