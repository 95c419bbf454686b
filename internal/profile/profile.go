package profile

import (
	"fmt"
	"sort"

	"github.com/campusmatch/matchmaker/internal/survey"
)

// Gender is the respondent's declared gender, reduced to a closed set.
type Gender int

const (
	GenderUnspecified Gender = iota
	GenderMan
	GenderWoman
	GenderNonBinary
)

func (g Gender) String() string {
	switch g {
	case GenderMan:
		return "man"
	case GenderWoman:
		return "woman"
	case GenderNonBinary:
		return "non-binary"
	default:
		return "unspecified"
	}
}

// Interest is one entry of the "interested in" checkbox field.
type Interest int

const (
	InterestMen Interest = iota + 1
	InterestWomen
	InterestOther
)

// Weed is the substance-use answer. Only yes/no appear on the form.
type Weed int

const (
	WeedUnspecified Weed = iota
	WeedYes
	WeedNo
)

// Profile is the normalized, immutable representation of one respondent.
type Profile struct {
	ID    int
	Name  string
	Email string

	Gender    Gender
	Interests map[Interest]bool

	// Ordinal scales; 0 means the answer was missing or unrecognized.
	SocialBattery int
	Drinking      int

	Weed        Weed
	Ambition    string
	FridayNight string
	DreamDate   string
	LookingFor  string

	Traits        map[string]bool
	Hobbies       map[string]bool
	PartnerValues map[string]bool

	// SharedInterestsImportance is the 1-5 scale answer, default 3.
	SharedInterestsImportance float64

	TypeDescription string
	Dealbreakers    string
	EnrichmentURL   string

	raw survey.Record
}

// DescriptionText renders the respondent's self-description used as the
// comparison target for another profile's "type" text.
func (p *Profile) DescriptionText() string {
	traits := p.raw.Get(survey.FieldSelfTraits)
	hobbies := p.raw.Get(survey.FieldHobbies)
	if traits == "" && hobbies == "" {
		return ""
	}
	return fmt.Sprintf("Personality: %s. Hobbies: %s.", traits, hobbies)
}

// PromptPayload returns the profile attributes as a map suitable for
// rendering into an AI judgment prompt. Raw survey wording is preferred over
// the normalized enums so the model sees what the respondent actually wrote.
func (p *Profile) PromptPayload() map[string]any {
	return map[string]any{
		"name":                        p.Name,
		"gender":                      p.raw.Get(survey.FieldGender),
		"year":                        p.raw.Get(survey.FieldYear),
		"looking_for":                 p.LookingFor,
		"personality_traits":          p.raw.Get(survey.FieldSelfTraits),
		"social_battery":              p.raw.Get(survey.FieldSocialBattery),
		"friday_nights":               p.FridayNight,
		"hobbies":                     p.raw.Get(survey.FieldHobbies),
		"dream_date":                  p.DreamDate,
		"drinking":                    p.raw.Get(survey.FieldDrinking),
		"weed":                        p.raw.Get(survey.FieldWeed),
		"ambition":                    p.Ambition,
		"partner_values":              p.raw.Get(survey.FieldPartnerValues),
		"shared_interests_importance": p.SharedInterestsImportance,
		"type_description":            p.TypeDescription,
		"dealbreakers":                p.Dealbreakers,
	}
}

// SharedHobbies returns the hobby labels both profiles reported, sorted for
// deterministic output.
func (p *Profile) SharedHobbies(other *Profile) []string {
	var shared []string
	for hobby := range p.Hobbies {
		if other.Hobbies[hobby] {
			shared = append(shared, hobby)
		}
	}
	sort.Strings(shared)
	return shared
}

// Roster is the immutable set of profiles for one run.
type Roster struct {
	Items []*Profile
}

func (r *Roster) Len() int {
	return len(r.Items)
}

func (r *Roster) FindByID(id int) *Profile {
	for _, p := range r.Items {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Roster) IDs() []int {
	ids := make([]int, 0, len(r.Items))
	for _, p := range r.Items {
		ids = append(ids, p.ID)
	}
	return ids
}
