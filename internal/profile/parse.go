package profile

import (
	"strconv"
	"strings"

	"github.com/campusmatch/matchmaker/internal/survey"

	"go.uber.org/zap"
)

// Ordinal scales for the survey's fixed answer strings. Unknown answers map
// to 0 which drops the corresponding sub-score instead of failing the row.
var socialBatteryScale = map[string]int{
	"i'm out every night":                          4,
	"i like going out but also need my nights in":  3,
	"homebody but down for occasional plans":       2,
	"netflix is my best friend":                    1,
}

var drinkingScale = map[string]int{
	"go out/party regularly": 4,
	"social drinker":         3,
	"occasionally":           2,
	"nah, not for me":        1,
}

const defaultSharedImportance = 3

// Build converts raw survey records into a Roster. Records are never
// rejected; missing or malformed fields degrade to the unspecified fallback.
// IDs are assigned from record order and are unique within the run.
func Build(records []survey.Record, logger *zap.Logger) *Roster {
	if logger == nil {
		logger = zap.NewNop()
	}

	roster := &Roster{Items: make([]*Profile, 0, len(records))}
	for i, record := range records {
		p := fromRecord(i, record)
		if p.Name == "" && p.Email == "" {
			logger.Warn("skipping response with no name or email", zap.Int("row", i))
			continue
		}
		if p.Gender == GenderUnspecified {
			logger.Debug("response has unrecognized gender",
				zap.Int("id", p.ID),
				zap.String("gender", record.Get(survey.FieldGender)),
			)
		}
		roster.Items = append(roster.Items, p)
	}

	return roster
}

func fromRecord(id int, record survey.Record) *Profile {
	return &Profile{
		ID:    id,
		Name:  record.Get(survey.FieldName),
		Email: record.Get(survey.FieldEmail),

		Gender:    ParseGender(record.Get(survey.FieldGender)),
		Interests: parseInterests(record.Get(survey.FieldInterestedIn)),

		SocialBattery: socialBatteryScale[normalize(record.Get(survey.FieldSocialBattery))],
		Drinking:      drinkingScale[normalize(record.Get(survey.FieldDrinking))],

		Weed:        parseWeed(record.Get(survey.FieldWeed)),
		Ambition:    record.Get(survey.FieldAmbition),
		FridayNight: record.Get(survey.FieldFridayNight),
		DreamDate:   record.Get(survey.FieldDreamDate),
		LookingFor:  record.Get(survey.FieldLookingFor),

		Traits:        parseLabelSet(record.Get(survey.FieldSelfTraits)),
		Hobbies:       parseLabelSet(record.Get(survey.FieldHobbies)),
		PartnerValues: parseLabelSet(record.Get(survey.FieldPartnerValues)),

		SharedInterestsImportance: parseImportance(record.Get(survey.FieldSharedImportance)),

		TypeDescription: record.Get(survey.FieldTypeDescription),
		Dealbreakers:    normalize(record.Get(survey.FieldDealbreakers)),
		EnrichmentURL:   record.Get(survey.FieldProfileURL),

		raw: record,
	}
}

// ParseGender reduces a free-text gender answer to the closed enumeration.
func ParseGender(s string) Gender {
	s = normalize(s)
	switch {
	case s == "":
		return GenderUnspecified
	case strings.Contains(s, "woman"):
		return GenderWoman
	case strings.Contains(s, "man"):
		return GenderMan
	case strings.Contains(s, "non-binary") || strings.Contains(s, "nonbinary") || strings.Contains(s, "other"):
		return GenderNonBinary
	default:
		return GenderUnspecified
	}
}

// parseInterests splits the comma-separated checkbox answer into a set.
// An empty set means the respondent left the field blank; the filter decides
// what that implies.
func parseInterests(s string) map[Interest]bool {
	interests := make(map[Interest]bool)
	for _, part := range strings.Split(normalize(s), ",") {
		switch strings.TrimSpace(part) {
		case "men":
			interests[InterestMen] = true
		case "women":
			interests[InterestWomen] = true
		case "other", "non-binary":
			interests[InterestOther] = true
		case "everyone":
			interests[InterestMen] = true
			interests[InterestWomen] = true
			interests[InterestOther] = true
		}
	}
	return interests
}

// Matches returns whether this interest entry covers the given gender.
func (i Interest) Matches(g Gender) bool {
	switch i {
	case InterestMen:
		return g == GenderMan
	case InterestWomen:
		return g == GenderWoman
	case InterestOther:
		return g == GenderNonBinary
	default:
		return false
	}
}

func parseWeed(s string) Weed {
	switch normalize(s) {
	case "yes":
		return WeedYes
	case "no":
		return WeedNo
	default:
		return WeedUnspecified
	}
}

func parseLabelSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		label := normalize(part)
		if label == "" {
			continue
		}
		set[label] = true
	}
	return set
}

func parseImportance(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 1 || v > 5 {
		return defaultSharedImportance
	}
	return v
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
