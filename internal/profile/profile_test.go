package profile

import (
	"testing"

	"github.com/campusmatch/matchmaker/internal/survey"

	"go.uber.org/zap"
)

func TestParseGender(t *testing.T) {
	cases := []struct {
		input string
		want  Gender
	}{
		{"Man", GenderMan},
		{"Woman", GenderWoman},
		{" woman ", GenderWoman},
		{"Non-binary", GenderNonBinary},
		{"Other", GenderNonBinary},
		{"", GenderUnspecified},
		{"prefer not to say", GenderUnspecified},
	}

	for _, tc := range cases {
		if got := ParseGender(tc.input); got != tc.want {
			t.Fatalf("ParseGender(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestInterestMatches(t *testing.T) {
	if !InterestMen.Matches(GenderMan) {
		t.Fatal("expected men interest to match man")
	}
	if InterestMen.Matches(GenderWoman) {
		t.Fatal("did not expect men interest to match woman")
	}
	if !InterestOther.Matches(GenderNonBinary) {
		t.Fatal("expected other interest to match non-binary")
	}
	if InterestWomen.Matches(GenderUnspecified) {
		t.Fatal("did not expect any interest to match unspecified gender")
	}
}

func TestParseInterests(t *testing.T) {
	interests := parseInterests("Men, Other")
	if !interests[InterestMen] || !interests[InterestOther] || interests[InterestWomen] {
		t.Fatalf("unexpected interests: %v", interests)
	}

	// "Everyone" covers all genders, not just non-binary partners.
	everyone := parseInterests("Everyone")
	if !everyone[InterestMen] || !everyone[InterestWomen] || !everyone[InterestOther] {
		t.Fatalf("expected everyone to cover all interests, got %v", everyone)
	}

	if got := parseInterests(""); len(got) != 0 {
		t.Fatalf("expected empty set for blank answer, got %v", got)
	}
}

func TestBuildFromRecords(t *testing.T) {
	records := []survey.Record{
		{
			survey.FieldName:             "Alice Smith",
			survey.FieldEmail:            "alice@usc.edu",
			survey.FieldGender:           "Woman",
			survey.FieldInterestedIn:     "Men, Other",
			survey.FieldSocialBattery:    "I like going out but also need my nights in",
			survey.FieldDrinking:         "Social drinker",
			survey.FieldWeed:             "No",
			survey.FieldHobbies:          "Hiking, Reading, Cooking",
			survey.FieldSelfTraits:       "Funny, Smart, Adventurous",
			survey.FieldPartnerValues:    "Sense of humor, Adventurous, Kind/caring",
			survey.FieldSharedImportance: "4",
			survey.FieldTypeDescription:  "Someone outdoorsy and witty",
		},
		{
			// Mostly empty row still builds a profile with fallbacks.
			survey.FieldName: "Bob Jones",
		},
		{
			// No identity at all gets dropped.
			survey.FieldGender: "Man",
		},
	}

	roster := Build(records, zap.NewNop())
	if roster.Len() != 2 {
		t.Fatalf("expected 2 profiles, got %d", roster.Len())
	}

	alice := roster.Items[0]
	if alice.ID != 0 || alice.Name != "Alice Smith" {
		t.Fatalf("unexpected first profile: %+v", alice)
	}
	if alice.Gender != GenderWoman {
		t.Fatalf("unexpected gender: %v", alice.Gender)
	}
	if !alice.Interests[InterestMen] || !alice.Interests[InterestOther] {
		t.Fatalf("unexpected interests: %v", alice.Interests)
	}
	if alice.SocialBattery != 3 {
		t.Fatalf("unexpected social battery: %d", alice.SocialBattery)
	}
	if alice.Drinking != 3 {
		t.Fatalf("unexpected drinking level: %d", alice.Drinking)
	}
	if alice.Weed != WeedNo {
		t.Fatalf("unexpected weed answer: %v", alice.Weed)
	}
	if !alice.Hobbies["hiking"] || !alice.Hobbies["cooking"] {
		t.Fatalf("unexpected hobbies: %v", alice.Hobbies)
	}
	if alice.SharedInterestsImportance != 4 {
		t.Fatalf("unexpected importance: %v", alice.SharedInterestsImportance)
	}

	bob := roster.Items[1]
	if bob.Gender != GenderUnspecified {
		t.Fatalf("expected unspecified gender fallback, got %v", bob.Gender)
	}
	if len(bob.Interests) != 0 {
		t.Fatalf("expected empty interest set, got %v", bob.Interests)
	}
	if bob.SocialBattery != 0 {
		t.Fatalf("expected zero social battery for missing answer, got %d", bob.SocialBattery)
	}
	if bob.SharedInterestsImportance != defaultSharedImportance {
		t.Fatalf("expected default importance, got %v", bob.SharedInterestsImportance)
	}
}

func TestSharedHobbies(t *testing.T) {
	a := &Profile{Hobbies: parseLabelSet("Hiking, Reading, Cooking")}
	b := &Profile{Hobbies: parseLabelSet("Cooking, Hiking, Gym")}

	shared := a.SharedHobbies(b)
	if len(shared) != 2 || shared[0] != "cooking" || shared[1] != "hiking" {
		t.Fatalf("unexpected shared hobbies: %v", shared)
	}
}

func TestDescriptionText(t *testing.T) {
	record := survey.Record{
		survey.FieldName:       "Alice",
		survey.FieldSelfTraits: "Funny, Smart",
		survey.FieldHobbies:    "Hiking",
	}
	p := fromRecord(0, record)

	want := "Personality: Funny, Smart. Hobbies: Hiking."
	if got := p.DescriptionText(); got != want {
		t.Fatalf("unexpected description: %q", got)
	}

	empty := fromRecord(1, survey.Record{survey.FieldName: "Bob"})
	if got := empty.DescriptionText(); got != "" {
		t.Fatalf("expected empty description, got %q", got)
	}
}
