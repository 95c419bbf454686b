package survey

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Short keys used throughout the matcher. Raw form exports carry the full
// question text as column headings; columnAliases maps them back.
const (
	FieldTimestamp            = "timestamp"
	FieldName                 = "name"
	FieldEmail                = "email"
	FieldGender               = "gender"
	FieldOrientation          = "orientation"
	FieldInterestedIn         = "interested_in"
	FieldYear                 = "year"
	FieldLookingFor           = "looking_for"
	FieldSocialBattery        = "social_battery"
	FieldFridayNight          = "friday_night"
	FieldSocialMedia          = "social_media"
	FieldSelfTraits           = "self_traits"
	FieldHobbies              = "hobbies"
	FieldDreamDate            = "dream_date"
	FieldDrinking             = "drinking"
	FieldWeed                 = "weed"
	FieldPartnerValues        = "partner_values"
	FieldSharedImportance     = "shared_interests_importance"
	FieldTypeDescription      = "type_description"
	FieldAmbition             = "ambition"
	FieldDealbreakers         = "dealbreakers"
	FieldProfileURL           = "profile_url"
)

var columnAliases = map[string]string{
	"Timestamp":                          FieldTimestamp,
	"Name (first and last)":              FieldName,
	"Email":                              FieldEmail,
	"Gender":                             FieldGender,
	"Sexual Orientation":                 FieldOrientation,
	"I'm interested in":                  FieldInterestedIn,
	"Year in school":                     FieldYear,
	"What are you looking for?":          FieldLookingFor,
	"My social battery is...":            FieldSocialBattery,
	"On a Friday night you'll find me..": FieldFridayNight,
	"My fav social media":                FieldSocialMedia,
	"How would your friends describe you? (pick top 3)": FieldSelfTraits,
	"What do you do for fun? (top 3)":                   FieldHobbies,
	"Dream date activity?":                              FieldDreamDate,
	"Drinking":                                          FieldDrinking,
	"Weed":                                              FieldWeed,
	"What matters most in a partner? (Pick your top 3)": FieldPartnerValues,
	"How important is it that they share your interests/hobbies? (Scale 1-5)": FieldSharedImportance,
	"Describe your type (qualities, physical type, etc.)":                     FieldTypeDescription,
	"Career/ambition level?": FieldAmbition,
	"Deal-breakers?":         FieldDealbreakers,
	"LinkedIn or personal website (optional)": FieldProfileURL,
}

// Record is one survey response keyed by short field names. Missing columns
// simply have no entry; Get degrades to an empty string.
type Record map[string]string

func (r Record) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Load reads a response CSV from path and returns the records in form order.
func Load(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open responses file: %w", err)
	}
	defer file.Close()

	records, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("read responses from %q: %w", path, err)
	}

	return records, nil
}

// Read parses response records from r. The first row is the heading row;
// headings are mapped through columnAliases, unknown headings are kept
// verbatim (lowered) so extra columns survive for the AI scorer payload.
func Read(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read heading row: %w", err)
	}

	keys := make([]string, len(header))
	for i, heading := range header {
		keys[i] = normalizeHeading(heading)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read response row: %w", err)
		}

		record := make(Record, len(keys))
		for i, value := range row {
			if i >= len(keys) {
				break
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			record[keys[i]] = value
		}

		if len(record) > 0 {
			records = append(records, record)
		}
	}

	return records, nil
}

// Dedupe keeps the last response per email so respondents who re-submitted
// the form are counted once. Records without an email are kept as-is.
func Dedupe(records []Record) []Record {
	lastByEmail := make(map[string]int, len(records))
	for i, record := range records {
		email := strings.ToLower(record.Get(FieldEmail))
		if email == "" {
			continue
		}
		lastByEmail[email] = i
	}

	deduped := make([]Record, 0, len(records))
	for i, record := range records {
		email := strings.ToLower(record.Get(FieldEmail))
		if email != "" && lastByEmail[email] != i {
			continue
		}
		deduped = append(deduped, record)
	}

	return deduped
}

func normalizeHeading(heading string) string {
	heading = strings.TrimSpace(heading)
	if key, ok := columnAliases[heading]; ok {
		return key
	}
	return strings.ToLower(heading)
}
