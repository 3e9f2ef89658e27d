// Package normalize converts loosely shaped profile records into the canonical matching types.
// Normalization never fails: unreadable fields keep their zero values.
package normalize

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/care-matcher/internal/matching"
)

type personalInfo struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Location string `json:"location"`
}

type professionalInfo struct {
	YearsOfExperience *int     `json:"yearsOfExperience"`
	Specializations   []string `json:"specializations"`
	Certifications    []any    `json:"certifications"`
	HourlyRate        *float64 `json:"hourlyRate"`
}

type rawCaregiver struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Age      *int   `json:"age"`
	Location string `json:"location"`

	YearsExperience   *int     `json:"yearsExperience"`
	YearsOfExperience *int     `json:"yearsOfExperience"`
	Skills            []string `json:"skills"`
	Specializations   []string `json:"specializations"`
	Certifications    []any    `json:"certifications"`
	HourlyRate        *float64 `json:"hourlyRate"`
	AvgRating         *float64 `json:"avgRating"`

	Bio                   string `json:"bio"`
	ExperienceDescription any    `json:"experienceDescription"`
	Availability          any    `json:"availability"`

	Active              *bool `json:"active"`
	OnboardingCompleted *bool `json:"onboardingCompleted"`

	PersonalInfo     personalInfo     `json:"personalInfo"`
	ProfessionalInfo professionalInfo `json:"professionalInfo"`
	Ratings          struct {
		Average *float64 `json:"average"`
	} `json:"ratings"`
}

type rawRecipient struct {
	Name     string `json:"name"`
	Age      *int   `json:"age"`
	Location string `json:"location"`

	Comorbidities        any  `json:"comorbidities"`
	MedicalComorbidities any  `json:"medical_comorbidities"`
	MobilityLevel        *int `json:"mobilityLevel"`
	MobilityScore        *int `json:"mobility_score"`

	CognitiveStatus      string `json:"cognitiveStatus"`
	CognitiveStatusSnake string `json:"cognitive_status"`

	MedicationSchedule     string   `json:"medicationSchedule"`
	RoutineMedicationTimes string   `json:"routine_medication_times"`
	AssistanceTasks        []string `json:"assistanceTasks"`
	RoutineAssistanceTasks []string `json:"routine_assistance_tasks"`

	CareIntensity      string `json:"careIntensity"`
	CareIntensitySnake string `json:"care_intensity"`

	SpecialRequirements      string `json:"specialRequirements"`
	SpecialRequirementsSnake string `json:"special_requirements"`

	PersonalInfo personalInfo `json:"personalInfo"`
}

// decode fills result from raw. Fields that cannot be converted are left untouched.
func decode(raw map[string]any, result any) error {
	cfg := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// Caregiver normalizes one caregiver record. Flat keys win over legacy nested ones.
func Caregiver(raw map[string]any) *matching.CaregiverCandidate {
	var r rawCaregiver
	_ = decode(raw, &r)

	c := &matching.CaregiverCandidate{
		ID:                  strings.TrimSpace(r.ID),
		Name:                firstString(r.Name, r.PersonalInfo.Name),
		Age:                 firstInt(r.Age, &r.PersonalInfo.Age),
		Location:            firstString(r.Location, r.PersonalInfo.Location),
		YearsExperience:     firstInt(r.YearsExperience, r.YearsOfExperience, r.ProfessionalInfo.YearsOfExperience),
		Specializations:     cleanList(firstList(r.Specializations, r.ProfessionalInfo.Specializations)),
		Certifications:      certificationNames(r.Certifications, r.ProfessionalInfo.Certifications),
		HourlyRate:          firstFloat(r.HourlyRate, r.ProfessionalInfo.HourlyRate),
		AvgRating:           firstRating(r.AvgRating, r.Ratings.Average),
		Bio:                 firstString(r.Bio, description(r.ExperienceDescription)),
		Availability:        r.Availability,
		Active:              boolOr(r.Active, true),
		OnboardingCompleted: boolOr(r.OnboardingCompleted, true),
	}

	c.Skills = cleanList(r.Skills)
	if len(c.Skills) == 0 {
		c.Skills = append([]string{}, c.Specializations...)
	}

	return c
}

// Caregivers normalizes a list of caregiver records, keeping their order.
func Caregivers(raw []map[string]any) *matching.Candidates {
	items := make([]*matching.CaregiverCandidate, 0, len(raw))
	for _, r := range raw {
		items = append(items, Caregiver(r))
	}
	return &matching.Candidates{Items: items}
}

// Recipient normalizes a recipient record given in camelCase, snake_case or legacy nested form.
func Recipient(raw map[string]any) *matching.CareRecipientProfile {
	var r rawRecipient
	_ = decode(raw, &r)

	comorbidities := joinValue(r.Comorbidities)
	if comorbidities == "" {
		comorbidities = joinValue(r.MedicalComorbidities)
	}

	return &matching.CareRecipientProfile{
		Name:                firstString(r.Name, r.PersonalInfo.Name),
		Age:                 firstInt(r.Age, &r.PersonalInfo.Age),
		Location:            firstString(r.Location, r.PersonalInfo.Location),
		Comorbidities:       comorbidities,
		MobilityLevel:       firstInt(r.MobilityLevel, r.MobilityScore),
		CognitiveStatus:     matching.ParseCognitiveStatus(firstString(r.CognitiveStatus, r.CognitiveStatusSnake)),
		MedicationSchedule:  firstString(r.MedicationSchedule, r.RoutineMedicationTimes),
		AssistanceTasks:     cleanList(firstList(r.AssistanceTasks, r.RoutineAssistanceTasks)),
		CareIntensity:       matching.ParseCareIntensity(firstString(r.CareIntensity, r.CareIntensitySnake)),
		SpecialRequirements: firstString(r.SpecialRequirements, r.SpecialRequirementsSnake),
	}
}

func firstString(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil && *v != 0 {
			return *v
		}
	}
	return 0
}

func firstFloat(values ...*float64) float64 {
	for _, v := range values {
		if v != nil && *v != 0 {
			return *v
		}
	}
	return 0
}

func firstRating(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			rating := *v
			return &rating
		}
	}
	return nil
}

func firstList(values ...[]string) []string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// certificationNames accepts plain strings or objects carrying a name key.
func certificationNames(lists ...[]any) []string {
	for _, list := range lists {
		names := make([]string, 0, len(list))
		for _, item := range list {
			if name := strings.TrimSpace(itemName(item)); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			return names
		}
	}
	return []string{}
}

func itemName(item any) string {
	switch v := item.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if name, ok := v["name"]; ok && name != nil {
			return fmt.Sprint(name)
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// description reads the legacy experience description, either a string or a nested object.
func description(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case map[string]any:
		if text, ok := d["experienceDescription"].(string); ok {
			return text
		}
	}
	return ""
}

func joinValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []string:
		return strings.Join(cleanList(val), ", ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, itemName(item))
		}
		return strings.Join(cleanList(parts), ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
