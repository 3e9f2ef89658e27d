package llm

import (
	_ "embed"
	"strconv"
	"strings"

	"github.com/spigell/care-matcher/internal/matching"
)

//go:embed prompt.md
var promptTemplate string

const (
	notSpecified = "No especificado"
	none         = "Ninguna"
)

// buildPrompt renders the evaluation request for one recipient and candidate.
func buildPrompt(r *matching.CareRecipientProfile, c *matching.CaregiverCandidate) string {
	replacer := strings.NewReplacer(
		"{{recipient_name}}", orDefault(r.Name, notSpecified),
		"{{recipient_age}}", ageText(r.Age),
		"{{recipient_location}}", orDefault(r.Location, notSpecified),
		"{{comorbidities}}", orDefault(r.Comorbidities, "No especificadas"),
		"{{mobility_level}}", levelText(r.MobilityLevel),
		"{{mobility_label}}", matching.MobilityLabel(r.MobilityLevel),
		"{{cognitive_status}}", r.CognitiveStatus.Label(),
		"{{medication_schedule}}", orDefault(r.MedicationSchedule, notSpecified),
		"{{assistance_tasks}}", joinOrDefault(matching.TaskLabels(r.AssistanceTasks), "Ninguna especificada"),
		"{{care_intensity}}", r.CareIntensity.Label(),
		"{{special_requirements}}", orDefault(r.SpecialRequirements, none),
		"{{caregiver_name}}", orDefault(c.Name, notSpecified),
		"{{caregiver_age}}", ageText(c.Age),
		"{{caregiver_location}}", orDefault(c.Location, notSpecified),
		"{{years_experience}}", strconv.Itoa(c.YearsExperience),
		"{{skills}}", joinOrDefault(c.Skills, "No especificadas"),
		"{{specializations}}", joinOrDefault(c.Specializations, none),
		"{{certifications}}", joinOrDefault(c.Certifications, none),
		"{{rating}}", ratingText(c.AvgRating),
		"{{hourly_rate}}", rateText(c.HourlyRate),
		"{{bio}}", orDefault(c.Bio, "No disponible"),
	)

	return replacer.Replace(promptTemplate)
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}

func joinOrDefault(values []string, fallback string) string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		return fallback
	}
	return strings.Join(cleaned, ", ")
}

func ageText(age int) string {
	if age <= 0 {
		return notSpecified
	}
	return strconv.Itoa(age) + " años"
}

func levelText(level int) string {
	if level <= 0 {
		return "?"
	}
	return strconv.Itoa(level)
}

func ratingText(rating *float64) string {
	if rating == nil {
		return "Sin calificaciones"
	}
	return strconv.FormatFloat(*rating, 'f', 1, 64) + "/5"
}

func rateText(rate float64) string {
	if rate <= 0 {
		return notSpecified
	}
	return "S/ " + strconv.FormatFloat(rate, 'f', -1, 64)
}
