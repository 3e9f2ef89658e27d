package heuristic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/care-matcher/internal/matching"
)

const (
	fallbackNotice   = "Análisis detallado con IA no disponible (usando sistema de respaldo)"
	lowMedicalNotice = "Experiencia limitada con las condiciones médicas específicas"

	lowMedicalThreshold  = 50
	highMedicalThreshold = 70
	highRating           = 4.5
)

type reasoningInput struct {
	recipient   *matching.CareRecipientProfile
	candidate   *matching.CaregiverCandidate
	score       matching.MatchScore
	matched     []string
	missing     []string
	hasKeywords bool
}

type driver struct {
	weight int
	value  int
	phrase string
}

func (in reasoningInput) reasoning() matching.MatchReasoning {
	return matching.MatchReasoning{
		Summary:        in.summary(),
		Strengths:      in.strengths(),
		Considerations: in.considerations(),
		CompatibilityFactors: matching.CompatibilityFactors{
			MedicalExpertise: in.medicalExpertise(),
			CareApproach:     in.careApproach(),
			PracticalFit:     in.practicalFit(),
		},
	}
}

// dominantDriver returns the factor with the largest weighted contribution. Earlier factors win ties.
func (in reasoningInput) dominantDriver() driver {
	b := in.score.Breakdown
	drivers := []driver{
		{weight: matching.WeightMedical, value: b.MedicalCompatibility, phrase: "la afinidad con sus condiciones médicas"},
		{weight: matching.WeightSkills, value: b.SkillsMatch, phrase: "la cobertura de las tareas de asistencia"},
		{weight: matching.WeightLocation, value: b.LocationProximity, phrase: "la cercanía geográfica"},
		{weight: matching.WeightExperience, value: b.ExperienceLevel, phrase: "los años de experiencia"},
		{weight: matching.WeightAvailability, value: b.AvailabilityFit, phrase: "la disponibilidad horaria"},
	}

	best := drivers[0]
	for _, d := range drivers[1:] {
		if d.weight*d.value > best.weight*best.value {
			best = d
		}
	}
	return best
}

func (in reasoningInput) summary() string {
	quality := "Aceptable"
	switch {
	case in.score.Overall >= 80:
		quality = "Excelente"
	case in.score.Overall >= 60:
		quality = "Buena"
	}

	name := strings.TrimSpace(in.candidate.Name)
	if name == "" {
		name = "el cuidador"
	}

	return fmt.Sprintf("%s compatibilidad (%d/100) con %s, impulsada principalmente por %s.",
		quality, in.score.Overall, name, in.dominantDriver().phrase)
}

func (in reasoningInput) strengths() []string {
	strengths := []string{
		plural(in.candidate.YearsExperience, "año de experiencia profesional", "años de experiencia profesional"),
		in.locationStrength(),
		plural(len(in.candidate.Skills), "habilidad certificada", "habilidades certificadas"),
	}

	if in.score.Breakdown.MedicalCompatibility >= highMedicalThreshold && in.hasKeywords {
		strengths = append(strengths, "Experiencia relevante con las condiciones médicas del paciente")
	}

	if len(in.matched) > 0 && len(in.missing) == 0 {
		strengths = append(strengths, "Cubre todas las tareas de asistencia requeridas")
	}

	if rating := in.candidate.AvgRating; rating != nil && *rating >= highRating {
		strengths = append(strengths, fmt.Sprintf("Calificación promedio destacada (%.1f/5)", *rating))
	}

	return strengths
}

func (in reasoningInput) locationStrength() string {
	switch p := in.score.Breakdown.LocationProximity; {
	case p >= 80:
		return "Misma ubicación"
	case p >= 60:
		return "Ubicación cercana"
	default:
		return "Ubicación accesible"
	}
}

func (in reasoningInput) considerations() []string {
	considerations := []string{fallbackNotice}

	if in.score.Breakdown.MedicalCompatibility < lowMedicalThreshold {
		considerations = append(considerations, lowMedicalNotice)
	}

	if len(in.missing) > 0 {
		considerations = append(considerations, "Tareas sin experiencia registrada: "+strings.Join(in.missing, ", "))
	}

	return considerations
}

func (in reasoningInput) medicalExpertise() string {
	m := in.score.Breakdown.MedicalCompatibility
	switch {
	case !in.hasKeywords:
		return "No hay condiciones médicas registradas para contrastar con su experiencia"
	case m >= highMedicalThreshold:
		return fmt.Sprintf("Su experiencia cubre la mayoría de las condiciones registradas (%d%%)", m)
	case m >= lowMedicalThreshold:
		return fmt.Sprintf("Su experiencia cubre parte de las condiciones registradas (%d%%)", m)
	default:
		return fmt.Sprintf("Su experiencia cubre pocas de las condiciones registradas (%d%%); conviene verificarlo en la entrevista", m)
	}
}

func (in reasoningInput) careApproach() string {
	var approach string
	total := len(in.matched) + len(in.missing)
	if total == 0 {
		approach = "No se registraron tareas de asistencia específicas"
	} else {
		approach = fmt.Sprintf("Cubre %d de %d tareas de asistencia requeridas", len(in.matched), total)
	}

	if in.recipient.CareIntensity != matching.IntensityUnknown {
		approach += "; intensidad de cuidado " + strings.ToLower(in.recipient.CareIntensity.Label())
	}
	return approach
}

func (in reasoningInput) practicalFit() string {
	parts := []string{in.locationStrength()}

	if location := strings.TrimSpace(in.candidate.Location); location != "" {
		parts[0] += " (" + location + ")"
	}

	if in.candidate.HourlyRate > 0 {
		parts = append(parts, "tarifa S/ "+strconv.FormatFloat(in.candidate.HourlyRate, 'f', -1, 64)+"/hora")
	}

	if in.candidate.AvgRating != nil {
		parts = append(parts, fmt.Sprintf("calificación %.1f/5", *in.candidate.AvgRating))
	} else {
		parts = append(parts, "sin calificaciones aún")
	}

	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
