package matching

import (
	"strings"
)

// CognitiveStatus is the cognitive state of a care recipient.
type CognitiveStatus string

const (
	CognitiveUnknown  CognitiveStatus = ""
	CognitiveNormal   CognitiveStatus = "normal"
	CognitiveMild     CognitiveStatus = "mild_impairment"
	CognitiveModerate CognitiveStatus = "moderate_impairment"
	CognitiveSevere   CognitiveStatus = "severe_impairment"
)

// ParseCognitiveStatus accepts canonical values and their short aliases.
// Unknown input yields CognitiveUnknown.
func ParseCognitiveStatus(s string) CognitiveStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return CognitiveNormal
	case "mild", "mild_impairment":
		return CognitiveMild
	case "moderate", "moderate_impairment":
		return CognitiveModerate
	case "severe", "severe_impairment":
		return CognitiveSevere
	default:
		return CognitiveUnknown
	}
}

func (c CognitiveStatus) Label() string {
	switch c {
	case CognitiveNormal:
		return "Normal"
	case CognitiveMild:
		return "Deterioro cognitivo leve"
	case CognitiveModerate:
		return "Deterioro cognitivo moderado"
	case CognitiveSevere:
		return "Deterioro cognitivo severo"
	default:
		return "No especificado"
	}
}

// CareIntensity is how much care the recipient needs per day.
type CareIntensity string

const (
	IntensityUnknown    CareIntensity = ""
	IntensityLight      CareIntensity = "light"
	IntensityModerate   CareIntensity = "moderate"
	IntensityIntensive  CareIntensity = "intensive"
	IntensityContinuous CareIntensity = "continuous"
)

// ParseCareIntensity accepts canonical values plus the legacy "24_7" spelling of continuous care.
func ParseCareIntensity(s string) CareIntensity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return IntensityLight
	case "moderate":
		return IntensityModerate
	case "intensive":
		return IntensityIntensive
	case "continuous", "24_7", "24/7":
		return IntensityContinuous
	default:
		return IntensityUnknown
	}
}

func (c CareIntensity) Label() string {
	switch c {
	case IntensityLight:
		return "Ligera (algunas horas al día)"
	case IntensityModerate:
		return "Moderada (medio tiempo)"
	case IntensityIntensive:
		return "Intensiva (tiempo completo)"
	case IntensityContinuous:
		return "Continua (24/7)"
	default:
		return "No especificada"
	}
}

// MobilityLabel translates the 1..4 mobility ordinal. Zero means unknown.
func MobilityLabel(level int) string {
	switch level {
	case 1:
		return "Encamado"
	case 2:
		return "Movilidad muy limitada"
	case 3:
		return "Camina con asistencia"
	case 4:
		return "Independiente"
	default:
		return "No especificada"
	}
}

var taskLabels = map[string]string{
	"bathing":              "Baño y aseo personal",
	"feeding":              "Alimentación y nutrición",
	"mobility":             "Movilización y transferencias",
	"medication":           "Administración de medicamentos",
	"companionship":        "Compañía y supervisión",
	"housekeeping":         "Tareas del hogar",
	"medical_appointments": "Acompañamiento a citas médicas",
	"physical_therapy":     "Apoyo en terapia física",
}

// TaskLabel returns the human-readable label of an assistance task identifier.
// Unknown identifiers are returned unchanged.
func TaskLabel(task string) string {
	task = strings.TrimSpace(task)
	if label, ok := taskLabels[strings.ToLower(task)]; ok {
		return label
	}
	return task
}

// TaskLabels translates every task of the slice.
func TaskLabels(tasks []string) []string {
	labels := make([]string, 0, len(tasks))
	for _, task := range tasks {
		labels = append(labels, TaskLabel(task))
	}
	return labels
}

// CareRecipientProfile is the normalized view of the senior whose needs drive a matching run.
type CareRecipientProfile struct {
	Name     string `json:"name"`
	Age      int    `json:"age" validate:"gte=0,lte=130"`
	Location string `json:"location"`

	Comorbidities   string          `json:"comorbidities"`
	MobilityLevel   int             `json:"mobilityLevel" validate:"gte=0,lte=4"`
	CognitiveStatus CognitiveStatus `json:"cognitiveStatus" validate:"omitempty,oneof=normal mild_impairment moderate_impairment severe_impairment"`

	MedicationSchedule string        `json:"medicationSchedule"`
	AssistanceTasks    []string      `json:"assistanceTasks"`
	CareIntensity      CareIntensity `json:"careIntensity" validate:"omitempty,oneof=light moderate intensive continuous"`

	SpecialRequirements string `json:"specialRequirements"`
}

// CaregiverCandidate is the normalized view of a caregiver scored against a recipient.
type CaregiverCandidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Location string `json:"location"`

	YearsExperience int      `json:"yearsExperience"`
	Skills          []string `json:"skills"`
	Specializations []string `json:"specializations"`
	Certifications  []string `json:"certifications"`

	HourlyRate float64 `json:"hourlyRate"`
	// AvgRating is nil when the caregiver has not been rated yet.
	AvgRating *float64 `json:"avgRating,omitempty"`

	Bio string `json:"bio"`

	// Availability is passed through untouched.
	Availability any `json:"availability,omitempty"`

	Active              bool `json:"active"`
	OnboardingCompleted bool `json:"onboardingCompleted"`
}
