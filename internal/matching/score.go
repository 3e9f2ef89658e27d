package matching

import (
	"context"
)

// Factor weights in percent. They sum to 100.
const (
	WeightMedical      = 40
	WeightSkills       = 25
	WeightLocation     = 20
	WeightExperience   = 10
	WeightAvailability = 5
)

// Breakdown holds the five 0..100 sub-scores.
type Breakdown struct {
	MedicalCompatibility int `json:"medicalCompatibility"`
	SkillsMatch          int `json:"skillsMatch"`
	LocationProximity    int `json:"locationProximity"`
	AvailabilityFit      int `json:"availabilityFit"`
	ExperienceLevel      int `json:"experienceLevel"`
}

// Overall combines the breakdown with the factor weights, rounding half up.
// Integer arithmetic keeps the result exact for integer sub-scores.
func (b Breakdown) Overall() int {
	sum := WeightMedical*b.MedicalCompatibility +
		WeightSkills*b.SkillsMatch +
		WeightLocation*b.LocationProximity +
		WeightExperience*b.ExperienceLevel +
		WeightAvailability*b.AvailabilityFit

	return Clamp((sum + 50) / 100)
}

// Clamped returns a copy with every sub-score forced into [0,100].
func (b Breakdown) Clamped() Breakdown {
	return Breakdown{
		MedicalCompatibility: Clamp(b.MedicalCompatibility),
		SkillsMatch:          Clamp(b.SkillsMatch),
		LocationProximity:    Clamp(b.LocationProximity),
		AvailabilityFit:      Clamp(b.AvailabilityFit),
		ExperienceLevel:      Clamp(b.ExperienceLevel),
	}
}

// MatchScore is the weighted overall score with its breakdown.
type MatchScore struct {
	Overall   int       `json:"overall"`
	Breakdown Breakdown `json:"breakdown"`
}

// NewMatchScore builds a score whose overall is derived from the breakdown.
func NewMatchScore(b Breakdown) MatchScore {
	b = b.Clamped()
	return MatchScore{Overall: b.Overall(), Breakdown: b}
}

// CompatibilityFactors are the three narrative compatibility statements.
type CompatibilityFactors struct {
	MedicalExpertise string `json:"medicalExpertise"`
	CareApproach     string `json:"careApproach"`
	PracticalFit     string `json:"practicalFit"`
}

// MatchReasoning explains a score in the recipient's language.
type MatchReasoning struct {
	Summary              string               `json:"summary"`
	Strengths            []string             `json:"strengths"`
	Considerations       []string             `json:"considerations"`
	CompatibilityFactors CompatibilityFactors `json:"compatibilityFactors"`
}

// Result is what a Scorer produces for one candidate.
type Result struct {
	Score     MatchScore     `json:"score"`
	Reasoning MatchReasoning `json:"reasoning"`
}

// Scorer evaluates a single candidate against a recipient.
type Scorer interface {
	Score(ctx context.Context, recipient *CareRecipientProfile, candidate *CaregiverCandidate) (Result, error)
}

// Clamp forces v into [0,100].
func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
