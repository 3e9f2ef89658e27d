package llm

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/care-matcher/internal/matching"
)

//go:embed response_schema.json
var responseSchemaJSON string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func responseSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchemaJSON))
	})
	return schema, schemaErr
}

type responsePayload struct {
	Score struct {
		Overall   float64 `json:"overall"`
		Breakdown struct {
			MedicalCompatibility float64 `json:"medical_compatibility"`
			SkillsMatch          float64 `json:"skills_match"`
			LocationProximity    float64 `json:"location_proximity"`
			AvailabilityFit      float64 `json:"availability_fit"`
			ExperienceLevel      float64 `json:"experience_level"`
		} `json:"breakdown"`
	} `json:"score"`
	Reasoning struct {
		Summary              string   `json:"summary"`
		Strengths            []string `json:"strengths"`
		Considerations       []string `json:"considerations"`
		CompatibilityFactors struct {
			MedicalExpertise string `json:"medical_expertise"`
			CareApproach     string `json:"care_approach"`
			PracticalFit     string `json:"practical_fit"`
		} `json:"compatibility_factors"`
	} `json:"reasoning"`
}

// parseResponse validates the provider answer against the response schema and converts it.
// The overall score is taken as returned.
func parseResponse(raw string) (matching.Result, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return matching.Result{}, fmt.Errorf("%w: no json object in response", ErrMalformedResponse)
	}

	s, err := responseSchema()
	if err != nil {
		return matching.Result{}, fmt.Errorf("load response schema: %w", err)
	}

	validation, err := s.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return matching.Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if !validation.Valid() {
		problems := make([]string, 0, len(validation.Errors()))
		for _, e := range validation.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return matching.Result{}, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(problems, "; "))
	}

	var payload responsePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return matching.Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	b := payload.Score.Breakdown
	r := payload.Reasoning
	return matching.Result{
		Score: matching.MatchScore{
			Overall: toScore(payload.Score.Overall),
			Breakdown: matching.Breakdown{
				MedicalCompatibility: toScore(b.MedicalCompatibility),
				SkillsMatch:          toScore(b.SkillsMatch),
				LocationProximity:    toScore(b.LocationProximity),
				AvailabilityFit:      toScore(b.AvailabilityFit),
				ExperienceLevel:      toScore(b.ExperienceLevel),
			},
		},
		Reasoning: matching.MatchReasoning{
			Summary:        strings.TrimSpace(r.Summary),
			Strengths:      nonEmpty(r.Strengths),
			Considerations: nonEmpty(r.Considerations),
			CompatibilityFactors: matching.CompatibilityFactors{
				MedicalExpertise: strings.TrimSpace(r.CompatibilityFactors.MedicalExpertise),
				CareApproach:     strings.TrimSpace(r.CompatibilityFactors.CareApproach),
				PracticalFit:     strings.TrimSpace(r.CompatibilityFactors.PracticalFit),
			},
		},
	}, nil
}

// extractJSON drops code fences and any text around the outermost JSON object.
func extractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

func toScore(v float64) int {
	return matching.Clamp(int(math.Round(v)))
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
