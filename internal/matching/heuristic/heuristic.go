// Package heuristic scores caregivers without any external call.
// Scores are deterministic and depend only on the two profiles.
package heuristic

import (
	"context"

	"github.com/spigell/care-matcher/internal/matching"
)

// Scorer adapts Score to the matching.Scorer interface.
type Scorer struct{}

func New() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Score(_ context.Context, recipient *matching.CareRecipientProfile, candidate *matching.CaregiverCandidate) (matching.Result, error) {
	return Score(recipient, candidate), nil
}

// Score computes the five factors, the weighted overall and the reasoning.
func Score(recipient *matching.CareRecipientProfile, candidate *matching.CaregiverCandidate) matching.Result {
	if recipient == nil {
		recipient = &matching.CareRecipientProfile{}
	}
	if candidate == nil {
		candidate = &matching.CaregiverCandidate{}
	}

	matched, missing := skillCoverage(recipient.AssistanceTasks, candidate)
	keywords := medicalKeywords(recipient.Comorbidities)

	score := matching.NewMatchScore(matching.Breakdown{
		MedicalCompatibility: medicalCompatibility(keywords, candidate),
		SkillsMatch:          skillsMatch(len(matched), len(missing)),
		LocationProximity:    locationProximity(recipient.Location, candidate.Location),
		AvailabilityFit:      defaultAvailability,
		ExperienceLevel:      experienceLevel(candidate.YearsExperience),
	})

	in := reasoningInput{
		recipient:   recipient,
		candidate:   candidate,
		score:       score,
		matched:     matched,
		missing:     missing,
		hasKeywords: len(keywords) > 0,
	}

	return matching.Result{
		Score:     score,
		Reasoning: in.reasoning(),
	}
}
