package heuristic

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/spigell/care-matcher/internal/matching"
	"github.com/spigell/care-matcher/internal/utils"
)

const (
	defaultAvailability = 70
	defaultMedical      = 50

	locationSame    = 100
	locationNearby  = 70
	locationDistant = 40

	minKeywordLength = 4
)

// skillCoverage reports which required tasks are covered by the candidate's skills or specializations.
func skillCoverage(tasks []string, c *matching.CaregiverCandidate) (matched []string, missing []string) {
	pool := lowerAll(append(append([]string{}, c.Skills...), c.Specializations...))

	for _, task := range tasks {
		task = strings.TrimSpace(task)
		if task == "" {
			continue
		}

		label := matching.TaskLabel(task)
		needles := []string{strings.ToLower(task), strings.ToLower(label)}
		if covers(pool, needles) {
			matched = append(matched, label)
			continue
		}
		missing = append(missing, label)
	}
	return matched, missing
}

func covers(pool []string, needles []string) bool {
	for _, skill := range pool {
		for _, needle := range needles {
			if strings.Contains(skill, needle) || strings.Contains(needle, skill) {
				return true
			}
		}
	}
	return false
}

func skillsMatch(matched, missing int) int {
	total := matched + missing
	if total == 0 {
		return 100
	}
	return utils.Percent(matched, total)
}

// locationProximity compares trimmed locations: exact equality, then substring in either direction.
func locationProximity(recipient, candidate string) int {
	recipient = strings.TrimSpace(recipient)
	candidate = strings.TrimSpace(candidate)
	if recipient == candidate {
		return locationSame
	}

	r, c := strings.ToLower(recipient), strings.ToLower(candidate)
	if strings.Contains(r, c) || strings.Contains(c, r) {
		return locationNearby
	}
	return locationDistant
}

// experienceLevel is piecewise linear in years: 30 below one year, 50..70 up to three, 70..89 up to five, then 90 plus one per year.
func experienceLevel(years int) int {
	switch {
	case years < 1:
		return 30
	case years < 3:
		return 50 + (years-1)*10
	case years < 5:
		return int(math.Round(70 + float64(years-3)/2*19))
	default:
		return min(100, 90+(years-5))
	}
}

// medicalKeywords splits comorbidity text on commas and semicolons, keeping tokens longer than three characters.
func medicalKeywords(comorbidities string) []string {
	fields := strings.FieldsFunc(comorbidities, func(r rune) bool {
		return r == ',' || r == ';'
	})

	keywords := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.ToLower(strings.TrimSpace(field))
		if utf8.RuneCountInString(token) < minKeywordLength {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

func medicalCompatibility(keywords []string, c *matching.CaregiverCandidate) int {
	if len(keywords) == 0 {
		return defaultMedical
	}

	haystack := strings.ToLower(strings.Join([]string{
		c.Bio,
		strings.Join(c.Skills, " "),
		strings.Join(c.Specializations, " "),
	}, " "))

	found := 0
	for _, keyword := range keywords {
		if strings.Contains(haystack, keyword) {
			found++
		}
	}
	return utils.Percent(found, len(keywords))
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
