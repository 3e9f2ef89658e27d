package matching

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status of a match record as seen by the persistence layer.
type Status string

const StatusPending Status = "pending"

// Source tells which scorer produced a record.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// DefaultTop is the number of records kept for persistence when nothing else is configured.
const DefaultTop = 10

// MatchRecord is one scored candidate of a ranking run.
type MatchRecord struct {
	MatchID     string              `json:"matchId"`
	CandidateID string              `json:"candidateId"`
	Caregiver   *CaregiverCandidate `json:"caregiver,omitempty"`
	Score       MatchScore          `json:"score"`
	Reasoning   MatchReasoning      `json:"reasoning"`
	Rank        int                 `json:"rank"`
	Status      Status              `json:"status"`
	Source      Source              `json:"source"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// NewRecord builds an unranked pending record for the candidate.
func NewRecord(candidate *CaregiverCandidate, result Result, source Source) *MatchRecord {
	record := &MatchRecord{
		MatchID:   uuid.NewString(),
		Score:     result.Score,
		Reasoning: result.Reasoning,
		Status:    StatusPending,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if candidate != nil {
		record.CandidateID = candidate.ID
		record.Caregiver = candidate
	}
	return record
}

// Records is an ordered list of match records.
type Records []*MatchRecord

func (r Records) Len() int {
	return len(r)
}

// Top returns at most k leading records. Non-positive k keeps everything.
func (r Records) Top(k int) Records {
	if k <= 0 || k >= len(r) {
		return r
	}
	return r[:k]
}

func (r Records) CandidateIDs() []string {
	ids := make([]string, 0, len(r))
	for _, record := range r {
		ids = append(ids, record.CandidateID)
	}
	return ids
}

// DumpToTmpFile writes the records as indented JSON into a new temporary file.
func (r Records) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := r.encode(file); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ToFile writes the records as indented JSON to path, replacing its content.
func (r Records) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	return r.encode(file)
}

func (r Records) encode(file *os.File) error {
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode matches: %w", err)
	}
	return nil
}

// ReportByRank summarizes every record in rank order.
func (r Records) ReportByRank() []map[string]string {
	report := make([]map[string]string, 0, len(r))
	for _, record := range r {
		name := ""
		location := ""
		if record.Caregiver != nil {
			name = record.Caregiver.Name
			location = record.Caregiver.Location
		}

		b := record.Score.Breakdown
		report = append(report, map[string]string{
			"rank":           strconv.Itoa(record.Rank),
			"candidate":      fmt.Sprintf("%s (%s)", name, record.CandidateID),
			"location":       location,
			"overall":        strconv.Itoa(record.Score.Overall),
			"breakdown":      fmt.Sprintf("medical=%d skills=%d location=%d availability=%d experience=%d", b.MedicalCompatibility, b.SkillsMatch, b.LocationProximity, b.AvailabilityFit, b.ExperienceLevel),
			"source":         string(record.Source),
			"summary":        record.Reasoning.Summary,
			"strengths":      strings.Join(record.Reasoning.Strengths, "; "),
			"considerations": strings.Join(record.Reasoning.Considerations, "; "),
		})
	}
	return report
}

// ToExcluded converts the records into exclude file entries.
func (r Records) ToExcluded() *ExcludedCaregivers {
	excluded := &ExcludedCaregivers{}
	for _, record := range r {
		name := ""
		if record.Caregiver != nil {
			name = record.Caregiver.Name
		}
		excluded.Items = append(excluded.Items, &ExcludedCaregiver{
			ID:         record.CandidateID,
			Name:       name,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}
