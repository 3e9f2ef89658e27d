package matching

import (
	"encoding/json"
	"os"
	"time"
)

// Candidates is the working list of caregivers handed to the ranking engine.
// Input order is significant: it breaks ties between equal scores.
type Candidates struct {
	Items []*CaregiverCandidate
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

func (c *Candidates) FindByID(id string) *CaregiverCandidate {
	for _, candidate := range c.Items {
		if candidate.ID == id {
			return candidate
		}
	}
	return nil
}

// Exclude removes candidates with the given ids, keeping the order of the rest.
// It returns the removed ids.
func (c *Candidates) Exclude(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	targets := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}

	return c.Retain(func(candidate *CaregiverCandidate) bool {
		_, drop := targets[candidate.ID]
		return !drop
	})
}

// Retain keeps the candidates accepted by keep, preserving order, and returns the ids of dropped ones.
// Nil entries are always dropped.
func (c *Candidates) Retain(keep func(*CaregiverCandidate) bool) []string {
	var dropped []string
	kept := c.Items[:0]
	for _, candidate := range c.Items {
		if candidate == nil {
			continue
		}
		if keep(candidate) {
			kept = append(kept, candidate)
			continue
		}
		dropped = append(dropped, candidate.ID)
	}

	for i := len(kept); i < len(c.Items); i++ {
		c.Items[i] = nil
	}
	c.Items = kept

	return dropped
}

// ExcludedCaregivers is the content of an exclude file.
type ExcludedCaregivers struct {
	Items []*ExcludedCaregiver
}

type ExcludedCaregiver struct {
	ID         string
	Name       string
	ExcludedAt time.Time
}

// GetExcludedFromFile reads an exclude file. An empty file yields an empty list.
func GetExcludedFromFile(path string) (*ExcludedCaregivers, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedCaregivers{}, nil
	}

	var excluded ExcludedCaregivers
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedCaregivers) Append(s *ExcludedCaregivers) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedCaregivers) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (e *ExcludedCaregivers) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
