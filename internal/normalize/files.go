package normalize

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/care-matcher/internal/matching"
)

// RecipientFromFile reads a JSON object describing the care recipient.
func RecipientFromFile(path string) (*matching.CareRecipientProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipient file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding recipient file %q: %w", path, err)
	}
	return Recipient(raw), nil
}

// CaregiversFromFile reads a JSON array of caregiver records. Entries that are not objects are skipped.
func CaregiversFromFile(path string) (*matching.Candidates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading caregivers file: %w", err)
	}

	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding caregivers file %q: %w", path, err)
	}

	raw := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			raw = append(raw, m)
		}
	}
	return Caregivers(raw), nil
}
