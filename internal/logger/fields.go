package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/matching"
)

const (
	FieldProvider       = "ai_provider"
	FieldModel          = "ai_model"
	FieldCandidateID    = "candidate_id"
	FieldCandidateName  = "candidate_name"
	FieldScoreSource    = "score_source"
	FieldFallbackReason = "fallback_reason"
	FieldJobID          = "job_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, trimming whitespace
// and omitting entries with an empty key or value.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// ProviderFields describes the text-completion provider behind the primary scorer.
func ProviderFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithProvider(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, ProviderFields(provider, model)...)
}

// CandidateFields identifies a caregiver in log entries.
func CandidateFields(c *matching.CaregiverCandidate) []zap.Field {
	if c == nil {
		return nil
	}
	return StringFields(
		StringField{Key: FieldCandidateID, Value: c.ID},
		StringField{Key: FieldCandidateName, Value: c.Name},
	)
}
