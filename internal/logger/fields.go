package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log keys shared across packages.
const (
	FieldProvider    = "ai_provider"
	FieldModel       = "ai_model"
	FieldListingID   = "listing_id"
	FieldCandidateID = "candidate_id"
	FieldHandle      = "handle"
)

type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields. Keys and values are trimmed,
// and pairs with an empty side are skipped.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// AIFields describes the text generation backend.
func AIFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithAIFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, AIFields(provider, model)...)
}

// CandidateFields identifies a candidate, optionally within a listing.
func CandidateFields(listingID, candidateID, handle string) []zap.Field {
	return StringFields(
		StringField{Key: FieldListingID, Value: listingID},
		StringField{Key: FieldCandidateID, Value: candidateID},
		StringField{Key: FieldHandle, Value: handle},
	)
}
