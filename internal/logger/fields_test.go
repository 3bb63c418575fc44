package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFieldsNilLogger(t *testing.T) {
	enriched := WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	enriched.Info("another log")
}

func TestWithAIFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithAIFields(zap.New(core), "gemini", "model-x").Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" || ctx[FieldModel] != "model-x" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
}

func TestCandidateFields(t *testing.T) {
	cases := map[string]struct {
		listingID, candidateID, handle string
		want                           map[string]string
	}{
		"all set": {
			listingID:   "l-1",
			candidateID: "github-1",
			handle:      "octocat",
			want: map[string]string{
				FieldListingID:   "l-1",
				FieldCandidateID: "github-1",
				FieldHandle:      "octocat",
			},
		},
		"without listing": {
			candidateID: "github-2",
			handle:      "ferris",
			want: map[string]string{
				FieldCandidateID: "github-2",
				FieldHandle:      "ferris",
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fields := CandidateFields(tc.listingID, tc.candidateID, tc.handle)

			got := make(map[string]string, len(fields))
			for _, f := range fields {
				got[f.Key] = f.String
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Fatalf("expected %s=%s, got %v", k, v, got)
				}
			}
		})
	}
}
