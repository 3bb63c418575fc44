package sourcing

import (
	"context"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/directory"
)

func TestAggregateUnionOfRepositories(t *testing.T) {
	dir := newFakeDirectory("octo")
	dir.repos["octo"] = []directory.Repository{{Name: "api"}, {Name: "web"}, {Name: "broken"}}
	dir.languages["octo/api"] = map[string]int{"Go": 100, "Shell": 5}
	dir.languages["octo/web"] = map[string]int{"TypeScript": 300, "Go": 1}

	got := NewLanguageAggregator(dir, LanguageAggregatorConfig{}, zap.NewNop()).Aggregate(context.Background(), "octo")

	expected := []string{"Go", "Shell", "TypeScript"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

func TestAggregateFallbackWhenListingFails(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		cfg      LanguageAggregatorConfig
		expected []string
	}{
		{
			name:     "default fallback",
			expected: []string{"JavaScript", "Python"},
		},
		{
			name:     "configured fallback is sorted",
			cfg:      LanguageAggregatorConfig{FallbackLanguages: []string{"Rust", "Go"}},
			expected: []string{"Go", "Rust"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := newFakeDirectory()

			got := NewLanguageAggregator(dir, tc.cfg, nil).Aggregate(context.Background(), "ghost")
			if !reflect.DeepEqual(got, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}

			// Callers may mutate the result without touching the fallback.
			got[0] = "mutated"
			again := NewLanguageAggregator(dir, tc.cfg, nil).Aggregate(context.Background(), "ghost")
			if !reflect.DeepEqual(again, tc.expected) {
				t.Fatalf("fallback was mutated: %v", again)
			}
		})
	}
}

func TestAggregateEmptyWhenNoRepositories(t *testing.T) {
	dir := newFakeDirectory("newbie")
	dir.repos["newbie"] = []directory.Repository{}

	got := NewLanguageAggregator(dir, LanguageAggregatorConfig{}, nil).Aggregate(context.Background(), "newbie")

	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil languages, got %#v", got)
	}
}

func TestAggregateSamplesMostRecentRepositories(t *testing.T) {
	dir := newFakeDirectory("octo")
	dir.repos["octo"] = []directory.Repository{{Name: "new"}, {Name: "old"}}
	dir.languages["octo/new"] = map[string]int{"Zig": 1}
	dir.languages["octo/old"] = map[string]int{"Perl": 1}

	got := NewLanguageAggregator(dir, LanguageAggregatorConfig{RepoSampleSize: 1}, nil).Aggregate(context.Background(), "octo")

	if !reflect.DeepEqual(got, []string{"Zig"}) {
		t.Fatalf("expected only the newest repository, got %v", got)
	}
}

func TestAggregateAgainstMockDirectory(t *testing.T) {
	got := NewLanguageAggregator(directory.NewMock(), LanguageAggregatorConfig{}, nil).Aggregate(context.Background(), "languagechain")

	expected := []string{"Go", "JavaScript", "Python"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}
