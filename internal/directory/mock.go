package directory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// MockDeveloper is a fixture profile served by Mock.
type MockDeveloper struct {
	Hit
	Profile
	// Repos are listed most recently updated first.
	Repos []MockRepository
}

type MockRepository struct {
	Name      string
	Languages map[string]int
}

// Mock is an in-memory directory. It ignores the search text and ranks every
// developer by followers, which is enough for demos and offline development.
type Mock struct {
	developers []MockDeveloper
}

// NewMock creates a mock directory. Without developers it serves DefaultMockDevelopers.
func NewMock(developers ...MockDeveloper) *Mock {
	if len(developers) == 0 {
		developers = DefaultMockDevelopers()
	}

	sorted := slices.Clone(developers)
	slices.SortStableFunc(sorted, func(a, b MockDeveloper) int {
		return b.Followers - a.Followers
	})

	return &Mock{developers: sorted}
}

func DefaultMockDevelopers() []MockDeveloper {
	return []MockDeveloper{
		{
			Hit: Hit{
				ID:         12345678,
				Handle:     "aidev123",
				AvatarURL:  "https://avatars.githubusercontent.com/u/12345678",
				ProfileURL: "https://github.com/aidev123",
			},
			Profile: Profile{
				Location:    "Berlin, Germany",
				Bio:         "Senior AI engineer specializing in LLMs and RAG systems",
				Followers:   152,
				PublicRepos: 28,
			},
			Repos: []MockRepository{
				{Name: "rag-pipeline", Languages: map[string]int{"Python": 48211, "Rust": 9120}},
				{Name: "llm-playground", Languages: map[string]int{"TypeScript": 20311, "Python": 1022}},
			},
		},
		{
			Hit: Hit{
				ID:         23456789,
				Handle:     "languagechain",
				AvatarURL:  "https://avatars.githubusercontent.com/u/23456789",
				ProfileURL: "https://github.com/languagechain",
			},
			Profile: Profile{
				Location:    "Amsterdam, Netherlands",
				Bio:         "Building LangChain extensions and RAG systems for enterprise",
				Followers:   89,
				PublicRepos: 14,
			},
			Repos: []MockRepository{
				{Name: "langchain-extras", Languages: map[string]int{"Python": 30412, "JavaScript": 4403}},
				{Name: "vector-router", Languages: map[string]int{"Go": 17650}},
			},
		},
	}
}

func (m *Mock) SearchUsers(ctx context.Context, _ string, perPage int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(m.developers))
	for _, dev := range m.developers {
		if perPage > 0 && len(hits) >= perPage {
			break
		}
		hits = append(hits, dev.Hit)
	}

	return hits, nil
}

func (m *Mock) Profile(ctx context.Context, handle string) (*Profile, error) {
	dev, err := m.find(ctx, handle)
	if err != nil {
		return nil, err
	}

	profile := dev.Profile
	return &profile, nil
}

func (m *Mock) Repositories(ctx context.Context, handle string, perPage int) ([]Repository, error) {
	dev, err := m.find(ctx, handle)
	if err != nil {
		return nil, err
	}

	repos := make([]Repository, 0, len(dev.Repos))
	for _, repo := range dev.Repos {
		if perPage > 0 && len(repos) >= perPage {
			break
		}
		repos = append(repos, Repository{Name: repo.Name})
	}

	return repos, nil
}

func (m *Mock) Languages(ctx context.Context, handle, repo string) (map[string]int, error) {
	dev, err := m.find(ctx, handle)
	if err != nil {
		return nil, err
	}

	for _, r := range dev.Repos {
		if r.Name == repo {
			return maps.Clone(r.Languages), nil
		}
	}

	return nil, fmt.Errorf("repository %s/%s: %w", handle, repo, ErrNotFound)
}

func (m *Mock) find(ctx context.Context, handle string) (*MockDeveloper, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range m.developers {
		if strings.EqualFold(m.developers[i].Handle, handle) {
			return &m.developers[i], nil
		}
	}

	return nil, fmt.Errorf("developer %s: %w", handle, ErrNotFound)
}
