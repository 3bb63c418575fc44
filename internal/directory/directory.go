// Package directory defines the developer-directory capability consumed by candidate sourcing
// and provides the in-memory and caching implementations of it.
package directory

import (
	"context"
	"errors"
)

const (
	SortFollowers = "followers"
	SortUpdated   = "updated"
)

// ErrNotFound is returned when a handle or repository does not exist in the directory.
var ErrNotFound = errors.New("not found")

// Hit is a single ranked result of a directory search.
type Hit struct {
	ID         int64  `json:"id" mapstructure:"id"`
	Handle     string `json:"login" mapstructure:"login"`
	AvatarURL  string `json:"avatar_url" mapstructure:"avatar_url"`
	ProfileURL string `json:"html_url" mapstructure:"html_url"`
}

// Profile holds the extended details of a developer.
type Profile struct {
	Location    string `json:"location"`
	Bio         string `json:"bio"`
	Followers   int    `json:"followers"`
	PublicRepos int    `json:"public_repos"`
}

// Repository is an entry of a repository listing.
type Repository struct {
	Name string `json:"name"`
}

// Source is an external directory of developer profiles and their repositories.
type Source interface {
	// SearchUsers returns at most perPage hits ranked by follower count, highest first.
	SearchUsers(ctx context.Context, query string, perPage int) ([]Hit, error)
	Profile(ctx context.Context, handle string) (*Profile, error)
	// Repositories returns at most perPage repositories, most recently updated first.
	Repositories(ctx context.Context, handle string, perPage int) ([]Repository, error)
	// Languages maps language name to byte count for one repository.
	Languages(ctx context.Context, handle, repo string) (map[string]int, error)
}
