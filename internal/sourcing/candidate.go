package sourcing

import (
	"strconv"
	"time"

	"github.com/spigell/dev-sourcer/internal/directory"
	"github.com/spigell/dev-sourcer/internal/query"
)

const candidateIDPrefix = "github-"

// Candidate is an enriched developer profile produced by a single search.
type Candidate struct {
	ID         string    `json:"id"`
	Handle     string    `json:"github_username"`
	AvatarURL  string    `json:"avatar_url"`
	Location   string    `json:"location,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	ProfileURL string    `json:"profile_url"`
	Metrics    Metrics   `json:"extra_data"`
	Languages  []string  `json:"languages"`
	CreatedAt  time.Time `json:"created_at"`
}

type Metrics struct {
	Followers   int `json:"followers"`
	PublicRepos int `json:"public_repos"`
}

// Listing is the outcome of one search: the query as typed, how it was read, and the
// candidates in directory rank order.
type Listing struct {
	ID           string             `json:"id"`
	EnteredQuery string             `json:"entered_query"`
	ParsedQuery  query.SearchFilter `json:"parsed_query"`
	Candidates   []*Candidate       `json:"candidates"`
	CreatedAt    time.Time          `json:"created_at"`
}

// CandidateID derives the stable candidate identifier from the directory's user id.
func CandidateID(platformID int64) string {
	return candidateIDPrefix + strconv.FormatInt(platformID, 10)
}

func newCandidate(hit directory.Hit, profile *directory.Profile, languages []string, now time.Time) *Candidate {
	return &Candidate{
		ID:         CandidateID(hit.ID),
		Handle:     hit.Handle,
		AvatarURL:  hit.AvatarURL,
		Location:   profile.Location,
		Bio:        profile.Bio,
		ProfileURL: hit.ProfileURL,
		Metrics: Metrics{
			Followers:   profile.Followers,
			PublicRepos: profile.PublicRepos,
		},
		Languages: languages,
		CreatedAt: now,
	}
}

func (l *Listing) Len() int {
	return len(l.Candidates)
}

func (l *Listing) FindByID(id string) *Candidate {
	for _, c := range l.Candidates {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (l *Listing) Handles() []string {
	handles := make([]string, 0, len(l.Candidates))
	for _, c := range l.Candidates {
		handles = append(handles, c.Handle)
	}
	return handles
}
