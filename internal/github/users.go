package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spigell/dev-sourcer/internal/directory"
)

type user struct {
	Location    *string `json:"location"`
	Bio         *string `json:"bio"`
	Followers   int     `json:"followers"`
	PublicRepos int     `json:"public_repos"`
}

func (c *Client) Profile(ctx context.Context, handle string) (*directory.Profile, error) {
	var u user
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(handle), nil, &u); err != nil {
		return nil, fmt.Errorf("get user %s: %w", handle, err)
	}

	profile := &directory.Profile{
		Followers:   u.Followers,
		PublicRepos: u.PublicRepos,
	}
	if u.Location != nil {
		profile.Location = *u.Location
	}
	if u.Bio != nil {
		profile.Bio = *u.Bio
	}

	return profile, nil
}

func (c *Client) Repositories(ctx context.Context, handle string, perPage int) ([]directory.Repository, error) {
	q := url.Values{}
	q.Set("sort", directory.SortUpdated)
	q.Set("per_page", strconv.Itoa(clampPerPage(perPage)))

	var repos []directory.Repository
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(handle)+"/repos", q, &repos); err != nil {
		return nil, fmt.Errorf("list repositories of %s: %w", handle, err)
	}

	return repos, nil
}

func (c *Client) Languages(ctx context.Context, handle, repo string) (map[string]int, error) {
	languages := make(map[string]int)
	path := fmt.Sprintf("/repos/%s/%s/languages", url.PathEscape(handle), url.PathEscape(repo))
	if err := c.getJSON(ctx, path, nil, &languages); err != nil {
		return nil, fmt.Errorf("get languages of %s/%s: %w", handle, repo, err)
	}

	return languages, nil
}

var _ directory.Source = (*Client)(nil)
