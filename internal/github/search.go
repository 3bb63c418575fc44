package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/dev-sourcer/internal/directory"
)

const SearchPath = "/search/users"

type ItemResponse struct {
	TotalCount        int    `json:"total_count"`
	IncompleteResults bool   `json:"incomplete_results"`
	Items             []Item `json:"items"`
}

type Item interface{}

// SearchUsers queries the user index ranked by followers.
func (c *Client) SearchUsers(ctx context.Context, query string, perPage int) ([]directory.Hit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", directory.SortFollowers)
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(clampPerPage(perPage)))

	var response ItemResponse
	if err := c.getJSON(ctx, SearchPath, q, &response); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	var hits []directory.Hit
	if err := mapstructure.Decode(response.Items, &hits); err != nil {
		return nil, fmt.Errorf("decode search items: %w", err)
	}

	if perPage > 0 && len(hits) > perPage {
		hits = hits[:perPage]
	}

	return hits, nil
}
