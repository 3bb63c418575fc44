// Package github is the live developer directory backed by the GitHub REST API.
package github

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL     = "https://api.github.com"
	apiVersion = "2022-11-28"
	userAgent  = "spigell/dev-sourcer"
	// Max value for search per page.
	maxPerPage = 100
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client. An empty token issues unauthenticated requests, which GitHub
// rate limits much more aggressively.
func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func clampPerPage(n int) int {
	if n <= 0 || n > maxPerPage {
		return maxPerPage
	}
	return n
}
