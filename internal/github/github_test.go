package github

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/directory"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(zap.NewNop(), "secret-token")
	client.APIURL = server.URL
	client.HTTPClient = server.Client()
	return client
}

func TestSearchUsers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != SearchPath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "location:Berlin fullstack senior" {
			t.Errorf("unexpected query: %q", q.Get("q"))
		}
		if q.Get("sort") != "followers" || q.Get("order") != "desc" || q.Get("per_page") != "2" {
			t.Errorf("unexpected search params: %v", q)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("unexpected user agent: %q", got)
		}

		_, _ = w.Write([]byte(`{"total_count": 2, "items": [
			{"id": 42, "login": "octo", "avatar_url": "https://a/42", "html_url": "https://github.com/octo", "score": 1},
			{"id": 7, "login": "cat", "avatar_url": "https://a/7", "html_url": "https://github.com/cat"}
		]}`))
	})

	hits, err := client.SearchUsers(context.Background(), "location:Berlin fullstack senior", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	want := directory.Hit{ID: 42, Handle: "octo", AvatarURL: "https://a/42", ProfileURL: "https://github.com/octo"}
	if hits[0] != want {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
	if hits[1].Handle != "cat" {
		t.Fatalf("unexpected order: %+v", hits)
	}
}

func TestProfileHandlesNullFieldsAndGzip(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octo" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_ = json.NewEncoder(gz).Encode(map[string]any{
			"location":     nil,
			"bio":          "Go & Rust",
			"followers":    1200,
			"public_repos": 33,
		})
	})

	profile, err := client.Profile(context.Background(), "octo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.Location != "" || profile.Bio != "Go & Rust" || profile.Followers != 1200 || profile.PublicRepos != 33 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestRepositoriesAndLanguages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/octo/repos":
			if r.URL.Query().Get("sort") != "updated" || r.URL.Query().Get("per_page") != "5" {
				t.Errorf("unexpected repo params: %v", r.URL.Query())
			}
			_, _ = w.Write([]byte(`[{"name": "alpha", "fork": false}, {"name": "beta"}]`))
		case "/repos/octo/alpha/languages":
			_, _ = w.Write([]byte(`{"Go": 1000, "Shell": 20}`))
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	repos, err := client.Repositories(ctx, "octo", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos) != 2 || repos[0].Name != "alpha" {
		t.Fatalf("unexpected repos: %+v", repos)
	}

	languages, err := client.Languages(ctx, "octo", "alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if languages["Go"] != 1000 || languages["Shell"] != 20 {
		t.Fatalf("unexpected languages: %v", languages)
	}

	if _, err := client.Languages(ctx, "octo", "beta"); !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRateLimitError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	})

	_, err := client.Repositories(context.Background(), "octo", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rate limit exceeded (resets at 1700000000)") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnauthenticatedRequestsOmitAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("did not expect authorization header")
		}
		_, _ = w.Write([]byte(`{"followers": 1}`))
	}))
	defer server.Close()

	client := New(nil, "")
	client.APIURL = server.URL

	if _, err := client.Profile(context.Background(), "octo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
