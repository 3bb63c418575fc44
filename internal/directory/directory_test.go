package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMockRanksByFollowers(t *testing.T) {
	mock := NewMock(
		MockDeveloper{Hit: Hit{ID: 1, Handle: "few"}, Profile: Profile{Followers: 3}},
		MockDeveloper{Hit: Hit{ID: 2, Handle: "many"}, Profile: Profile{Followers: 300}},
		MockDeveloper{Hit: Hit{ID: 3, Handle: "some"}, Profile: Profile{Followers: 30}},
	)

	hits, err := mock.SearchUsers(context.Background(), "anything", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hits) != 2 || hits[0].Handle != "many" || hits[1].Handle != "some" {
		t.Fatalf("unexpected ranking: %+v", hits)
	}
}

func TestMockLookups(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()

	profile, err := mock.Profile(ctx, "AIDEV123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Followers != 152 {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	repos, err := mock.Repositories(ctx, "aidev123", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos) != 1 || repos[0].Name != "rag-pipeline" {
		t.Fatalf("unexpected repos: %+v", repos)
	}

	languages, err := mock.Languages(ctx, "aidev123", "rag-pipeline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := languages["Rust"]; !ok {
		t.Fatalf("expected Rust in %v", languages)
	}

	if _, err := mock.Profile(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := mock.Languages(ctx, "aidev123", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMockHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMock().SearchUsers(ctx, "", 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type fakeRedis struct {
	data   map[string]string
	getErr error
	ttl    time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	value, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

type countingSource struct {
	*Mock
	profileCalls  int
	languageCalls int
}

func (c *countingSource) Profile(ctx context.Context, handle string) (*Profile, error) {
	c.profileCalls++
	return c.Mock.Profile(ctx, handle)
}

func (c *countingSource) Languages(ctx context.Context, handle, repo string) (map[string]int, error) {
	c.languageCalls++
	return c.Mock.Languages(ctx, handle, repo)
}

func TestCachedServesRepeatedLookups(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{Mock: NewMock()}
	rdb := newFakeRedis()
	cache := NewCached(src, rdb, 10*time.Minute, zap.NewNop())

	for range 3 {
		profile, err := cache.Profile(ctx, "languagechain")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if profile.Followers != 89 {
			t.Fatalf("unexpected profile: %+v", profile)
		}

		languages, err := cache.Languages(ctx, "languagechain", "vector-router")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if languages["Go"] != 17650 {
			t.Fatalf("unexpected languages: %v", languages)
		}
	}

	if src.profileCalls != 1 || src.languageCalls != 1 {
		t.Fatalf("expected one upstream call each, got profile=%d languages=%d", src.profileCalls, src.languageCalls)
	}
	if rdb.ttl != 10*time.Minute {
		t.Fatalf("unexpected ttl: %v", rdb.ttl)
	}
	if _, ok := rdb.data["dev-sourcer:profile:languagechain"]; !ok {
		t.Fatalf("expected profile key to be stored, got %v", rdb.data)
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	rdb := newFakeRedis()
	cache := NewCached(NewMock(), rdb, 0, nil)

	if _, err := cache.Profile(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(rdb.data) != 0 {
		t.Fatalf("expected no cached entries, got %v", rdb.data)
	}
}

func TestCachedBypassesBrokenRedis(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	rdb := newFakeRedis()
	rdb.getErr = errors.New("connection refused")
	src := &countingSource{Mock: NewMock()}
	cache := NewCached(src, rdb, time.Minute, zap.New(core))

	if _, err := cache.Profile(context.Background(), "aidev123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.profileCalls != 1 {
		t.Fatalf("expected upstream call, got %d", src.profileCalls)
	}
	if observed.FilterMessage("directory cache read failed").Len() != 1 {
		t.Fatalf("expected cache read warning, got %v", observed.All())
	}
}
