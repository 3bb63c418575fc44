// Package sourcing finds and enriches candidate developer profiles for a search filter.
//
// Failures of the external directory are recovered here and never returned:
// a failed search yields no candidates, a failed profile fetch drops that candidate,
// and language aggregation degrades per repository or to a fallback set.
package sourcing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/dev-sourcer/internal/directory"
	"github.com/spigell/dev-sourcer/internal/query"
)

const (
	DefaultLimit = 10
	// fallbackQuery keeps the directory from being searched with a blank query.
	fallbackQuery = "developer"
)

type Config struct {
	// CallTimeout bounds every single directory call. Zero means no bound beyond ctx.
	CallTimeout       time.Duration
	RepoSampleSize    int
	FallbackLanguages []string
}

type Sourcer struct {
	dir         directory.Source
	interpreter *query.Interpreter
	languages   *LanguageAggregator
	callTimeout time.Duration
	logger      *zap.Logger
	clock       func() time.Time
}

func New(dir directory.Source, interpreter *query.Interpreter, cfg Config, logger *zap.Logger) *Sourcer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interpreter == nil {
		interpreter = query.NewInterpreter(nil)
	}

	return &Sourcer{
		dir:         dir,
		interpreter: interpreter,
		languages: NewLanguageAggregator(dir, LanguageAggregatorConfig{
			RepoSampleSize:    cfg.RepoSampleSize,
			FallbackLanguages: cfg.FallbackLanguages,
			CallTimeout:       cfg.CallTimeout,
		}, logger),
		callTimeout: cfg.CallTimeout,
		logger:      logger,
		clock:       time.Now,
	}
}

// Search interprets raw, sources candidates for it and records both in a new Listing.
func (s *Sourcer) Search(ctx context.Context, raw string, limit int) *Listing {
	filter := s.interpreter.Interpret(raw)

	s.logger.Info("interpreted query",
		zap.String("query", raw),
		zap.Strings("roles", filter.JobRoles),
		zap.String("seniority", string(filter.Seniority)),
		zap.String("location", filter.Location),
		zap.String("employment_type", string(filter.EmploymentType)),
		zap.Strings("skills", filter.Skills),
	)

	return &Listing{
		ID:           uuid.NewString(),
		EnteredQuery: raw,
		ParsedQuery:  filter,
		Candidates:   s.Source(ctx, filter, limit),
		CreatedAt:    s.clock().UTC(),
	}
}

// Source returns up to limit enriched candidates in directory rank order.
// It never fails: an unavailable directory yields an empty result.
func (s *Sourcer) Source(ctx context.Context, filter query.SearchFilter, limit int) []*Candidate {
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := BuildSearchQuery(filter)

	searchCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	hits, err := s.dir.SearchUsers(searchCtx, q, limit)
	cancel()
	if err != nil {
		s.logger.Warn("directory search failed, returning no candidates",
			zap.String("search", q),
			zap.Error(err),
		)
		return []*Candidate{}
	}

	hits = uniqueHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	s.logger.Debug("directory search completed", zap.String("search", q), zap.Int("hits", len(hits)))

	enriched := make([]*Candidate, len(hits))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, hit := range hits {
		g.Go(func() error {
			enriched[i] = s.enrich(ctx, hit)
			return nil
		})
	}
	_ = g.Wait()

	candidates := make([]*Candidate, 0, len(hits))
	for _, c := range enriched {
		if c != nil {
			candidates = append(candidates, c)
		}
	}

	s.logger.Info("sourcing completed",
		zap.Int("hits", len(hits)),
		zap.Int("candidates", len(candidates)),
	)

	return candidates
}

// enrich fetches profile details and languages in parallel. It returns nil when the
// candidate cannot be fully identified.
func (s *Sourcer) enrich(ctx context.Context, hit directory.Hit) *Candidate {
	if strings.TrimSpace(hit.Handle) == "" {
		s.logger.Debug("skipping hit without handle", zap.Int64("id", hit.ID))
		return nil
	}

	var (
		profile    *directory.Profile
		profileErr error
		languages  []string
	)

	var g errgroup.Group
	g.Go(func() error {
		callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
		defer cancel()
		profile, profileErr = s.dir.Profile(callCtx, hit.Handle)
		return nil
	})
	g.Go(func() error {
		languages = s.languages.Aggregate(ctx, hit.Handle)
		return nil
	})
	_ = g.Wait()

	if profileErr != nil {
		s.logger.Warn("dropping candidate, profile fetch failed",
			zap.String("handle", hit.Handle),
			zap.Error(profileErr),
		)
		return nil
	}

	if err := ctx.Err(); err != nil {
		s.logger.Debug("dropping candidate, sourcing cancelled", zap.String("handle", hit.Handle), zap.Error(err))
		return nil
	}

	return newCandidate(hit, profile, languages, s.clock().UTC())
}

// uniqueHits drops repeated users, keeping the best ranked occurrence.
func uniqueHits(hits []directory.Hit) []directory.Hit {
	seen := make(map[int64]struct{}, len(hits))
	unique := make([]directory.Hit, 0, len(hits))
	for _, hit := range hits {
		if _, ok := seen[hit.ID]; ok {
			continue
		}
		seen[hit.ID] = struct{}{}
		unique = append(unique, hit)
	}
	return unique
}

// BuildSearchQuery renders a filter as a directory search string.
func BuildSearchQuery(filter query.SearchFilter) string {
	parts := make([]string, 0, 3)

	if filter.Location != "" && filter.Location != query.LocationRemote {
		location := filter.Location
		if strings.Contains(location, " ") {
			location = strconv.Quote(location)
		}
		parts = append(parts, "location:"+location)
	}

	roles := make([]string, 0, len(filter.JobRoles))
	for _, role := range filter.JobRoles {
		if role = strings.ReplaceAll(role, " ", ""); role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) > 0 {
		parts = append(parts, strings.Join(roles, " "))
	}

	if filter.Seniority != query.SeniorityNone {
		parts = append(parts, strings.ToLower(string(filter.Seniority)))
	}

	q := strings.Join(parts, " ")
	if q == "" {
		return fallbackQuery
	}
	return q
}

func withCallTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
