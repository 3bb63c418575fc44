package sourcing

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/dev-sourcer/internal/directory"
)

const DefaultRepoSampleSize = 5

// DefaultFallbackLanguages is reported when a developer's repositories cannot be listed at all.
// It means "unknown, assume general purpose", not "no languages".
var DefaultFallbackLanguages = []string{"JavaScript", "Python"}

// LanguageAggregator infers the languages a developer works in from their recent repositories.
type LanguageAggregator struct {
	dir         directory.Source
	sampleSize  int
	fallback    []string
	callTimeout time.Duration
	logger      *zap.Logger
}

type LanguageAggregatorConfig struct {
	RepoSampleSize    int
	FallbackLanguages []string
	CallTimeout       time.Duration
}

func NewLanguageAggregator(dir directory.Source, cfg LanguageAggregatorConfig, logger *zap.Logger) *LanguageAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	size := cfg.RepoSampleSize
	if size <= 0 {
		size = DefaultRepoSampleSize
	}

	fallback := cfg.FallbackLanguages
	if len(fallback) == 0 {
		fallback = DefaultFallbackLanguages
	}

	return &LanguageAggregator{
		dir:         dir,
		sampleSize:  size,
		fallback:    normalizeLanguages(fallback),
		callTimeout: cfg.CallTimeout,
		logger:      logger,
	}
}

// Aggregate returns the sorted union of languages used in the handle's most recently
// updated repositories. Repositories whose languages cannot be fetched are skipped.
func (a *LanguageAggregator) Aggregate(ctx context.Context, handle string) []string {
	listCtx, cancel := withCallTimeout(ctx, a.callTimeout)
	repos, err := a.dir.Repositories(listCtx, handle, a.sampleSize)
	cancel()
	if err != nil {
		a.logger.Warn("listing repositories failed, using fallback languages",
			zap.String("handle", handle),
			zap.Strings("fallback", a.fallback),
			zap.Error(err),
		)
		return slices.Clone(a.fallback)
	}

	if len(repos) > a.sampleSize {
		repos = repos[:a.sampleSize]
	}

	perRepo := make([][]string, len(repos))
	var g errgroup.Group
	for i, repo := range repos {
		g.Go(func() error {
			callCtx, cancel := withCallTimeout(ctx, a.callTimeout)
			defer cancel()

			languages, err := a.dir.Languages(callCtx, handle, repo.Name)
			if err != nil {
				a.logger.Debug("fetching repository languages failed",
					zap.String("handle", handle),
					zap.String("repo", repo.Name),
					zap.Error(err),
				)
				return nil
			}

			names := make([]string, 0, len(languages))
			for name := range languages {
				names = append(names, name)
			}
			perRepo[i] = names
			return nil
		})
	}
	_ = g.Wait()

	return normalizeLanguages(slices.Concat(perRepo...))
}

func normalizeLanguages(languages []string) []string {
	result := slices.Clone(languages)
	if result == nil {
		result = make([]string, 0)
	}
	slices.Sort(result)
	return slices.Compact(result)
}
