package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/ai/gemini"
	"github.com/spigell/dev-sourcer/internal/directory"
	"github.com/spigell/dev-sourcer/internal/filtering"
	"github.com/spigell/dev-sourcer/internal/github"
	"github.com/spigell/dev-sourcer/internal/history"
	"github.com/spigell/dev-sourcer/internal/logger"
	"github.com/spigell/dev-sourcer/internal/outreach"
	"github.com/spigell/dev-sourcer/internal/query"
	"github.com/spigell/dev-sourcer/internal/secrets"
	"github.com/spigell/dev-sourcer/internal/sourcing"
)

const (
	providerGitHub = "github"
	providerMock   = "mock"
	providerGemini = "gemini"

	githubTokenEnv  = "GITHUB_TOKEN"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
)

// bootstrap builds the logger and loads the config.
func bootstrap() (*Config, *zap.Logger, error) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("getting a config: %w", err)
	}

	logger.Debug("starting the dev-sourcer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return config, logger, nil
}

// newDirectory returns the configured directory source, wrapped in the redis cache when
// one is configured. The returned cleanup is never nil.
func newDirectory(ctx context.Context, config *Config, logger *zap.Logger) (directory.Source, func(), error) {
	cfg := config.Directory
	if cfg == nil {
		cfg = &DirectoryConfig{}
	}

	var src directory.Source

	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case providerMock:
		logger.Info("using the mock directory")
		src = directory.NewMock()
	case "", providerGitHub:
		token, err := secrets.LoadOptional(secrets.Source{
			Name: "github token",
			File: cfg.TokenFile,
			Env:  githubTokenEnv,
		})
		if err != nil {
			return nil, func() {}, err
		}
		if token == "" {
			logger.Warn("no github token configured, requests are heavily rate limited",
				zap.String("hint", "set GITHUB_TOKEN_FILE, GITHUB_TOKEN or the 'directory.token-file' key in the configuration file"),
			)
		}

		client := github.New(logger, token)
		if cfg.APIURL != "" {
			client.APIURL = strings.TrimRight(cfg.APIURL, "/")
		}
		if cfg.UserAgent != "" {
			client.UserAgent = cfg.UserAgent
		}
		if cfg.Timeout > 0 {
			client.HTTPClient.Timeout = cfg.Timeout
		}
		src = client
	default:
		return nil, func() {}, fmt.Errorf("unsupported directory provider: %s", cfg.Provider)
	}

	if config.Cache == nil || strings.TrimSpace(config.Cache.RedisURL) == "" {
		return src, func() {}, nil
	}

	rdb, err := directory.NewRedisClient(ctx, config.Cache.RedisURL)
	if err != nil {
		logger.Warn("redis cache is unavailable, continuing without it", zap.Error(err))
		return src, func() {}, nil
	}

	logger.Debug("caching directory lookups in redis", zap.Duration("ttl", config.Cache.TTL))

	return directory.NewCached(src, rdb, config.Cache.TTL, logger), func() { _ = rdb.Close() }, nil
}

func newInterpreter(config *Config) (*query.Interpreter, error) {
	if config.VocabularyFile == "" {
		return query.NewInterpreter(nil), nil
	}

	vocabulary, err := query.LoadVocabulary(config.VocabularyFile)
	if err != nil {
		return nil, err
	}
	return query.NewInterpreter(vocabulary), nil
}

func newSourcer(ctx context.Context, config *Config, logger *zap.Logger) (*sourcing.Sourcer, func(), error) {
	dir, cleanup, err := newDirectory(ctx, config, logger)
	if err != nil {
		return nil, cleanup, fmt.Errorf("directory: %w", err)
	}

	interpreter, err := newInterpreter(config)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("vocabulary: %w", err)
	}

	cfg := sourcing.Config{}
	if config.Directory != nil {
		cfg.CallTimeout = config.Directory.CallTimeout
	}
	if config.Search != nil {
		cfg.RepoSampleSize = config.Search.RepoSampleSize
		cfg.FallbackLanguages = config.Search.FallbackLanguages
	}

	return sourcing.New(dir, interpreter, cfg, logger), cleanup, nil
}

func newStore(ctx context.Context, config *Config, logger *zap.Logger) (*history.Store, error) {
	cfg := history.Config{}
	if config.History != nil {
		cfg = *config.History
	}
	return history.Open(ctx, cfg, logger)
}

// newFilters builds the post-sourcing pipeline. A nil store disables the contacted step.
func newFilters(config *Config, store *history.Store, includeContacted bool) []filtering.Filter {
	var lister filtering.ContactedLister
	if store != nil {
		lister = store
	}

	minFollowers := 0
	if config.Search != nil {
		minFollowers = config.Search.MinFollowers
	}

	steps := []filtering.Filter{
		filtering.NewContacted(lister),
		filtering.NewExcludeFile(config.ExcludeFile),
		filtering.NewMinFollowers(minFollowers),
	}

	if includeContacted {
		filtering.DisableByName(steps, filtering.ContactedName, "include-contacted flag is set")
	}

	return steps
}

func searchLimit(config *Config) int {
	if config.Search == nil || config.Search.Limit <= 0 {
		return sourcing.DefaultLimit
	}
	return config.Search.Limit
}

// newComposer builds a composer for mode. The text generator is only created for generative mode.
func newComposer(ctx context.Context, config *Config, mode outreach.Mode, logger *zap.Logger) (*outreach.Composer, error) {
	recruiter := outreach.DefaultRecruiter
	if config.Outreach != nil {
		recruiter = config.Outreach.Recruiter
	}

	maxLogLength := 0
	var generator outreach.TextGenerator

	if mode == outreach.ModeGenerative {
		g, err := newGenerator(ctx, config.AI, logger)
		if err != nil {
			return nil, err
		}
		generator = g
		if config.AI.Gemini != nil {
			maxLogLength = config.AI.Gemini.MaxLogLength
		}
	}

	return outreach.NewComposer(generator, recruiter, logger, maxLogLength), nil
}

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*gemini.Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ai section is required for generative outreach")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != providerGemini {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gcfg.APIKeyFile,
		Env:  geminiAPIKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	return gemini.NewGenerator(ctx, gemini.Config{
		APIKey:       apiKey,
		Model:        gcfg.Model,
		MaxRetries:   gcfg.MaxRetries,
		MaxLogLength: gcfg.MaxLogLength,
	}, logger.With(zap.Int("ai_retry_attempts", gcfg.MaxRetries)))
}
