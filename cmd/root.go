package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/dev-sourcer/internal/history"
	"github.com/spigell/dev-sourcer/internal/outreach"
	"github.com/spigell/dev-sourcer/internal/scheduler"
	"github.com/spigell/dev-sourcer/internal/sourcing"
)

const (
	app = "dev-sourcer"
)

type Config struct {
	Directory      *DirectoryConfig `mapstructure:"directory"`
	Search         *SearchConfig    `mapstructure:"search"`
	VocabularyFile string           `mapstructure:"vocabulary-file"`
	ExcludeFile    string           `mapstructure:"exclude-file"`
	Cache          *CacheConfig     `mapstructure:"cache"`
	History        *history.Config  `mapstructure:"history"`
	Outreach       *OutreachConfig  `mapstructure:"outreach"`
	Watch          *WatchConfig     `mapstructure:"watch"`
	AI             *AIConfig        `mapstructure:"ai"`
}

type DirectoryConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIURL      string        `mapstructure:"api-url"`
	UserAgent   string        `mapstructure:"user-agent"`
	TokenFile   string        `mapstructure:"token-file"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CallTimeout time.Duration `mapstructure:"call-timeout"`
}

type SearchConfig struct {
	Limit             int      `mapstructure:"limit"`
	RepoSampleSize    int      `mapstructure:"repo-sample-size"`
	FallbackLanguages []string `mapstructure:"fallback-languages"`
	MinFollowers      int      `mapstructure:"min-followers"`
}

type CacheConfig struct {
	RedisURL string        `mapstructure:"redis-url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type OutreachConfig struct {
	Mode      string             `mapstructure:"mode"`
	Recruiter outreach.Recruiter `mapstructure:"recruiter"`
}

type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "dev-sourcer finds developers for a hiring need and drafts outreach messages to them",
		// Command errors are already specific, usage would bury them.
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("directory.token-file", "GITHUB_TOKEN_FILE"); err != nil {
		log.Fatalf("binding GITHUB_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is dev-sourcer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("directory.provider", "github")
	viper.SetDefault("directory.timeout", 10*time.Second)
	viper.SetDefault("directory.call-timeout", 15*time.Second)
	viper.SetDefault("search.limit", sourcing.DefaultLimit)
	viper.SetDefault("search.repo-sample-size", sourcing.DefaultRepoSampleSize)
	viper.SetDefault("search.fallback-languages", sourcing.DefaultFallbackLanguages)
	viper.SetDefault("cache.ttl", time.Hour)
	viper.SetDefault("history.driver", string(history.DriverSQLite))
	viper.SetDefault("history.dsn", history.DefaultDSN)
	viper.SetDefault("outreach.mode", string(outreach.ModeTemplate))
	viper.SetDefault("outreach.recruiter.name", outreach.DefaultRecruiter.Name)
	viper.SetDefault("outreach.recruiter.company", outreach.DefaultRecruiter.Company)
	viper.SetDefault("watch.schedule", scheduler.DefaultSpec)
	viper.SetDefault("ai.provider", "gemini")
}

func initConfig() {
	// The version command works without any config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults are enough to run without a config file, but not with a broken one.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}

	return config, nil
}
