package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Reasoner   ReasonerConfig   `yaml:"reasoner" mapstructure:"reasoner"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// StoreConfig configures the job store backend. Path applies to the sqlite
// driver, DatabaseURL and the pool bounds to postgres.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SearchConfig holds custom-search API credentials and per-tier index ids.
// Key and BaselineIndex are mandatory for every request; the Tier-2 indexes
// are optional and their absence silently disables the matching source.
type SearchConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	BaselineIndex   string  `yaml:"baseline_index" mapstructure:"baseline_index"`
	PainIndex       string  `yaml:"pain_index" mapstructure:"pain_index"`
	CompetitorIndex string  `yaml:"competitor_index" mapstructure:"competitor_index"`
	TechIndex       string  `yaml:"tech_index" mapstructure:"tech_index"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxResults      int     `yaml:"max_results" mapstructure:"max_results"`
}

// ReasonerConfig selects and configures the qualification model provider.
type ReasonerConfig struct {
	Provider    string          `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs int             `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Gemini      GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic   AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
}

// GeminiConfig holds generative-language API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RetryConfig configures the retry executor around outbound calls.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
}

// PipelineConfig configures orchestrator budgets per invocation mode.
type PipelineConfig struct {
	SyncBatchSize         int `yaml:"sync_batch_size" mapstructure:"sync_batch_size"`
	BackgroundBatchSize   int `yaml:"background_batch_size" mapstructure:"background_batch_size"`
	SyncTimeoutSecs       int `yaml:"sync_timeout_secs" mapstructure:"sync_timeout_secs"`
	BackgroundTimeoutSecs int `yaml:"background_timeout_secs" mapstructure:"background_timeout_secs"`
}

// EnrichConfig configures the enrichment fan-out.
type EnrichConfig struct {
	Concurrency      int    `yaml:"concurrency" mapstructure:"concurrency"`
	ProbeTimeoutSecs int    `yaml:"probe_timeout_secs" mapstructure:"probe_timeout_secs"`
	ScoringPath      string `yaml:"scoring_path" mapstructure:"scoring_path"`
}

// SalesforceConfig holds Salesforce JWT auth settings for lead export.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// Load reads configuration from file and environment. An empty path searches
// for an optional config.yaml in the working directory; a non-empty path
// names a file that must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("LEADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "leadscout.db")
	v.SetDefault("search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.timeout_secs", 10)
	v.SetDefault("search.rate_limit", 5.0)
	v.SetDefault("search.max_results", 10)
	v.SetDefault("reasoner.provider", "gemini")
	v.SetDefault("reasoner.timeout_secs", 30)
	v.SetDefault("reasoner.gemini.model", "gemini-2.0-flash")
	v.SetDefault("reasoner.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("reasoner.anthropic.max_tokens", 4096)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 500)
	v.SetDefault("retry.max_delay_ms", 30000)
	v.SetDefault("pipeline.sync_batch_size", 3)
	v.SetDefault("pipeline.background_batch_size", 8)
	v.SetDefault("pipeline.sync_timeout_secs", 25)
	v.SetDefault("pipeline.background_timeout_secs", 300)
	v.SetDefault("enrich.concurrency", 8)
	v.SetDefault("enrich.probe_timeout_secs", 5)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")

	// Read config file (optional unless explicitly named)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks structural sanity for the given run mode ("serve",
// "discover", or "export"). Upstream credentials are deliberately not
// checked here: the baseline search credential is enforced per request so
// its absence surfaces as a configuration error to the caller, and Tier-2
// credentials are optional by contract.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
			errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
		}
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	case "discover":
		// One-shot runs need no server or store.
	case "export":
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry.max_attempts must be >= 1")
	}
	if c.Pipeline.SyncBatchSize < 1 {
		errs = append(errs, "pipeline.sync_batch_size must be >= 1")
	}
	if c.Pipeline.BackgroundBatchSize < 1 {
		errs = append(errs, "pipeline.background_batch_size must be >= 1")
	}
	if c.Enrich.Concurrency < 1 || c.Enrich.Concurrency > 50 {
		errs = append(errs, "enrich.concurrency must be between 1 and 50")
	}
	if c.Search.MaxResults < 1 {
		errs = append(errs, "search.max_results must be >= 1")
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
