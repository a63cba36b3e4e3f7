package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DirectoryConfig configures the membership directory scrape.
type DirectoryConfig struct {
	ListingURL           string  `yaml:"listing_url" mapstructure:"listing_url"`
	ProfilePathFragment  string  `yaml:"profile_path_fragment" mapstructure:"profile_path_fragment"`
	ListContainerHint    string  `yaml:"list_container_hint" mapstructure:"list_container_hint"`
	ProfileContainerHint string  `yaml:"profile_container_hint" mapstructure:"profile_container_hint"`
	SynonymsPath         string  `yaml:"synonyms_path" mapstructure:"synonyms_path"`
	UserAgent            string  `yaml:"user_agent" mapstructure:"user_agent"`
	AcceptLanguage       string  `yaml:"accept_language" mapstructure:"accept_language"`
	RequestsPerSec       float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	TimeoutSecs          int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EnrichConfig configures the enrichment pass over the company list.
type EnrichConfig struct {
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	Country     string `yaml:"country" mapstructure:"country"`
	City        string `yaml:"city" mapstructure:"city"`
}

// CacheConfig configures the local HTTP response cache.
type CacheConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// ExportConfig configures result output.
type ExportConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FTC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("directory.profile_path_fragment", "/members/")
	v.SetDefault("directory.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("directory.accept_language", "en-US,en;q=0.9")
	v.SetDefault("directory.requests_per_sec", 2.0)
	v.SetDefault("directory.timeout_secs", 30)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("enrich.concurrency", 0)
	v.SetDefault("cache.path", "http_cache.db")
	v.SetDefault("cache.ttl_hours", 1)
	v.SetDefault("export.path", "results.csv")
	v.SetDefault("export.format", "csv")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that settings required for the given mode are present.
// Modes: "list", "enrich", "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "list":
		if c.Directory.ListingURL == "" {
			problems = append(problems, "directory.listing_url is required")
		}
	case "enrich":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "serve":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	// Concurrency 0 means "pick a sensible default at runtime".
	if c.Enrich.Concurrency < 0 || c.Enrich.Concurrency > 50 {
		problems = append(problems, "enrich.concurrency must be between 0 and 50")
	}
	if c.Export.Format != "csv" && c.Export.Format != "xlsx" {
		problems = append(problems, "export.format must be csv or xlsx")
	}
	if c.Cache.TTLHours < 0 {
		problems = append(problems, "cache.ttl_hours must be >= 0")
	}
	if c.Directory.RequestsPerSec <= 0 {
		problems = append(problems, "directory.requests_per_sec must be > 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
