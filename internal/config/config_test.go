package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/members/", cfg.Directory.ProfilePathFragment)
	assert.Equal(t, "en-US,en;q=0.9", cfg.Directory.AcceptLanguage)
	assert.InDelta(t, 2.0, cfg.Directory.RequestsPerSec, 0.001)
	assert.Equal(t, 30, cfg.Directory.TimeoutSecs)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 1024, cfg.Anthropic.MaxTokens)
	assert.Equal(t, 0, cfg.Enrich.Concurrency)
	assert.Equal(t, "http_cache.db", cfg.Cache.Path)
	assert.Equal(t, 1, cfg.Cache.TTLHours)
	assert.Equal(t, "csv", cfg.Export.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
directory:
  listing_url: https://association.example/members
  requests_per_sec: 0.5
log:
  level: debug
  format: console
server:
  port: 9090
enrich:
  concurrency: 8
  country: Germany
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://association.example/members", cfg.Directory.ListingURL)
	assert.InDelta(t, 0.5, cfg.Directory.RequestsPerSec, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Enrich.Concurrency)
	assert.Equal(t, "Germany", cfg.Enrich.Country)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.Directory.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
export:
  format: csv
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FTC_LOG_LEVEL", "warn")
	t.Setenv("FTC_EXPORT_FORMAT", "xlsx")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "xlsx", cfg.Export.Format)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("FTC_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults mirrors Load's defaults for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Directory.RequestsPerSec = 2.0
	cfg.Enrich.Concurrency = 4
	cfg.Export.Format = "csv"
	cfg.Cache.TTLHours = 1
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateList(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory.listing_url is required")

	cfg.Directory.ListingURL = "https://association.example/members"
	assert.NoError(t, cfg.Validate("list"))
}

func TestValidateEnrich(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("enrich"))
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")

	cfg.Server.Port = 9090
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"

	cfg.Enrich.Concurrency = -1
	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrich.concurrency must be between 0 and 50")

	cfg.Enrich.Concurrency = 51
	err = cfg.Validate("enrich")
	require.Error(t, err)

	cfg.Enrich.Concurrency = 0
	assert.NoError(t, cfg.Validate("enrich"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateExportFormat(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"

	cfg.Export.Format = "pdf"
	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.format must be csv or xlsx")
}
