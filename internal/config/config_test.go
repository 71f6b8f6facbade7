package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp moves into an empty temp dir so no config.yaml or .env is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://googleads.googleapis.com", cfg.Ads.BaseURL)
	assert.Equal(t, "v20", cfg.Ads.APIVersion)
	assert.InDelta(t, 5.0, cfg.Ads.RequestsPerSecond, 0.001)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, "gpt-5.2-2025-12-11", cfg.OpenAI.Model)
	assert.Equal(t, "en", cfg.Geo.Locale)
	assert.Equal(t, CacheBackendFile, cfg.Geo.CacheBackend)
	assert.Equal(t, "geo_target_cache.json", cfg.Geo.CacheFile)
	assert.Empty(t, cfg.Geo.Countries)
	assert.Equal(t, "en", cfg.Keywords.Language)
	assert.Equal(t, 2000, cfg.Keywords.MaxResults)
	assert.Equal(t, 500, cfg.Keywords.TopK)
	assert.False(t, cfg.Keywords.IncludeAdult)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/keywords
log:
  level: debug
  format: console
geo:
  cache_backend: store
  countries:
    - Canada
    - Jamaica
keywords:
  top_k: 100
  include_adult: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/keywords", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, CacheBackendStore, cfg.Geo.CacheBackend)
	assert.Equal(t, []string{"Canada", "Jamaica"}, cfg.Geo.Countries)
	assert.Equal(t, 100, cfg.Keywords.TopK)
	assert.True(t, cfg.Keywords.IncludeAdult)
	// Defaults still apply for unset values
	assert.Equal(t, 2000, cfg.Keywords.MaxResults)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("KEYWORD_STORE_DRIVER", "postgres")
	t.Setenv("KEYWORD_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvSecretsWithoutDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("KEYWORD_ADS_DEVELOPER_TOKEN", "dev-token")
	t.Setenv("KEYWORD_ADS_CUSTOMER_ID", "123-456-7890")
	t.Setenv("KEYWORD_ANTHROPIC_KEY", "sk-ant-test")
	t.Setenv("KEYWORD_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev-token", cfg.Ads.DeveloperToken)
	assert.Equal(t, "123-456-7890", cfg.Ads.CustomerID)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("KEYWORD_OPENAI_KEY=sk-from-dotenv\nKEYWORD_LLM_PROVIDER=openai\n"), 0600))
	t.Cleanup(func() {
		os.Unsetenv("KEYWORD_OPENAI_KEY")
		os.Unsetenv("KEYWORD_LLM_PROVIDER")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-dotenv", cfg.OpenAI.Key)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config that passes every mode.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Ads = AdsConfig{
		DeveloperToken: "dev-token",
		ClientID:       "client.apps.googleusercontent.com",
		ClientSecret:   "secret",
		RefreshToken:   "1//refresh",
		CustomerID:     "1234567890",
	}
	cfg.LLM.Provider = ProviderAnthropic
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Geo.CacheBackend = CacheBackendFile
	cfg.Geo.CacheFile = "geo_target_cache.json"
	cfg.Store.Driver = "sqlite"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModesPass(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"generate", "geo", "categorize", "serve", "runs"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateGenerate_MissingFields(t *testing.T) {
	cfg := &Config{}
	cfg.LLM.Provider = ProviderAnthropic
	cfg.Geo.CacheBackend = CacheBackendFile
	cfg.Geo.CacheFile = "c.json"

	err := cfg.Validate("generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ads.developer_token is required")
	assert.Contains(t, err.Error(), "ads.refresh_token is required")
	assert.Contains(t, err.Error(), "ads.customer_id is required")
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateCategorize_OpenAIProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.LLM.Provider = ProviderOpenAI

	err := cfg.Validate("categorize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai.key is required")

	cfg.OpenAI.Key = "sk-openai"
	assert.NoError(t, cfg.Validate("categorize"))
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.LLM.Provider = "mistral"

	err := cfg.Validate("categorize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider must be anthropic or openai")
}

func TestValidateGeo_CacheBackend(t *testing.T) {
	cfg := validDefaults()
	cfg.Geo.CacheBackend = "redis"

	err := cfg.Validate("geo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geo.cache_backend must be file or store")
}

func TestValidateRuns_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/keywords"
	assert.NoError(t, cfg.Validate("runs"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
