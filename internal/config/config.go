// Package config loads keyword-cli settings from config.yaml, a .env file
// and KEYWORD_* environment variables.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Ads       AdsConfig       `yaml:"ads" mapstructure:"ads"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Geo       GeoConfig       `yaml:"geo" mapstructure:"geo"`
	Keywords  KeywordsConfig  `yaml:"keywords" mapstructure:"keywords"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AdsConfig holds Google Ads API credentials and transport settings.
type AdsConfig struct {
	DeveloperToken    string  `yaml:"developer_token" mapstructure:"developer_token"`
	ClientID          string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret      string  `yaml:"client_secret" mapstructure:"client_secret"`
	RefreshToken      string  `yaml:"refresh_token" mapstructure:"refresh_token"`
	CustomerID        string  `yaml:"customer_id" mapstructure:"customer_id"`
	LoginCustomerID   string  `yaml:"login_customer_id" mapstructure:"login_customer_id"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	APIVersion        string  `yaml:"api_version" mapstructure:"api_version"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// LLMConfig selects the categorization provider.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GeoConfig configures geo-target resolution and its cache.
type GeoConfig struct {
	Locale       string   `yaml:"locale" mapstructure:"locale"`
	CacheBackend string   `yaml:"cache_backend" mapstructure:"cache_backend"`
	CacheFile    string   `yaml:"cache_file" mapstructure:"cache_file"`
	Countries    []string `yaml:"countries" mapstructure:"countries"`
}

// KeywordsConfig configures keyword idea generation.
type KeywordsConfig struct {
	Language     string `yaml:"language" mapstructure:"language"`
	MaxResults   int    `yaml:"max_results" mapstructure:"max_results"`
	TopK         int    `yaml:"top_k" mapstructure:"top_k"`
	IncludeAdult bool   `yaml:"include_adult" mapstructure:"include_adult"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Provider names accepted by llm.provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Cache backends accepted by geo.cache_backend.
const (
	CacheBackendFile  = "file"
	CacheBackendStore = "store"
)

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("KEYWORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so every env-settable key
	// needs a default or an explicit bind.
	for _, key := range []string{
		"ads.developer_token", "ads.client_id", "ads.client_secret",
		"ads.refresh_token", "ads.customer_id", "ads.login_customer_id",
		"anthropic.key", "anthropic.base_url",
		"openai.key", "openai.base_url",
		"store.database_url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	// Defaults
	v.SetDefault("ads.base_url", "https://googleads.googleapis.com")
	v.SetDefault("ads.api_version", "v20")
	v.SetDefault("ads.requests_per_second", 5.0)
	v.SetDefault("llm.provider", ProviderAnthropic)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("openai.model", "gpt-5.2-2025-12-11")
	v.SetDefault("geo.locale", "en")
	v.SetDefault("geo.cache_backend", CacheBackendFile)
	v.SetDefault("geo.cache_file", "geo_target_cache.json")
	v.SetDefault("geo.countries", []string{})
	v.SetDefault("keywords.language", "en")
	v.SetDefault("keywords.max_results", 2000)
	v.SetDefault("keywords.top_k", 500)
	v.SetDefault("keywords.include_adult", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
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

// Validate checks the keys a command mode needs. Modes: generate, geo,
// categorize, serve, runs.
func (c *Config) Validate(mode string) error {
	var errs []string
	require := func(val, key string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, key+" is required")
		}
	}

	adsKeys := func() {
		require(c.Ads.DeveloperToken, "ads.developer_token")
		require(c.Ads.ClientID, "ads.client_id")
		require(c.Ads.ClientSecret, "ads.client_secret")
		require(c.Ads.RefreshToken, "ads.refresh_token")
	}
	llmKeys := func() {
		switch c.LLM.Provider {
		case ProviderAnthropic:
			require(c.Anthropic.Key, "anthropic.key")
		case ProviderOpenAI:
			require(c.OpenAI.Key, "openai.key")
		default:
			errs = append(errs, "llm.provider must be anthropic or openai")
		}
	}
	storeKeys := func() {
		switch c.Store.Driver {
		case "sqlite":
		case "postgres":
			require(c.Store.DatabaseURL, "store.database_url")
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
	}
	geoKeys := func() {
		if c.Geo.CacheBackend != CacheBackendFile && c.Geo.CacheBackend != CacheBackendStore {
			errs = append(errs, "geo.cache_backend must be file or store")
		}
		if c.Geo.CacheBackend == CacheBackendFile {
			require(c.Geo.CacheFile, "geo.cache_file")
		}
	}

	switch mode {
	case "generate":
		adsKeys()
		require(c.Ads.CustomerID, "ads.customer_id")
		llmKeys()
		geoKeys()
		if c.Keywords.MaxResults < 0 {
			errs = append(errs, "keywords.max_results must be >= 0")
		}
		if c.Keywords.TopK < 0 {
			errs = append(errs, "keywords.top_k must be >= 0")
		}
	case "geo":
		adsKeys()
		geoKeys()
	case "categorize":
		llmKeys()
	case "serve":
		adsKeys()
		require(c.Ads.CustomerID, "ads.customer_id")
		llmKeys()
		geoKeys()
		storeKeys()
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "runs":
		storeKeys()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
