package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/keyword-cli/internal/categorize"
	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/internal/geotarget"
	"github.com/sells-group/keyword-cli/internal/keywords"
	"github.com/sells-group/keyword-cli/internal/pipeline"
	"github.com/sells-group/keyword-cli/internal/store"
	"github.com/sells-group/keyword-cli/pkg/anthropic"
	"github.com/sells-group/keyword-cli/pkg/googleads"
	"github.com/sells-group/keyword-cli/pkg/openai"
)

// initStore opens and migrates the configured run store.
func initStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "keywords.db"
		}
		s, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		st = s
	case "postgres":
		s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		st = s
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func adsCredentials(c config.AdsConfig) googleads.Credentials {
	return googleads.Credentials{
		DeveloperToken:  c.DeveloperToken,
		ClientID:        c.ClientID,
		ClientSecret:    c.ClientSecret,
		RefreshToken:    c.RefreshToken,
		LoginCustomerID: c.LoginCustomerID,
	}
}

func initAdsClient() (googleads.Client, error) {
	return googleads.NewClient(adsCredentials(cfg.Ads),
		googleads.WithBaseURL(cfg.Ads.BaseURL),
		googleads.WithAPIVersion(cfg.Ads.APIVersion),
		googleads.WithRateLimit(cfg.Ads.RequestsPerSecond),
	)
}

// initCompleter builds the configured categorization provider.
func initCompleter() (categorize.Completer, error) {
	switch cfg.LLM.Provider {
	case config.ProviderAnthropic:
		var opts []anthropic.Option
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		return categorize.Anthropic{
			Client:    anthropic.NewClient(cfg.Anthropic.Key, opts...),
			Model:     cfg.Anthropic.Model,
			MaxTokens: int64(cfg.LLM.MaxTokens),
		}, nil
	case config.ProviderOpenAI:
		return categorize.OpenAI{
			Client:    openai.NewClient(cfg.OpenAI.Key, openai.WithBaseURL(cfg.OpenAI.BaseURL)),
			Model:     cfg.OpenAI.Model,
			MaxTokens: cfg.LLM.MaxTokens,
		}, nil
	default:
		return nil, eris.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
}

// initGeoCache returns the configured cache. st may be nil for the file
// backend.
func initGeoCache(st store.Store) (geotarget.Cache, error) {
	switch cfg.Geo.CacheBackend {
	case config.CacheBackendFile:
		return geotarget.NewFileCache(cfg.Geo.CacheFile), nil
	case config.CacheBackendStore:
		if st == nil {
			return nil, eris.New("geo.cache_backend=store needs a store")
		}
		return geotarget.NewStoreCache(st), nil
	default:
		return nil, eris.Errorf("unsupported geo cache backend: %s", cfg.Geo.CacheBackend)
	}
}

func initResolver(ads googleads.Client, cache geotarget.Cache) (*geotarget.Resolver, error) {
	locale, err := keywords.Locale(cfg.Geo.Locale)
	if err != nil {
		return nil, err
	}
	return geotarget.NewResolver(geotarget.AdsSuggester{Client: ads}, cache, geotarget.WithLocale(locale)), nil
}

// keywordEnv holds everything generate and serve need.
type keywordEnv struct {
	Store       store.Store // nil when runs are not recorded
	Ads         googleads.Client
	Resolver    *geotarget.Resolver
	Categorizer *categorize.Categorizer
	Pipeline    *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *keywordEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initKeywordEnv builds clients, cache, resolver and pipeline. withStore
// opens the run store; the store cache backend forces it on.
func initKeywordEnv(ctx context.Context, withStore bool) (*keywordEnv, error) {
	env := &keywordEnv{}
	if withStore || cfg.Geo.CacheBackend == config.CacheBackendStore {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}

	fail := func(err error) (*keywordEnv, error) {
		env.Close()
		return nil, err
	}

	ads, err := initAdsClient()
	if err != nil {
		return fail(err)
	}
	env.Ads = ads

	cache, err := initGeoCache(env.Store)
	if err != nil {
		return fail(err)
	}
	if env.Resolver, err = initResolver(ads, cache); err != nil {
		return fail(err)
	}

	completer, err := initCompleter()
	if err != nil {
		return fail(err)
	}
	env.Categorizer = categorize.New(completer)

	var opts []pipeline.Option
	if env.Store != nil && withStore {
		opts = append(opts, pipeline.WithRunSaver(env.Store))
	} else {
		zap.L().Debug("run history disabled")
	}
	env.Pipeline = pipeline.New(env.Resolver, ads, env.Categorizer, cfg.Ads.CustomerID, opts...)
	return env, nil
}

// baseRequest fills a pipeline request from configuration.
func baseRequest() pipeline.Request {
	return pipeline.Request{
		Countries:    cfg.Geo.Countries,
		MaxKeywords:  cfg.Keywords.MaxResults,
		IncludeAdult: cfg.Keywords.IncludeAdult,
		TopK:         cfg.Keywords.TopK,
		Language:     cfg.Keywords.Language,
	}
}
