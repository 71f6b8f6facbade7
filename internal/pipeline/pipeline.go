// Package pipeline runs one keyword research pass: resolve geo targets,
// pull keyword ideas for a seed URL, and have a model categorize them
// against the blog text.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/keyword-cli/internal/export"
	"github.com/sells-group/keyword-cli/internal/geotarget"
	"github.com/sells-group/keyword-cli/internal/keywords"
	"github.com/sells-group/keyword-cli/internal/metrics"
	"github.com/sells-group/keyword-cli/internal/model"
	"github.com/sells-group/keyword-cli/internal/repair"
	"github.com/sells-group/keyword-cli/pkg/googleads"
)

var (
	// ErrMissingBlog is returned when the blog text is blank.
	ErrMissingBlog = eris.New("pipeline: blog text is required")
	// ErrMissingSeedURL is returned when the seed URL is blank.
	ErrMissingSeedURL = eris.New("pipeline: seed URL is required")
	// ErrNoGeoTargets is returned when no country resolved.
	ErrNoGeoTargets = eris.New("failed to resolve geo targets")
	// ErrNoKeywordIdeas is returned when the seed URL produced no ideas.
	ErrNoKeywordIdeas = eris.New("no keyword ideas returned for the seed URL")
)

// Resolver maps country names to geo-target resource names.
type Resolver interface {
	Resolve(ctx context.Context, names []string) ([]string, geotarget.Stats)
}

// Categorizer sorts keyword CSV data into a record. It never fails.
type Categorizer interface {
	Categorize(ctx context.Context, blog, csv string) repair.Record
}

// RunSaver persists finished runs.
type RunSaver interface {
	SaveRun(ctx context.Context, run *model.Run) error
}

// Request is one pipeline invocation.
type Request struct {
	Blog    string `json:"blog"`
	SeedURL string `json:"seed_url"`
	// Countries defaults to geotarget.DefaultCountries.
	Countries    []string `json:"countries,omitempty"`
	MaxKeywords  int      `json:"max_keywords,omitempty"`
	IncludeAdult bool     `json:"include_adult,omitempty"`
	// TopK bounds the ideas sent to the model; 0 means keywords.DefaultTopK.
	TopK int `json:"top_k,omitempty"`
	// Language is a BCP-47 tag or languageConstants id; blank means English.
	Language string `json:"language,omitempty"`
}

// Result is the output of a pipeline run.
type Result struct {
	RunID      string          `json:"run_id,omitempty"`
	Status     model.RunStatus `json:"status"`
	GeoTargets []string        `json:"geo_targets"`
	GeoStats   geotarget.Stats `json:"geo_stats"`
	Ideas      []keywords.Idea `json:"ideas"`
	CSV        string          `json:"-"`
	Record     repair.Record   `json:"record"`
	Warnings   []string        `json:"warnings,omitempty"`
	Duration   time.Duration   `json:"duration"`
}

// Pipeline wires the resolver, the ads client and the categorizer.
type Pipeline struct {
	resolver    Resolver
	ads         googleads.Client
	categorizer Categorizer
	customerID  string
	saver       RunSaver
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunSaver records every run that gets past validation.
func WithRunSaver(s RunSaver) Option {
	return func(p *Pipeline) {
		p.saver = s
	}
}

// New creates a Pipeline. customerID is the ads account queried for ideas.
func New(r Resolver, ads googleads.Client, c Categorizer, customerID string, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver:    r,
		ads:         ads,
		categorizer: c,
		customerID:  customerID,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Validate checks the request without calling any service.
func (req Request) Validate() error {
	if strings.TrimSpace(req.Blog) == "" {
		return ErrMissingBlog
	}
	if strings.TrimSpace(req.SeedURL) == "" {
		return ErrMissingSeedURL
	}
	if _, err := keywords.LanguageConstant(req.Language); err != nil {
		return eris.Wrap(err, "pipeline: invalid language")
	}
	return nil
}

// Run executes the full pipeline. A categorization failure is not an error:
// the result carries the error record and the status says so.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	log := zap.L().With(zap.String("seed_url", req.SeedURL))
	log.Info("pipeline: starting")

	result := &Result{}
	err := p.run(ctx, req, result, log)
	result.Duration = time.Since(start)

	run := &model.Run{
		SeedURL:    req.SeedURL,
		GeoTargets: result.GeoTargets,
		IdeaCount:  len(result.Ideas),
	}
	if err != nil {
		result.Status = model.RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Record = &result.Record
		if result.Record.IsError() {
			result.Status = model.RunStatusCategorizationFailed
			run.Error = result.Record.Error
		} else {
			result.Status = model.RunStatusSucceeded
		}
	}
	run.Status = result.Status
	p.save(ctx, run, log)
	result.RunID = run.ID

	metrics.PipelineRuns.WithLabelValues(string(result.Status)).Inc()
	log.Info("pipeline: finished",
		zap.String("status", string(result.Status)),
		zap.Int("geo_targets", len(result.GeoTargets)),
		zap.Int("ideas", len(result.Ideas)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", result.Duration),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, result *Result, log *zap.Logger) error {
	countries := req.Countries
	if len(countries) == 0 {
		countries = geotarget.DefaultCountries
	}

	// Phase 1: geo targets.
	err := phase(log, "resolve_geo_targets", func() error {
		targets, stats := p.resolver.Resolve(ctx, countries)
		result.GeoStats = stats
		if len(targets) == 0 {
			return ErrNoGeoTargets
		}
		if len(targets) > googleads.MaxGeoTargets {
			w := fmt.Sprintf("Too many geo targets (%d), limiting to first %d.", len(targets), googleads.MaxGeoTargets)
			log.Warn("pipeline: "+w)
			result.Warnings = append(result.Warnings, w)
			targets = targets[:googleads.MaxGeoTargets]
		}
		result.GeoTargets = targets
		return nil
	})
	if err != nil {
		return err
	}

	// Phase 2: keyword ideas.
	err = phase(log, "generate_keyword_ideas", func() error {
		lang, _ := keywords.LanguageConstant(req.Language)
		resp, err := p.ads.GenerateKeywordIdeas(ctx, googleads.KeywordIdeasRequest{
			CustomerID:   p.customerID,
			GeoTargets:   result.GeoTargets,
			Language:     lang,
			SeedURL:      req.SeedURL,
			IncludeAdult: req.IncludeAdult,
			MaxResults:   req.MaxKeywords,
		})
		if err != nil {
			return eris.Wrap(err, "pipeline: generate keyword ideas")
		}
		result.Warnings = append(result.Warnings, resp.Warnings...)
		result.Ideas = keywords.FromAds(resp.Ideas)
		metrics.KeywordIdeas.Observe(float64(len(result.Ideas)))
		if len(result.Ideas) == 0 {
			return ErrNoKeywordIdeas
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Phase 3: CSV exports. The model sees only the top ideas by volume.
	var snippet string
	err = phase(log, "build_csv", func() error {
		var err error
		if result.CSV, err = export.IdeasCSV(result.Ideas); err != nil {
			return eris.Wrap(err, "pipeline: build ideas csv")
		}
		if snippet, err = export.IdeasCSV(keywords.TopByVolume(result.Ideas, req.TopK)); err != nil {
			return eris.Wrap(err, "pipeline: build top ideas csv")
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Phase 4: categorization.
	_ = phase(log, "categorize", func() error {
		result.Record = p.categorizer.Categorize(ctx, req.Blog, snippet)
		if result.Record.IsError() {
			return eris.New(result.Record.Error)
		}
		return nil
	})
	return nil
}

// phase times fn and logs its outcome.
func phase(log *zap.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start).Milliseconds()
	if err != nil {
		log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
		return err
	}
	log.Info("pipeline: phase complete",
		zap.String("phase", name),
		zap.Int64("duration_ms", duration),
	)
	return nil
}

func (p *Pipeline) save(ctx context.Context, run *model.Run, log *zap.Logger) {
	if p.saver == nil {
		return
	}
	if err := p.saver.SaveRun(ctx, run); err != nil {
		log.Warn("pipeline: failed to save run", zap.Error(err))
		run.ID = ""
		return
	}
	log.Debug("pipeline: run saved", zap.String("run_id", run.ID))
}
