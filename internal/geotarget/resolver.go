// Package geotarget resolves place names to ads geo-target resource names
// through a persistent cache and a remote suggestion service.
package geotarget

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/keyword-cli/internal/metrics"
)

// DefaultLocale is the locale sent with suggestion queries.
const DefaultLocale = "en"

// Target type classifications used by the tie-break policy.
const (
	TypeCountry  = "COUNTRY"
	TypeProvince = "PROVINCE"
)

// ErrNoCandidates is returned by lookups that got an empty suggestion list.
var ErrNoCandidates = eris.New("geotarget: no suggestions returned")

// Candidate is one suggestion returned for a place name.
type Candidate struct {
	ResourceName string
	TargetType   string
	Name         string
	CountryCode  string
}

// Suggester queries the remote suggestion service for a single name.
type Suggester interface {
	Suggest(ctx context.Context, locale, name string) ([]Candidate, error)
}

// Stats summarizes a resolution batch.
type Stats struct {
	Requested int `json:"requested"`
	CacheHits int `json:"cache_hits"`
	Resolved  int `json:"resolved"`
	Failed    int `json:"failed"`
}

// Resolver maps place names to resource names, cache first.
//
// A Resolver is not safe for concurrent Resolve calls on the same cache.
type Resolver struct {
	suggester Suggester
	cache     Cache
	locale    string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLocale overrides DefaultLocale.
func WithLocale(locale string) Option {
	return func(r *Resolver) {
		if locale != "" {
			r.locale = locale
		}
	}
}

// NewResolver builds a Resolver over the given suggestion service and cache.
func NewResolver(s Suggester, c Cache, opts ...Option) *Resolver {
	r := &Resolver{suggester: s, cache: c, locale: DefaultLocale}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the resource names of every name that resolved, in input
// order with duplicates removed. Per-name failures are logged and skipped;
// callers that need a minimum count must check the result length.
func (r *Resolver) Resolve(ctx context.Context, names []string) ([]string, Stats) {
	stats := Stats{Requested: len(names)}
	log := zap.L().With(zap.String("component", "geotarget"))

	if err := r.cache.Load(ctx); err != nil {
		log.Warn("geo target cache unreadable, starting empty", zap.Error(err))
	}

	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	failed := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	for _, name := range names {
		if name == "" {
			continue
		}

		if id, ok := r.cache.Get(name); ok {
			stats.CacheHits++
			metrics.GeoLookups.WithLabelValues("cache_hit").Inc()
			add(id)
			continue
		}
		if failed[name] {
			stats.Failed++
			continue
		}

		id, err := r.lookup(ctx, name)
		if err != nil {
			failed[name] = true
			stats.Failed++
			if eris.Is(err, ErrNoCandidates) {
				metrics.GeoLookups.WithLabelValues("no_candidates").Inc()
				log.Warn("could not resolve geo target: no suggestions returned", zap.String("name", name))
			} else {
				metrics.GeoLookups.WithLabelValues("error").Inc()
				log.Warn("could not resolve geo target", zap.String("name", name), zap.Error(err))
			}
			continue
		}

		r.cache.Put(name, id)
		stats.Resolved++
		metrics.GeoLookups.WithLabelValues("resolved").Inc()
		add(id)
	}

	if err := r.cache.Flush(ctx); err != nil {
		log.Warn("could not save geo target cache", zap.Error(err))
	}

	log.Info("geo targets resolved",
		zap.Int("requested", stats.Requested),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Int("resolved", stats.Resolved),
		zap.Int("failed", stats.Failed),
	)
	return out, stats
}

func (r *Resolver) lookup(ctx context.Context, name string) (string, error) {
	candidates, err := r.suggester.Suggest(ctx, r.locale, name)
	if err != nil {
		return "", eris.Wrapf(err, "geotarget: suggest %q", name)
	}
	best, ok := SelectCandidate(candidates)
	if !ok {
		return "", ErrNoCandidates
	}
	return best.ResourceName, nil
}

// SelectCandidate applies the tie-break policy: the first country-level
// candidate, else the first province-level one, else the first candidate.
// Candidates without a resource name are ignored.
func SelectCandidate(candidates []Candidate) (Candidate, bool) {
	usable := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ResourceName != "" {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return Candidate{}, false
	}

	for _, want := range []string{TypeCountry, TypeProvince} {
		for _, c := range usable {
			if strings.Contains(strings.ToUpper(c.TargetType), want) {
				return c, true
			}
		}
	}
	return usable[0], true
}
