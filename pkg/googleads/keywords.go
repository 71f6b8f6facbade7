package googleads

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// MaxGeoTargets is the most geo targets one keyword-ideas request accepts.
	MaxGeoTargets = 10
	// DefaultMaxResults bounds the number of ideas collected across pages.
	DefaultMaxResults = 2000
	// DefaultLanguage is English.
	DefaultLanguage = "languageConstants/1000"
	// DefaultPageSize is the page size requested per call.
	DefaultPageSize = 1000

	networkGoogleSearch = "GOOGLE_SEARCH"
)

var geoTargetPattern = regexp.MustCompile(`^geoTargetConstants/\d+$`)

// KeywordIdeasRequest describes a keyword-ideas query seeded by one URL.
type KeywordIdeasRequest struct {
	CustomerID string
	GeoTargets []string
	// Language is a languageConstants resource name or bare id.
	Language     string
	SeedURL      string
	IncludeAdult bool
	MaxResults   int
}

// KeywordIdea is one idea with its historical metrics.
type KeywordIdea struct {
	Text    string              `json:"text"`
	Metrics *KeywordIdeaMetrics `json:"keywordIdeaMetrics,omitempty"`
}

// KeywordIdeaMetrics holds the planner metrics for an idea. Pointer fields
// are nil when the API omitted them.
type KeywordIdeaMetrics struct {
	Competition            string                `json:"competition,omitempty"`
	MonthlySearchVolumes   []MonthlySearchVolume `json:"monthlySearchVolumes,omitempty"`
	AvgMonthlySearches     *Int64                `json:"avgMonthlySearches,omitempty"`
	CompetitionIndex       *Int64                `json:"competitionIndex,omitempty"`
	LowTopOfPageBidMicros  *Int64                `json:"lowTopOfPageBidMicros,omitempty"`
	HighTopOfPageBidMicros *Int64                `json:"highTopOfPageBidMicros,omitempty"`
}

// MonthlySearchVolume is the search count for one calendar month.
type MonthlySearchVolume struct {
	Month           string `json:"month"`
	Year            Int64  `json:"year"`
	MonthlySearches *Int64 `json:"monthlySearches,omitempty"`
}

// KeywordIdeasResponse is the collected result of a paged query.
type KeywordIdeasResponse struct {
	Ideas []KeywordIdea
	// GeoTargets are the targets actually sent after validation.
	GeoTargets []string
	Warnings   []string
	TotalSize  int64
}

type urlSeed struct {
	URL string `json:"url"`
}

type keywordIdeasBody struct {
	Language             string   `json:"language"`
	GeoTargetConstants   []string `json:"geoTargetConstants"`
	IncludeAdultKeywords bool     `json:"includeAdultKeywords"`
	KeywordPlanNetwork   string   `json:"keywordPlanNetwork"`
	URLSeed              urlSeed  `json:"urlSeed"`
	PageSize             int      `json:"pageSize,omitempty"`
	PageToken            string   `json:"pageToken,omitempty"`
}

type keywordIdeasPage struct {
	Results       []KeywordIdea `json:"results"`
	NextPageToken string        `json:"nextPageToken"`
	TotalSize     Int64         `json:"totalSize"`
}

// PrepareKeywordIdeasRequest validates and normalizes req. Warnings report
// geo targets that were skipped or truncated.
func PrepareKeywordIdeasRequest(req KeywordIdeasRequest) (KeywordIdeasRequest, []string, error) {
	var warnings []string

	cid, err := NormalizeCustomerID(req.CustomerID)
	if err != nil {
		return req, nil, err
	}
	req.CustomerID = cid

	targets, geoWarnings, err := NormalizeGeoTargets(req.GeoTargets)
	if err != nil {
		return req, geoWarnings, err
	}
	req.GeoTargets = targets
	warnings = append(warnings, geoWarnings...)

	seed, err := NormalizeSeedURL(req.SeedURL)
	if err != nil {
		return req, warnings, err
	}
	req.SeedURL = seed

	req.Language = normalizeLanguage(req.Language)
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}
	return req, warnings, nil
}

// NormalizeCustomerID strips dashes and requires exactly 10 digits.
func NormalizeCustomerID(raw string) (string, error) {
	id := strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
	if id == "" {
		return "", ErrMissingCustomerID
	}
	if len(id) != 10 || !isDigits(id) {
		return "", eris.Wrapf(ErrInvalidCustomerID, "googleads: got %q", raw)
	}
	return id, nil
}

// NormalizeGeoTargets drops blanks and duplicates (keeping order), skips
// malformed resource names and keeps at most MaxGeoTargets.
func NormalizeGeoTargets(raw []string) ([]string, []string, error) {
	if len(raw) == 0 {
		return nil, nil, ErrNoGeoTargets
	}

	var warnings []string
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, gt := range raw {
		gt = strings.TrimSpace(gt)
		if gt == "" || seen[gt] {
			continue
		}
		seen[gt] = true
		if !geoTargetPattern.MatchString(gt) {
			warnings = append(warnings, fmt.Sprintf("invalid geo target format skipped: %s", gt))
			continue
		}
		out = append(out, gt)
	}

	if len(out) == 0 {
		return nil, warnings, ErrNoValidGeoTargets
	}
	if len(out) > MaxGeoTargets {
		warnings = append(warnings, fmt.Sprintf("limiting geo targets to %d (API maximum); had %d, using the first %d",
			MaxGeoTargets, len(out), MaxGeoTargets))
		out = out[:MaxGeoTargets]
	}
	return out, warnings, nil
}

// NormalizeSeedURL prepends https:// when the scheme is missing and requires
// a host.
func NormalizeSeedURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrMissingSeedURL
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", eris.Wrapf(ErrInvalidSeedURL, "googleads: %q", raw)
	}
	return s, nil
}

func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	switch {
	case lang == "":
		return DefaultLanguage
	case strings.HasPrefix(lang, "languageConstants/"):
		return lang
	default:
		return "languageConstants/" + lang
	}
}

// GenerateKeywordIdeas validates req, then pages through keyword ideas
// until MaxResults ideas are collected or the API has no more pages.
func (c *httpClient) GenerateKeywordIdeas(ctx context.Context, req KeywordIdeasRequest) (*KeywordIdeasResponse, error) {
	req, warnings, err := PrepareKeywordIdeasRequest(req)
	for _, w := range warnings {
		zap.L().Warn("keyword ideas request", zap.String("warning", w))
	}
	if err != nil {
		return nil, err
	}

	pageSize := DefaultPageSize
	if req.MaxResults < pageSize {
		pageSize = req.MaxResults
	}
	body := keywordIdeasBody{
		Language:             req.Language,
		GeoTargetConstants:   req.GeoTargets,
		IncludeAdultKeywords: req.IncludeAdult,
		KeywordPlanNetwork:   networkGoogleSearch,
		URLSeed:              urlSeed{URL: req.SeedURL},
		PageSize:             pageSize,
	}

	out := &KeywordIdeasResponse{GeoTargets: req.GeoTargets, Warnings: warnings}
	path := "/customers/" + req.CustomerID + ":generateKeywordIdeas"
	for {
		var page keywordIdeasPage
		if err := c.post(ctx, "generate_keyword_ideas", path, body, &page); err != nil {
			return nil, err
		}
		out.Ideas = append(out.Ideas, page.Results...)
		if out.TotalSize == 0 {
			out.TotalSize = int64(page.TotalSize)
		}
		if len(out.Ideas) >= req.MaxResults || page.NextPageToken == "" || len(page.Results) == 0 {
			break
		}
		body.PageToken = page.NextPageToken
	}

	if len(out.Ideas) > req.MaxResults {
		out.Ideas = out.Ideas[:req.MaxResults]
	}
	return out, nil
}
