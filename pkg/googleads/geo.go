package googleads

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// GeoTargetConstant is a targetable location.
type GeoTargetConstant struct {
	ResourceName  string `json:"resourceName"`
	ID            Int64  `json:"id"`
	Name          string `json:"name"`
	CountryCode   string `json:"countryCode"`
	TargetType    string `json:"targetType"`
	Status        string `json:"status"`
	CanonicalName string `json:"canonicalName"`
}

// GeoTargetSuggestion is one match for a suggested location name.
type GeoTargetSuggestion struct {
	Locale            string            `json:"locale"`
	Reach             Int64             `json:"reach"`
	SearchTerm        string            `json:"searchTerm"`
	GeoTargetConstant GeoTargetConstant `json:"geoTargetConstant"`
}

type suggestRequest struct {
	Locale        string        `json:"locale"`
	LocationNames locationNames `json:"locationNames"`
}

type locationNames struct {
	Names []string `json:"names"`
}

type suggestResponse struct {
	Suggestions []GeoTargetSuggestion `json:"geoTargetConstantSuggestions"`
}

// SuggestGeoTargets returns the API's suggestions for a single location name.
func (c *httpClient) SuggestGeoTargets(ctx context.Context, locale, name string) ([]GeoTargetSuggestion, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eris.New("googleads: location name is required")
	}

	var resp suggestResponse
	body := suggestRequest{Locale: locale, LocationNames: locationNames{Names: []string{name}}}
	if err := c.post(ctx, "suggest_geo_targets", "/geoTargetConstants:suggest", body, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}
