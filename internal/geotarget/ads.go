package geotarget

import (
	"context"

	"github.com/sells-group/keyword-cli/pkg/googleads"
)

// AdsSuggester adapts the ads client to Suggester.
type AdsSuggester struct {
	Client googleads.Client
}

// Suggest implements Suggester.
func (a AdsSuggester) Suggest(ctx context.Context, locale, name string) ([]Candidate, error) {
	suggestions, err := a.Client.SuggestGeoTargets(ctx, locale, name)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(suggestions))
	for _, s := range suggestions {
		gt := s.GeoTargetConstant
		out = append(out, Candidate{
			ResourceName: gt.ResourceName,
			TargetType:   gt.TargetType,
			Name:         gt.Name,
			CountryCode:  gt.CountryCode,
		})
	}
	return out, nil
}
