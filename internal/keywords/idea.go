// Package keywords holds the keyword-idea model shared by the pipeline,
// exports and the categorizer.
package keywords

import (
	"sort"
	"strings"

	"github.com/sells-group/keyword-cli/pkg/googleads"
)

// DefaultTopK is how many ideas are sent to the categorizer.
const DefaultTopK = 500

// Competition levels. UNKNOWN is used when the API omits the metric.
const (
	CompetitionLow     = "LOW"
	CompetitionMedium  = "MEDIUM"
	CompetitionHigh    = "HIGH"
	CompetitionUnknown = "UNKNOWN"
)

// MonthlyVolume is the search count for one calendar month.
type MonthlyVolume struct {
	Year     int64  `json:"year"`
	Month    string `json:"month"`
	Searches *int64 `json:"monthly_searches,omitempty"`
}

// Idea is a keyword idea with the metrics the exports need.
type Idea struct {
	Keyword                string          `json:"keyword"`
	AvgMonthlySearches     int64           `json:"avg_monthly_searches"`
	Competition            string          `json:"competition"`
	CompetitionIndex       *int64          `json:"competition_index,omitempty"`
	LowTopOfPageBidMicros  *int64          `json:"low_top_of_page_bid_micros,omitempty"`
	HighTopOfPageBidMicros *int64          `json:"high_top_of_page_bid_micros,omitempty"`
	MonthlyBreakdown       []MonthlyVolume `json:"monthly_breakdown,omitempty"`
}

// FromAds converts API results. A zero metric is treated like an absent one,
// so optional columns stay empty rather than showing 0.
func FromAds(results []googleads.KeywordIdea) []Idea {
	out := make([]Idea, 0, len(results))
	for _, r := range results {
		idea := Idea{Keyword: r.Text, Competition: CompetitionUnknown}
		m := r.Metrics
		if m == nil {
			out = append(out, idea)
			continue
		}
		if m.AvgMonthlySearches != nil {
			idea.AvgMonthlySearches = int64(*m.AvgMonthlySearches)
		}
		idea.Competition = normalizeCompetition(m.Competition)
		idea.CompetitionIndex = nonZero(m.CompetitionIndex)
		idea.LowTopOfPageBidMicros = nonZero(m.LowTopOfPageBidMicros)
		idea.HighTopOfPageBidMicros = nonZero(m.HighTopOfPageBidMicros)
		for _, v := range m.MonthlySearchVolumes {
			mv := MonthlyVolume{Year: int64(v.Year), Month: v.Month}
			if v.MonthlySearches != nil {
				n := int64(*v.MonthlySearches)
				mv.Searches = &n
			}
			idea.MonthlyBreakdown = append(idea.MonthlyBreakdown, mv)
		}
		out = append(out, idea)
	}
	return out
}

func nonZero(v *googleads.Int64) *int64 {
	if v == nil || *v == 0 {
		return nil
	}
	n := int64(*v)
	return &n
}

func normalizeCompetition(c string) string {
	switch strings.ToUpper(strings.TrimSpace(c)) {
	case CompetitionLow:
		return CompetitionLow
	case CompetitionMedium:
		return CompetitionMedium
	case CompetitionHigh:
		return CompetitionHigh
	default:
		return CompetitionUnknown
	}
}

// TopByVolume returns up to k ideas ordered by average monthly searches,
// highest first. Ties keep their input order. k <= 0 means DefaultTopK.
func TopByVolume(ideas []Idea, k int) []Idea {
	if k <= 0 {
		k = DefaultTopK
	}
	sorted := make([]Idea, len(ideas))
	copy(sorted, ideas)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AvgMonthlySearches > sorted[j].AvgMonthlySearches
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}
