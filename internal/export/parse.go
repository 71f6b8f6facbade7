package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/keyword-cli/internal/keywords"
)

// ParseIdeasCSV decodes a CSV produced by IdeasCSV. Empty cells in the
// optional columns decode as absent values.
func ParseIdeasCSV(data string) ([]keywords.Idea, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var rows []ideaRow
	if err := csvutil.Unmarshal([]byte(data), &rows); err != nil {
		return nil, eris.Wrap(err, "export: decode ideas csv")
	}

	ideas := make([]keywords.Idea, 0, len(rows))
	for _, r := range rows {
		ideas = append(ideas, keywords.Idea{
			Keyword:                r.Keyword,
			AvgMonthlySearches:     r.AvgMonthlySearches,
			Competition:            r.Competition,
			CompetitionIndex:       r.CompetitionIndex,
			LowTopOfPageBidMicros:  r.LowTopOfPageBidMicros,
			HighTopOfPageBidMicros: r.HighTopOfPageBidMicros,
		})
	}
	return ideas, nil
}

// IdeasFromTable decodes string rows, header first, as ReadIdeasXLSX returns
// them. Short rows are padded with empty cells.
func IdeasFromTable(rows [][]string) ([]keywords.Idea, error) {
	if len(rows) < 2 {
		return nil, nil
	}
	width := len(rows[0])

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		if err := w.Write(row[:width]); err != nil {
			return nil, eris.Wrap(err, "export: encode table")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "export: encode table")
	}
	return ParseIdeasCSV(buf.String())
}
