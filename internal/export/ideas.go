// Package export renders keyword ideas and categorization records into the
// files a run produces.
package export

import (
	"bytes"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/keyword-cli/internal/keywords"
)

// SheetName is the worksheet holding ideas in the XLSX export.
const SheetName = "Keyword Ideas"

// Columns is the fixed column order of the ideas table.
var Columns = []string{
	"keyword",
	"avg_monthly_searches",
	"competition",
	"competition_index",
	"low_top_of_page_bid_micros",
	"high_top_of_page_bid_micros",
}

// ideaRow is one CSV row. Nil pointers become empty cells.
type ideaRow struct {
	Keyword                string `csv:"keyword"`
	AvgMonthlySearches     int64  `csv:"avg_monthly_searches"`
	Competition            string `csv:"competition"`
	CompetitionIndex       *int64 `csv:"competition_index"`
	LowTopOfPageBidMicros  *int64 `csv:"low_top_of_page_bid_micros"`
	HighTopOfPageBidMicros *int64 `csv:"high_top_of_page_bid_micros"`
}

func toRows(ideas []keywords.Idea) []ideaRow {
	rows := make([]ideaRow, 0, len(ideas))
	for _, i := range ideas {
		comp := i.Competition
		if comp == "" {
			comp = keywords.CompetitionUnknown
		}
		rows = append(rows, ideaRow{
			Keyword:                i.Keyword,
			AvgMonthlySearches:     i.AvgMonthlySearches,
			Competition:            comp,
			CompetitionIndex:       i.CompetitionIndex,
			LowTopOfPageBidMicros:  i.LowTopOfPageBidMicros,
			HighTopOfPageBidMicros: i.HighTopOfPageBidMicros,
		})
	}
	return rows
}

// IdeasCSV renders ideas as CSV with a header row. No ideas yields "".
func IdeasCSV(ideas []keywords.Idea) (string, error) {
	if len(ideas) == 0 {
		return "", nil
	}
	data, err := csvutil.Marshal(toRows(ideas))
	if err != nil {
		return "", eris.Wrap(err, "export: encode ideas csv")
	}
	return string(data), nil
}

// WriteIdeasXLSX writes ideas to w as a single-sheet workbook.
func WriteIdeasXLSX(w io.Writer, ideas []keywords.Idea) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range Columns {
		header.AddCell().SetString(c)
	}

	for _, r := range toRows(ideas) {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Keyword)
		row.AddCell().SetInt64(r.AvgMonthlySearches)
		row.AddCell().SetString(r.Competition)
		for _, v := range []*int64{r.CompetitionIndex, r.LowTopOfPageBidMicros, r.HighTopOfPageBidMicros} {
			cell := row.AddCell()
			if v != nil {
				cell.SetInt64(*v)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

// IdeasXLSX returns the workbook bytes.
func IdeasXLSX(ideas []keywords.Idea) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteIdeasXLSX(&buf, ideas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadIdeasXLSX reads back the first sheet of a workbook written by
// WriteIdeasXLSX as string rows, header included.
func ReadIdeasXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "export: open xlsx")
	}
	sheet, ok := f.Sheet[SheetName]
	if !ok {
		return nil, eris.Errorf("export: sheet %q not found", SheetName)
	}

	var rows [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
