package export

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/keyword-cli/internal/keywords"
	"github.com/sells-group/keyword-cli/internal/repair"
)

// File names written by WriteAll.
const (
	IdeasCSVFile   = "keyword_ideas.csv"
	IdeasXLSXFile  = "keyword_ideas.xlsx"
	RecordTextFile = "keyword_categorization.txt"
	RecordJSONFile = "keyword_categorization.json"
	RecordYAMLFile = "keyword_categorization.yaml"
)

// WriteAll writes every export for a run into dir, creating it if needed,
// and returns the paths written.
func WriteAll(dir string, ideas []keywords.Idea, rec repair.Record) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "export: create %s", dir)
	}

	csvText, err := IdeasCSV(ideas)
	if err != nil {
		return nil, err
	}
	xlsxData, err := IdeasXLSX(ideas)
	if err != nil {
		return nil, err
	}
	jsonData, err := RecordJSON(rec)
	if err != nil {
		return nil, err
	}
	yamlData, err := RecordYAML(rec)
	if err != nil {
		return nil, err
	}

	files := []struct {
		name string
		data []byte
	}{
		{IdeasCSVFile, []byte(csvText)},
		{IdeasXLSXFile, xlsxData},
		{RecordTextFile, []byte(RecordText(rec))},
		{RecordJSONFile, jsonData},
		{RecordYAMLFile, yamlData},
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return written, eris.Wrapf(err, "export: write %s", path)
		}
		written = append(written, path)
	}
	return written, nil
}
