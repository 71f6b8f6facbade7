package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/keyword-cli/internal/export"
	"github.com/sells-group/keyword-cli/internal/repair"
	"github.com/sells-group/keyword-cli/pkg/googleads"
)

// readInput returns inline when set, otherwise the contents of path, with
// "-" meaning stdin.
func readInput(inline, path string, stdin io.Reader) (string, error) {
	if inline != "" {
		return inline, nil
	}
	switch path {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(stdin)
		return string(data), eris.Wrap(err, "read stdin")
	default:
		data, err := os.ReadFile(path)
		return string(data), eris.Wrapf(err, "read %s", path)
	}
}

// writeRecord renders rec in format (text, json or yaml).
func writeRecord(w io.Writer, rec repair.Record, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		_, err := io.WriteString(w, export.RecordText(rec))
		return err
	case "json":
		data, err := export.RecordJSON(rec)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "yaml":
		data, err := export.RecordYAML(rec)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return eris.Errorf("unsupported format %q (text, json, yaml)", format)
	}
}

// explainAdsError prints remediation steps for Google Ads API errors.
func explainAdsError(w io.Writer, err error) {
	apiErr, ok := googleads.AsAPIError(err)
	if !ok {
		return
	}
	fmt.Fprintf(w, "\nGoogle Ads API error (%s):\n%s\n", apiErr.Classify(), apiErr.Remediation())
}
