package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/keyword-cli/internal/repair"
)

// RecordText renders a record as a plain-text report.
func RecordText(r repair.Record) string {
	var b strings.Builder
	b.WriteString("KEYWORD CATEGORIZATION RESULTS\n")
	b.WriteString(strings.Repeat("=", 30) + "\n\n")

	if r.IsError() {
		fmt.Fprintf(&b, "Error: %s\n", r.Error)
		return b.String()
	}

	b.WriteString("SEO METADATA\n")
	b.WriteString(strings.Repeat("-", 12) + "\n")
	fmt.Fprintf(&b, "Focus Keyphrase: %s\n", r.FocusKeyphrase)
	fmt.Fprintf(&b, "SEO Title: %s\n", r.SEOTitle)
	fmt.Fprintf(&b, "SEO Excerpt: %s\n\n", r.SEOExcerpt)

	b.WriteString("KEYWORD CATEGORIES\n")
	b.WriteString(strings.Repeat("-", 18) + "\n")
	for _, c := range r.Categories() {
		if len(c.Keywords) == 0 {
			fmt.Fprintf(&b, "%s: No applicable keywords\n\n", c.Label)
			continue
		}
		fmt.Fprintf(&b, "%s:\n", c.Label)
		for _, kw := range c.Keywords {
			fmt.Fprintf(&b, "  - %s\n", kw)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RecordJSON renders a record as indented JSON.
func RecordJSON(r repair.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, eris.Wrap(err, "export: encode record json")
	}
	return buf.Bytes(), nil
}

// RecordYAML renders a record as YAML.
func RecordYAML(r repair.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, eris.Wrap(err, "export: encode record yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, eris.Wrap(err, "export: close yaml encoder")
	}
	return buf.Bytes(), nil
}
