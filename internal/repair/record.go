package repair

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MaxPerCategory caps the number of keywords kept per category.
const MaxPerCategory = 5

// NoApplicableKeywords is the sentinel the model uses for an empty category.
const NoApplicableKeywords = "No applicable keywords."

// KeywordList is an ordered category bucket. It decodes from a JSON array,
// null, or the bare sentinel string, and keeps at most MaxPerCategory
// non-empty entries.
type KeywordList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *KeywordList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = KeywordList{}
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(strings.TrimSuffix(s, "."), strings.TrimSuffix(NoApplicableKeywords, ".")) {
			*l = KeywordList{}
			return nil
		}
		*l = KeywordList{s}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(KeywordList, 0, MaxPerCategory)
	for _, v := range raw {
		if len(out) == MaxPerCategory {
			break
		}
		// Objects and nested arrays are not keywords.
		if isComposite(v) {
			continue
		}
		s := scalarText(v)
		if s == "" || s == NoApplicableKeywords {
			continue
		}
		out = append(out, s)
	}
	*l = out
	return nil
}

// looseText decodes any JSON value into text: strings as-is, numbers and
// booleans as their literal, arrays joined with ", ", objects as compact JSON.
type looseText string

// UnmarshalJSON implements json.Unmarshaler.
func (t *looseText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if s := scalarText(item); s != "" {
				parts = append(parts, s)
			}
		}
		*t = looseText(strings.Join(parts, ", "))
	case len(trimmed) > 0 && trimmed[0] == '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return err
		}
		*t = looseText(buf.String())
	default:
		*t = looseText(scalarText(trimmed))
	}
	return nil
}

func isComposite(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// scalarText renders a JSON scalar as trimmed text; null is empty and
// composites are compacted.
func scalarText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case isComposite(trimmed):
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return ""
		}
		return buf.String()
	default:
		return string(trimmed)
	}
}

// MarshalJSON renders a nil list as an empty array.
func (l KeywordList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Record is the categorized keyword output of the language model. When
// Error is set the record carries nothing else.
type Record struct {
	HighSearchVolumeKeywords KeywordList `json:"HighSearchVolumeKeywords" yaml:"HighSearchVolumeKeywords"`
	HighGrowthKeywords       KeywordList `json:"HighGrowthKeywords" yaml:"HighGrowthKeywords"`
	LongTailKeywords         KeywordList `json:"LongTailKeywords" yaml:"LongTailKeywords"`
	NicheEmergingKeywords    KeywordList `json:"NicheEmergingKeywords" yaml:"NicheEmergingKeywords"`
	ActionOrientedKeywords   KeywordList `json:"ActionOrientedKeywords" yaml:"ActionOrientedKeywords"`
	FocusKeyphrase           string      `json:"FocusKeyphrase" yaml:"FocusKeyphrase"`
	SEOExcerpt               string      `json:"SEOExcerpt" yaml:"SEOExcerpt"`
	SEOTitle                 string      `json:"SEOTitle" yaml:"SEOTitle"`
	Error                    string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrorRecord builds a record whose sole field is msg.
func ErrorRecord(msg string) Record {
	return Record{Error: msg}
}

// IsError reports whether the record is the degraded error outcome.
func (r Record) IsError() bool {
	return r.Error != ""
}

type recordAlias Record

// recordWire is the lenient decoding shape of Record.
type recordWire struct {
	HighSearchVolumeKeywords KeywordList `json:"HighSearchVolumeKeywords"`
	HighGrowthKeywords       KeywordList `json:"HighGrowthKeywords"`
	LongTailKeywords         KeywordList `json:"LongTailKeywords"`
	NicheEmergingKeywords    KeywordList `json:"NicheEmergingKeywords"`
	ActionOrientedKeywords   KeywordList `json:"ActionOrientedKeywords"`
	FocusKeyphrase           looseText   `json:"FocusKeyphrase"`
	SEOExcerpt               looseText   `json:"SEOExcerpt"`
	SEOTitle                 looseText   `json:"SEOTitle"`
	Error                    looseText   `json:"error"`
}

// UnmarshalJSON accepts any JSON type for the text fields, so a reply with a
// mistyped scalar still decodes.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Record{
		HighSearchVolumeKeywords: w.HighSearchVolumeKeywords,
		HighGrowthKeywords:       w.HighGrowthKeywords,
		LongTailKeywords:         w.LongTailKeywords,
		NicheEmergingKeywords:    w.NicheEmergingKeywords,
		ActionOrientedKeywords:   w.ActionOrientedKeywords,
		FocusKeyphrase:           string(w.FocusKeyphrase),
		SEOExcerpt:               string(w.SEOExcerpt),
		SEOTitle:                 string(w.SEOTitle),
		Error:                    string(w.Error),
	}
	return nil
}

// MarshalJSON emits only the error field for error records.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.IsError() {
		return json.Marshal(map[string]string{"error": r.Error})
	}
	return json.Marshal(recordAlias(r))
}

// MarshalYAML mirrors MarshalJSON for YAML output.
func (r Record) MarshalYAML() (any, error) {
	if r.IsError() {
		return map[string]string{"error": r.Error}, nil
	}
	out := recordAlias(r)
	for _, l := range []*KeywordList{
		&out.HighSearchVolumeKeywords,
		&out.HighGrowthKeywords,
		&out.LongTailKeywords,
		&out.NicheEmergingKeywords,
		&out.ActionOrientedKeywords,
	} {
		if *l == nil {
			*l = KeywordList{}
		}
	}
	return out, nil
}

// Category is a named keyword bucket in display order.
type Category struct {
	Key      string
	Label    string
	Keywords KeywordList
}

// Categories returns the five buckets in their canonical order.
func (r Record) Categories() []Category {
	return []Category{
		{Key: "HighSearchVolumeKeywords", Label: "High Search Volume", Keywords: r.HighSearchVolumeKeywords},
		{Key: "HighGrowthKeywords", Label: "High Growth", Keywords: r.HighGrowthKeywords},
		{Key: "LongTailKeywords", Label: "Long Tail", Keywords: r.LongTailKeywords},
		{Key: "NicheEmergingKeywords", Label: "Niche Emerging", Keywords: r.NicheEmergingKeywords},
		{Key: "ActionOrientedKeywords", Label: "Action Oriented", Keywords: r.ActionOrientedKeywords},
	}
}
