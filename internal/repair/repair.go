// Package repair recovers a categorized keyword record from language model
// output that may be wrapped in prose, use the wrong quoting style, or be
// truncated mid-structure.
package repair

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Strategy names reported by Attempt.
const (
	StrategyDirect     = "direct"
	StrategySubstitute = "substitute"
	StrategyBalance    = "balance"
	StrategyLines      = "lines"
	StrategyFailed     = "failed"
)

// previewLen is the number of characters of raw output quoted in the error record.
const previewLen = 300

// Strategy is one repair tier. Parse receives the brace-sliced text and must
// not mutate shared state.
type Strategy struct {
	Name  string
	Parse func(text string) (Record, error)
}

// DefaultStrategies are tried in order until one parses.
var DefaultStrategies = []Strategy{
	{Name: StrategyDirect, Parse: parseRecord},
	{Name: StrategySubstitute, Parse: func(text string) (Record, error) {
		return parseRecord(substitute(text))
	}},
	{Name: StrategyBalance, Parse: func(text string) (Record, error) {
		return parseRecord(closeOpenStructures(substitute(text)))
	}},
	{Name: StrategyLines, Parse: func(text string) (Record, error) {
		span := firstBalancedLines(substitute(text))
		if span == "" {
			return Record{}, errNoObjectLines
		}
		return parseRecord(span)
	}},
}

// errNoObjectLines means the lines tier found nothing to parse. It never
// replaces a real parser error in the final message.
var errNoObjectLines = eris.New("no line opens a JSON object")

// Repair returns the record parsed from raw, or an error record. It never
// fails.
func Repair(raw string) Record {
	rec, _ := Attempt(raw)
	return rec
}

// Attempt is Repair that also reports which strategy produced the record.
func Attempt(raw string) (Record, string) {
	return AttemptWith(raw, DefaultStrategies)
}

// AttemptWith runs strategies in order against the brace-sliced form of raw.
func AttemptWith(raw string, strategies []Strategy) (Record, string) {
	trimmed := strings.TrimSpace(raw)
	text := sliceBraces(trimmed)

	var lastErr error
	for _, s := range strategies {
		rec, err := s.Parse(text)
		if err == nil {
			return rec, s.Name
		}
		if lastErr == nil || !errors.Is(err, errNoObjectLines) {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = eris.New("repair: no strategies")
	}

	return ErrorRecord(fmt.Sprintf(
		"Failed to parse JSON response. Error: %v. Response preview: %s...",
		lastErr, preview(trimmed, previewLen),
	)), StrategyFailed
}

// sliceBraces narrows text to the span from the first '{' to the last '}'.
func sliceBraces(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// parseRecord decodes a single JSON object into a Record.
func parseRecord(text string) (Record, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		if trimmed == "" {
			return Record{}, eris.New("empty input")
		}
		return Record{}, eris.Errorf("expected JSON object, got %q", firstRune(trimmed))
	}
	var rec Record
	if err := json.Unmarshal([]byte(trimmed), &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

var (
	noneToken  = regexp.MustCompile(`\bNone\b`)
	trueToken  = regexp.MustCompile(`\bTrue\b`)
	falseToken = regexp.MustCompile(`\bFalse\b`)
)

// substitute normalizes single quotes and Python-style literals.
func substitute(text string) string {
	text = strings.ReplaceAll(text, "'", `"`)
	text = noneToken.ReplaceAllString(text, "null")
	text = trueToken.ReplaceAllString(text, "true")
	text = falseToken.ReplaceAllString(text, "false")
	return text
}

// closeOpenStructures terminates a dangling string and closes every
// unclosed object and array in nesting order.
func closeOpenStructures(text string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if n := len(stack); n > 0 && matches(stack[n-1], c) {
				stack = stack[:n-1]
			}
		}
	}

	if !inString && len(stack) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(text)
	if inString {
		if escaped {
			b.WriteByte('\\')
		}
		b.WriteByte('"')
	}

	out := strings.TrimRight(b.String(), " \t\r\n")
	switch {
	case strings.HasSuffix(out, ","):
		out = strings.TrimSuffix(out, ",")
	case strings.HasSuffix(out, ":"):
		out += " null"
	}

	b.Reset()
	b.WriteString(out)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

func matches(open, closing byte) bool {
	return (open == '{' && closing == '}') || (open == '[' && closing == ']')
}

// firstBalancedLines keeps the lines from the first one containing '{' up to
// the line where the running brace balance returns to zero.
func firstBalancedLines(text string) string {
	var kept []string
	balance := 0
	started := false

	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "{") {
			started = true
		}
		if !started {
			continue
		}
		kept = append(kept, line)
		balance += strings.Count(line, "{") - strings.Count(line, "}")
		if balance == 0 {
			break
		}
	}
	return strings.Join(kept, "\n")
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
