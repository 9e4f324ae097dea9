// Package extract recovers structured data from free-text model output.
// Every LLM-backed stage routes its response through this package, so parse
// failures degrade to tagged fallback values instead of crashing the pipeline.
package extract

// #region imports
import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// #endregion

// #region json

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// JSON decodes a JSON object embedded in raw model output into v.
// Recovery order: fenced code block, then the first-'{' to last-'}' span.
// A non-nil error means the caller must fall back to its degraded record.
func JSON(raw string, v any) error {
	candidate := raw
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		candidate = strings.TrimSpace(m[1])
	} else {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			candidate = raw[start : end+1]
		}
	}
	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("extract json: %w (raw: %s)", err, Snippet(raw, 200))
	}
	return nil
}

// #endregion

// #region sections

// ErrMissingMarker reports which required delimiter was absent.
type ErrMissingMarker struct {
	Marker string
	Raw    string
}

func (e *ErrMissingMarker) Error() string {
	return fmt.Sprintf("extract sections: marker %s missing (raw: %s)", e.Marker, Snippet(e.Raw, 200))
}

// Sections splits raw output on literal markers in the given order.
// Returns one body per marker: the text between it and the next marker
// (or end of input). The first required marker missing is a recoverable
// parse failure, never a partial result.
func Sections(raw string, markers ...string) ([]string, error) {
	bodies := make([]string, 0, len(markers))
	rest := raw
	for i, m := range markers {
		idx := strings.Index(rest, m)
		if idx == -1 {
			return nil, &ErrMissingMarker{Marker: m, Raw: raw}
		}
		rest = rest[idx+len(m):]
		end := len(rest)
		for _, later := range markers[i+1:] {
			if j := strings.Index(rest, later); j != -1 && j < end {
				end = j
			}
		}
		bodies = append(bodies, strings.TrimSpace(rest[:end]))
	}
	return bodies, nil
}

// #endregion

// #region lines

var leadingNumber = regexp.MustCompile(`^\d+\.\s*`)

// NumberedLines splits a section body into trimmed lines with any
// "1. "-style prefixes stripped. Blank lines are dropped.
func NumberedLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, leadingNumber.ReplaceAllString(line, ""))
	}
	return out
}

// #endregion

// #region snippet

// Snippet bounds raw text for inclusion in diagnostics.
func Snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// #endregion
