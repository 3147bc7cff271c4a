// Package respparse extracts well-formed JSON from raw vision-model output,
// tolerating common wrapping artifacts without ever guessing a structure.
package respparse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/graspmind/graspmind/pkg/types"
)

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// Parse strips a single fenced block and JSON-breaking artifacts from raw
// model text, then structurally parses the remainder. Both object-shaped
// and list-shaped payloads are legal; callers decide which shape they
// require. On failure it returns a MalformedResponseError carrying the
// original text, never a default or partial structure that would silently
// corrupt downstream coordinate data.
func Parse(raw string) (json.RawMessage, error) {
	cleaned := sanitize(raw)
	if cleaned == "" {
		return nil, &types.MalformedResponseError{Raw: raw}
	}

	var msg json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &msg); err != nil {
		return nil, &types.MalformedResponseError{Raw: raw, Err: err}
	}
	if cleaned[0] != '{' && cleaned[0] != '[' {
		// Bare strings and numbers are valid JSON but useless here.
		return nil, &types.MalformedResponseError{Raw: raw}
	}
	return msg, nil
}

// ParseInto parses raw model text and unmarshals the result into v.
func ParseInto(raw string, v any) error {
	msg, err := Parse(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(msg, v); err != nil {
		return &types.MalformedResponseError{Raw: raw, Err: err}
	}
	return nil
}

// sanitize removes one set of triple-backtick fences, comments, and
// trailing commas, then slices out the outermost JSON value.
func sanitize(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...} or [...], whichever opens first.
	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")
	switch {
	case arrStart >= 0 && (objStart < 0 || arrStart < objStart):
		if end := strings.LastIndex(raw, "]"); end > arrStart {
			raw = raw[arrStart : end+1]
		}
	case objStart >= 0:
		if end := strings.LastIndex(raw, "}"); end > objStart {
			raw = raw[objStart : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
