package codex

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("```json\\s*([\\s\\S]*?)```")

// ExtractJSON isolates the JSON payload inside model output. A fenced ```json
// block wins when present. Within the chosen text the payload runs from the
// first '[' (if it precedes any '{') or the first '{' to the last matching
// closing bracket.
func ExtractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		text = strings.TrimSpace(m[1])
	}

	obj := strings.Index(text, "{")
	arr := strings.Index(text, "[")
	switch {
	case arr != -1 && (obj == -1 || arr < obj):
		return sliceTo(text, arr, strings.LastIndex(text, "]"))
	case obj != -1:
		return sliceTo(text, obj, strings.LastIndex(text, "}"))
	default:
		return text
	}
}

func sliceTo(text string, start, last int) string {
	if last < start {
		return ""
	}
	return text[start : last+1]
}

// ParseJSONResponse decodes the JSON payload found in raw into v.
func ParseJSONResponse(raw string, v any) error {
	payload := ExtractJSON(raw)
	if payload == "" {
		return errors.New("parse json response: no json payload")
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("parse json response: %w", err)
	}
	return nil
}

// DecodeJSON is the generic form of ParseJSONResponse.
func DecodeJSON[T any](raw string) (T, error) {
	var out T
	if err := ParseJSONResponse(raw, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
