// Package patch turns the model's patch-mode answer into change operations
// and applies them to a parsed page.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"mockery-backend/internal/models"
)

// ErrDecode is returned when the model text holds no usable change batch.
var ErrDecode = errors.New("invalid change batch")

// wireBatch keeps Changes as a pointer so a missing key is distinguishable
// from an empty list.
type wireBatch struct {
	Changes *[]models.ChangeOperation `json:"changes"`
	Summary string                    `json:"summary"`
}

// Decode parses raw model output into a change batch. Surrounding code
// fences and prose around the JSON object are tolerated.
func Decode(raw string) (*models.ChangeBatch, error) {
	text := StripFences(raw)

	obj, ok := extractObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found", ErrDecode)
	}

	var wb wireBatch
	if err := json.Unmarshal([]byte(obj), &wb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if wb.Changes == nil {
		return nil, fmt.Errorf("%w: missing changes", ErrDecode)
	}

	return &models.ChangeBatch{Changes: *wb.Changes, Summary: wb.Summary}, nil
}

// StripFences removes a leading ``` or ```lang fence and a trailing ```.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimLeftFunc(s, unicode.IsLetter)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject returns the first balanced {...} span. Braces inside JSON
// strings are ignored. When the braces never balance it falls back to the
// span from the first '{' to the last '}'.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	end := strings.LastIndexByte(s, '}')
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
