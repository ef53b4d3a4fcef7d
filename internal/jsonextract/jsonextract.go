// Package jsonextract recovers a single JSON object from language-model output.
//
// Models often wrap JSON in markdown fences or surround it with prose. Recovery
// runs in two stages: strip fence markers, then fall back to the span between
// the first '{' and the last '}'. Nothing else is guessed.
package jsonextract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

const fence = "```"

// Extract returns the JSON object found in text.
func Extract(text string) (map[string]any, error) {
	var obj map[string]any
	if err := Decode(text, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Decode recovers the JSON object in text and unmarshals it into v.
func Decode(text string, v any) error {
	raw, err := Raw(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", lead.ErrExtraction, err)
	}
	return nil
}

// Raw returns the bytes of the recovered JSON object.
func Raw(text string) (json.RawMessage, error) {
	cleaned := stripFences(strings.TrimSpace(text))
	if cleaned == "" {
		return nil, lead.ErrExtraction
	}

	if isObject(cleaned) {
		return json.RawMessage(cleaned), nil
	}
	// Valid JSON that is not an object (an array or a scalar) is not searched.
	if json.Valid([]byte(cleaned)) {
		return nil, lead.ErrExtraction
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, lead.ErrExtraction
	}
	span := cleaned[start : end+1]
	if !isObject(span) {
		return nil, lead.ErrExtraction
	}
	return json.RawMessage(span), nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, fence) {
		return s
	}
	s = strings.ReplaceAll(s, fence, "")
	s = strings.TrimSpace(s)
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	return strings.TrimSpace(s)
}

func isObject(s string) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil && obj != nil
}
