package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/promptsmith/internal/domain"
)

const fence = "```"

var errEmptyResponse = errors.New("empty response")

// Sanitize turns a raw model completion into a generic JSON document
// (map[string]interface{}, []interface{} or a scalar).
//
// Text input has code fences removed, then is parsed as is; if that fails, with
// newlines and four-space indents removed; and finally from its outermost braces.
// Structured input is marshaled first. Either way the parsed document is
// re-marshaled compactly and parsed again so key spacing is canonical.
// Any failure is reported as *domain.MalformedResponseError.
func Sanitize(raw interface{}) (interface{}, error) {
	text, err := asText(raw)
	if err != nil {
		return nil, &domain.MalformedResponseError{Raw: fmt.Sprint(raw), Err: err}
	}

	doc, err := parseLenient(text)
	if err != nil {
		return nil, &domain.MalformedResponseError{Raw: text, Err: err}
	}

	canonical, err := MarshalCompact(doc)
	if err != nil {
		return nil, &domain.MalformedResponseError{Raw: text, Err: err}
	}
	var out interface{}
	if err := json.Unmarshal(canonical, &out); err != nil {
		return nil, &domain.MalformedResponseError{Raw: text, Err: err}
	}
	return out, nil
}

// SanitizeObject is Sanitize restricted to JSON objects.
func SanitizeObject(raw interface{}) (map[string]interface{}, error) {
	doc, err := Sanitize(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, &domain.MalformedResponseError{
			Raw: fmt.Sprint(raw),
			Err: fmt.Errorf("expected a JSON object, got %T", doc),
		}
	}
	return obj, nil
}

// MarshalCompact encodes v with minimal whitespace and without HTML escaping.
func MarshalCompact(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func asText(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", errEmptyResponse
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.RawMessage:
		return string(v), nil
	default:
		data, err := MarshalCompact(v)
		if err != nil {
			return "", fmt.Errorf("encode structured response: %w", err)
		}
		return string(data), nil
	}
}

func parseLenient(text string) (interface{}, error) {
	body := stripFences(strings.TrimSpace(text))
	if body == "" {
		return nil, errEmptyResponse
	}

	var doc interface{}
	firstErr := json.Unmarshal([]byte(body), &doc)
	if firstErr == nil {
		return doc, nil
	}

	compacted := strings.NewReplacer("\r", "", "\n", "", "    ", "").Replace(body)
	if err := json.Unmarshal([]byte(compacted), &doc); err == nil {
		return doc, nil
	}

	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		inner := body[start : end+1]
		if err := json.Unmarshal([]byte(inner), &doc); err == nil {
			return doc, nil
		}
		inner = strings.NewReplacer("\r", "", "\n", "", "    ", "").Replace(inner)
		if err := json.Unmarshal([]byte(inner), &doc); err == nil {
			return doc, nil
		}
	}
	return nil, firstErr
}

// stripFences removes a leading ``` marker (with optional language label) and a trailing ``` marker.
func stripFences(s string) string {
	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		label := 0
		for label < len(s) && isLabelByte(s[label]) {
			label++
		}
		s = s[label:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

func isLabelByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '-' || b == '_'
}
