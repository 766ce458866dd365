// Package normalize cleans model inputs and outputs: whitespace folding for text
// embedded into prompt templates and JSON recovery for raw completions.
package normalize

import (
	"fmt"
	"strings"
)

// Text collapses every run of whitespace, newlines included, into one space and
// trims the ends. Values that are not text are stringified and returned as is.
func Text(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return fold(v)
	case []byte:
		return fold(string(v))
	default:
		return fmt.Sprint(v)
	}
}

func fold(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
