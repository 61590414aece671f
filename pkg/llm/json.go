package llm

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoStructuredOutput means the reply contained no balanced JSON array.
var ErrNoStructuredOutput = errors.New("no structured output in response")

// thinkTagPattern matches <think>...</think> tags that may appear at the start of LLM responses.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// ExtractJSONArray returns the first balanced [...] substring of response,
// ignoring brackets inside JSON strings. Surrounding prose and markdown
// fences are discarded. Validity of the array contents is left to the caller.
func ExtractJSONArray(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	if arr, ok := extractBalanced(cleaned, '[', ']'); ok {
		return arr, nil
	}
	return "", ErrNoStructuredOutput
}

// extractBalanced finds the first balanced structure starting with openChar.
// It handles nested structures by counting bracket depth.
func extractBalanced(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
