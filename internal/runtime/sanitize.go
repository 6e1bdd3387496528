package runtime

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/pathway/pkg/domain"
)

var (
	// DefaultMaxAnswerSize is 4KB (conservative default)
	DefaultMaxAnswerSize = 4096
	// EnvMaxAnswerSize is the environment variable to override the default
	EnvMaxAnswerSize = "PATHWAY_MAX_ANSWER_SIZE"
)

// SanitizeText enforces the answer size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return. Oversized input is rejected
// rather than truncated.
func SanitizeText(input string) (string, error) {
	if limit := maxAnswerSize(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", domain.ErrInvalidAnswer, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", fmt.Errorf("%w: invalid UTF-8", domain.ErrInvalidAnswer)
	}

	// Fast path: if no control chars, return as is.
	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !isUnsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// sanitizeAnswer applies SanitizeText to string answers and to each item of list
// answers. Other values pass through.
func sanitizeAnswer(answer any) (any, error) {
	switch v := answer.(type) {
	case string:
		return SanitizeText(v)
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			clean, err := SanitizeText(item)
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				out[i] = item
				continue
			}
			clean, err := SanitizeText(s)
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	}
	return answer, nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxAnswerSize() int {
	if val := os.Getenv(EnvMaxAnswerSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxAnswerSize
}
