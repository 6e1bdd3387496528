package runtime

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
)

// Interpolator renders node text against learner data.
type Interpolator func(ctx context.Context, text string, data map[string]any) (string, error)

// DefaultInterpolator renders text as a Go text/template. Learner variables are
// available by id, e.g. {{ .score }}. Text without actions is returned as is.
func DefaultInterpolator(_ context.Context, text string, data map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	tmpl, err := template.New("content").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}
	return buf.String(), nil
}
