package runtime

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/pathway/pkg/domain"
)

// ResolveAnswer normalizes learner input for an interactive node and checks it against
// the node configuration. Text answers become trimmed strings, multiple choice answers
// a string (or []string when AllowMultiple) drawn from Options, and rankings a
// permutation of Options. Non-interactive nodes accept anything. Text is sanitized
// first, see SanitizeText.
func ResolveAnswer(node *domain.Node, answer any) (any, error) {
	answer, err := sanitizeAnswer(answer)
	if err != nil {
		return nil, fmt.Errorf("%w (node %s)", err, node.ID)
	}

	switch node.Type {
	case domain.NodeTypeTextInput:
		text := ""
		if answer != nil {
			text = strings.TrimSpace(fmt.Sprint(answer))
		}
		if text == "" && node.Data.IsRequired {
			return nil, fmt.Errorf("%w: %s", domain.ErrAnswerRequired, node.ID)
		}
		return text, nil

	case domain.NodeTypeMultipleChoice:
		picked := toStrings(answer)
		if len(picked) == 0 {
			if node.Data.IsRequired {
				return nil, fmt.Errorf("%w: %s", domain.ErrAnswerRequired, node.ID)
			}
			return nil, nil
		}
		for _, p := range picked {
			if !slices.Contains(node.Data.Options, p) {
				return nil, fmt.Errorf("%w: %q is not an option of %s", domain.ErrInvalidAnswer, p, node.ID)
			}
		}
		if node.Data.AllowMultiple {
			return picked, nil
		}
		if len(picked) > 1 {
			return nil, fmt.Errorf("%w: %s accepts a single option", domain.ErrInvalidAnswer, node.ID)
		}
		return picked[0], nil

	case domain.NodeTypeRanking:
		ranking := toStrings(answer)
		if len(ranking) != len(node.Data.Options) {
			return nil, fmt.Errorf("%w: ranking of %s must order all %d options", domain.ErrInvalidAnswer, node.ID, len(node.Data.Options))
		}
		a := slices.Clone(ranking)
		b := slices.Clone(node.Data.Options)
		slices.Sort(a)
		slices.Sort(b)
		if !slices.Equal(a, b) {
			return nil, fmt.Errorf("%w: ranking of %s must be a permutation of its options", domain.ErrInvalidAnswer, node.ID)
		}
		return ranking, nil
	}
	return answer, nil
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return []string{fmt.Sprint(v)}
}
