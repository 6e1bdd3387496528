package condition

import (
	"strconv"
	"strings"

	"github.com/aretw0/pathway/pkg/domain"
)

// Evaluate applies the condition's comparison to value. The condition_value is the
// right-hand operand. It never panics and returns false for unknown condition types.
func Evaluate(c domain.Condition, value any) bool {
	operand := c.ConditionValue

	switch c.ConditionType {
	case domain.CondEquals:
		return strictEqual(value, operand)
	case domain.CondNotEquals:
		return !strictEqual(value, operand)
	case domain.CondGreater:
		return toNumber(value) > toNumber(operand)
	case domain.CondLess:
		return toNumber(value) < toNumber(operand)
	case domain.CondContains:
		return strings.Contains(toString(value), toString(operand))
	case domain.CondStartsWith:
		return strings.HasPrefix(toString(value), toString(operand))
	case domain.CondEndsWith:
		return strings.HasSuffix(toString(value), toString(operand))
	case domain.CondInArray:
		found, ok := inArray(operand, value)
		return ok && found
	case domain.CondNotInArray:
		found, ok := inArray(operand, value)
		return ok && !found
	}
	return false
}

// ResolveValue returns the learner's current value for the variable, falling back to
// its default. ok is false when neither is set.
func ResolveValue(v domain.Variable, state *domain.LearnerState) (any, bool) {
	if state != nil {
		if value, ok := state.VariablesState[v.ID]; ok && value != nil {
			return value, true
		}
	}
	if v.DefaultValue != nil {
		return v.DefaultValue, true
	}
	return nil, false
}

// ForChoice selects the conditions governing the choice at choiceIndex.
func ForChoice(choiceIndex int, conditions []domain.Condition) []domain.Condition {
	want := strconv.Itoa(choiceIndex)
	var out []domain.Condition
	for _, c := range conditions {
		if c.ActionType == domain.ActionSetVariable && c.ActionValue == want {
			out = append(out, c)
		}
	}
	return out
}

// EvaluateChoice reports whether the choice at choiceIndex is valid for the learner.
// A choice without conditions is always valid. Otherwise all of its conditions must
// hold; a condition whose variable is unknown fails.
func EvaluateChoice(choiceIndex int, conditions []domain.Condition, variables []domain.Variable, state *domain.LearnerState) bool {
	matching := ForChoice(choiceIndex, conditions)
	if len(matching) == 0 {
		return true
	}

	byID := make(map[string]domain.Variable, len(variables))
	for _, v := range variables {
		byID[v.ID] = v
	}

	for _, c := range matching {
		v, ok := byID[c.TargetVariableID]
		if !ok {
			return false
		}
		value, _ := ResolveValue(v, state)
		if !Evaluate(c, value) {
			return false
		}
	}
	return true
}

// ChoiceValidity evaluates every choice of a router node. Non-router nodes yield nil.
func ChoiceValidity(router domain.Node, conditions []domain.Condition, variables []domain.Variable, state *domain.LearnerState) []bool {
	if !router.IsRouter() {
		return nil
	}
	out := make([]bool, len(router.Data.Choices))
	for i := range router.Data.Choices {
		out[i] = EvaluateChoice(i, conditions, variables, state)
	}
	return out
}
