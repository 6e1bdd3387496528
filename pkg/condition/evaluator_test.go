package condition

import (
	"testing"

	"github.com/aretw0/pathway/pkg/domain"
)

type evalCase struct {
	name  string
	typ   domain.ConditionType
	cond  any
	value any
	want  bool
}

func TestEvaluate(t *testing.T) {
	cases := []evalCase{
		// equals / not_equals
		{"equals number", domain.CondEquals, 5, 5, true},
		{"equals across numeric kinds", domain.CondEquals, float64(5), int64(5), true},
		{"equals no coercion", domain.CondEquals, 5, "5", false},
		{"equals string", domain.CondEquals, "a", "a", true},
		{"equals bool", domain.CondEquals, true, true, true},
		{"equals bool vs number", domain.CondEquals, true, 1, false},
		{"equals nil nil", domain.CondEquals, nil, nil, true},
		{"equals composite", domain.CondEquals, []any{1}, []any{1}, false},
		{"not_equals differs", domain.CondNotEquals, "a", "b", true},
		{"not_equals same", domain.CondNotEquals, 3, 3.0, false},
		{"not_equals type mismatch", domain.CondNotEquals, 5, "5", true},

		// greater_than / less_than
		{"gt true", domain.CondGreater, 5, 10, true},
		{"gt false", domain.CondGreater, 5, 3, false},
		{"gt equal", domain.CondGreater, 5, 5, false},
		{"gt numeric string", domain.CondGreater, "5", "10", true},
		{"gt non numeric", domain.CondGreater, 5, "abc", false},
		{"gt nil value", domain.CondGreater, 5, nil, false},
		{"lt true", domain.CondLess, 5, 3, true},
		{"lt false", domain.CondLess, 5, 10, false},
		{"lt bool coerces", domain.CondLess, 2, true, true},
		{"lt non numeric operand", domain.CondLess, "x", 1, false},

		// string family
		{"contains true", domain.CondContains, "ell", "hello", true},
		{"contains false", domain.CondContains, "xyz", "hello", false},
		{"contains number coerced", domain.CondContains, 2, 123, true},
		{"starts_with true", domain.CondStartsWith, "he", "hello", true},
		{"starts_with false", domain.CondStartsWith, "lo", "hello", false},
		{"ends_with true", domain.CondEndsWith, "lo", "hello", true},
		{"ends_with false", domain.CondEndsWith, "he", "hello", false},
		{"ends_with float", domain.CondEndsWith, ".5", 2.5, true},

		// arrays
		{"in_array true", domain.CondInArray, []any{1, 2, 3}, 2, true},
		{"in_array false", domain.CondInArray, []any{1, 2, 3}, 4, false},
		{"in_array typed slice", domain.CondInArray, []string{"a", "b"}, "b", true},
		{"in_array strict", domain.CondInArray, []any{1, 2}, "1", false},
		{"in_array not array", domain.CondInArray, "abc", "a", false},
		{"not_in_array true", domain.CondNotInArray, []any{1, 2, 3}, 4, true},
		{"not_in_array false", domain.CondNotInArray, []any{1, 2, 3}, 2, false},
		{"not_in_array not array", domain.CondNotInArray, 7, 1, false},

		// unknown
		{"unknown type", domain.ConditionType("matches"), "a", "a", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := domain.Condition{ConditionType: tc.typ, ConditionValue: tc.cond}
			if got := Evaluate(c, tc.value); got != tc.want {
				t.Errorf("Evaluate(%s, %v vs %v) = %v, want %v", tc.typ, tc.value, tc.cond, got, tc.want)
			}
		})
	}
}

func rule(choice string, varID string, typ domain.ConditionType, value any) domain.Condition {
	return domain.Condition{
		TargetVariableID: varID,
		ConditionType:    typ,
		ConditionValue:   value,
		ActionType:       domain.ActionSetVariable,
		ActionValue:      choice,
	}
}

func TestEvaluateChoice_NoConditionsIsValid(t *testing.T) {
	for i := 0; i < 5; i++ {
		if !EvaluateChoice(i, nil, nil, nil) {
			t.Errorf("EvaluateChoice(%d) with no conditions = false, want true", i)
		}
	}
}

func TestEvaluateChoice(t *testing.T) {
	vars := []domain.Variable{
		{ID: "score", VarType: domain.VarNumber, DefaultValue: 0},
		{ID: "role", VarType: domain.VarString},
	}
	state := domain.NewLearnerState("m", "u", testTime)
	state.VariablesState["score"] = 12

	t.Run("All conditions must hold", func(t *testing.T) {
		conds := []domain.Condition{
			rule("0", "score", domain.CondGreater, 10),
			rule("0", "score", domain.CondLess, 20),
		}
		if !EvaluateChoice(0, conds, vars, state) {
			t.Error("expected choice 0 to be valid")
		}

		conds = append(conds, rule("0", "score", domain.CondEquals, 99))
		if EvaluateChoice(0, conds, vars, state) {
			t.Error("expected choice 0 to be invalid once one condition fails")
		}
	})

	t.Run("OR operator is still AND-combined", func(t *testing.T) {
		a := rule("1", "score", domain.CondEquals, 12)
		b := rule("1", "score", domain.CondEquals, 13)
		b.ConditionOperator = domain.OperatorOr
		if EvaluateChoice(1, []domain.Condition{a, b}, vars, state) {
			t.Error("expected AND semantics")
		}
	})

	t.Run("Conditions for other choices are ignored", func(t *testing.T) {
		conds := []domain.Condition{rule("1", "score", domain.CondEquals, -1)}
		if !EvaluateChoice(0, conds, vars, state) {
			t.Error("choice 0 has no conditions and must be valid")
		}
	})

	t.Run("Non set_variable actions are ignored", func(t *testing.T) {
		c := rule("0", "score", domain.CondEquals, -1)
		c.ActionType = "jump"
		if !EvaluateChoice(0, []domain.Condition{c}, vars, state) {
			t.Error("expected unrelated action types to be ignored")
		}
	})

	t.Run("Falls back to default value", func(t *testing.T) {
		fresh := domain.NewLearnerState("m", "u", testTime)
		conds := []domain.Condition{rule("0", "score", domain.CondEquals, 0)}
		if !EvaluateChoice(0, conds, vars, fresh) {
			t.Error("expected default value 0 to be used")
		}
		if !EvaluateChoice(0, conds, vars, nil) {
			t.Error("expected default value with nil state")
		}
	})

	t.Run("Unknown variable fails", func(t *testing.T) {
		conds := []domain.Condition{rule("0", "ghost", domain.CondNotEquals, "x")}
		if EvaluateChoice(0, conds, vars, state) {
			t.Error("expected missing variable to fail the condition")
		}
	})

	t.Run("Unset variable without default", func(t *testing.T) {
		conds := []domain.Condition{rule("0", "role", domain.CondEquals, "admin")}
		if EvaluateChoice(0, conds, vars, state) {
			t.Error("expected unset variable to fail equals")
		}
	})
}

func TestChoiceValidity(t *testing.T) {
	router := domain.Node{ID: "r", Type: domain.NodeTypeRouter, Data: domain.NodeData{Choices: []domain.Choice{
		{Text: "A", NextNodeID: "a"}, {Text: "B", NextNodeID: "b"}, {Text: "C"},
	}}}
	vars := []domain.Variable{{ID: "tags", VarType: domain.VarArray, DefaultValue: []any{"x"}}}
	conds := []domain.Condition{rule("1", "tags", domain.CondContains, "y")}

	got := ChoiceValidity(router, conds, vars, nil)
	want := []bool{true, false, true}
	if len(got) != len(want) {
		t.Fatalf("ChoiceValidity() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("choice %d = %v, want %v", i, got[i], want[i])
		}
	}

	if ChoiceValidity(domain.Node{Type: domain.NodeTypeMessage}, conds, vars, nil) != nil {
		t.Error("non-router nodes should yield nil")
	}
}
