package domain

// ConditionType is the comparison applied by a Condition.
type ConditionType string

const (
	CondEquals     ConditionType = "equals"
	CondNotEquals  ConditionType = "not_equals"
	CondGreater    ConditionType = "greater_than"
	CondLess       ConditionType = "less_than"
	CondContains   ConditionType = "contains"
	CondStartsWith ConditionType = "starts_with"
	CondEndsWith   ConditionType = "ends_with"
	CondInArray    ConditionType = "in_array"
	CondNotInArray ConditionType = "not_in_array"
)

// ActionSetVariable is the only action type interpreted by the evaluator.
const ActionSetVariable = "set_variable"

// ExpressionType distinguishes simple rules from advanced (unevaluated) ones.
type ExpressionType string

const (
	ExpressionSimple   ExpressionType = "simple"
	ExpressionAdvanced ExpressionType = "advanced"
)

// LogicalOperator is stored with each condition. The evaluator AND-combines regardless.
type LogicalOperator string

const (
	OperatorAnd LogicalOperator = "AND"
	OperatorOr  LogicalOperator = "OR"
)

// Condition is a single rule attached to a router node governing one of its choices.
// ActionValue holds the choice index, as a decimal string, that the rule validates.
// Node ids are only unique within a module, so ModuleID scopes SourceNodeID.
type Condition struct {
	ID                string          `json:"id"`
	ModuleID          string          `json:"module_id"`
	SourceNodeID      string          `json:"source_node_id"`
	TargetVariableID  string          `json:"target_variable_id"`
	ConditionType     ConditionType   `json:"condition_type"`
	ConditionValue    any             `json:"condition_value"`
	ActionType        string          `json:"action_type"`
	ActionValue       string          `json:"action_value"`
	Priority          int             `json:"priority"`
	ExpressionType    ExpressionType  `json:"expression_type,omitempty"`
	ConditionOperator LogicalOperator `json:"condition_operator,omitempty"`
}
