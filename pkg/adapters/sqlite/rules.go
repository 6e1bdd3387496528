package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aretw0/pathway/pkg/domain"
)

// GetVariables returns the variables of a module ordered by name.
func (s *Store) GetVariables(ctx context.Context, moduleID string) ([]domain.Variable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, module_id, name, var_type, description, default_value
		FROM variables WHERE module_id = ? ORDER BY name, id`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variables: %w", err)
	}
	defer rows.Close()

	vars := []domain.Variable{}
	for rows.Next() {
		var (
			v        domain.Variable
			varType  string
			defaults sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.ModuleID, &v.Name, &varType, &v.Description, &defaults); err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}
		v.VarType = domain.VarType(varType)
		if v.DefaultValue, err = decodeJSON(defaults); err != nil {
			return nil, fmt.Errorf("failed to decode default of %s: %w", v.ID, err)
		}
		vars = append(vars, v)
	}
	return vars, rows.Err()
}

// SaveVariable inserts or replaces the variable by id.
func (s *Store) SaveVariable(ctx context.Context, v domain.Variable) error {
	defaults, err := encodeJSON(v.DefaultValue)
	if err != nil {
		return fmt.Errorf("failed to encode default of %s: %w", v.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO variables (id, module_id, name, var_type, description, default_value)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.ModuleID, v.Name, string(v.VarType), v.Description, defaults)
	if err != nil {
		return fmt.Errorf("failed to save variable %s: %w", v.ID, err)
	}
	return nil
}

// GetConditions returns the conditions of a router node by ascending priority.
func (s *Store) GetConditions(ctx context.Context, moduleID, nodeID string) ([]domain.Condition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, module_id, source_node_id, target_variable_id, condition_type, condition_value,
		       action_type, action_value, priority, expression_type, condition_operator
		FROM conditions WHERE module_id = ? AND source_node_id = ? ORDER BY priority, id`, moduleID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conditions: %w", err)
	}
	defer rows.Close()

	conds := []domain.Condition{}
	for rows.Next() {
		var (
			c                        domain.Condition
			condType, expr, operator string
			value                    sql.NullString
		)
		err := rows.Scan(&c.ID, &c.ModuleID, &c.SourceNodeID, &c.TargetVariableID, &condType, &value,
			&c.ActionType, &c.ActionValue, &c.Priority, &expr, &operator)
		if err != nil {
			return nil, fmt.Errorf("failed to scan condition: %w", err)
		}
		c.ConditionType = domain.ConditionType(condType)
		c.ExpressionType = domain.ExpressionType(expr)
		c.ConditionOperator = domain.LogicalOperator(operator)
		if c.ConditionValue, err = decodeJSON(value); err != nil {
			return nil, fmt.Errorf("failed to decode value of %s: %w", c.ID, err)
		}
		conds = append(conds, c)
	}
	return conds, rows.Err()
}

// SaveCondition inserts or replaces the condition by id. Empty expression type and
// operator are stored as simple and AND.
func (s *Store) SaveCondition(ctx context.Context, c domain.Condition) error {
	value, err := encodeJSON(c.ConditionValue)
	if err != nil {
		return fmt.Errorf("failed to encode value of %s: %w", c.ID, err)
	}
	expr := c.ExpressionType
	if expr == "" {
		expr = domain.ExpressionSimple
	}
	operator := c.ConditionOperator
	if operator == "" {
		operator = domain.OperatorAnd
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO conditions (id, module_id, source_node_id, target_variable_id,
			condition_type, condition_value, action_type, action_value, priority, expression_type,
			condition_operator)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ModuleID, c.SourceNodeID, c.TargetVariableID, string(c.ConditionType), value,
		c.ActionType, c.ActionValue, c.Priority, string(expr), string(operator))
	if err != nil {
		return fmt.Errorf("failed to save condition %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCondition removes the condition. Unknown ids are ignored.
func (s *Store) DeleteCondition(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conditions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete condition %s: %w", id, err)
	}
	return nil
}
