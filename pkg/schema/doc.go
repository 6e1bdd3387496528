// Package schema validates learner variable values against their declared types.
//
// Module variables declare a var_type of "string", "number", "boolean" or "array".
// A Schema maps variable ids to Types and checks the learner's variables_state
// (or a single assignment) before it is persisted:
//
//	s, err := schema.ForVariables(vars)
//	if err != nil {
//	    // a variable declares an unsupported type
//	}
//	if err := schema.ValidatePresent(s, state.VariablesState); err != nil {
//	    // Handle validation errors
//	}
//
// Values are expected in their JSON-decoded shape: numbers may arrive as any Go
// numeric kind, arrays as any slice or array.
package schema
