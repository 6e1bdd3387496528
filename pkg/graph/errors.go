package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a single structural problem found in a module graph.
type ValidationError struct {
	NodeID  string `json:"node_id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	switch {
	case e.NodeID == "":
		return e.Message
	case e.Field == "":
		return fmt.Sprintf("node %q: %s", e.NodeID, e.Message)
	default:
		return fmt.Sprintf("node %q (%s): %s", e.NodeID, e.Field, e.Message)
	}
}

// AggregateError carries every problem of a failed validation.
type AggregateError struct {
	Errors []ValidationError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d graph errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// AsError folds a validation result into an error. It returns nil when errs is empty.
func AsError(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: append([]ValidationError(nil), errs...)}
}

// ValidationErrors unwraps the problems carried by err, if any.
func ValidationErrors(err error) []ValidationError {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
