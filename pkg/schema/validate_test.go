package schema

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/pathway/pkg/domain"
)

func TestValidate_Success(t *testing.T) {
	s := Schema{
		"name":  String(),
		"score": Number(),
		"done":  Boolean(),
		"tags":  Array(),
	}
	data := map[string]any{
		"name":  "Ada",
		"score": 12.5,
		"done":  true,
		"tags":  []any{"a"},
	}

	if err := Validate(s, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingAndWrongType(t *testing.T) {
	s := Schema{"name": String(), "score": Number()}

	err := Validate(s, map[string]any{"score": "high"})
	if err == nil {
		t.Fatal("Validate() should fail")
	}

	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("Validate() = %d errors, want 2", len(errs))
	}
	if !strings.Contains(err.Error(), "2 validation errors") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestValidatePresent(t *testing.T) {
	s := Schema{"name": String(), "score": Number()}

	if err := ValidatePresent(s, map[string]any{"score": 3}); err != nil {
		t.Errorf("ValidatePresent() error = %v, want nil", err)
	}

	err := ValidatePresent(s, map[string]any{"ghost": 1})
	if err == nil {
		t.Fatal("ValidatePresent() should reject unknown keys")
	}
	var ve *ValidationError
	if !errors.As(ValidationErrors(err)[0], &ve) || ve.Key != "ghost" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateDefaults(t *testing.T) {
	vars := []domain.Variable{
		{ID: "a", VarType: domain.VarNumber, DefaultValue: 1},
		{ID: "b", VarType: domain.VarString},
		{ID: "c", VarType: domain.VarBoolean, DefaultValue: "yes"},
	}

	err := ValidateDefaults(vars)
	if err == nil {
		t.Fatal("ValidateDefaults() should fail for c")
	}
	errs := ValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), err)
	}
	if !strings.Contains(errs[0].Error(), `"c"`) {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestValidationErrors_Wrapped(t *testing.T) {
	inner := &AggregateError{Errors: []error{&ValidationError{Key: "x", Reason: "required"}}}
	wrapped := fmt.Errorf("set variable: %w", inner)

	if got := ValidationErrors(wrapped); len(got) != 1 {
		t.Errorf("ValidationErrors() = %v, want 1 error", got)
	}
	if ValidationErrors(errors.New("plain")) != nil {
		t.Error("ValidationErrors() should be nil for plain errors")
	}
}
