package schema

import (
	"fmt"
	"reflect"

	"github.com/aretw0/pathway/pkg/domain"
)

// Type defines the contract for value validation.
type Type interface {
	// Name returns the var_type this Type validates (e.g., "string", "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return string(domain.VarString) }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// NumberType validates numeric values of any Go kind.
type NumberType struct{}

func (t *NumberType) Name() string { return string(domain.VarNumber) }

func (t *NumberType) Validate(value any) error {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

// BooleanType validates boolean values.
type BooleanType struct{}

func (t *BooleanType) Name() string { return string(domain.VarBoolean) }

func (t *BooleanType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

// ArrayType validates slices and arrays. Elements are not constrained.
type ArrayType struct{}

func (t *ArrayType) Name() string { return string(domain.VarArray) }

func (t *ArrayType) Validate(value any) error {
	if value == nil {
		return fmt.Errorf("expected array, got nil")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected array, got %T", value)
	}
	return nil
}

// String creates a string type validator.
func String() Type { return &StringType{} }

// Number creates a number type validator.
func Number() Type { return &NumberType{} }

// Boolean creates a boolean type validator.
func Boolean() Type { return &BooleanType{} }

// Array creates an array type validator.
func Array() Type { return &ArrayType{} }

// ParseType converts a declared var_type into a Type.
func ParseType(varType domain.VarType) (Type, error) {
	switch varType {
	case domain.VarString:
		return String(), nil
	case domain.VarNumber:
		return Number(), nil
	case domain.VarBoolean:
		return Boolean(), nil
	case domain.VarArray:
		return Array(), nil
	default:
		return nil, fmt.Errorf("unsupported var_type: %q", varType)
	}
}

// ForVariables builds a Schema keyed by variable id.
func ForVariables(vars []domain.Variable) (Schema, error) {
	result := make(Schema, len(vars))
	for _, v := range vars {
		t, err := ParseType(v.VarType)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.ID, err)
		}
		result[v.ID] = t
	}
	return result, nil
}
