package schema

import "github.com/aretw0/pathway/pkg/domain"

// Schema is a map of variable ids to their expected types.
type Schema map[string]Type

// Validate checks that every schema key is present in data with the right type.
// Returns an error with all validation failures found.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	for key, typ := range schema {
		value, exists := data[key]
		if !exists {
			errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidatePresent checks only the keys present in data. Keys unknown to the
// schema are rejected; missing keys are allowed since variables fall back to defaults.
func ValidatePresent(schema Schema, data map[string]any) error {
	var errs []error
	for key, value := range data {
		typ, ok := schema[key]
		if !ok {
			errs = append(errs, &ValidationError{Key: key, Reason: "not defined in schema"})
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateDefaults checks that every declared default_value matches its var_type.
// Variables without a default are skipped.
func ValidateDefaults(vars []domain.Variable) error {
	var errs []error
	for _, v := range vars {
		typ, err := ParseType(v.VarType)
		if err != nil {
			errs = append(errs, &ValidationError{Key: v.ID, Reason: err.Error()})
			continue
		}
		if v.DefaultValue == nil {
			continue
		}
		if err := typ.Validate(v.DefaultValue); err != nil {
			errs = append(errs, &ValidationError{Key: v.ID, Reason: "default_value: " + err.Error(), Value: v.DefaultValue})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
