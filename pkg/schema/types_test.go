package schema

import (
	"testing"

	"github.com/aretw0/pathway/pkg/domain"
)

func TestTypes(t *testing.T) {
	tests := []struct {
		typ     Type
		name    string
		value   any
		wantErr bool
	}{
		{String(), "string", "hello", false},
		{String(), "string", "", false},
		{String(), "string", 42, true},
		{String(), "string", nil, true},
		{Number(), "number", 42, false},
		{Number(), "number", 3.14, false},
		{Number(), "number", int64(7), false},
		{Number(), "number", "42", true},
		{Number(), "number", true, true},
		{Boolean(), "boolean", false, false},
		{Boolean(), "boolean", "true", true},
		{Array(), "array", []any{1, "a"}, false},
		{Array(), "array", []string{}, false},
		{Array(), "array", [2]int{1, 2}, false},
		{Array(), "array", "abc", true},
		{Array(), "array", nil, true},
	}

	for _, tt := range tests {
		if tt.typ.Name() != tt.name {
			t.Errorf("Name() = %q, want %q", tt.typ.Name(), tt.name)
		}
		err := tt.typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s.Validate(%v) error = %v, wantErr %v", tt.name, tt.value, err, tt.wantErr)
		}
	}
}

func TestParseType(t *testing.T) {
	for _, vt := range []domain.VarType{domain.VarString, domain.VarNumber, domain.VarBoolean, domain.VarArray} {
		typ, err := ParseType(vt)
		if err != nil {
			t.Fatalf("ParseType(%q) error = %v", vt, err)
		}
		if typ.Name() != string(vt) {
			t.Errorf("ParseType(%q).Name() = %q", vt, typ.Name())
		}
	}

	if _, err := ParseType("object"); err == nil {
		t.Error("ParseType(object) should fail")
	}
}

func TestForVariables(t *testing.T) {
	s, err := ForVariables([]domain.Variable{
		{ID: "score", VarType: domain.VarNumber},
		{ID: "name", VarType: domain.VarString},
	})
	if err != nil {
		t.Fatalf("ForVariables() error = %v", err)
	}
	if len(s) != 2 || s["score"].Name() != "number" {
		t.Errorf("unexpected schema: %v", s)
	}

	if _, err := ForVariables([]domain.Variable{{ID: "x", VarType: "map"}}); err == nil {
		t.Error("ForVariables() should reject unsupported var_type")
	}
}
