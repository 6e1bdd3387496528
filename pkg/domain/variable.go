package domain

// VarType is the declared type of a module variable.
type VarType string

const (
	VarString  VarType = "string"
	VarNumber  VarType = "number"
	VarBoolean VarType = "boolean"
	VarArray   VarType = "array"
)

// Variable is a module-scoped value consulted by router conditions.
type Variable struct {
	ID           string  `json:"id"`
	ModuleID     string  `json:"module_id"`
	Name         string  `json:"name"`
	VarType      VarType `json:"var_type"`
	Description  string  `json:"description,omitempty"`
	DefaultValue any     `json:"default_value,omitempty"`
}
