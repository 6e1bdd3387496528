// Package file reads and writes module documents in a directory. A document is a
// YAML or JSON file named after its module id that holds the module plus, optionally,
// its variables and router conditions.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/graph"
)

// Extensions lists the recognized document extensions, in lookup order.
var Extensions = []string{".yaml", ".yml", ".json"}

// Document is the content of one module file.
type Document struct {
	Module     *domain.Module
	Variables  []domain.Variable
	Conditions []domain.Condition
}

// LoadDocument reads and decodes the document at path. The module id defaults to
// the file name without extension and missing edges are derived from node data.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Module.ID == "" {
		doc.bind(stem(path))
	}
	return doc, nil
}

// ParseDocument decodes a document in the format implied by ext.
func ParseDocument(data []byte, ext string) (*Document, error) {
	var raw map[string]any
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported document extension %q", ext)
	}
	if raw == nil {
		return nil, fmt.Errorf("empty document")
	}
	return decodeDocument(raw)
}

// decodeDocument splits a generic document into module, variables and conditions.
// raw is consumed.
func decodeDocument(raw map[string]any) (*Document, error) {
	doc := &Document{Module: &domain.Module{}}
	variables, conditions := raw["variables"], raw["conditions"]
	delete(raw, "variables")
	delete(raw, "conditions")

	if err := domain.Decode(raw, doc.Module); err != nil {
		return nil, fmt.Errorf("module: %w", err)
	}
	if variables != nil {
		if err := domain.Decode(variables, &doc.Variables); err != nil {
			return nil, fmt.Errorf("variables: %w", err)
		}
	}
	if conditions != nil {
		if err := domain.Decode(conditions, &doc.Conditions); err != nil {
			return nil, fmt.Errorf("conditions: %w", err)
		}
	}

	if len(doc.Module.Edges) == 0 {
		doc.Module.Edges = graph.DeriveEdges(doc.Module.Nodes)
	}
	doc.bind(doc.Module.ID)
	return doc, nil
}

// bind sets the module id and moves the variables and conditions that were scoped to
// the previous id, or to none, over to it.
func (d *Document) bind(id string) {
	prev := d.Module.ID
	d.Module.ID = id
	for i := range d.Variables {
		if m := d.Variables[i].ModuleID; m == "" || m == prev {
			d.Variables[i].ModuleID = id
		}
	}
	for i := range d.Conditions {
		if m := d.Conditions[i].ModuleID; m == "" || m == prev {
			d.Conditions[i].ModuleID = id
		}
	}
}

// Encode renders the document in the format implied by ext. Keys follow the JSON
// field names in both formats.
func (d *Document) Encode(ext string) ([]byte, error) {
	raw, err := d.fields()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(ext) {
	case ".json":
		return json.MarshalIndent(raw, "", "  ")
	case ".yaml", ".yml":
		return yaml.Marshal(raw)
	}
	return nil, fmt.Errorf("unsupported document extension %q", ext)
}

// fields flattens the document into generic values keyed by JSON field names.
func (d *Document) fields() (map[string]any, error) {
	top := map[string]any{"module": d.Module}
	if len(d.Variables) > 0 {
		top["variables"] = d.Variables
	}
	if len(d.Conditions) > 0 {
		top["conditions"] = d.Conditions
	}
	data, err := json.Marshal(top)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	raw, _ := generic["module"].(map[string]any)
	if raw == nil {
		raw = map[string]any{}
	}
	for _, key := range []string{"variables", "conditions"} {
		if v, ok := generic[key]; ok {
			raw[key] = v
		}
	}
	return raw, nil
}

// normalize rewrites decoded values into the shapes encoding/json produces:
// string-keyed maps and float64 numbers.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return v
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
