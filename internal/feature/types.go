// Package feature defines the typed feature vocabulary (Def, Type), the
// schema-complete per-file Record, and the aggregation step that merges
// sniffer and parser output into a Record.
package feature

import (
	"fmt"
)

// Type is the declared value type of a feature.
type Type string

const (
	TypeBool  Type = "bool"
	TypeInt   Type = "int"
	TypeFloat Type = "float"
	TypeEnum  Type = "enum"
)

// ParseType converts a schema type string to a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeBool, TypeInt, TypeFloat, TypeEnum:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown feature type: %q", s)
	}
}

// Normalize coerces v to the canonical Go representation of t
// (bool, int, float64, string). The second return is false when v
// cannot represent a value of type t.
func (t Type) Normalize(v any) (any, bool) {
	switch t {
	case TypeBool:
		b, ok := v.(bool)
		return b, ok
	case TypeInt:
		switch n := v.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case uint16:
			return int(n), true
		case uint32:
			return int(n), true
		}
		return 0, false
	case TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
		return 0.0, false
	case TypeEnum:
		s, ok := v.(string)
		return s, ok
	}
	return nil, false
}

// Zero returns the implicit default for t, used when a schema entry
// declares no default of its own.
func (t Type) Zero() any {
	switch t {
	case TypeBool:
		return false
	case TypeInt:
		return 0
	case TypeFloat:
		return 0.0
	case TypeEnum:
		return ""
	}
	return nil
}

// Def declares a single feature: its name, value type, owning family,
// and the default imputed when no parser value is available.
type Def struct {
	Name    string
	Type    Type
	Family  string
	Default any
}
