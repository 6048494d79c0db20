package record

import (
	"fmt"
	"slices"
)

// Type enumerates the value types a schema field can carry.
type Type int

const (
	// TypeString is a free-text field.
	TypeString Type = iota
	// TypeNumber is a numeric field.
	TypeNumber
	// TypeBool is a boolean field.
	TypeBool
	// TypeTime is an instant field.
	TypeTime
	// TypeStrings is a list-of-text field (order line-item names).
	TypeStrings
)

// String returns the schema-file spelling of the type.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeTime:
		return "time"
	case TypeStrings:
		return "strings"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType converts a schema-file spelling into a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "number":
		return TypeNumber, nil
	case "bool":
		return TypeBool, nil
	case "time":
		return TypeTime, nil
	case "strings":
		return TypeStrings, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}

// UpdatedAtField is the conventional name of the mutation timestamp field.
// The mutation coordinator stamps it on every applied mutation; schemas
// that carry it must declare it as TypeTime.
const UpdatedAtField = "updatedAt"

// Schema is the closed enumeration of fields for one record kind.
//
// Every field a filter, sort, search, or mutation may touch must be
// declared here with its value type. Referencing an undeclared field is a
// caller error detected up front, not a silent mismatch at evaluation time.
type Schema struct {
	// Kind names the record kind ("products", "orders", "users", ...).
	Kind string

	// Fields maps field name to value type.
	Fields map[string]Type

	// Searchable lists the fields included in the free-text search pass,
	// in declaration order.
	Searchable []string

	// Required lists the fields that must be present and non-empty on
	// create and update.
	Required []string

	// PriceField and DiscountField name the effective-price pair.
	// Both empty means the kind has no discounted pricing.
	PriceField    string
	DiscountField string
}

// FieldType returns the declared type of a field.
func (s Schema) FieldType(name string) (Type, bool) {
	t, ok := s.Fields[name]
	return t, ok
}

// IsSearchable reports whether a field participates in free-text search.
func (s Schema) IsSearchable(name string) bool {
	return slices.Contains(s.Searchable, name)
}

// IsRequired reports whether a field must be present and non-empty.
func (s Schema) IsRequired(name string) bool {
	return slices.Contains(s.Required, name)
}

// Validate checks the schema's internal consistency: searchable, required,
// and pricing fields must all be declared, the price pair must be numeric,
// and updatedAt (if declared) must be a time field.
func (s Schema) Validate() error {
	if s.Kind == "" {
		return fmt.Errorf("schema: kind is required")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %s: at least one field is required", s.Kind)
	}
	for _, name := range s.Searchable {
		t, ok := s.Fields[name]
		if !ok {
			return fmt.Errorf("schema %s: searchable field %q is not declared", s.Kind, name)
		}
		if t != TypeString && t != TypeStrings {
			return fmt.Errorf("schema %s: searchable field %q must be string or strings, got %s", s.Kind, name, t)
		}
	}
	for _, name := range s.Required {
		if _, ok := s.Fields[name]; !ok {
			return fmt.Errorf("schema %s: required field %q is not declared", s.Kind, name)
		}
	}
	if (s.PriceField == "") != (s.DiscountField == "") {
		return fmt.Errorf("schema %s: price and discount fields must be declared together", s.Kind)
	}
	if s.PriceField != "" {
		if t, ok := s.Fields[s.PriceField]; !ok || t != TypeNumber {
			return fmt.Errorf("schema %s: price field %q must be a declared number field", s.Kind, s.PriceField)
		}
		if t, ok := s.Fields[s.DiscountField]; !ok || t != TypeNumber {
			return fmt.Errorf("schema %s: discount field %q must be a declared number field", s.Kind, s.DiscountField)
		}
	}
	if t, ok := s.Fields[UpdatedAtField]; ok && t != TypeTime {
		return fmt.Errorf("schema %s: %s must be a time field", s.Kind, UpdatedAtField)
	}
	return nil
}

// FieldNames returns the declared field names in sorted order.
// Sorted iteration keeps derived output deterministic.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
