package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/tallridge/backroom/internal/record"
)

// CompileKind parses one CUE kind struct into a record schema.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the kind struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`kind: products: { ... }`)
//	s, err := CompileKind(v.LookupPath(cue.ParsePath("kind.products")))
func CompileKind(v cue.Value) (record.Schema, error) {
	s := record.Schema{Fields: make(map[string]record.Type)}
	if err := v.Err(); err != nil {
		return s, formatCUEError(err)
	}

	// The kind name is the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		s.Kind = labels[len(labels)-1].String()
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return s, &CompileError{
			Kind:    s.Kind,
			Field:   "fields",
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return s, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		typeName, err := iter.Value().String()
		if err != nil {
			return s, formatCUEError(err)
		}
		ft, err := record.ParseType(typeName)
		if err != nil {
			return s, &CompileError{
				Kind:    s.Kind,
				Field:   "fields." + name,
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		s.Fields[name] = ft
	}
	if len(s.Fields) == 0 {
		return s, &CompileError{
			Kind:    s.Kind,
			Field:   "fields",
			Message: "at least one field is required",
			Pos:     v.Pos(),
		}
	}

	if s.Searchable, err = stringList(v, "searchable"); err != nil {
		return s, err
	}
	if s.Required, err = stringList(v, "required"); err != nil {
		return s, err
	}

	if s.PriceField, err = optionalString(v, "price"); err != nil {
		return s, err
	}
	if s.DiscountField, err = optionalString(v, "discount"); err != nil {
		return s, err
	}

	// Cross-field consistency (searchable/required/pricing references)
	// lives on the schema type itself; surface failures with the kind's
	// source position.
	if err := s.Validate(); err != nil {
		return s, &CompileError{
			Kind:    s.Kind,
			Field:   "kind",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

// CompileAll extracts every kind under the top-level "kind" struct.
func CompileAll(v cue.Value) (map[string]record.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	kindsVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindsVal.Exists() {
		return nil, &CompileError{
			Field:   "kind",
			Message: "no kinds defined",
			Pos:     v.Pos(),
		}
	}
	iter, err := kindsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	out := make(map[string]record.Schema)
	for iter.Next() {
		s, err := CompileKind(iter.Value())
		if err != nil {
			return nil, err
		}
		out[s.Kind] = s
	}
	return out, nil
}

func stringList(v cue.Value, path string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(path))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a schema compilation error with source position.
type CompileError struct {
	Kind    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	field := e.Field
	if e.Kind != "" {
		field = e.Kind + "." + field
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), field, e.Message)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
