package mutate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tallridge/backroom/internal/record"
)

// Payload carries raw user input for a create or update.
//
// Fields are keyed by schema field name and hold the untyped text the
// presentation layer collected; parsing against the schema happens here,
// once, instead of per screen. An empty ID requests a create.
type Payload struct {
	ID     string
	Fields map[string]string
}

// parseFields converts raw payload text into typed values.
//
// The uniform parse rule: a field that is required by the schema rejects
// an unparseable value with a field-level error; an optional numeric
// field coerces an unparseable value to 0, an optional time field to the
// zero instant, an optional bool to false. Unknown field names are always
// a validation error - the schema is a closed enumeration.
func parseFields(s record.Schema, raw map[string]string) (map[string]record.Value, map[string]string) {
	parsed := make(map[string]record.Value, len(raw))
	fieldErrors := make(map[string]string)

	for name, text := range raw {
		t, ok := s.FieldType(name)
		if !ok {
			fieldErrors[name] = "unknown field"
			continue
		}

		switch t {
		case record.TypeString:
			parsed[name] = record.NewString(text)

		case record.TypeNumber:
			n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
			if err != nil {
				if s.IsRequired(name) {
					fieldErrors[name] = "must be a number"
					continue
				}
				n = 0
			}
			parsed[name] = record.NewNumber(n)

		case record.TypeBool:
			b, err := strconv.ParseBool(strings.TrimSpace(text))
			if err != nil {
				if s.IsRequired(name) {
					fieldErrors[name] = "must be true or false"
					continue
				}
				b = false
			}
			parsed[name] = record.NewBool(b)

		case record.TypeTime:
			ts, err := time.Parse(time.RFC3339, strings.TrimSpace(text))
			if err != nil {
				if s.IsRequired(name) {
					fieldErrors[name] = "must be an RFC 3339 timestamp"
					continue
				}
				ts = time.Time{}
			}
			parsed[name] = record.NewTime(ts)

		case record.TypeStrings:
			items := strings.Split(text, ",")
			out := make([]string, 0, len(items))
			for _, item := range items {
				if trimmed := strings.TrimSpace(item); trimmed != "" {
					out = append(out, trimmed)
				}
			}
			parsed[name] = record.NewStrings(out...)
		}
	}

	return parsed, fieldErrors
}

// ParseValue parses one raw field value against the schema, using the
// same parse rule as payload fields. Callers building a bulk assign from
// text input use this to obtain the typed value.
func ParseValue(s record.Schema, field, text string) (record.Value, error) {
	parsed, fieldErrors := parseFields(s, map[string]string{field: text})
	if msg, bad := fieldErrors[field]; bad {
		return nil, fmt.Errorf("field %s: %s", field, msg)
	}
	return parsed[field], nil
}

// validateRequired checks that every required field on the merged record
// is present and non-empty. Runs after merge so a partial update may omit
// a required field whose existing value stands.
func validateRequired(s record.Schema, r record.Record, fieldErrors map[string]string) {
	for _, name := range s.Required {
		v, ok := r.Get(name)
		if !ok {
			fieldErrors[name] = "is required"
			continue
		}
		if sv, isStr := v.(record.String); isStr && strings.TrimSpace(string(sv)) == "" {
			fieldErrors[name] = "must not be empty"
		}
	}
}
