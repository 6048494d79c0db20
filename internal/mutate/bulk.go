package mutate

import (
	"fmt"
	"log/slog"

	"github.com/tallridge/backroom/internal/record"
)

// BulkMode selects how a bulk action writes its field.
type BulkMode int

const (
	// BulkAssign writes the spec value verbatim to every target
	// ("set status to shipped").
	BulkAssign BulkMode = iota

	// BulkAdjustPercent applies a relative numeric adjustment per target:
	// new = old * (1 + percent/100). Each record is adjusted from its own
	// old value, never from a shared average.
	BulkAdjustPercent
)

// BulkSpec describes one bulk action over a selection.
type BulkSpec struct {
	// TargetIDs is the selection the action applies to. Must be
	// non-empty: an empty selection is an error, not a no-op success.
	TargetIDs []string

	// Field is the schema field to write.
	Field string

	// Mode selects assignment or percentage adjustment.
	Mode BulkMode

	// Value is the assigned value for BulkAssign.
	Value record.Value

	// Percent is the relative adjustment for BulkAdjustPercent;
	// -10 reduces by 10%, 10 increases by 10%.
	Percent float64
}

// Bulk applies one field mutation uniformly to every targeted record.
//
// The whole action is validated before anything is written: an empty
// selection, an undeclared field, or a missing target id fails with no
// mutation applied. On success every mutated record carries a fresh
// updatedAt stamp and the caller is expected to clear its selection - the
// bulk targets are consumed.
func (c *Coordinator) Bulk(coll []record.Record, spec BulkSpec) Result {
	if len(spec.TargetIDs) == 0 {
		return Result{Status: StatusEmptySelection}
	}

	fieldType, ok := c.schema.FieldType(spec.Field)
	if !ok {
		return validationFailed(map[string]string{spec.Field: "unknown field"})
	}
	if spec.Mode == BulkAdjustPercent && fieldType != record.TypeNumber {
		return validationFailed(map[string]string{
			spec.Field: fmt.Sprintf("percentage adjustment requires a number field, %s is %s", spec.Field, fieldType),
		})
	}
	if spec.Mode == BulkAssign && spec.Value == nil {
		return validationFailed(map[string]string{spec.Field: "assignment value is required"})
	}

	// Resolve all targets up front so a missing id aborts before any write.
	targets := make(map[string]struct{}, len(spec.TargetIDs))
	for _, id := range spec.TargetIDs {
		if record.FindIndex(coll, id) < 0 {
			return notFound(id)
		}
		targets[id] = struct{}{}
	}

	next := make([]record.Record, len(coll))
	mutated := 0
	for i, r := range coll {
		clone := r.Clone()
		if _, targeted := targets[r.ID]; targeted {
			if c.applyBulkField(&clone, spec) {
				c.stamp(&clone)
				mutated++
			}
		}
		next[i] = clone
	}

	slog.Debug("bulk action applied",
		"kind", c.schema.Kind,
		"field", spec.Field,
		"targets", len(spec.TargetIDs),
		"mutated", mutated,
	)
	return success(next, "")
}

// applyBulkField writes one record's field per the spec. Returns false
// when a percentage adjustment finds no existing value to adjust; such
// records are left untouched and unstamped.
func (c *Coordinator) applyBulkField(r *record.Record, spec BulkSpec) bool {
	switch spec.Mode {
	case BulkAssign:
		r.Set(spec.Field, spec.Value)
		return true
	case BulkAdjustPercent:
		v, ok := r.Get(spec.Field)
		if !ok {
			return false
		}
		n, ok := v.(record.Number)
		if !ok {
			return false
		}
		r.Set(spec.Field, record.NewNumber(float64(n)*(1+spec.Percent/100)))
		return true
	default:
		return false
	}
}
