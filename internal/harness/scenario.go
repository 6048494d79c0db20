package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tallridge/backroom/internal/catalog"
)

// Scenario defines one conformance scenario: a seeded collection and a
// sequence of user interactions whose derived views, selection states,
// and mutation outcomes are traced deterministically.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Kind is the record kind, resolved against the builtin schema set.
	Kind string `yaml:"kind"`

	// PageSize overrides the default page size when positive.
	PageSize int `yaml:"page_size,omitempty"`

	// GeneratedIDs feeds created records; creates beyond the list fail the
	// run. Deterministic ids keep golden traces stable.
	GeneratedIDs []string `yaml:"generated_ids,omitempty"`

	// Seed is the initial raw collection for flat scenarios.
	Seed []catalog.RecordSeed `yaml:"seed,omitempty"`

	// Tree is the initial category tree for tree scenarios. At most one
	// of Seed and Tree may be set; tree steps require Tree.
	Tree []catalog.CategorySeed `yaml:"tree,omitempty"`

	// Steps is the interaction sequence. Each step carries exactly one
	// directive.
	Steps []Step `yaml:"steps"`
}

// Step is one user interaction. Exactly one directive must be set;
// the strict decoder rejects unknown keys, validation rejects empty and
// double-directive steps.
type Step struct {
	Search        *string      `yaml:"search,omitempty"`
	FilterSet     *FilterSet   `yaml:"filter_set,omitempty"`
	FilterRange   *FilterRange `yaml:"filter_range,omitempty"`
	FilterFlag    *FilterFlag  `yaml:"filter_flag,omitempty"`
	ClearFilters  bool         `yaml:"clear_filters,omitempty"`
	Sort          *SortStep    `yaml:"sort,omitempty"`
	LoadMore      bool         `yaml:"load_more,omitempty"`
	Toggle        string       `yaml:"toggle,omitempty"`
	ToggleAll     bool         `yaml:"toggle_all,omitempty"`
	Upsert        *UpsertStep  `yaml:"upsert,omitempty"`
	RequestDelete string       `yaml:"request_delete,omitempty"`
	ConfirmDelete bool         `yaml:"confirm_delete,omitempty"`
	CancelDelete  bool         `yaml:"cancel_delete,omitempty"`
	BulkAssign    *BulkAssign  `yaml:"bulk_assign,omitempty"`
	BulkAdjust    *BulkAdjust  `yaml:"bulk_adjust,omitempty"`

	// Tree directives. Tree deletes are two-phase like their flat
	// counterparts: the request reports the guard, confirm_delete and
	// cancel_delete settle it.
	DeleteCategory    string          `yaml:"delete_category,omitempty"`
	DeleteSubcategory *SubcategoryRef `yaml:"delete_subcategory,omitempty"`
}

// SubcategoryRef addresses one subcategory by id chain.
type SubcategoryRef struct {
	Category string `yaml:"category"`
	ID       string `yaml:"id"`
}

// FilterSet adds a value-set filter to the active filter list.
type FilterSet struct {
	Field  string   `yaml:"field"`
	Values []string `yaml:"values"`
}

// FilterRange adds a numeric range filter to the active filter list.
type FilterRange struct {
	Field string  `yaml:"field"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// FilterFlag adds a boolean flag filter to the active filter list.
type FilterFlag struct {
	Field  string `yaml:"field"`
	Active bool   `yaml:"active"`
}

// SortStep sets the sort key and direction.
type SortStep struct {
	Key string `yaml:"key"`
	Dir string `yaml:"dir,omitempty"` // "asc" (default) or "desc"
}

// UpsertStep creates (empty id) or updates a record.
type UpsertStep struct {
	ID     string            `yaml:"id,omitempty"`
	Fields map[string]string `yaml:"fields"`
}

// BulkAssign assigns one parsed value to a field across the selection.
type BulkAssign struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// BulkAdjust shifts a numeric field by a percentage across the selection.
type BulkAdjust struct {
	Field   string  `yaml:"field"`
	Percent float64 `yaml:"percent"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// (typos) and structurally invalid scenarios are load errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and the one-directive rule.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Seed) > 0 && len(s.Tree) > 0 {
		return fmt.Errorf("seed and tree are mutually exclusive")
	}

	for i, step := range s.Steps {
		if n := step.directiveCount(); n != 1 {
			return fmt.Errorf("steps[%d]: exactly one directive required, got %d", i, n)
		}
	}
	return nil
}

func (s Step) directiveCount() int {
	n := 0
	if s.Search != nil {
		n++
	}
	if s.FilterSet != nil {
		n++
	}
	if s.FilterRange != nil {
		n++
	}
	if s.FilterFlag != nil {
		n++
	}
	if s.ClearFilters {
		n++
	}
	if s.Sort != nil {
		n++
	}
	if s.LoadMore {
		n++
	}
	if s.Toggle != "" {
		n++
	}
	if s.ToggleAll {
		n++
	}
	if s.Upsert != nil {
		n++
	}
	if s.RequestDelete != "" {
		n++
	}
	if s.ConfirmDelete {
		n++
	}
	if s.CancelDelete {
		n++
	}
	if s.BulkAssign != nil {
		n++
	}
	if s.BulkAdjust != nil {
		n++
	}
	if s.DeleteCategory != "" {
		n++
	}
	if s.DeleteSubcategory != nil {
		n++
	}
	return n
}
