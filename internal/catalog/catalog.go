// Package catalog loads seed data for record collections from YAML files.
//
// A seed file declares one record kind and either a flat record list or a
// nested category tree. Decoding is strict: unknown YAML keys, undeclared
// fields, and type mismatches are load errors, never silent coercions.
package catalog

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tallridge/backroom/internal/record"
	"github.com/tallridge/backroom/internal/tree"
)

// Seed is the decoded content of one seed file.
type Seed struct {
	Kind    string
	Records []record.Record
	Tree    []tree.Category
}

type seedFile struct {
	Kind    string         `yaml:"kind"`
	Records []RecordSeed   `yaml:"records"`
	Tree    []CategorySeed `yaml:"tree"`
}

// RecordSeed is one undecoded record entry: an id plus raw YAML field
// values. The harness embeds it in scenario files, so it is exported.
type RecordSeed struct {
	ID     string         `yaml:"id"`
	Fields map[string]any `yaml:"fields"`
}

// CategorySeed is one undecoded category entry. Like RecordSeed it is
// exported for the harness, which seeds tree scenarios from it.
type CategorySeed struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Subcategories []SubcategorySeed `yaml:"subcategories"`
}

// SubcategorySeed is one undecoded subcategory entry.
type SubcategorySeed struct {
	ID    string       `yaml:"id"`
	Name  string       `yaml:"name"`
	Items []RecordSeed `yaml:"items"`
}

// LoadFile loads a seed file from disk.
func LoadFile(path string, kinds map[string]record.Schema) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	seed, err := Load(f, kinds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seed, nil
}

// Load decodes one seed document against the known kind set.
func Load(r io.Reader, kinds map[string]record.Schema) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file seedFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	sc, ok := kinds[file.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", file.Kind)
	}
	if len(file.Records) > 0 && len(file.Tree) > 0 {
		return nil, fmt.Errorf("kind %s: seed declares both records and tree", file.Kind)
	}

	seed := &Seed{Kind: file.Kind}

	seen := make(map[string]struct{})
	for _, rs := range file.Records {
		rec, err := coerceRecord(sc, rs, seen)
		if err != nil {
			return nil, err
		}
		seed.Records = append(seed.Records, rec)
	}

	for _, cs := range file.Tree {
		cat, err := coerceCategory(sc, cs, seen)
		if err != nil {
			return nil, err
		}
		seed.Tree = append(seed.Tree, cat)
	}

	return seed, nil
}

func coerceCategory(sc record.Schema, cs CategorySeed, seen map[string]struct{}) (tree.Category, error) {
	cat := tree.Category{ID: cs.ID, Name: cs.Name}
	if cat.ID == "" || cat.Name == "" {
		return cat, fmt.Errorf("category %q: id and name are required", cs.ID)
	}
	for _, ss := range cs.Subcategories {
		if ss.ID == "" || ss.Name == "" {
			return cat, fmt.Errorf("category %s: subcategory %q: id and name are required", cs.ID, ss.ID)
		}
		sub := tree.Subcategory{ID: ss.ID, Name: ss.Name}
		for _, rs := range ss.Items {
			rec, err := coerceRecord(sc, rs, seen)
			if err != nil {
				return cat, fmt.Errorf("category %s/%s: %w", cs.ID, ss.ID, err)
			}
			sub.Items = append(sub.Items, rec)
		}
		cat.Subcategories = append(cat.Subcategories, sub)
	}
	return cat, nil
}

// CoerceTree converts undecoded category seeds into a typed tree.
func CoerceTree(sc record.Schema, seeds []CategorySeed) ([]tree.Category, error) {
	seen := make(map[string]struct{})
	out := make([]tree.Category, 0, len(seeds))
	for _, cs := range seeds {
		cat, err := coerceCategory(sc, cs, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

// CoerceRecords converts undecoded seed entries into typed records.
func CoerceRecords(sc record.Schema, seeds []RecordSeed) ([]record.Record, error) {
	seen := make(map[string]struct{})
	out := make([]record.Record, 0, len(seeds))
	for _, rs := range seeds {
		rec, err := coerceRecord(sc, rs, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func coerceRecord(sc record.Schema, rs RecordSeed, seen map[string]struct{}) (record.Record, error) {
	if rs.ID == "" {
		return record.Record{}, fmt.Errorf("record with empty id")
	}
	if _, dup := seen[rs.ID]; dup {
		return record.Record{}, fmt.Errorf("duplicate record id %q", rs.ID)
	}
	seen[rs.ID] = struct{}{}

	rec := record.New(rs.ID)
	for name, raw := range rs.Fields {
		ft, ok := sc.FieldType(name)
		if !ok {
			return rec, fmt.Errorf("record %s: field %q not declared for kind %s", rs.ID, name, sc.Kind)
		}
		v, err := coerceValue(ft, raw)
		if err != nil {
			return rec, fmt.Errorf("record %s field %s: %w", rs.ID, name, err)
		}
		rec.Set(name, v)
	}

	for _, required := range sc.Required {
		if _, ok := rec.Get(required); !ok {
			return rec, fmt.Errorf("record %s: required field %q missing", rs.ID, required)
		}
	}
	return rec, nil
}

// coerceValue converts one decoded YAML scalar into a typed field value.
func coerceValue(ft record.Type, raw any) (record.Value, error) {
	switch ft {
	case record.TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return record.NewString(s), nil

	case record.TypeNumber:
		switch n := raw.(type) {
		case int:
			return record.NewNumber(float64(n)), nil
		case float64:
			return record.NewNumber(n), nil
		default:
			return nil, fmt.Errorf("expected number, got %T", raw)
		}

	case record.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", raw)
		}
		return record.NewBool(b), nil

	case record.TypeTime:
		switch t := raw.(type) {
		case time.Time:
			// yaml.v3 decodes canonical timestamps natively.
			return record.NewTime(t), nil
		case string:
			parsed, err := time.Parse(time.RFC3339, t)
			if err != nil {
				return nil, fmt.Errorf("parse time %q: %w", t, err)
			}
			return record.NewTime(parsed), nil
		default:
			return nil, fmt.Errorf("expected timestamp, got %T", raw)
		}

	case record.TypeStrings:
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("expected list of strings, got %T", raw)
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string list item, got %T", item)
			}
			out = append(out, s)
		}
		return record.NewStrings(out...), nil

	default:
		return nil, fmt.Errorf("unsupported field type %v", ft)
	}
}
