package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tallridge/backroom/internal/record"
	"github.com/tallridge/backroom/internal/tree"
)

// Snapshots are stored as deterministic JSON TEXT: one array of record
// objects, field maps with sorted keys, no HTML escaping. Identical
// collections always produce byte-identical payloads, so snapshot rows
// diff cleanly and golden tests stay stable.
//
// Field values are encoded by their concrete type; the schema drives
// decoding, so a payload survives schema-compatible field additions.

// marshalRecords encodes a raw collection as snapshot payload TEXT.
func marshalRecords(records []record.Record) (string, error) {
	out, err := encodeRecords(records)
	if err != nil {
		return "", err
	}
	return encodePayload(out)
}

// marshalTree encodes a category tree as snapshot payload TEXT, nesting
// each subcategory's item records inside its branch.
func marshalTree(cats []tree.Category) (string, error) {
	out := make([]map[string]any, 0, len(cats))
	for _, c := range cats {
		subs := make([]map[string]any, 0, len(c.Subcategories))
		for _, sub := range c.Subcategories {
			items, err := encodeRecords(sub.Items)
			if err != nil {
				return "", fmt.Errorf("subcategory %s/%s: %w", c.ID, sub.ID, err)
			}
			subs = append(subs, map[string]any{
				"id":    sub.ID,
				"name":  sub.Name,
				"items": items,
			})
		}
		out = append(out, map[string]any{
			"id":            c.ID,
			"name":          c.Name,
			"subcategories": subs,
		})
	}
	return encodePayload(out)
}

func encodeRecords(records []record.Record) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		fields := make(map[string]any, len(r.Fields))
		for name, v := range r.Fields {
			enc, err := encodeValue(v)
			if err != nil {
				return nil, fmt.Errorf("record %s field %s: %w", r.ID, name, err)
			}
			fields[name] = enc
		}
		out = append(out, map[string]any{
			"id":     r.ID,
			"fields": fields,
		})
	}
	return out, nil
}

func encodePayload(out any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	// Encoder adds a trailing newline, remove it.
	return strings.TrimSpace(buf.String()), nil
}

// rawRecord is the decoded shape of one stored record entry.
type rawRecord struct {
	ID     string                     `json:"id"`
	Fields map[string]json.RawMessage `json:"fields"`
}

// unmarshalRecords decodes snapshot payload TEXT against a kind schema.
// Fields absent from the schema are rejected: a snapshot written by a
// newer schema must not silently lose data on an older binary.
func unmarshalRecords(sc record.Schema, payload string) ([]record.Record, error) {
	var raw []rawRecord
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return decodeRecords(sc, raw)
}

// unmarshalTree decodes tree snapshot payload TEXT against a kind schema.
func unmarshalTree(sc record.Schema, payload string) ([]tree.Category, error) {
	var raw []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Subcategories []struct {
			ID    string      `json:"id"`
			Name  string      `json:"name"`
			Items []rawRecord `json:"items"`
		} `json:"subcategories"`
	}
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode tree snapshot: %w", err)
	}

	out := make([]tree.Category, 0, len(raw))
	for _, c := range raw {
		if c.ID == "" {
			return nil, fmt.Errorf("tree snapshot category with empty id")
		}
		cat := tree.Category{ID: c.ID, Name: c.Name}
		for _, s := range c.Subcategories {
			if s.ID == "" {
				return nil, fmt.Errorf("category %s: subcategory with empty id", c.ID)
			}
			items, err := decodeRecords(sc, s.Items)
			if err != nil {
				return nil, fmt.Errorf("subcategory %s/%s: %w", c.ID, s.ID, err)
			}
			cat.Subcategories = append(cat.Subcategories, tree.Subcategory{
				ID:    s.ID,
				Name:  s.Name,
				Items: items,
			})
		}
		out = append(out, cat)
	}
	return out, nil
}

func decodeRecords(sc record.Schema, raw []rawRecord) ([]record.Record, error) {
	out := make([]record.Record, 0, len(raw))
	for _, entry := range raw {
		if entry.ID == "" {
			return nil, fmt.Errorf("snapshot record with empty id")
		}
		r := record.New(entry.ID)
		for name, data := range entry.Fields {
			ft, ok := sc.FieldType(name)
			if !ok {
				return nil, fmt.Errorf("record %s: field %q not declared for kind %s", entry.ID, name, sc.Kind)
			}
			v, err := decodeValue(ft, data)
			if err != nil {
				return nil, fmt.Errorf("record %s field %s: %w", entry.ID, name, err)
			}
			r.Set(name, v)
		}
		out = append(out, r)
	}
	return out, nil
}

func encodeValue(v record.Value) (any, error) {
	switch val := v.(type) {
	case record.String:
		return string(val), nil
	case record.Number:
		return float64(val), nil
	case record.Bool:
		return bool(val), nil
	case record.Time:
		return time.Time(val).UTC().Format(time.RFC3339Nano), nil
	case record.Strings:
		return []string(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func decodeValue(ft record.Type, data json.RawMessage) (record.Value, error) {
	switch ft {
	case record.TypeString:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return record.NewString(s), nil
	case record.TypeNumber:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return record.NewNumber(n), nil
	case record.TypeBool:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return record.NewBool(b), nil
	case record.TypeTime:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", s, err)
		}
		return record.NewTime(t), nil
	case record.TypeStrings:
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		return record.NewStrings(list...), nil
	default:
		return nil, fmt.Errorf("unsupported field type %v", ft)
	}
}
