package record

// Record is one entity in a raw collection: a stable unique identifier
// plus a closed map of typed fields. The engine never mutates a Record in
// place; mutations copy the record, then replace it in a copied collection.
type Record struct {
	ID     string
	Fields map[string]Value
}

// New creates a record with the given id and an empty field map.
func New(id string) Record {
	return Record{ID: id, Fields: make(map[string]Value)}
}

// Get returns the value of a field. The second result is false when the
// field is absent, which is distinct from any zero value: an absent field
// fails every active filter on that field.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Set assigns a field value, allocating the field map if needed.
func (r *Record) Set(name string, v Value) {
	if r.Fields == nil {
		r.Fields = make(map[string]Value)
	}
	r.Fields[name] = v
}

// Clone returns a copy of the record with its own field map.
// Field values themselves are immutable, so they are shared.
func (r Record) Clone() Record {
	fields := make(map[string]Value, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{ID: r.ID, Fields: fields}
}

// CloneAll returns a copy of a collection with cloned records.
func CloneAll(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}

// IDs returns the record identifiers in collection order.
func IDs(recs []Record) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

// FindIndex returns the position of a record id within a collection,
// or -1 if absent.
func FindIndex(recs []Record, id string) int {
	for i, r := range recs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// EffectiveNumber returns the numeric value of a field, with the discount
// applied when the field is the schema's price field and the record carries
// a positive discount percentage:
//
//	effective = price * (1 - discount/100)
//
// The same effective value is used everywhere a price is filtered, sorted,
// or totalled. The second result is false when the field is absent or not
// numeric.
func EffectiveNumber(s Schema, r Record, field string) (float64, bool) {
	v, ok := r.Get(field)
	if !ok {
		return 0, false
	}
	n, ok := v.(Number)
	if !ok {
		return 0, false
	}
	if field != s.PriceField || s.DiscountField == "" {
		return float64(n), true
	}
	dv, ok := r.Get(s.DiscountField)
	if !ok {
		return float64(n), true
	}
	d, ok := dv.(Number)
	if !ok || d <= 0 {
		return float64(n), true
	}
	return float64(n) * (1 - float64(d)/100), true
}
