package feature

import (
	"bytes"
	"encoding/json"
)

// Record is a schema-complete feature mapping for one file. Its key set
// always equals the schema's declared names; iteration follows schema
// declaration order so serialized records are byte-stable.
type Record struct {
	names  []string
	values map[string]any
}

// newRecord builds a record with every declared feature at its default.
func newRecord(defs []Def) *Record {
	r := &Record{
		names:  make([]string, 0, len(defs)),
		values: make(map[string]any, len(defs)),
	}
	for _, d := range defs {
		r.names = append(r.names, d.Name)
		r.values[d.Name] = d.Default
	}
	return r
}

// Names returns the feature names in schema declaration order.
// The returned slice must not be modified.
func (r *Record) Names() []string {
	return r.names
}

// Len returns the number of features in the record.
func (r *Record) Len() int {
	return len(r.names)
}

// Get returns the value of a declared feature.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// set overwrites a declared feature. Undeclared names are ignored.
func (r *Record) set(name string, v any) {
	if _, ok := r.values[name]; ok {
		r.values[name] = v
	}
}

// MarshalJSON serializes the record as a JSON object in schema
// declaration order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
