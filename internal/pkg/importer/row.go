package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Row is the mutable field state of one import record. Values start out as
// the raw strings of the CSV cell and may be replaced with richer values by
// filters. Iteration order is insertion order; fields added during
// processing go to the end. The same Row instance is shared by all filters
// and actions of one item, so mutations made by one handler are visible to
// the handlers that run after it.
type Row struct {
	keys   []Field
	values map[Field]interface{}
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{
		values: make(map[Field]interface{}),
	}
}

// Set stores a value, appending the field to the iteration order when it is
// new.
func (r *Row) Set(f Field, v interface{}) {
	if _, exists := r.values[f]; !exists {
		r.keys = append(r.keys, f)
	}
	r.values[f] = v
}

// Value returns the current value of a field.
func (r *Row) Value(f Field) (interface{}, bool) {
	v, ok := r.values[f]
	return v, ok
}

// Has reports whether the field has been set, even to an empty value.
func (r *Row) Has(f Field) bool {
	_, ok := r.values[f]
	return ok
}

// String returns the field value rendered as a string, or "" when unset.
func (r *Row) String(f Field) string {
	v, ok := r.values[f]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Uint returns the field parsed as an unsigned integer, or 0.
func (r *Row) Uint(f Field) uint {
	v, ok := r.values[f]
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case uint:
		return t
	case int:
		if t > 0 {
			return uint(t)
		}
		return 0
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return 0
		}
		return uint(n)
	}
	return 0
}

// Fields returns a copy of the field iteration order.
func (r *Row) Fields() []Field {
	out := make([]Field, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields set on the row.
func (r *Row) Len() int {
	return len(r.keys)
}

// MarshalJSON renders the row as a JSON object preserving field order, so
// the audit log dump reads in the same order the columns were processed.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
