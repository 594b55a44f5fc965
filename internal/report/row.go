package report

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Row is a flat field-name to value mapping that remembers insertion order.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{values: make(map[string]any)}
}

// Set stores value under key. Re-setting a key keeps its original position.
// A zero Row is ready to use.
func (r *Row) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Lookup returns the value for column. Statistics columns also match a key
// whose outcome label differs only in case, so "test_run_statPassed" finds a
// "test_run_statpassed" count.
func (r *Row) Lookup(column string) (any, bool) {
	if v, ok := r.values[column]; ok {
		return v, true
	}
	if !strings.HasPrefix(column, StatPrefix) {
		return nil, false
	}
	for _, k := range r.keys {
		if strings.HasPrefix(k, StatPrefix) && strings.EqualFold(k, column) {
			return r.values[k], true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (r *Row) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns field names in insertion order.
func (r *Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r *Row) Len() int {
	return len(r.keys)
}

// Merge copies every field of other into r, in other's order.
func (r *Row) Merge(other *Row) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		r.Set(k, other.values[k])
	}
}

// Project returns a new row holding only columns, in that order. Missing
// columns are left out.
func (r *Row) Project(columns []string) *Row {
	out := NewRow()
	for _, c := range columns {
		if v, ok := r.Lookup(c); ok {
			out.Set(c, v)
		}
	}
	return out
}

// MarshalJSON encodes the row as an object with keys in insertion order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Rows holds one row per processed pipeline, indexed by processing position.
type Rows []*Row

// Columns returns the union of all field names in first-seen order.
func (rs Rows) Columns() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rs {
		for _, k := range r.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// Dropped returns the statistics fields present in rows that no column in
// columns will carry, in first-seen order.
func (rs Rows) Dropped(columns []string) []string {
	var out []string
	for _, k := range rs.Columns() {
		if !strings.HasPrefix(k, StatPrefix) {
			continue
		}
		covered := false
		for _, c := range columns {
			if strings.EqualFold(k, c) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, k)
		}
	}
	return out
}
