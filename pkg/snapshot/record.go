package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is one source-defined JSON object from a snapshot. The original
// bytes are kept (compacted) and written back unchanged, so a record passes
// through combine and merge without any field being reinterpreted.
type Record struct {
	raw    json.RawMessage
	fields map[string]json.RawMessage
}

// NewRecord builds a Record from the JSON encoding of a single object.
func NewRecord(data []byte) (Record, error) {
	var r Record
	if err := r.UnmarshalJSON(data); err != nil {
		return Record{}, err
	}
	return r, nil
}

// MustRecord is NewRecord for literals in tests and fixtures.
func MustRecord(data string) Record {
	r, err := NewRecord([]byte(data))
	if err != nil {
		panic(err)
	}
	return r
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		return fmt.Errorf("record is not a JSON object: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("record is null")
	}
	r.raw = buf.Bytes()
	r.fields = fields
	return nil
}

// MarshalJSON implements json.Marshaler and returns the original bytes.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return []byte("{}"), nil
	}
	return r.raw, nil
}

// Raw returns the compacted source bytes.
func (r Record) Raw() json.RawMessage {
	return r.raw
}

// Has reports whether key is present, even with a null value.
func (r Record) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// IsNull reports whether key is absent or explicitly null.
func (r Record) IsNull(key string) bool {
	v, ok := r.fields[key]
	return !ok || string(v) == "null"
}

// Value decodes the field into a generic Go value; nil when absent.
func (r Record) Value(key string) any {
	v, ok := r.fields[key]
	if !ok {
		return nil
	}
	var out any
	if err := json.Unmarshal(v, &out); err != nil {
		return nil
	}
	return out
}

// String returns the field when it is a JSON string.
func (r Record) String(key string) (string, bool) {
	s, ok := r.Value(key).(string)
	return s, ok
}

// Bool returns the field when it is a JSON boolean.
func (r Record) Bool(key string) (bool, bool) {
	b, ok := r.Value(key).(bool)
	return b, ok
}

// Truthy reports whether the field holds a non-empty value: not null, not
// false, not zero, not "" and not an empty array or object.
func (r Record) Truthy(key string) bool {
	switch v := r.Value(key).(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// Contains reports whether the field holds item: as an element when the
// field is an array, as a substring when it is a string, or as a key when
// it is an object.
func (r Record) Contains(key, item string) bool {
	switch v := r.Value(key).(type) {
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s == item {
				return true
			}
		}
	case string:
		return strings.Contains(v, item)
	case map[string]any:
		_, ok := v[item]
		return ok
	}
	return false
}

// OneOf reports whether the field is a string equal to one of values.
func (r Record) OneOf(key string, values ...string) bool {
	s, ok := r.String(key)
	if !ok {
		return false
	}
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Equal reports whether two records have identical bytes.
func (r Record) Equal(other Record) bool {
	return bytes.Equal(r.raw, other.raw)
}
