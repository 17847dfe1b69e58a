// Package jsonld provides the tagged value tree produced when projecting RDF
// Things and encoding Activities.
//
// A Value is one of String, Strings or *Object. Objects keep their keys in
// insertion order so that encoded documents are reproducible. Turning the
// tree into bytes is a separate step (encoding/json via MarshalJSON).
package jsonld

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is a node in the output tree.
type Value interface {
	isValue()
}

// String is a scalar string value.
type String string

// Strings is an ordered list of string values.
type Strings []string

func (String) isValue()  {}
func (Strings) isValue() {}
func (*Object) isValue() {}

// Collapse returns a String for a single value and Strings otherwise.
// It returns nil for an empty slice.
func Collapse(values []string) Value {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return String(values[0])
	default:
		out := make(Strings, len(values))
		copy(out, values)
		return out
	}
}

// Object is an insertion-ordered string-keyed map of values.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set stores v under key. A key that already exists keeps its position.
// Setting a nil value is a no-op.
func (o *Object) Set(key string, v Value) *Object {
	if v == nil {
		return o
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

// SetString is shorthand for Set(key, String(s)).
func (o *Object) SetString(key, s string) *Object {
	return o.Set(key, String(s))
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is set.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Merge copies every key of other into o, skipping keys listed in skip and
// keys o already has.
func (o *Object) Merge(other *Object, skip ...string) *Object {
	if other == nil {
		return o
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, k := range skip {
		skipped[k] = struct{}{}
	}
	for _, k := range other.keys {
		if _, ok := skipped[k]; ok || o.Has(k) {
			continue
		}
		o.Set(k, other.values[k])
	}
	return o
}

// MarshalJSON writes the object with its keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshaling %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Strings returns the value under key as a list of strings, whether it is
// stored as a String or as Strings. Nested objects yield nil.
func (o *Object) Strings(key string) []string {
	v, ok := o.Get(key)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case String:
		return []string{string(val)}
	case Strings:
		return []string(val)
	default:
		return nil
	}
}

// StringValue returns the value under key when it is a scalar string.
func (o *Object) StringValue(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return string(s), ok
}

// Object returns the nested object under key.
func (o *Object) Object(key string) (*Object, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	obj, ok := v.(*Object)
	return obj, ok
}
