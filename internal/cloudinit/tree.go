// Package cloudinit models cloud-config documents as a closed tree of
// scalars, lists and maps, merges fragments of it, and serializes the result
// as a "#cloud-config" payload.
package cloudinit

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Header is the first line of every cloud-config payload.
const Header = "#cloud-config"

// Value is a node of the tree. It is implemented only by Scalar, List and Map.
type Value interface {
	kind() string
}

// Scalar is a leaf: string, bool, int or float.
type Scalar struct {
	V any
}

// List is an ordered sequence.
type List []Value

// Map is a mapping of string keys.
type Map map[string]Value

func (Scalar) kind() string { return "scalar" }
func (List) kind() string   { return "list" }
func (Map) kind() string    { return "map" }

// Str, Bool and Int build scalars.
func Str(s string) Scalar { return Scalar{V: s} }
func Bool(b bool) Scalar  { return Scalar{V: b} }
func Int(i int) Scalar    { return Scalar{V: i} }

// Strings builds a list of string scalars.
func Strings(ss ...string) List {
	l := make(List, len(ss))
	for i, s := range ss {
		l[i] = Str(s)
	}
	return l
}

// Plain converts v to plain Go values for encoding.
func Plain(v Value) any {
	switch t := v.(type) {
	case Scalar:
		return t.V
	case List:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Plain(e)
		}
		return out
	case Map:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Plain(e)
		}
		return out
	}
	return nil
}

// FromPlain converts decoded YAML into a tree.
func FromPlain(v any) (Value, error) {
	switch t := v.(type) {
	case map[string]any:
		m := make(Map, len(t))
		for k, e := range t {
			c, err := FromPlain(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = c
		}
		return m, nil
	case []any:
		l := make(List, len(t))
		for i, e := range t {
			c, err := FromPlain(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			l[i] = c
		}
		return l, nil
	case string, bool, int, int64, float64, nil:
		return Scalar{V: t}, nil
	}
	return nil, fmt.Errorf("unsupported value of type %T", v)
}

// Parse decodes a YAML cloud-config fragment. The top level must be a mapping.
func Parse(data []byte) (Map, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse cloud-config: %w", err)
	}
	if raw == nil {
		return Map{}, nil
	}
	v, err := FromPlain(raw)
	if err != nil {
		return nil, fmt.Errorf("parse cloud-config: %w", err)
	}
	return v.(Map), nil
}

// Marshal serializes m as a cloud-config payload. Map keys are emitted in
// sorted order so equal trees always produce equal text.
func Marshal(m Map) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(Header + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Plain(m)); err != nil {
		return "", fmt.Errorf("encode cloud-config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode cloud-config: %w", err)
	}
	return buf.String(), nil
}

// Keys returns the sorted keys of m.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
