// Package parameters holds the ordered parameter mapping handed to the
// translators, plus the parsing and inference helpers behind the CLI's
// various --parameters flags.
package parameters

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Map is an ordered parameter mapping. Iteration order is insertion order,
// which is the order assignments are rendered into the injected cell.
type Map struct {
	keys   []string
	values map[string]any
}

// New returns an empty parameter map.
func New() *Map {
	return &Map{values: map[string]any{}}
}

// Set inserts or overwrites a parameter. Overwriting keeps the original
// position.
func (m *Map) Set(name string, value any) {
	if m.values == nil {
		m.values = map[string]any{}
	}
	if _, ok := m.values[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.values[name] = value
}

// Get returns the value for name.
func (m *Map) Get(name string) (any, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Len returns the number of parameters.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the parameter names in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Merge applies every entry of other on top of m, in other's order.
func (m *Map) Merge(other *Map) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		m.Set(k, other.values[k])
	}
}

// Plain returns the parameters as an ordinary map, for storing into
// notebook metadata records. Nested Maps flatten the same way.
func (m *Map) Plain() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = plainValue(m.values[k])
	}
	return out
}

func plainValue(v any) any {
	switch val := v.(type) {
	case *Map:
		return val.Plain()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plainValue(item)
		}
		return out
	default:
		return v
	}
}

// MarshalYAML encodes the map as a YAML mapping in insertion order, the
// inverse of ParseYAML. Nested Maps keep their own order.
func (m *Map) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		var key, val yaml.Node
		if err := key.Encode(k); err != nil {
			return nil, fmt.Errorf("encoding parameter name %q: %w", k, err)
		}
		if err := val.Encode(m.values[k]); err != nil {
			return nil, fmt.Errorf("encoding parameter %q: %w", k, err)
		}
		node.Content = append(node.Content, &key, &val)
	}
	return node, nil
}
