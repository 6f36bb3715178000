package parameters

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML mapping into an ordered parameter map. Nested
// mappings keep their order too, so rendered literals come out in document
// order.
func ParseYAML(data []byte) (*Map, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing parameters YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return New(), nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parameters YAML must be a mapping, got %s", nodeKind(doc))
	}
	v, err := decodeNode(doc)
	if err != nil {
		return nil, err
	}
	return v.(*Map), nil
}

func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		m := New()
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("decoding mapping key at line %d: %w", n.Content[i].Line, err)
			}
			val, err := decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		return m, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding value at line %d: %w", n.Line, err)
		}
		return v, nil
	}
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unsupported node"
	}
}

// ParseValue decodes one YAML value, with mappings coming back as ordered
// Maps. Text that is not valid YAML stays a string.
func ParseValue(s string) any {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(s), &root); err != nil {
		return s
	}
	if len(root.Content) == 0 {
		return s
	}
	v, err := decodeNode(root.Content[0])
	if err != nil {
		return s
	}
	return v
}

// ParseBase64 decodes base64-wrapped YAML parameters, the shape the
// --parameters-base64 flag carries.
func ParseBase64(encoded string) (*Map, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 parameters: %w", err)
	}
	return ParseYAML(data)
}

// ParsePairs decodes repeated name=value flag values. With raw set, values
// stay strings; otherwise each value goes through InferValue.
func ParsePairs(pairs []string, raw bool) (*Map, error) {
	m := New()
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		if raw {
			m.Set(name, value)
		} else {
			m.Set(name, InferValue(value))
		}
	}
	return m, nil
}

// InferValue recognizes booleans, null spellings, and numbers in a flag
// value; anything else stays a string.
func InferValue(s string) any {
	switch s {
	case "True", "true":
		return true
	case "False", "false":
		return false
	case "None", "null", "~":
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
