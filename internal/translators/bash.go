package translators

import "fmt"

type bashTranslator struct{}

func (bashTranslator) Language() string      { return "bash" }
func (bashTranslator) CommentPrefix() string { return "#" }

// Bash has no structured literals, so lists and mappings are rejected.
func (t bashTranslator) RenderValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return `""`, nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case string:
		return quoteDouble(val), nil
	default:
		if s, ok := renderNumber(v); ok {
			return s, nil
		}
		return "", unsupportedValue(t.Language(), v)
	}
}

func (t bashTranslator) RenderAssignment(name string, v any) (string, error) {
	rendered, err := t.RenderValue(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s=%s", name, rendered), nil
}
