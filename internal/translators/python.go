package translators

import (
	"fmt"
	"strings"

	"github.com/willingc/papermill/internal/parameters"
)

type pythonTranslator struct{}

func (pythonTranslator) Language() string      { return "python" }
func (pythonTranslator) CommentPrefix() string { return "#" }

func (t pythonTranslator) RenderValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "None", nil
	case bool:
		if val {
			return "True", nil
		}
		return "False", nil
	case string:
		return quoteDouble(val), nil
	case []any:
		return renderSeq(t, val, "[", "]")
	case *parameters.Map:
		items := make([]string, 0, val.Len())
		for _, k := range val.Keys() {
			nested, _ := val.Get(k)
			rendered, err := t.RenderValue(nested)
			if err != nil {
				return "", err
			}
			items = append(items, fmt.Sprintf("%s: %s", quoteDouble(k), rendered))
		}
		return "{" + strings.Join(items, ", ") + "}", nil
	default:
		if s, ok := renderNumber(v); ok {
			switch s {
			case "NaN":
				return `float("nan")`, nil
			case "Inf":
				return `float("inf")`, nil
			case "-Inf":
				return `float("-inf")`, nil
			}
			return s, nil
		}
		return "", unsupportedValue(t.Language(), v)
	}
}

func (t pythonTranslator) RenderAssignment(name string, v any) (string, error) {
	rendered, err := t.RenderValue(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", name, rendered), nil
}

// renderSeq renders list-like literals using the translator's own value
// rendering for each element.
func renderSeq(t Translator, items []any, open, close string) (string, error) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		rendered, err := t.RenderValue(item)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered)
	}
	return open + strings.Join(parts, ", ") + close, nil
}
