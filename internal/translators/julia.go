package translators

import (
	"fmt"
	"strings"

	"github.com/willingc/papermill/internal/parameters"
)

type juliaTranslator struct{}

func (juliaTranslator) Language() string      { return "julia" }
func (juliaTranslator) CommentPrefix() string { return "#" }

func (t juliaTranslator) RenderValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "nothing", nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
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
			items = append(items, fmt.Sprintf("%s => %s", quoteDouble(k), rendered))
		}
		return "Dict(" + strings.Join(items, ", ") + ")", nil
	default:
		if s, ok := renderNumber(v); ok {
			return s, nil
		}
		return "", unsupportedValue(t.Language(), v)
	}
}

func (t juliaTranslator) RenderAssignment(name string, v any) (string, error) {
	rendered, err := t.RenderValue(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", name, rendered), nil
}
