package translators

import (
	"fmt"
	"strings"

	"github.com/willingc/papermill/internal/parameters"
)

type rTranslator struct{}

func (rTranslator) Language() string      { return "r" }
func (rTranslator) CommentPrefix() string { return "#" }

func (t rTranslator) RenderValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case string:
		return quoteDouble(val), nil
	case []any:
		return renderSeq(t, val, "list(", ")")
	case *parameters.Map:
		items := make([]string, 0, val.Len())
		for _, k := range val.Keys() {
			nested, _ := val.Get(k)
			rendered, err := t.RenderValue(nested)
			if err != nil {
				return "", err
			}
			items = append(items, fmt.Sprintf("%s = %s", k, rendered))
		}
		return "list(" + strings.Join(items, ", ") + ")", nil
	default:
		if s, ok := renderNumber(v); ok {
			return s, nil
		}
		return "", unsupportedValue(t.Language(), v)
	}
}

func (t rTranslator) RenderAssignment(name string, v any) (string, error) {
	rendered, err := t.RenderValue(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", name, rendered), nil
}
