package translators

import (
	"fmt"
	"strings"

	"github.com/willingc/papermill/internal/parameters"
)

type scalaTranslator struct{}

func (scalaTranslator) Language() string      { return "scala" }
func (scalaTranslator) CommentPrefix() string { return "//" }

func (t scalaTranslator) RenderValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "None", nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case string:
		return quoteDouble(val), nil
	case []any:
		return renderSeq(t, val, "Seq(", ")")
	case *parameters.Map:
		items := make([]string, 0, val.Len())
		for _, k := range val.Keys() {
			nested, _ := val.Get(k)
			rendered, err := t.RenderValue(nested)
			if err != nil {
				return "", err
			}
			items = append(items, fmt.Sprintf("%s -> %s", quoteDouble(k), rendered))
		}
		return "Map(" + strings.Join(items, ", ") + ")", nil
	default:
		if s, ok := renderNumber(v); ok {
			return s, nil
		}
		return "", unsupportedValue(t.Language(), v)
	}
}

func (t scalaTranslator) RenderAssignment(name string, v any) (string, error) {
	rendered, err := t.RenderValue(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("val %s = %s", name, rendered), nil
}
