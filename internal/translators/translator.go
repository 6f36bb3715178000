// Package translators renders parameter values as assignment source code
// for the languages notebooks are written in. Each translator produces
// deterministic output: the same parameters always render to the same bytes.
package translators

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/willingc/papermill/internal/parameters"
)

// Translator renders parameter literals and assignments for one language.
type Translator interface {
	// Language returns the canonical language name.
	Language() string
	// CommentPrefix returns the language's line comment marker.
	CommentPrefix() string
	// RenderValue renders a parameter value as a literal.
	RenderValue(v any) (string, error)
	// RenderAssignment renders one assignment statement, without a
	// trailing newline.
	RenderAssignment(name string, v any) (string, error)
}

// RenderParameters produces the full source of an injected parameters cell:
// a comment banner followed by one assignment per parameter, in map order.
func RenderParameters(t Translator, params *parameters.Map) (string, error) {
	var sb strings.Builder
	sb.WriteString(t.CommentPrefix())
	sb.WriteString(" Parameters\n")
	for _, name := range params.Keys() {
		v, _ := params.Get(name)
		line, err := t.RenderAssignment(name, v)
		if err != nil {
			return "", fmt.Errorf("parameter %q: %w", name, err)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// renderNumber formats ints and floats so the rendered literal parses back
// to the same value.
func renderNumber(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return formatFloat(float64(n)), true
	case float64:
		return formatFloat(n), true
	default:
		return "", false
	}
}

// formatFloat keeps a decimal point or exponent so the literal stays a
// float in languages that distinguish the two. Non-finite values come out
// as NaN, Inf, and -Inf; translators respell those where needed.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	s = strings.TrimPrefix(s, "+")
	if !strings.ContainsAny(s, ".eENI") {
		s += ".0"
	}
	return s
}

// quoteDouble renders a double-quoted string literal with backslash and
// quote escaping, shared by every built-in language.
func quoteDouble(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func unsupportedValue(language string, v any) error {
	return fmt.Errorf("cannot render %T as a %s literal", v, language)
}
