// Package wizard drives the interactive parameter form behind the params
// command.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/willingc/papermill/internal/parameters"
)

// RunParamsWizard collects a value for each inferred parameter through a
// huh form. Every field starts from the parameter's default as written in
// the notebook, and entered text is decoded the way the -p flag decodes
// values.
func RunParamsWizard(in io.Reader, out io.Writer, inferred []parameters.InferredParameter) (*parameters.Map, error) {
	if len(inferred) == 0 {
		return nil, fmt.Errorf("no parameters to collect")
	}

	values := make([]string, len(inferred))
	fields := make([]huh.Field, 0, len(inferred))
	for i, p := range inferred {
		values[i] = p.Default
		fields = append(fields, huh.NewInput().
			Title(p.Name).
			Description(describe(p)).
			Value(&values[i]))
	}

	form := huh.NewForm(huh.NewGroup(fields...)).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	return Collect(inferred, values)
}

// Collect pairs each inferred parameter with its entered text and decodes
// the values into an ordered parameter map.
func Collect(inferred []parameters.InferredParameter, values []string) (*parameters.Map, error) {
	if len(values) != len(inferred) {
		return nil, fmt.Errorf("got %d values for %d parameters", len(values), len(inferred))
	}
	params := parameters.New()
	for i, p := range inferred {
		params.Set(p.Name, parseEntry(strings.TrimSpace(values[i])))
	}
	return params, nil
}

// GenerateYAML renders collected parameters as a YAML document ready for
// the --parameters-file flag.
func GenerateYAML(params *parameters.Map) (string, error) {
	data, err := yaml.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("rendering parameters: %w", err)
	}
	return string(data), nil
}

// parseEntry decodes what the user typed: literal spellings like True and
// None first, then YAML for quoted strings and collections.
func parseEntry(s string) any {
	v := parameters.InferValue(s)
	if str, ok := v.(string); ok && str != "" {
		return parameters.ParseValue(str)
	}
	return v
}

func describe(p parameters.InferredParameter) string {
	switch {
	case p.Help != "" && p.Type != "":
		return fmt.Sprintf("%s (%s)", p.Help, p.Type)
	case p.Help != "":
		return p.Help
	case p.Type != "":
		return "type: " + p.Type
	default:
		return "default: " + p.Default
	}
}
