package nbformat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Output types a kernel can produce.
const (
	OutputTypeStream        = "stream"
	OutputTypeExecuteResult = "execute_result"
	OutputTypeDisplayData   = "display_data"
	OutputTypeError         = "error"
)

// Stream names.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Output is one entry in a code cell's outputs list. Only the fields that
// belong to the given OutputType are populated and serialized.
type Output struct {
	OutputType string

	// stream
	Name string
	Text MultilineString

	// execute_result and display_data
	Data           map[string]any
	Metadata       map[string]any
	ExecutionCount *int

	// error
	EName     string
	EValue    string
	Traceback []string
}

// NewStreamOutput builds a stream output for the named stream.
func NewStreamOutput(name, text string) Output {
	return Output{OutputType: OutputTypeStream, Name: name, Text: Lines(text)}
}

// NewExecuteResult builds an execute_result output carrying a mime bundle.
func NewExecuteResult(executionCount int, data map[string]any) Output {
	return Output{
		OutputType:     OutputTypeExecuteResult,
		ExecutionCount: &executionCount,
		Data:           orEmpty(data),
		Metadata:       map[string]any{},
	}
}

// NewDisplayData builds a display_data output carrying a mime bundle.
func NewDisplayData(data map[string]any) Output {
	return Output{
		OutputType: OutputTypeDisplayData,
		Data:       orEmpty(data),
		Metadata:   map[string]any{},
	}
}

// NewErrorOutput builds an error output from an exception report.
func NewErrorOutput(ename, evalue string, traceback []string) Output {
	if traceback == nil {
		traceback = []string{}
	}
	return Output{OutputType: OutputTypeError, EName: ename, EValue: evalue, Traceback: traceback}
}

// IsError reports whether this output records an exception.
func (o *Output) IsError() bool {
	return o.OutputType == OutputTypeError
}

// PlainText returns the output's textual content, best effort: stream text,
// the text/plain entry of a mime bundle, or the rendered exception.
func (o *Output) PlainText() string {
	switch o.OutputType {
	case OutputTypeStream:
		return o.Text.String()
	case OutputTypeExecuteResult, OutputTypeDisplayData:
		raw, ok := o.Data["text/plain"]
		if !ok {
			return ""
		}
		switch v := raw.(type) {
		case string:
			return v
		case []any:
			var sb strings.Builder
			for _, line := range v {
				if s, ok := line.(string); ok {
					sb.WriteString(s)
				}
			}
			return sb.String()
		default:
			return ""
		}
	case OutputTypeError:
		if len(o.Traceback) > 0 {
			return strings.Join(o.Traceback, "\n")
		}
		return fmt.Sprintf("%s: %s", o.EName, o.EValue)
	default:
		return ""
	}
}

type streamOutputJSON struct {
	Name       string          `json:"name"`
	OutputType string          `json:"output_type"`
	Text       MultilineString `json:"text"`
}

type executeResultJSON struct {
	Data           map[string]any `json:"data"`
	ExecutionCount *int           `json:"execution_count"`
	Metadata       map[string]any `json:"metadata"`
	OutputType     string         `json:"output_type"`
}

type displayDataJSON struct {
	Data       map[string]any `json:"data"`
	Metadata   map[string]any `json:"metadata"`
	OutputType string         `json:"output_type"`
}

type errorOutputJSON struct {
	EName      string   `json:"ename"`
	EValue     string   `json:"evalue"`
	OutputType string   `json:"output_type"`
	Traceback  []string `json:"traceback"`
}

func (o Output) MarshalJSON() ([]byte, error) {
	switch o.OutputType {
	case OutputTypeStream:
		return json.Marshal(streamOutputJSON{Name: o.Name, OutputType: o.OutputType, Text: o.Text})
	case OutputTypeExecuteResult:
		return json.Marshal(executeResultJSON{
			Data:           orEmpty(o.Data),
			ExecutionCount: o.ExecutionCount,
			Metadata:       orEmpty(o.Metadata),
			OutputType:     o.OutputType,
		})
	case OutputTypeDisplayData:
		return json.Marshal(displayDataJSON{
			Data:       orEmpty(o.Data),
			Metadata:   orEmpty(o.Metadata),
			OutputType: o.OutputType,
		})
	case OutputTypeError:
		tb := o.Traceback
		if tb == nil {
			tb = []string{}
		}
		return json.Marshal(errorOutputJSON{EName: o.EName, EValue: o.EValue, OutputType: o.OutputType, Traceback: tb})
	default:
		return nil, fmt.Errorf("unknown output_type %q", o.OutputType)
	}
}

func (o *Output) UnmarshalJSON(data []byte) error {
	var v struct {
		Data           map[string]any  `json:"data"`
		EName          string          `json:"ename"`
		EValue         string          `json:"evalue"`
		ExecutionCount *int            `json:"execution_count"`
		Metadata       map[string]any  `json:"metadata"`
		Name           string          `json:"name"`
		OutputType     string          `json:"output_type"`
		Text           MultilineString `json:"text"`
		Traceback      []string        `json:"traceback"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Data = v.Data
	o.EName = v.EName
	o.EValue = v.EValue
	o.ExecutionCount = v.ExecutionCount
	o.Metadata = v.Metadata
	o.Name = v.Name
	o.OutputType = v.OutputType
	o.Text = v.Text
	o.Traceback = v.Traceback
	return nil
}
