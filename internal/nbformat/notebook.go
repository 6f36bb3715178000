// Package nbformat implements the notebook document model: parsing and
// schema validation, canonical serialization, and the pure mutations the
// execution pipeline applies (parameter injection, output clearing).
package nbformat

import (
	"encoding/json"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Cell types defined by the notebook format.
const (
	CellTypeCode     = "code"
	CellTypeMarkdown = "markdown"
	CellTypeRaw      = "raw"
)

// Well-known cell tags the pipeline reacts to.
const (
	TagParameters         = "parameters"
	TagInjectedParameters = "injected-parameters"
	TagRaisesException    = "raises-exception"
	TagSkip               = "skip"
)

// Notebook is a parsed v4 notebook document. Metadata is kept as a raw
// mapping so unknown keys survive a parse/serialize round trip.
type Notebook struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Kernelspec identifies the kernel a notebook was authored against.
type Kernelspec struct {
	Name        string `json:"name" mapstructure:"name"`
	DisplayName string `json:"display_name" mapstructure:"display_name"`
	Language    string `json:"language,omitempty" mapstructure:"language"`
}

// LanguageInfo mirrors metadata.language_info.
type LanguageInfo struct {
	Name          string `json:"name" mapstructure:"name"`
	Version       string `json:"version,omitempty" mapstructure:"version"`
	Mimetype      string `json:"mimetype,omitempty" mapstructure:"mimetype"`
	FileExtension string `json:"file_extension,omitempty" mapstructure:"file_extension"`
}

// Kernelspec decodes metadata.kernelspec when present.
func (n *Notebook) Kernelspec() (Kernelspec, bool) {
	raw, ok := n.Metadata["kernelspec"]
	if !ok {
		return Kernelspec{}, false
	}
	var ks Kernelspec
	if err := mapstructure.Decode(raw, &ks); err != nil {
		return Kernelspec{}, false
	}
	return ks, ks.Name != "" || ks.Language != ""
}

// LanguageInfo decodes metadata.language_info when present.
func (n *Notebook) LanguageInfo() (LanguageInfo, bool) {
	raw, ok := n.Metadata["language_info"]
	if !ok {
		return LanguageInfo{}, false
	}
	var li LanguageInfo
	if err := mapstructure.Decode(raw, &li); err != nil {
		return LanguageInfo{}, false
	}
	return li, li.Name != ""
}

// Language reports the notebook's programming language, preferring the
// kernelspec's language field over language_info.name.
func (n *Notebook) Language() string {
	if ks, ok := n.Kernelspec(); ok && ks.Language != "" {
		return ks.Language
	}
	if li, ok := n.LanguageInfo(); ok {
		return li.Name
	}
	return ""
}

// CodeCellCount returns the number of executable cells.
func (n *Notebook) CodeCellCount() int {
	count := 0
	for i := range n.Cells {
		if n.Cells[i].IsCode() {
			count++
		}
	}
	return count
}

// MaxExecutionCount returns the highest execution counter recorded on any
// code cell, or zero when none have been executed.
func (n *Notebook) MaxExecutionCount() int {
	max := 0
	for i := range n.Cells {
		c := &n.Cells[i]
		if c.ExecutionCount != nil && *c.ExecutionCount > max {
			max = *c.ExecutionCount
		}
	}
	return max
}

// Cell is one notebook cell. ExecutionCount and Outputs are meaningful only
// for code cells; text cells neither carry nor serialize those keys.
type Cell struct {
	CellType       string
	ExecutionCount *int
	ID             string
	Metadata       map[string]any
	Outputs        []Output
	Source         MultilineString
	Attachments    map[string]any
}

// CellOptions are the tool-namespaced knobs a cell can carry under
// metadata.papermill, for example {"papermill": {"skip": true}}.
type CellOptions struct {
	Skip bool `mapstructure:"skip"`
}

// IsCode reports whether the cell is executable.
func (c *Cell) IsCode() bool {
	return c.CellType == CellTypeCode
}

// Tags returns the cell's metadata tags, nil when none are set.
func (c *Cell) Tags() []string {
	raw, ok := c.Metadata["tags"]
	if !ok {
		return nil
	}
	var tags []string
	if err := mapstructure.Decode(raw, &tags); err != nil {
		return nil
	}
	return tags
}

// HasTag reports whether the cell carries the given tag.
func (c *Cell) HasTag(tag string) bool {
	for _, t := range c.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

// Options decodes the cell's metadata.papermill record. A cell without one
// gets the zero options.
func (c *Cell) Options() CellOptions {
	raw, ok := c.Metadata["papermill"]
	if !ok {
		return CellOptions{}
	}
	var opts CellOptions
	if err := mapstructure.Decode(raw, &opts); err != nil {
		return CellOptions{}
	}
	return opts
}

type codeCellJSON struct {
	CellType       string          `json:"cell_type"`
	ExecutionCount *int            `json:"execution_count"`
	ID             string          `json:"id,omitempty"`
	Metadata       map[string]any  `json:"metadata"`
	Outputs        []Output        `json:"outputs"`
	Source         MultilineString `json:"source"`
}

type textCellJSON struct {
	Attachments map[string]any  `json:"attachments,omitempty"`
	CellType    string          `json:"cell_type"`
	ID          string          `json:"id,omitempty"`
	Metadata    map[string]any  `json:"metadata"`
	Source      MultilineString `json:"source"`
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.CellType == CellTypeCode {
		outputs := c.Outputs
		if outputs == nil {
			outputs = []Output{}
		}
		return json.Marshal(codeCellJSON{
			CellType:       c.CellType,
			ExecutionCount: c.ExecutionCount,
			ID:             c.ID,
			Metadata:       orEmpty(c.Metadata),
			Outputs:        outputs,
			Source:         c.Source,
		})
	}
	return json.Marshal(textCellJSON{
		Attachments: c.Attachments,
		CellType:    c.CellType,
		ID:          c.ID,
		Metadata:    orEmpty(c.Metadata),
		Source:      c.Source,
	})
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var v struct {
		Attachments    map[string]any  `json:"attachments"`
		CellType       string          `json:"cell_type"`
		ExecutionCount *int            `json:"execution_count"`
		ID             string          `json:"id"`
		Metadata       map[string]any  `json:"metadata"`
		Outputs        []Output        `json:"outputs"`
		Source         MultilineString `json:"source"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.Attachments = v.Attachments
	c.CellType = v.CellType
	c.ExecutionCount = v.ExecutionCount
	c.ID = v.ID
	c.Metadata = v.Metadata
	c.Outputs = v.Outputs
	c.Source = v.Source
	return nil
}

// MultilineString is the format's string-or-list-of-lines union. It decodes
// from either JSON shape and always encodes as a list of lines, each line
// keeping its trailing newline (the canonical form).
type MultilineString []string

// Lines splits s into the canonical line list.
func Lines(s string) MultilineString {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return MultilineString(parts)
}

// String joins the lines back into a single string.
func (m MultilineString) String() string {
	return strings.Join([]string(m), "")
}

func (m MultilineString) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(m))
}

func (m *MultilineString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = Lines(s)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	// Re-split so the in-memory form is canonical no matter how the input
	// chose to break its lines.
	*m = Lines(strings.Join(parts, ""))
	return nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
