package nbformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/willingc/papermill/internal/nbformat/schemas"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// notebookSchema is the compiled JSON Schema for v4 notebook documents.
var notebookSchema *jsonschema.Schema

func init() {
	notebookSchema = mustCompileSchema(schemas.NotebookV4SchemaJSON, "notebook.v4.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// MalformedDocumentError reports input that is not a structurally valid
// notebook. Problems lists the violations by instance location.
type MalformedDocumentError struct {
	Problems []string
}

func (e *MalformedDocumentError) Error() string {
	if len(e.Problems) == 0 {
		return "malformed notebook document"
	}
	return fmt.Sprintf("malformed notebook document: %s", strings.Join(e.Problems, "; "))
}

// Parse decodes and validates a notebook document. Anything that is not
// well-formed JSON satisfying the notebook schema comes back as a
// *MalformedDocumentError.
func Parse(data []byte) (*Notebook, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, &MalformedDocumentError{Problems: []string{fmt.Sprintf("JSON parse error: %v", err)}}
	}

	if errs := validateAgainstSchema(notebookSchema, instance); len(errs) > 0 {
		return nil, &MalformedDocumentError{Problems: errs}
	}

	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, &MalformedDocumentError{Problems: []string{err.Error()}}
	}
	return &nb, nil
}

// Serialize writes the canonical JSON form: sorted keys, single-space
// indent, sources as line lists, and a trailing newline. The same document
// always serializes to identical bytes.
func Serialize(nb *Notebook) ([]byte, error) {
	// Normalize the nullable containers so the output stays schema-valid.
	out := *nb
	if out.Cells == nil {
		out.Cells = []Cell{}
	}
	out.Metadata = orEmpty(out.Metadata)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(&out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
