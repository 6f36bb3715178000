// Package schemas embeds the JSON Schema documents used to validate
// notebook files before the rest of the pipeline touches them.
package schemas

import _ "embed"

//go:embed notebook.v4.schema.json
var NotebookV4SchemaJSON string
