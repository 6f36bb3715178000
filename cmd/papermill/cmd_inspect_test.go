package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willingc/papermill/internal/nbformat"
)

func markdownCell(source string) nbformat.Cell {
	return nbformat.Cell{
		CellType: nbformat.CellTypeMarkdown,
		Source:   nbformat.Lines(source),
		Metadata: map[string]any{},
	}
}

func TestInspectCommand(t *testing.T) {
	input := filepath.Join(t.TempDir(), "report.ipynb")
	writeNotebook(t, input, pythonNotebook(
		markdownCell("# Sales Report"),
		codeCell("alpha: float = 0.6  # model weight\nmsg = \"hello\"", nbformat.TagParameters),
		codeCell("print(msg)"),
	))

	var buf bytes.Buffer
	root := newRootCommand()
	root.SetOut(&buf)
	root.SetArgs([]string{"inspect", input})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "Notebook: Sales Report")
	assert.Contains(t, out, "Kernel:   python3")
	assert.Contains(t, out, "Language: python")
	assert.Contains(t, out, "Cells:    3 (2 code)")

	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "float")
	assert.Contains(t, out, "0.6")
	assert.Contains(t, out, "model weight")
	assert.Contains(t, out, "msg")
	assert.Contains(t, out, `"hello"`)
}

// Executed notebooks, counts and outputs included, inspect the same way.
func TestInspectCommand_ExecutedNotebook(t *testing.T) {
	input := filepath.Join(t.TempDir(), "out.ipynb")
	writeNotebook(t, input, pythonNotebook(
		executedCell("alpha = 0.5", 1),
		executedCell("print(alpha)", 2, nbformat.NewStreamOutput(nbformat.StreamStdout, "0.5\n")),
	))

	var buf bytes.Buffer
	root := newRootCommand()
	root.SetOut(&buf)
	root.SetArgs([]string{"inspect", input})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "Cells:    2 (2 code)")
	assert.Contains(t, out, "No cell tagged 'parameters'")
}

func TestInspectCommand_NoParameters(t *testing.T) {
	input := filepath.Join(t.TempDir(), "plain.ipynb")
	writeNotebook(t, input, pythonNotebook(codeCell("1 + 1")))

	var buf bytes.Buffer
	root := newRootCommand()
	root.SetOut(&buf)
	root.SetArgs([]string{"inspect", input})
	require.NoError(t, root.Execute())

	assert.Contains(t, buf.String(), "No cell tagged 'parameters'")
}

func TestInspectCommand_BadNotebook(t *testing.T) {
	input := filepath.Join(t.TempDir(), "broken.ipynb")
	require.NoError(t, os.WriteFile(input, []byte("{not json"), 0o644))

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"inspect", input})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.ipynb")
}
