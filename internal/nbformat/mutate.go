package nbformat

import (
	"crypto/rand"
	"encoding/hex"
)

// InsertParameterCell returns a copy of the notebook with the rendered
// parameter source injected as a tagged code cell. An existing
// injected-parameters cell is replaced in place; otherwise the new cell
// lands directly after the first cell tagged "parameters", or at the top of
// the document when no such cell exists. The input notebook is not modified.
func InsertParameterCell(nb *Notebook, source string) *Notebook {
	injected := Cell{
		CellType: CellTypeCode,
		Metadata: map[string]any{
			"tags": []any{TagInjectedParameters},
		},
		Source: Lines(source),
	}
	if notebookUsesCellIDs(nb) {
		injected.ID = newCellID()
	}

	out := *nb

	if idx := indexOfTag(nb, TagInjectedParameters); idx >= 0 {
		out.Cells = make([]Cell, len(nb.Cells))
		copy(out.Cells, nb.Cells)
		out.Cells[idx] = injected
		return &out
	}

	at := 0
	if idx := indexOfTag(nb, TagParameters); idx >= 0 {
		at = idx + 1
	}
	out.Cells = make([]Cell, 0, len(nb.Cells)+1)
	out.Cells = append(out.Cells, nb.Cells[:at]...)
	out.Cells = append(out.Cells, injected)
	out.Cells = append(out.Cells, nb.Cells[at:]...)
	return &out
}

// ClearOutputs returns a copy of the notebook with every code cell's outputs
// emptied and execution counters reset. The input notebook is not modified.
func ClearOutputs(nb *Notebook) *Notebook {
	out := *nb
	out.Cells = make([]Cell, len(nb.Cells))
	copy(out.Cells, nb.Cells)
	for i := range out.Cells {
		if out.Cells[i].IsCode() {
			out.Cells[i].Outputs = nil
			out.Cells[i].ExecutionCount = nil
		}
	}
	return &out
}

// ParametersCell returns the first cell tagged "parameters", or nil.
func ParametersCell(nb *Notebook) *Cell {
	if idx := indexOfTag(nb, TagParameters); idx >= 0 {
		return &nb.Cells[idx]
	}
	return nil
}

func indexOfTag(nb *Notebook, tag string) int {
	for i := range nb.Cells {
		if nb.Cells[i].HasTag(tag) {
			return i
		}
	}
	return -1
}

// Cell ids became required in format 4.5.
func notebookUsesCellIDs(nb *Notebook) bool {
	if nb.NBFormat > 4 || (nb.NBFormat == 4 && nb.NBFormatMinor >= 5) {
		return true
	}
	for i := range nb.Cells {
		if nb.Cells[i].ID != "" {
			return true
		}
	}
	return false
}

func newCellID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "papermill"
	}
	return hex.EncodeToString(b[:])
}
