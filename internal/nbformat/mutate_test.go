package nbformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramTagged(source string) Cell {
	return Cell{
		CellType: CellTypeCode,
		Metadata: map[string]any{"tags": []any{TagParameters}},
		Source:   Lines(source),
	}
}

func TestInsertParameterCell_AfterParametersCell(t *testing.T) {
	nb := &Notebook{
		Cells: []Cell{
			{CellType: CellTypeMarkdown, Source: Lines("# Title")},
			paramTagged("alpha = 0.1"),
			{CellType: CellTypeCode, Source: Lines("print(alpha)")},
		},
		NBFormat: 4, NBFormatMinor: 4,
	}

	got := InsertParameterCell(nb, "alpha = 0.6")

	require.Len(t, got.Cells, 4)
	injected := got.Cells[2]
	assert.True(t, injected.HasTag(TagInjectedParameters))
	assert.Equal(t, "alpha = 0.6", injected.Source.String())
	assert.Equal(t, "print(alpha)", got.Cells[3].Source.String())

	// The input document is left alone.
	assert.Len(t, nb.Cells, 3)
}

func TestInsertParameterCell_ReplacesExistingInjectedCell(t *testing.T) {
	nb := &Notebook{
		Cells: []Cell{
			paramTagged("alpha = 0.1"),
			{
				CellType: CellTypeCode,
				Metadata: map[string]any{"tags": []any{TagInjectedParameters}},
				Source:   Lines("alpha = 0.2"),
			},
		},
		NBFormat: 4, NBFormatMinor: 4,
	}

	got := InsertParameterCell(nb, "alpha = 0.9")

	require.Len(t, got.Cells, 2)
	assert.Equal(t, "alpha = 0.9", got.Cells[1].Source.String())
	assert.Equal(t, "alpha = 0.2", nb.Cells[1].Source.String())
}

func TestInsertParameterCell_NoParametersCell_InsertsAtTop(t *testing.T) {
	nb := &Notebook{
		Cells:    []Cell{{CellType: CellTypeCode, Source: Lines("print('x')")}},
		NBFormat: 4, NBFormatMinor: 4,
	}

	got := InsertParameterCell(nb, "alpha = 1")

	require.Len(t, got.Cells, 2)
	assert.True(t, got.Cells[0].HasTag(TagInjectedParameters))
	assert.Equal(t, "print('x')", got.Cells[1].Source.String())
}

func TestInsertParameterCell_UsesFirstParametersCell(t *testing.T) {
	nb := &Notebook{
		Cells: []Cell{
			paramTagged("a = 1"),
			{CellType: CellTypeMarkdown, Source: Lines("text")},
			paramTagged("b = 2"),
		},
		NBFormat: 4, NBFormatMinor: 4,
	}

	got := InsertParameterCell(nb, "a = 3")

	require.Len(t, got.Cells, 4)
	assert.True(t, got.Cells[1].HasTag(TagInjectedParameters))
	assert.Equal(t, "b = 2", got.Cells[3].Source.String())
}

func TestInsertParameterCell_AssignsIDForModernFormats(t *testing.T) {
	nb := &Notebook{
		Cells:    []Cell{paramTagged("a = 1")},
		NBFormat: 4, NBFormatMinor: 5,
	}

	got := InsertParameterCell(nb, "a = 2")
	assert.NotEmpty(t, got.Cells[1].ID)

	older := &Notebook{
		Cells:    []Cell{paramTagged("a = 1")},
		NBFormat: 4, NBFormatMinor: 2,
	}
	got = InsertParameterCell(older, "a = 2")
	assert.Empty(t, got.Cells[1].ID)
}

func TestClearOutputs(t *testing.T) {
	three := 3
	nb := &Notebook{
		Cells: []Cell{
			{CellType: CellTypeMarkdown, Source: Lines("# Title")},
			{
				CellType:       CellTypeCode,
				ExecutionCount: &three,
				Outputs:        []Output{NewStreamOutput(StreamStdout, "hi\n")},
				Source:         Lines("print('hi')"),
			},
		},
		NBFormat: 4, NBFormatMinor: 4,
	}

	got := ClearOutputs(nb)

	assert.Nil(t, got.Cells[1].Outputs)
	assert.Nil(t, got.Cells[1].ExecutionCount)

	// Original keeps its outputs.
	require.NotNil(t, nb.Cells[1].ExecutionCount)
	assert.Len(t, nb.Cells[1].Outputs, 1)
}

func TestParametersCell(t *testing.T) {
	nb := &Notebook{Cells: []Cell{
		{CellType: CellTypeMarkdown},
		paramTagged("alpha = 0.1"),
	}}

	cell := ParametersCell(nb)
	require.NotNil(t, cell)
	assert.Equal(t, "alpha = 0.1", cell.Source.String())

	assert.Nil(t, ParametersCell(&Notebook{}))
}
