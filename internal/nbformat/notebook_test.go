package nbformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_Tags(t *testing.T) {
	cell := Cell{Metadata: map[string]any{"tags": []any{"parameters", "hidden"}}}

	assert.Equal(t, []string{"parameters", "hidden"}, cell.Tags())
	assert.True(t, cell.HasTag(TagParameters))
	assert.False(t, cell.HasTag(TagRaisesException))
}

func TestCell_Tags_MissingOrMalformed(t *testing.T) {
	assert.Nil(t, (&Cell{}).Tags())
	assert.Nil(t, (&Cell{Metadata: map[string]any{"tags": "oops"}}).Tags())
}

func TestCell_Options_Skip(t *testing.T) {
	cell := Cell{Metadata: map[string]any{"papermill": map[string]any{"skip": true}}}
	assert.True(t, cell.Options().Skip)

	assert.False(t, (&Cell{}).Options().Skip)
}

func TestNotebook_Language_PrefersKernelspec(t *testing.T) {
	nb := &Notebook{Metadata: map[string]any{
		"kernelspec":    map[string]any{"name": "ir", "display_name": "R", "language": "r"},
		"language_info": map[string]any{"name": "python"},
	}}
	assert.Equal(t, "r", nb.Language())
}

func TestNotebook_Language_FallsBackToLanguageInfo(t *testing.T) {
	nb := &Notebook{Metadata: map[string]any{
		"language_info": map[string]any{"name": "julia"},
	}}
	assert.Equal(t, "julia", nb.Language())

	assert.Equal(t, "", (&Notebook{}).Language())
}

func TestNotebook_MaxExecutionCount(t *testing.T) {
	two, five := 2, 5
	nb := &Notebook{Cells: []Cell{
		{CellType: CellTypeCode, ExecutionCount: &five},
		{CellType: CellTypeCode, ExecutionCount: nil},
		{CellType: CellTypeCode, ExecutionCount: &two},
	}}
	assert.Equal(t, 5, nb.MaxExecutionCount())
	assert.Equal(t, 0, (&Notebook{}).MaxExecutionCount())
}

func TestNotebook_CodeCellCount(t *testing.T) {
	nb := &Notebook{Cells: []Cell{
		{CellType: CellTypeMarkdown},
		{CellType: CellTypeCode},
		{CellType: CellTypeRaw},
		{CellType: CellTypeCode},
	}}
	assert.Equal(t, 2, nb.CodeCellCount())
}

func TestNotebook_Kernelspec_Absent(t *testing.T) {
	_, ok := (&Notebook{}).Kernelspec()
	require.False(t, ok)

	_, ok = (&Notebook{Metadata: map[string]any{"kernelspec": map[string]any{}}}).Kernelspec()
	assert.False(t, ok)
}
