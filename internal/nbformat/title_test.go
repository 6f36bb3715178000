package nbformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayTitle_FromMetadata(t *testing.T) {
	nb := &Notebook{
		Metadata: map[string]any{"title": "Quarterly Forecast"},
		Cells:    []Cell{{CellType: CellTypeMarkdown, Source: Lines("# Something Else")}},
	}
	assert.Equal(t, "Quarterly Forecast", DisplayTitle(nb, "fallback"))
}

func TestDisplayTitle_FromFirstHeading(t *testing.T) {
	nb := &Notebook{Cells: []Cell{
		{CellType: CellTypeCode, Source: Lines("# not markdown")},
		{CellType: CellTypeMarkdown, Source: Lines("Some intro text.\n\n## Minor heading\n")},
		{CellType: CellTypeMarkdown, Source: Lines("# Churn Analysis\n\nBody.")},
	}}
	assert.Equal(t, "Churn Analysis", DisplayTitle(nb, "fallback"))
}

func TestDisplayTitle_Fallback(t *testing.T) {
	nb := &Notebook{Cells: []Cell{
		{CellType: CellTypeMarkdown, Source: Lines("plain text, no headings")},
	}}
	assert.Equal(t, "report.ipynb", DisplayTitle(nb, "report.ipynb"))
}
