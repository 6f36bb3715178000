package nbformat

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DisplayTitle returns a human-readable title for the notebook: the metadata
// title when set, otherwise the first level-1 markdown heading in the
// document, otherwise the given fallback.
func DisplayTitle(nb *Notebook, fallback string) string {
	if raw, ok := nb.Metadata["title"]; ok {
		if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}

	for i := range nb.Cells {
		c := &nb.Cells[i]
		if c.CellType != CellTypeMarkdown {
			continue
		}
		if title := firstHeading([]byte(c.Source.String())); title != "" {
			return title
		}
	}
	return fallback
}

// firstHeading parses markdown bytes and extracts the first h1 text.
func firstHeading(source []byte) string {
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || title != "" {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		for i := 0; i < h.Lines().Len(); i++ {
			seg := h.Lines().At(i)
			sb.Write(seg.Value(source))
		}
		title = strings.TrimSpace(sb.String())
		return ast.WalkStop, nil
	})
	return title
}
