package parameters

import (
	"regexp"
	"strings"
)

// InferredParameter describes one assignment found in a parameters cell.
type InferredParameter struct {
	Name    string
	Type    string // annotation text when the language carries one
	Default string // raw right-hand side as written
	Help    string // trailing comment, when present
}

// Assignment shapes: "name = value", "name <- value", "name: type = value",
// "val name = value".
var assignmentRe = regexp.MustCompile(`^\s*(?:val\s+|var\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*(?::\s*([^=<]+?))?\s*(?:=|<-)\s*(.*)$`)

// Infer scans a parameters cell's source for simple one-line assignments.
// commentPrefix is the cell language's line-comment marker; a trailing
// comment becomes the parameter's help text. Multi-line values are not
// recognized, matching what a line scanner can do without a real parser.
func Infer(source, commentPrefix string) []InferredParameter {
	var params []InferredParameter
	for _, line := range strings.Split(source, "\n") {
		code, help := splitComment(line, commentPrefix)
		match := assignmentRe.FindStringSubmatch(code)
		if match == nil {
			continue
		}
		def := strings.TrimSpace(match[3])
		if def == "" {
			continue
		}
		params = append(params, InferredParameter{
			Name:    match[1],
			Type:    strings.TrimSpace(match[2]),
			Default: def,
			Help:    help,
		})
	}
	return params
}

// splitComment separates code from a trailing line comment. The prefix only
// counts when it starts the line or follows whitespace, so values containing
// the marker mid-token survive.
func splitComment(line, prefix string) (code, help string) {
	if prefix == "" {
		return line, ""
	}
	if strings.HasPrefix(strings.TrimSpace(line), prefix) {
		return "", ""
	}
	idx := strings.LastIndex(line, " "+prefix)
	if idx < 0 {
		idx = strings.LastIndex(line, "\t"+prefix)
	}
	if idx < 0 {
		return line, ""
	}
	help = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[idx:]), prefix))
	return line[:idx], help
}
