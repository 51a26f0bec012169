package pipeline

import (
	"fmt"
	"strings"
)

// assemble renders ranked passages as a numbered context block. The
// 1-based index is the citation key the answer prompt instructs the
// model to use.
func assemble(passages []Passage) string {
	lines := make([]string, len(passages))
	for i, passage := range passages {
		lines[i] = fmt.Sprintf("%d. %s", i+1, passage.Content)
	}
	return strings.Join(lines, "\n")
}
