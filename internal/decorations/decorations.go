// Package decorations turns stored findings into editor line-range highlights.
package decorations

import (
	"fmt"

	"github.com/scan-io-git/scanio-ide/internal/findings"
)

// Range is one highlight in 0-based editor lines, both ends inclusive.
type Range struct {
	Key       findings.Key
	StartLine int
	EndLine   int
	Message   string
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d %s", r.StartLine, r.EndLine, r.Key)
}

// Render returns the highlights for activePath: one per finding of that file
// that is not discarded, ordered by key.
func Render(entries findings.Entries, activePath string) []Range {
	ranges := []Range{}
	for _, f := range entries.ForPath(activePath) {
		if f.IsDiscarded {
			continue
		}
		ranges = append(ranges, Range{
			Key:       f.Key(),
			StartLine: f.StartLine - 1,
			EndLine:   f.EndLine - 1,
			Message:   hoverMessage(f),
		})
	}
	return ranges
}

func hoverMessage(f findings.Finding) string {
	switch {
	case f.Category != "" && f.Summary != "":
		return f.Category + ": " + f.Summary
	case f.Summary != "":
		return f.Summary
	default:
		return f.Category
	}
}
