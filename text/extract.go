package text

import (
	"strings"

	"tabformat/types"
)

// tabCorrection is added to a line's offset for every tab before the
// selection start, treating a tab as 4 display columns.
const tabCorrection = 3

// Source reads the literal text of a document range
type Source interface {
	TextRange(r types.Range) string
}

// Extract converts selections into one LineRecord per line they span.
// Records keep selection order, then line order; collapsed selections are
// skipped. Only the first line of a selection carries a non-zero offset.
func Extract(selections []types.Selection, src Source) []*types.LineRecord {
	var records []*types.LineRecord

	for _, sel := range selections {
		if sel.IsEmpty() {
			continue
		}
		r := sel.Range()

		startChar := r.Start.Char
		visualOffset := startChar
		if startChar != 0 {
			prefix := src.TextRange(types.Range{
				Start: types.Position{Line: r.Start.Line, Char: 0},
				End:   r.Start,
			})
			visualOffset = startChar + tabCorrection*strings.Count(prefix, "\t")
		}

		line := r.Start.Line
		for i, fragment := range SplitLines(src.TextRange(r)) {
			rec := &types.LineRecord{
				Line:            line,
				OriginalText:    fragment,
				ReplacementText: fragment,
			}
			if i == 0 {
				rec.StartChar = startChar
				rec.VisualOffset = visualOffset
			}
			records = append(records, rec)
			line++
		}
	}

	return records
}

// SplitLines splits s on line breaks, accepting both "\n" and "\r\n"
func SplitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
