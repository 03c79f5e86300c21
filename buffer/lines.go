package buffer

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"tabformat/types"
)

// Visual modes as reported by visualmode()
const (
	visualChar  = "v"
	visualLine  = "V"
	visualBlock = "\x16"
)

// charCol converts a byte column to a character column, clamped to the line
func charCol(line string, byteCol int) int {
	if byteCol < 0 {
		return 0
	}
	return utf8.RuneCountInString(line[:min(byteCol, len(line))])
}

// byteCol converts a character column to a byte column, clamped to the line
func byteCol(line string, col int) int {
	if col <= 0 {
		return 0
	}
	n := 0
	for i := range line {
		if n == col {
			return i
		}
		n++
	}
	return len(line)
}

// indentChars returns the number of leading blanks on line
func indentChars(line string) int {
	return utf8.RuneCountInString(line) - utf8.RuneCountInString(strings.TrimLeft(line, " \t"))
}

// lineAt returns buffer line n from a snapshot that starts at offset
func lineAt(lines []string, offset, n int) string {
	if i := n - offset; i >= 0 && i < len(lines) {
		return lines[i]
	}
	return ""
}

// linewise selects whole lines first..last, starting after the first line's
// indentation so that indented blocks keep their indent
func linewise(lines []string, offset, first, last int) types.Selection {
	start := indentChars(lineAt(lines, offset, first))
	end := utf8.RuneCountInString(lineAt(lines, offset, last))
	return types.NewSelection(first, start, last, end)
}

// sliceRange returns the text of r, joining lines with "\n"
func sliceRange(lines []string, offset int, r types.Range) string {
	var b strings.Builder
	for n := r.Start.Line; n <= r.End.Line; n++ {
		line := lineAt(lines, offset, n)
		from, to := 0, len(line)
		if n == r.Start.Line {
			from = byteCol(line, r.Start.Char)
		}
		if n == r.End.Line {
			to = byteCol(line, r.End.Char)
		}
		if n > r.Start.Line {
			b.WriteByte('\n')
		}
		if to > from {
			b.WriteString(line[from:to])
		}
	}
	return b.String()
}

// visualSelections turns the '< and '> marks (1-indexed rows, byte columns,
// end inclusive) into selections for the given visual mode
func visualSelections(mode string, start, end [2]int, offset int, lines []string) []types.Selection {
	first, last := start[0]-1, end[0]-1
	if last < first {
		first, last = last, first
		start, end = end, start
	}

	switch mode {
	case visualChar:
		startLine := lineAt(lines, offset, first)
		endLine := lineAt(lines, offset, last)
		endChar := min(charCol(endLine, end[1])+1, utf8.RuneCountInString(endLine))
		return []types.Selection{types.NewSelection(first, charCol(startLine, start[1]), last, endChar)}

	case visualBlock:
		left := charCol(lineAt(lines, offset, first), start[1])
		right := charCol(lineAt(lines, offset, last), end[1])
		if right < left {
			left, right = right, left
		}
		var sels []types.Selection
		for n := first; n <= last; n++ {
			width := utf8.RuneCountInString(lineAt(lines, offset, n))
			from, to := min(left, width), min(right+1, width)
			sels = append(sels, types.NewSelection(n, from, n, to))
		}
		return sels

	default:
		return []types.Selection{linewise(lines, offset, first, last)}
	}
}

// applyEdit splices e into line, in characters
func applyEdit(line string, e types.Edit) string {
	from := byteCol(line, e.StartChar)
	to := byteCol(line, e.StartChar+e.Length)
	return line[:from] + e.Text + line[to:]
}

// orderEdits sorts edits by line and right to left within a line, so that
// applying them in order keeps every column in original coordinates.
// Overlapping edits on the same line are rejected.
func orderEdits(edits []types.Edit) ([]types.Edit, error) {
	ordered := slices.Clone(edits)
	slices.SortStableFunc(ordered, func(a, b types.Edit) int {
		if a.Line != b.Line {
			return cmp.Compare(a.Line, b.Line)
		}
		return cmp.Compare(b.StartChar, a.StartChar)
	})
	for i := 1; i < len(ordered); i++ {
		right, left := ordered[i-1], ordered[i]
		if left.Line == right.Line && left.StartChar+left.Length > right.StartChar {
			return nil, fmt.Errorf("overlapping edits on line %d at %d and %d", left.Line, left.StartChar, right.StartChar)
		}
	}
	return ordered, nil
}
