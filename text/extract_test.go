package text

import (
	"strings"
	"testing"

	"tabformat/assert"
	"tabformat/types"
)

// linesSource serves ranges out of a fixed set of lines
type linesSource []string

func (s linesSource) TextRange(r types.Range) string {
	var parts []string
	for line := r.Start.Line; line <= r.End.Line && line < len(s); line++ {
		runes := []rune(s[line])
		from, to := 0, len(runes)
		if line == r.Start.Line {
			from = min(r.Start.Char, len(runes))
		}
		if line == r.End.Line {
			to = min(r.End.Char, len(runes))
		}
		parts = append(parts, string(runes[from:max(from, to)]))
	}
	return strings.Join(parts, "\n")
}

func TestExtract_SingleLine(t *testing.T) {
	src := linesSource{"a: 1"}
	records := Extract([]types.Selection{types.NewSelection(0, 0, 0, 4)}, src)

	assert.Len(t, 1, records, "records")
	assert.Equal(t, 0, records[0].Line, "line")
	assert.Equal(t, 0, records[0].StartChar, "start char")
	assert.Equal(t, 0, records[0].VisualOffset, "visual offset")
	assert.Equal(t, "a: 1", records[0].OriginalText, "original text")
	assert.Equal(t, "a: 1", records[0].ReplacementText, "replacement starts as original")
	assert.Len(t, 0, records[0].Tokens, "tokens empty before align")
}

func TestExtract_TabBeforeSelectionStart(t *testing.T) {
	src := linesSource{"\tabcdx = 1"}
	records := Extract([]types.Selection{types.NewSelection(0, 5, 0, 10)}, src)

	assert.Len(t, 1, records, "records")
	assert.Equal(t, 5, records[0].StartChar, "start char")
	assert.Equal(t, 8, records[0].VisualOffset, "one tab adds 3")
	assert.Equal(t, "x = 1", records[0].OriginalText, "original text")
}

func TestExtract_MultipleTabsInPrefix(t *testing.T) {
	src := linesSource{"\t\t\tkey: value"}
	records := Extract([]types.Selection{types.NewSelection(0, 3, 0, 13)}, src)

	assert.Len(t, 1, records, "records")
	assert.Equal(t, 12, records[0].VisualOffset, "three tabs add 9")
}

func TestExtract_MultiLineSelection(t *testing.T) {
	src := linesSource{
		"skip",
		"  \tfoo = 1",
		"\tbar = 22",
		"baz = 3 tail",
	}
	records := Extract([]types.Selection{types.NewSelection(1, 3, 3, 7)}, src)

	assert.Len(t, 3, records, "one record per line")

	assert.Equal(t, 1, records[0].Line, "first line")
	assert.Equal(t, 3, records[0].StartChar, "first start char")
	assert.Equal(t, 6, records[0].VisualOffset, "first offset")
	assert.Equal(t, "foo = 1", records[0].OriginalText, "first text")

	// continuation lines are never tab corrected
	assert.Equal(t, 2, records[1].Line, "second line")
	assert.Equal(t, 0, records[1].StartChar, "second start char")
	assert.Equal(t, 0, records[1].VisualOffset, "second offset")
	assert.Equal(t, "\tbar = 22", records[1].OriginalText, "second text")

	assert.Equal(t, 3, records[2].Line, "third line")
	assert.Equal(t, "baz = 3", records[2].OriginalText, "third text")
}

func TestExtract_EmptySelectionYieldsNothing(t *testing.T) {
	src := linesSource{"a: 1", "b: 2"}
	records := Extract([]types.Selection{
		types.NewSelection(0, 2, 0, 2),
		types.NewSelection(1, 0, 1, 0),
	}, src)

	assert.Len(t, 0, records, "collapsed selections")
	assert.Len(t, 0, Extract(nil, src), "no selections")
}

func TestExtract_ReversedSelection(t *testing.T) {
	src := linesSource{"a: 1", "bb: 22"}
	sel := types.Selection{
		Anchor: types.Position{Line: 1, Char: 6},
		Head:   types.Position{Line: 0, Char: 0},
	}
	records := Extract([]types.Selection{sel}, src)

	assert.Len(t, 2, records, "records")
	assert.Equal(t, "a: 1", records[0].OriginalText, "first")
	assert.Equal(t, "bb: 22", records[1].OriginalText, "second")
}

func TestExtract_KeepsSelectionOrder(t *testing.T) {
	src := linesSource{"a = 1", "b = 2", "c = 3"}
	records := Extract([]types.Selection{
		types.NewSelection(2, 0, 2, 5),
		types.NewSelection(0, 0, 0, 5),
	}, src)

	assert.Len(t, 2, records, "records")
	assert.Equal(t, 2, records[0].Line, "first record follows first selection")
	assert.Equal(t, 0, records[1].Line, "second record follows second selection")
}

func TestExtract_SelectionEndingAtLineStart(t *testing.T) {
	src := linesSource{"a = 1", "b = 2"}
	records := Extract([]types.Selection{types.NewSelection(0, 0, 1, 0)}, src)

	assert.Len(t, 2, records, "trailing empty fragment is a line")
	assert.Equal(t, "", records[1].OriginalText, "empty continuation")
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"a", []string{"a"}},
		{"a\nb", []string{"a", "b"}},
		{"a\r\nb\r\n", []string{"a", "b", ""}},
	}

	for _, tt := range tests {
		assert.Lines(t, tt.want, SplitLines(tt.in), tt.in)
	}
}
