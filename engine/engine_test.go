package engine

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"tabformat/assert"
	"tabformat/types"
)

// --- Mock implementations ---

// mockBuffer implements the Buffer interface over a slice of lines
type mockBuffer struct {
	mu         sync.Mutex
	lines      []string
	selections []types.Selection
	cursor     types.Position
	executeErr error

	// Track method calls
	prepareCalls int
	executeCalls int
	moveCalls    int
	lastEdits    []types.Edit
}

func newMockBuffer(lines ...string) *mockBuffer {
	return &mockBuffer{lines: lines}
}

func (b *mockBuffer) selectAll() *mockBuffer {
	last := len(b.lines) - 1
	b.selections = []types.Selection{types.NewSelection(0, 0, last, len([]rune(b.lines[last])))}
	return b
}

func (b *mockBuffer) Selections() []types.Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selections
}

func (b *mockBuffer) TextRange(r types.Range) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var parts []string
	for line := r.Start.Line; line <= r.End.Line && line < len(b.lines); line++ {
		runes := []rune(b.lines[line])
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

func (b *mockBuffer) PrepareEdits(edits []types.Edit) Batch {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prepareCalls++
	b.lastEdits = edits
	return &mockBatch{buf: b, edits: edits}
}

func (b *mockBuffer) MoveCursor(pos types.Position) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moveCalls++
	b.cursor = pos
	return nil
}

// mockBatch implements Batch by splicing edits into the mock buffer
type mockBatch struct {
	buf   *mockBuffer
	edits []types.Edit
}

func (m *mockBatch) Execute() error {
	b := m.buf
	b.mu.Lock()
	defer b.mu.Unlock()
	b.executeCalls++
	if b.executeErr != nil {
		return b.executeErr
	}
	// columns refer to the lines before the batch, so splice right to left
	ordered := slices.Clone(m.edits)
	slices.SortStableFunc(ordered, func(x, y types.Edit) int {
		if x.Line != y.Line {
			return x.Line - y.Line
		}
		return y.StartChar - x.StartChar
	})
	for _, e := range ordered {
		runes := []rune(b.lines[e.Line])
		b.lines[e.Line] = string(runes[:e.StartChar]) + e.Text + string(runes[e.StartChar+e.Length:])
	}
	return nil
}

// mockStore implements SeparatorStore
type mockStore struct {
	sep    string
	setErr error
}

func (s *mockStore) Separator() (string, bool) { return s.sep, s.sep != "" }

func (s *mockStore) SetSeparator(sep string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.sep = sep
	return nil
}

func createTestEngine(t *testing.T, buf *mockBuffer, sep string) *Engine {
	t.Helper()
	eng, err := NewEngine(buf, &mockStore{sep: sep}, Config{Width: types.WidthChars})
	assert.NoError(t, err, "NewEngine")
	return eng
}

// --- Tests ---

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(nil, &mockStore{}, Config{})
	assert.Error(t, err, "nil buffer")

	_, err = NewEngine(newMockBuffer("a"), nil, Config{})
	assert.Error(t, err, "nil store")

	_, err = NewEngine(newMockBuffer("a"), &mockStore{}, Config{Width: "bogus"})
	assert.Error(t, err, "unknown width")
}

func TestFormat_ConfiguredSeparator(t *testing.T) {
	buf := newMockBuffer("a: 1", "bb: 22").selectAll()
	eng := createTestEngine(t, buf, ":")

	res, err := eng.Format()

	assert.NoError(t, err, "Format")
	assert.True(t, res.Applied, "applied")
	assert.False(t, res.Fallback, "no fallback")
	assert.Equal(t, ":", res.Separator, "separator")
	assert.Lines(t, []string{"a : 1", "bb: 22"}, buf.lines, "buffer")
	assert.Equal(t, 1, buf.executeCalls, "one batch")
	assert.Equal(t, types.Position{Line: 1, Char: 6}, buf.cursor, "cursor at end of last edit")
}

func TestFormat_FallsBackToWhitespace(t *testing.T) {
	buf := newMockBuffer("name value", "longer_name v").selectAll()
	eng := createTestEngine(t, buf, ",")

	res, err := eng.Format()

	assert.NoError(t, err, "Format")
	assert.True(t, res.Applied, "applied")
	assert.True(t, res.Fallback, "fallback used")
	assert.Equal(t, types.WhitespaceSeparator, res.Separator, "whitespace")
	assert.Lines(t, []string{"name        value", "longer_name v"}, buf.lines, "buffer")
}

func TestFormat_NoPreferenceFallsBack(t *testing.T) {
	buf := newMockBuffer("a 1", "bb 2").selectAll()
	eng := createTestEngine(t, buf, "")

	res, err := eng.Format()

	assert.NoError(t, err, "Format")
	assert.True(t, res.Fallback, "fallback used")
	assert.Lines(t, []string{"a  1", "bb 2"}, buf.lines, "buffer")
}

func TestFormat_NothingToAlignIsNoOp(t *testing.T) {
	buf := newMockBuffer("alpha", "beta").selectAll()
	eng := createTestEngine(t, buf, "=")

	res, err := eng.Format()

	assert.NoError(t, err, "Format")
	assert.False(t, res.Applied, "not applied")
	assert.Equal(t, 0, buf.prepareCalls, "no edits prepared")
	assert.Equal(t, 0, buf.moveCalls, "cursor untouched")
	assert.Lines(t, []string{"alpha", "beta"}, buf.lines, "buffer unchanged")
}

func TestFormat_EmptySelectionsAreNoOp(t *testing.T) {
	buf := newMockBuffer("a = 1", "b = 2")
	buf.selections = []types.Selection{types.NewSelection(0, 1, 0, 1)}
	eng := createTestEngine(t, buf, "=")

	res, err := eng.Format()

	assert.NoError(t, err, "Format")
	assert.False(t, res.Applied, "not applied")
	assert.Equal(t, 0, buf.prepareCalls, "no edits prepared")
}

func TestFormat_MultipleSelectionsWithOffsets(t *testing.T) {
	buf := newMockBuffer(
		"    x = 1",
		"yy = 2",
	)
	buf.selections = []types.Selection{
		types.NewSelection(0, 4, 0, 9),
		types.NewSelection(1, 0, 1, 6),
	}
	eng := createTestEngine(t, buf, "=")

	res, err := eng.Format()

	assert.NoError(t, err, "Format")
	assert.Len(t, 2, res.Edits, "edits")
	assert.Equal(t, types.Edit{Line: 0, StartChar: 4, Length: 5, Text: "x = 1"}, res.Edits[0], "first edit")
	assert.Equal(t, types.Edit{Line: 1, StartChar: 0, Length: 6, Text: "    yy= 2"}, res.Edits[1], "second edit")
	assert.Lines(t, []string{"    x = 1", "    yy= 2"}, buf.lines, "buffer")
	assert.Equal(t, types.Position{Line: 1, Char: 9}, res.Cursor, "cursor")
}

func TestFormat_TwoSelectionsOnOneLine(t *testing.T) {
	buf := newMockBuffer("a=1 | bb=2")
	buf.selections = []types.Selection{
		types.NewSelection(0, 0, 0, 3),
		types.NewSelection(0, 6, 0, 10),
	}
	eng := createTestEngine(t, buf, "=")

	res, err := eng.Format()

	assert.NoError(t, err, "Format")
	assert.Equal(t, types.Edit{Line: 0, StartChar: 0, Length: 3, Text: "      a = 1"}, res.Edits[0], "left edit")
	assert.Equal(t, types.Edit{Line: 0, StartChar: 6, Length: 4, Text: "bb= 2"}, res.Edits[1], "right edit")
	assert.Lines(t, []string{"      a = 1 | bb= 2"}, buf.lines, "buffer")
	// the left edit grew by 8, which moves the end of the right one
	assert.Equal(t, types.Position{Line: 0, Char: 19}, res.Cursor, "cursor")
}

func TestFormat_TabIndentedSelection(t *testing.T) {
	buf := newMockBuffer(
		"\tkey: v",
		"longkey: value",
	)
	buf.selections = []types.Selection{
		types.NewSelection(0, 1, 0, 7),
		types.NewSelection(1, 0, 1, 14),
	}
	eng := createTestEngine(t, buf, ":")

	_, err := eng.Format()

	assert.NoError(t, err, "Format")
	// the tab counts as four columns, so the second line is shifted by four
	assert.Lines(t, []string{
		"\tkey    : v",
		"    longkey: value",
	}, buf.lines, "buffer")
}

func TestFormat_ExecuteError(t *testing.T) {
	buf := newMockBuffer("a: 1", "bb: 2").selectAll()
	buf.executeErr = errors.New("buffer is read-only")
	eng := createTestEngine(t, buf, ":")

	_, err := eng.Format()

	assert.Error(t, err, "execute failure surfaces")
	assert.Equal(t, 0, buf.moveCalls, "cursor untouched")
}

func TestSetSeparator(t *testing.T) {
	store := &mockStore{}
	eng, err := NewEngine(newMockBuffer("a"), store, Config{})
	assert.NoError(t, err, "NewEngine")

	assert.NoError(t, eng.SetSeparator("=>"), "set")
	sep, ok := eng.Separator()
	assert.True(t, ok, "stored")
	assert.Equal(t, "=>", sep, "value")

	store.setErr = errors.New("disk full")
	assert.Error(t, eng.SetSeparator(":"), "store failure")
}
