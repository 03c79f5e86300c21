package buffer

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"tabformat/engine"
	"tabformat/types"
)

// Memory is an in-memory document used by the CLI
type Memory struct {
	mu         sync.Mutex
	lines      []string
	cr         []bool // line i ended with "\r\n"
	eol        bool   // content ended with a newline
	selections []types.Selection
	cursor     types.Position
}

// NewMemory creates a document from content. Line endings are kept per
// line, so String returns content unchanged until an edit is applied.
func NewMemory(content string) *Memory {
	eol := strings.HasSuffix(content, "\n")
	if eol {
		content = strings.TrimSuffix(content, "\n")
	}
	lines := strings.Split(content, "\n")
	cr := make([]bool, len(lines))
	for i, l := range lines {
		if strings.HasSuffix(l, "\r") {
			lines[i], cr[i] = strings.TrimSuffix(l, "\r"), true
		}
	}
	return &Memory{lines: lines, cr: cr, eol: eol}
}

// LineCount returns the number of lines
func (m *Memory) LineCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines)
}

// Select replaces the current selections
func (m *Memory) Select(sels ...types.Selection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections = append([]types.Selection(nil), sels...)
}

// SelectLines adds a linewise selection of first..last (0-indexed, inclusive)
func (m *Memory) SelectLines(first, last int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if first < 0 || last < first || last >= len(m.lines) {
		return fmt.Errorf("line range %d:%d outside document of %d lines", first+1, last+1, len(m.lines))
	}
	m.selections = append(m.selections, linewise(m.lines, 0, first, last))
	return nil
}

// SelectAll selects the whole document linewise
func (m *Memory) SelectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections = []types.Selection{linewise(m.lines, 0, 0, len(m.lines)-1)}
}

func (m *Memory) Selections() []types.Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selections
}

func (m *Memory) TextRange(r types.Range) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sliceRange(m.lines, 0, r)
}

func (m *Memory) PrepareEdits(edits []types.Edit) engine.Batch {
	return &memoryBatch{m: m, edits: edits}
}

func (m *Memory) MoveCursor(pos types.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = pos
	return nil
}

// Cursor returns the last cursor position
func (m *Memory) Cursor() types.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// String returns the document content
func (m *Memory) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	last := len(m.lines) - 1
	for i, l := range m.lines {
		b.WriteString(l)
		if m.cr[i] {
			b.WriteByte('\r')
		}
		if i < last || m.eol {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// memoryBatch applies all edits or none. Edit columns refer to the
// document as it was before the batch.
type memoryBatch struct {
	m     *Memory
	edits []types.Edit
}

func (b *memoryBatch) Execute() error {
	m := b.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range b.edits {
		if e.Line < 0 || e.Line >= len(m.lines) {
			return fmt.Errorf("edit line %d out of range", e.Line)
		}
		if e.StartChar < 0 || e.Length < 0 || e.StartChar+e.Length > utf8.RuneCountInString(m.lines[e.Line]) {
			return fmt.Errorf("edit %d:%d+%d out of range", e.Line, e.StartChar, e.Length)
		}
	}
	ordered, err := orderEdits(b.edits)
	if err != nil {
		return err
	}
	for _, e := range ordered {
		m.lines[e.Line] = applyEdit(m.lines[e.Line], e)
	}
	return nil
}
