package buffer

import (
	"fmt"

	"github.com/neovim/go-client/nvim"

	"tabformat/engine"
	"tabformat/logger"
	"tabformat/types"
)

// Request identifies the lines a format command was invoked on
type Request struct {
	Line1  int  // 1-indexed, inclusive
	Line2  int  // 1-indexed, inclusive
	Visual bool // the command was started from visual mode
}

// Nvim is the current Neovim buffer and window. It snapshots the affected
// lines when created; positions are exchanged in characters and converted
// to Neovim's byte columns on the way out.
type Nvim struct {
	v          *nvim.Nvim
	buf        nvim.Buffer
	win        nvim.Window
	first      int // buffer line of lines[0], 0-indexed
	lines      []string
	selections []types.Selection
}

// NewNvim reads the selection for req from the current buffer
func NewNvim(v *nvim.Nvim, req Request) (*Nvim, error) {
	defer logger.Trace("buffer.NewNvim")()

	buf, err := v.CurrentBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to get current buffer: %w", err)
	}
	win, err := v.CurrentWindow()
	if err != nil {
		return nil, fmt.Errorf("failed to get current window: %w", err)
	}

	first, last := req.Line1-1, req.Line2-1
	if last < first {
		first, last = last, first
	}
	first = max(first, 0)

	var mode string
	var start, end [2]int
	if req.Visual {
		if start, err = v.BufferMark(buf, "<"); err != nil {
			return nil, fmt.Errorf("failed to read '< mark: %w", err)
		}
		if end, err = v.BufferMark(buf, ">"); err != nil {
			return nil, fmt.Errorf("failed to read '> mark: %w", err)
		}
		if err := v.Call("visualmode", &mode); err != nil {
			return nil, fmt.Errorf("failed to read visual mode: %w", err)
		}
		// a range typed by hand does not match the marks
		if start[0]-1 != first || end[0]-1 != last {
			mode = ""
		}
	}

	raw, err := v.BufferLines(buf, first, last+1, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read lines %d-%d: %w", first+1, last+1, err)
	}
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = string(l)
	}

	n := &Nvim{v: v, buf: buf, win: win, first: first, lines: lines}
	if mode != "" {
		n.selections = visualSelections(mode, start, end, first, lines)
	} else {
		n.selections = []types.Selection{linewise(lines, first, first, last)}
	}

	logger.Debug("nvim %v: lines %d-%d, mode %q, %d selections", buf, first+1, last+1, mode, len(n.selections))
	return n, nil
}

func (n *Nvim) Selections() []types.Selection {
	return n.selections
}

func (n *Nvim) TextRange(r types.Range) string {
	return sliceRange(n.lines, n.first, r)
}

func (n *Nvim) PrepareEdits(edits []types.Edit) engine.Batch {
	return &nvimBatch{n: n, edits: edits}
}

func (n *Nvim) MoveCursor(pos types.Position) error {
	col := byteCol(lineAt(n.lines, n.first, pos.Line), pos.Char)
	return n.v.SetWindowCursor(n.win, [2]int{pos.Line + 1, col})
}

// nvimBatch sends every edit in a single RPC batch
type nvimBatch struct {
	n     *Nvim
	edits []types.Edit
}

func (b *nvimBatch) Execute() error {
	n := b.n
	ordered, err := orderEdits(b.edits)
	if err != nil {
		return err
	}

	// right to left, so byte columns from the snapshot stay valid
	batch := n.v.NewBatch()
	for _, e := range ordered {
		line := lineAt(n.lines, n.first, e.Line)
		from := byteCol(line, e.StartChar)
		to := byteCol(line, e.StartChar+e.Length)
		batch.SetBufferText(n.buf, e.Line, from, e.Line, to, [][]byte{[]byte(e.Text)})
	}
	if err := batch.Execute(); err != nil {
		return err
	}

	// keep the snapshot in step so the cursor lands on the right byte
	for _, e := range ordered {
		if i := e.Line - n.first; i >= 0 && i < len(n.lines) {
			n.lines[i] = applyEdit(n.lines[i], e)
		}
	}
	return nil
}
