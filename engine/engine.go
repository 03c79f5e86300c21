package engine

import (
	"fmt"
	"strings"
	"sync"

	"tabformat/logger"
	"tabformat/text"
	"tabformat/types"
)

// Buffer is the document a format request operates on: it supplies the
// current selections and text, and applies the resulting edits.
type Buffer interface {
	Selections() []types.Selection
	TextRange(r types.Range) string
	// PrepareEdits returns a batch that applies all edits at once
	PrepareEdits(edits []types.Edit) Batch
	MoveCursor(pos types.Position) error
}

// Batch is a set of pending buffer edits
type Batch interface {
	Execute() error
}

// SeparatorStore holds the user's separator preference
type SeparatorStore interface {
	Separator() (string, bool)
	SetSeparator(sep string) error
}

// Config holds engine settings
type Config struct {
	Width types.WidthMode
}

// Engine runs format requests against a buffer
type Engine struct {
	mu      sync.Mutex
	buffer  Buffer
	store   SeparatorStore
	measure text.Measurer
}

// Result describes the outcome of a format request
type Result struct {
	Applied   bool
	Separator string // separator the alignment used
	Fallback  bool   // true when the configured separator matched nothing
	Edits     []types.Edit
	Cursor    types.Position
}

// NewEngine creates an engine for buf
func NewEngine(buf Buffer, store SeparatorStore, config Config) (*Engine, error) {
	if buf == nil {
		return nil, fmt.Errorf("buffer cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("separator store cannot be nil")
	}
	measure, err := text.NewMeasurer(config.Width)
	if err != nil {
		return nil, err
	}
	return &Engine{buffer: buf, store: store, measure: measure}, nil
}

// Format aligns the selected lines. It tries the configured separator first
// and falls back to whitespace runs; when neither aligns anything the buffer
// is left untouched and Result.Applied is false.
func (e *Engine) Format() (*Result, error) {
	defer logger.Trace("engine.Format")()

	e.mu.Lock()
	defer e.mu.Unlock()

	records := text.Extract(e.buffer.Selections(), e.buffer)
	if len(records) == 0 {
		logger.Debug("format: nothing selected")
		return &Result{}, nil
	}

	configured, _ := e.store.Separator()
	result := &Result{}
	opt := text.WithMeasurer(e.measure)

	switch {
	case text.Align(records, configured, opt):
		result.Separator = configured
	case text.Align(records, types.WhitespaceSeparator, opt):
		result.Separator = types.WhitespaceSeparator
		result.Fallback = true
	default:
		logger.Debug("format: no separator found in %d lines (configured %q)", len(records), configured)
		return result, nil
	}

	edits := make([]types.Edit, 0, len(records))
	var before, after []string
	for _, rec := range records {
		edits = append(edits, types.Edit{
			Line:      rec.Line,
			StartChar: rec.StartChar,
			Length:    types.CharLen(rec.OriginalText),
			Text:      rec.ReplacementText,
		})
		before = append(before, rec.OriginalText)
		after = append(after, rec.ReplacementText)
	}

	if err := e.buffer.PrepareEdits(edits).Execute(); err != nil {
		return nil, fmt.Errorf("failed to apply edits: %w", err)
	}

	result.Applied = true
	result.Edits = edits
	result.Cursor = cursorAfter(edits)
	if err := e.buffer.MoveCursor(result.Cursor); err != nil {
		return result, fmt.Errorf("failed to move cursor: %w", err)
	}

	added, removed := text.DiffStats(strings.Join(before, "\n")+"\n", strings.Join(after, "\n")+"\n")
	logger.Debug("format: aligned %d lines on %q (fallback=%v, +%d -%d)",
		len(records), result.Separator, result.Fallback, added, removed)

	return result, nil
}

// Separator returns the stored separator preference
func (e *Engine) Separator() (string, bool) {
	return e.store.Separator()
}

// SetSeparator stores the separator preference; an empty value clears it
func (e *Engine) SetSeparator(sep string) error {
	if err := e.store.SetSeparator(sep); err != nil {
		return fmt.Errorf("failed to store separator: %w", err)
	}
	logger.Info("separator set to %q", sep)
	return nil
}

// cursorAfter returns the end of the last edit once all edits are applied.
// Edits to its left on the same line shift it by their change in length.
func cursorAfter(edits []types.Edit) types.Position {
	last := edits[len(edits)-1]
	pos := last.End()
	for _, e := range edits[:len(edits)-1] {
		if e.Line == last.Line && e.StartChar < last.StartChar {
			pos.Char += types.CharLen(e.Text) - e.Length
		}
	}
	return pos
}
