package types

import "unicode/utf8"

// WhitespaceSeparator is the sentinel separator that splits on runs of
// whitespace instead of a literal substring.
const WhitespaceSeparator = " "

// Position is a location in a document
type Position struct {
	Line int // 0-indexed
	Char int // 0-indexed, in characters
}

// Before reports whether p comes strictly before other
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Char < other.Char
}

// Range is a span of a document, Start <= End
type Range struct {
	Start Position
	End   Position
}

// Selection is a user selection. Anchor is where it started and Head is where
// the cursor sits; Anchor == Head is a collapsed selection.
type Selection struct {
	Anchor Position
	Head   Position
}

// NewSelection creates a forward selection covering start..end
func NewSelection(startLine, startChar, endLine, endChar int) Selection {
	return Selection{
		Anchor: Position{Line: startLine, Char: startChar},
		Head:   Position{Line: endLine, Char: endChar},
	}
}

// IsEmpty returns true if the selection has no extent
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Range returns the selection as a range with Start <= End
func (s Selection) Range() Range {
	if s.Head.Before(s.Anchor) {
		return Range{Start: s.Head, End: s.Anchor}
	}
	return Range{Start: s.Anchor, End: s.Head}
}

// LineRecord is the per-line scratch state of one format invocation
type LineRecord struct {
	Line            int // 0-indexed
	StartChar       int // 0 for continuation lines
	VisualOffset    int // StartChar corrected for preceding tabs
	OriginalText    string
	ReplacementText string
	Tokens          []string
}

// Edit replaces Length characters at Line/StartChar with Text
type Edit struct {
	Line      int
	StartChar int
	Length    int
	Text      string
}

// End returns the position right after the inserted text
func (e Edit) End() Position {
	return Position{Line: e.Line, Char: e.StartChar + CharLen(e.Text)}
}

// CharLen returns the length of s in characters
func CharLen(s string) int { return utf8.RuneCountInString(s) }

// WidthMode selects how token widths are measured
type WidthMode string

const (
	WidthChars WidthMode = "chars"
	WidthCells WidthMode = "cells"
)
