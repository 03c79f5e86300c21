package text

import (
	"strings"
	"unicode"

	"tabformat/types"
)

// expandedTab replaces every tab inside a token before trimming
const expandedTab = "    "

type alignOptions struct {
	measure Measurer
}

// Option configures Align
type Option func(*alignOptions)

// WithMeasurer overrides how token widths are counted (characters by default)
func WithMeasurer(m Measurer) Option {
	return func(o *alignOptions) {
		if m != nil {
			o.measure = m
		}
	}
}

// Align tokenizes every record by separator and rebuilds its ReplacementText
// so that the separators of all records line up. It returns false, leaving
// ReplacementText untouched, when separator is empty or no record contains
// it. Tokens are reassigned on every call, successful or not.
//
// types.WhitespaceSeparator splits on whitespace runs and joins with a single
// space; any other separator is matched literally.
func Align(records []*types.LineRecord, separator string, opts ...Option) bool {
	if separator == "" {
		return false
	}

	o := alignOptions{measure: types.CharLen}
	for _, opt := range opts {
		opt(&o)
	}

	whitespace := separator == types.WhitespaceSeparator

	var columnWidth []int
	maxSeparatorCount := 0
	maxVisualOffset := 0

	for _, rec := range records {
		fields := splitFields(rec.OriginalText, separator)
		maxSeparatorCount = max(maxSeparatorCount, len(fields)-1)
		maxVisualOffset = max(maxVisualOffset, rec.VisualOffset)

		tokens := make([]string, 0, len(fields))
		for _, f := range fields {
			tok := cleanToken(f)
			if whitespace && tok == "" {
				continue
			}
			tokens = append(tokens, tok)
		}
		rec.Tokens = tokens

		for i, tok := range tokens {
			if i == len(columnWidth) {
				columnWidth = append(columnWidth, 0)
			}
			columnWidth[i] = max(columnWidth[i], o.measure(tok))
		}
	}

	if maxSeparatorCount == 0 {
		return false
	}

	join := separator
	if !whitespace && !endsWithSpace(separator) {
		join += " "
	}

	for _, rec := range records {
		var b strings.Builder
		if pad := maxVisualOffset - rec.VisualOffset; pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}

		last := len(rec.Tokens) - 1
		for i, tok := range rec.Tokens {
			b.WriteString(tok)
			if i == last {
				break
			}
			if pad := columnWidth[i] - o.measure(tok); pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
			}
			if i+1 == last && rec.Tokens[last] == "" {
				// no trailing space after a final empty field
				b.WriteString(strings.TrimRightFunc(join, isSpace))
				continue
			}
			b.WriteString(join)
		}

		rec.ReplacementText = b.String()
	}

	return true
}

// splitFields splits s the way a regular-expression split would, so leading
// and trailing separators produce empty edge fields.
func splitFields(s, separator string) []string {
	if separator != types.WhitespaceSeparator {
		return strings.Split(s, separator)
	}

	var fields []string
	start := 0
	inRun := false
	for i, r := range s {
		switch {
		case isSpace(r) && !inRun:
			fields = append(fields, s[start:i])
			inRun = true
		case !isSpace(r) && inRun:
			start = i
			inRun = false
		}
	}
	if inRun {
		return append(fields, "")
	}
	return append(fields, s[start:])
}

func cleanToken(s string) string {
	return strings.TrimFunc(strings.ReplaceAll(s, "\t", expandedTab), isSpace)
}

func endsWithSpace(s string) bool {
	return strings.TrimRightFunc(s, isSpace) != s
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
