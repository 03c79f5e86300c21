package text

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines shown around a change
const diffContext = 3

type lineOp struct {
	kind diffmatchpatch.Operation
	text string
}

// UnifiedDiff renders a line-based unified diff between oldText and newText.
// Returns "" when they are equal.
func UnifiedDiff(name, oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	ops := lineOps(oldText, newText)

	// oldAt[i]/newAt[i] count lines consumed before ops[i]
	oldAt := make([]int, len(ops)+1)
	newAt := make([]int, len(ops)+1)
	for i, op := range ops {
		oldAt[i+1], newAt[i+1] = oldAt[i], newAt[i]
		if op.kind != diffmatchpatch.DiffInsert {
			oldAt[i+1]++
		}
		if op.kind != diffmatchpatch.DiffDelete {
			newAt[i+1]++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", name, name)

	for i := 0; i < len(ops); {
		if ops[i].kind == diffmatchpatch.DiffEqual {
			i++
			continue
		}

		start := max(0, i-diffContext)
		end := i + 1
		for j := i; j < len(ops); j++ {
			if ops[j].kind != diffmatchpatch.DiffEqual {
				end = j + 1
				continue
			}
			if j-end >= 2*diffContext {
				break
			}
		}
		stop := min(len(ops), end+diffContext)

		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n",
			oldAt[start]+1, oldAt[stop]-oldAt[start],
			newAt[start]+1, newAt[stop]-newAt[start])
		for _, op := range ops[start:stop] {
			switch op.kind {
			case diffmatchpatch.DiffDelete:
				b.WriteByte('-')
			case diffmatchpatch.DiffInsert:
				b.WriteByte('+')
			default:
				b.WriteByte(' ')
			}
			b.WriteString(op.text)
			if !strings.HasSuffix(op.text, "\n") {
				b.WriteString("\n\\ No newline at end of file\n")
			}
		}
		i = stop
	}

	return b.String()
}

// DiffStats counts added and removed lines between oldText and newText
func DiffStats(oldText, newText string) (added, removed int) {
	for _, op := range lineOps(oldText, newText) {
		switch op.kind {
		case diffmatchpatch.DiffInsert:
			added++
		case diffmatchpatch.DiffDelete:
			removed++
		}
	}
	return added, removed
}

func lineOps(oldText, newText string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []lineOp
	for _, d := range diffs {
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l == "" {
				continue
			}
			ops = append(ops, lineOp{kind: d.Type, text: l})
		}
	}
	return ops
}
