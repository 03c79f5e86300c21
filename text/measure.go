package text

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"tabformat/types"
)

// Measurer reports the width of a token
type Measurer func(s string) int

// NewMeasurer returns the width function for the given mode. An empty mode
// means characters.
func NewMeasurer(mode types.WidthMode) (Measurer, error) {
	switch mode {
	case types.WidthChars, "":
		return types.CharLen, nil
	case types.WidthCells:
		return runewidth.StringWidth, nil
	default:
		return nil, fmt.Errorf("unsupported width mode: %s", mode)
	}
}
