// Package terminal provides small terminal helpers for prompt cleanup and
// width-aware rendering.
package terminal

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/term"
)

// Width returns the terminal width, falling back when stdout is not a tty.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// ClearPreviousLines clears text that was previously printed, accounting
// for line wrapping at the current width. Useful for cleaning up an input
// prompt after the user pressed Enter.
func ClearPreviousLines(textLength int) {
	termWidth := Width()

	totalLines := int(math.Ceil(float64(textLength) / float64(termWidth)))
	if totalLines < 1 {
		totalLines = 1
	}

	// After Enter the cursor sits on a fresh line below the input.
	linesToClear := totalLines + 1

	for i := 0; i < linesToClear; i++ {
		fmt.Print("\r\x1b[2K")
		if i < linesToClear-1 {
			fmt.Print("\x1b[1A")
		}
	}
}
