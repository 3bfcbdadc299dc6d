package mbl

import (
	"fmt"
	"io"
)

// ProgressFunc is a callback for tracking file transfer progress.
// It is called once with sent == 0 before a file is copied and then after
// every chunk.
type ProgressFunc func(name string, total, sent int64)

// clearLine is the VT100 sequence that erases the current line.
const clearLine = "\x1b[2K"

// NewProgressPrinter returns a ProgressFunc that renders a single status line
// to w, overwriting it in place on every update.
func NewProgressPrinter(w io.Writer) ProgressFunc {
	return func(name string, total, sent int64) {
		if sent == 0 {
			return
		}

		_, _ = fmt.Fprintf(w, "\r%s is transferring. Progress %.1f%%\r%s", name, percent(total, sent), clearLine)
	}
}

func percent(total, sent int64) float64 {
	if total <= 0 {
		return 100
	}

	return float64(sent) / float64(total) * 100
}
