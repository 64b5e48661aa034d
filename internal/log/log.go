// Package log provides the user-facing progress helpers of the vbm CLI and
// its leveled diagnostic logger.
// Progress output is colorized when the stream is a TTY.
package log

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ANSI escape codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	cyan   = "\033[36m"
	green  = "\033[32m"
	yellow = "\033[33m"
	red    = "\033[31m"
)

// Stderr receives progress lines so stdout stays free for generated
// documents. Tests swap it for a buffer.
var Stderr io.Writer = os.Stderr

// colorize wraps msg in color only when w is a terminal.
func colorize(w io.Writer, color, msg string) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return color + bold + msg + reset
	}
	return msg
}

func line(w io.Writer, color, tag, msg string) {
	fmt.Fprintf(w, "%s %s\n", colorize(w, color, tag), msg)
}

func Info(msg string)  { line(Stderr, cyan, "[+]", msg) }
func Ok(msg string)    { line(Stderr, green, "[✓]", msg) }
func Skip(msg string)  { line(Stderr, yellow, "[=]", msg) }
func Error(msg string) { line(Stderr, red, "[!]", msg) }
