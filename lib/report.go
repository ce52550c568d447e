package lib

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Operator-facing output. Logger is for diagnostics, these are for humans.
// Colors are dropped automatically when stderr is not a terminal.

var reportColor = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

var reportWriter io.Writer = os.Stderr

func sprintfColor(attr color.Attribute, format string, args ...interface{}) string {
	if !reportColor {
		return fmt.Sprintf(format, args...)
	}
	return color.New(attr).Sprintf(format, args...)
}

func Header(format string, args ...interface{}) {
	fmt.Fprintln(reportWriter, sprintfColor(color.FgCyan, "==> "+format, args...))
}

func Step(format string, args ...interface{}) {
	fmt.Fprintln(reportWriter, sprintfColor(color.FgBlue, "--> "+format, args...))
}

func Info(format string, args ...interface{}) {
	fmt.Fprintln(reportWriter, fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	fmt.Fprintln(reportWriter, sprintfColor(color.FgYellow, "warning: "+format, args...))
}

func Error(format string, args ...interface{}) {
	fmt.Fprintln(reportWriter, sprintfColor(color.FgRed, "error: "+format, args...))
}
