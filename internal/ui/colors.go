// Package ui holds the ANSI styling used by the CLI.
package ui

import "os"

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Plain disables the helpers below. It honours NO_COLOR (https://no-color.org).
var Plain = os.Getenv("NO_COLOR") != ""

func style(code, s string) string {
	if Plain {
		return s
	}
	return code + s + ColorReset
}

func Bold(s string) string {
	return style(ColorBold, s)
}

func Success(s string) string {
	return style(ColorGreen, s)
}

// Info renders secondary text.
func Info(s string) string {
	return style(ColorDim+ColorYellow, s)
}

func Error(s string) string {
	return style(ColorRed, s)
}
