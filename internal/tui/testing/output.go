package testing

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes styling escape sequences so views can be compared as text.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// ContainsInOrder reports whether output contains every expected string,
// each one after the end of the previous match.
func ContainsInOrder(output string, expected ...string) bool {
	rest := output
	for _, exp := range expected {
		_, after, found := strings.Cut(rest, exp)
		if !found {
			return false
		}
		rest = after
	}
	return true
}

// Line returns the first line of a rendered view containing substr, with
// styling removed, or "" when no line matches.
func Line(view, substr string) string {
	for _, line := range strings.Split(StripANSI(view), "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}
