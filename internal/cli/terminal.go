package cli

import (
	"golang.org/x/term"
)

// TerminalDetector defines the interface for terminal detection, allowing
// mocking in tests.
type TerminalDetector interface {
	IsTerminal(fd int) bool
}

// DefaultTerminalDetector is the default implementation using golang.org/x/term
type DefaultTerminalDetector struct{}

// IsTerminal implements TerminalDetector
func (d *DefaultTerminalDetector) IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

// isInteractiveTerminal checks if the given file descriptor is an
// interactive terminal.
func (c *CLI) isInteractiveTerminal(fd int) bool {
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}
	return c.terminalDetector.IsTerminal(fd)
}
