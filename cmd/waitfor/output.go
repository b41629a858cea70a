package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/benaskins/waitfor/internal/wait"
)

var (
	styleOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	styleMuted = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
)

// renderOutcome formats the one-line summary printed to a terminal.
func renderOutcome(out wait.Outcome) string {
	var head string
	switch out.Kind {
	case wait.Success:
		head = styleOK.Render("✓ " + out.Kind.String())
	case wait.GuardProcessDied, wait.MaxInvocationsReached, wait.TimedOut:
		head = styleWarn.Render("⚠ " + out.Kind.String())
	default:
		head = styleError.Render("✗ " + out.Kind.String())
	}

	line := head + " " + styleMuted.Render(fmt.Sprintf("(exit %d)", out.Status()))
	if out.Detail != "" {
		line += " " + out.Detail
	}
	return line
}
