package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/llmlab"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	Prompt      lipgloss.Style
	Tab         lipgloss.Style
	TabInactive lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Muted       lipgloss.Style
	Accent      lipgloss.Style
	PromptBg    lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t llmlab.Theme) Styles {
	return Styles{
		Prompt:      lipgloss.NewStyle().Foreground(ansiColor(t.Prompt)).Bold(true),
		Tab:         lipgloss.NewStyle().Foreground(ansiColor(t.Tab)).Bold(true).Underline(true),
		TabInactive: lipgloss.NewStyle().Foreground(ansiColor(t.Muted)),
		Error:       lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:     lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:       lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:      lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		PromptBg:    lipgloss.NewStyle().PaddingLeft(1),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
