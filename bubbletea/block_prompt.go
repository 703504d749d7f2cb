package bubbletea

import "github.com/charmbracelet/lipgloss"

var _ Block = (*PromptBlock)(nil)

// PromptBlock renders the submitted prompt with a "> " marker.
type PromptBlock struct {
	text   string
	styles Styles
}

// NewPromptBlock creates a PromptBlock.
func NewPromptBlock(text string, styles Styles) *PromptBlock {
	return &PromptBlock{text: text, styles: styles}
}

func (b *PromptBlock) View(width int) string {
	marker := b.styles.Prompt.Render(">")
	body := lipgloss.NewStyle().Width(max(width-3, 10)).Render(b.text)
	return b.styles.PromptBg.Render(lipgloss.JoinHorizontal(lipgloss.Top, marker+" ", body))
}
