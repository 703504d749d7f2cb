package bubbletea

import (
	"strings"

	"github.com/fwojciec/llmlab"
	"github.com/fwojciec/llmlab/goldmark"
)

var _ Block = (*ResultBlock)(nil)

// ResultBlock renders a streamed reply as markdown. Paragraphs that can no
// longer change (everything before the last blank line outside a code fence)
// are rendered once per width and cached; only the tail is re-rendered as
// fragments arrive.
type ResultBlock struct {
	raw   string
	theme llmlab.Theme

	stable        string
	stableByWidth map[int]string
}

// NewResultBlock creates an empty ResultBlock.
func NewResultBlock(theme llmlab.Theme) *ResultBlock {
	return &ResultBlock{
		theme:         theme,
		stableByWidth: make(map[int]string),
	}
}

// Append adds a fragment.
func (b *ResultBlock) Append(text string) {
	b.raw += text
	b.promote()
}

// Set replaces the content with the accumulated reply text. When text
// extends the current content, only the new suffix is appended and the
// cache is kept.
func (b *ResultBlock) Set(text string) {
	if rest, ok := strings.CutPrefix(text, b.raw); ok {
		b.Append(rest)
		return
	}
	b.raw = ""
	b.stable = ""
	clear(b.stableByWidth)
	b.Append(text)
}

// Text returns the raw reply text.
func (b *ResultBlock) Text() string { return b.raw }

func (b *ResultBlock) View(width int) string {
	stable := b.renderStable(width)
	tail := b.tail()
	if hasUnclosedFence(tail) {
		// Partial code blocks render as if already closed.
		tail += "\n```"
	}
	if strings.TrimSpace(tail) == "" {
		return stable
	}
	rendered := goldmark.Render(tail, width, b.theme)
	if strings.TrimSpace(rendered) == "" {
		return stable
	}
	if stable == "" {
		return rendered
	}
	return strings.TrimRight(stable, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
}

// promote moves the stable boundary to the last blank line whose prefix has
// every fence closed.
func (b *ResultBlock) promote() {
	for end := len(b.raw); ; {
		idx := strings.LastIndex(b.raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := b.raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != b.stable {
				b.stable = candidate
				clear(b.stableByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *ResultBlock) renderStable(width int) string {
	if width <= 0 || b.stable == "" {
		return ""
	}
	if cached, ok := b.stableByWidth[width]; ok {
		return cached
	}
	rendered := goldmark.Render(b.stable, width, b.theme)
	b.stableByWidth[width] = rendered
	return rendered
}

func (b *ResultBlock) tail() string {
	if b.stable == "" {
		return b.raw
	}
	return strings.TrimPrefix(b.raw, b.stable+"\n\n")
}

// hasUnclosedFence reports an odd number of "```" in s. Triple backticks
// inside inline code are miscounted.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
