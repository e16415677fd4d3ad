package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mstolarz/council"
	"github.com/mstolarz/council/goldmark"
)

var _ MessageBlock = (*SimpleBlock)(nil)

// SimpleBlock renders a single-model answer: the answering model's name
// followed by the markdown-rendered response.
type SimpleBlock struct {
	final  council.FinalResponse
	theme  council.Theme
	styles Styles
}

// NewSimpleBlock creates a SimpleBlock.
func NewSimpleBlock(final council.FinalResponse, theme council.Theme, styles Styles) *SimpleBlock {
	return &SimpleBlock{final: final, theme: theme, styles: styles}
}

func (b *SimpleBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *SimpleBlock) View(width int) string {
	body := goldmark.Render(b.final.Text, width, b.theme)
	if b.final.DisplayName == "" {
		return body
	}
	header := b.styles.Accent.Render(b.final.DisplayName)
	return header + "\n" + body
}
