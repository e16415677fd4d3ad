package bubbletea

import tea "github.com/charmbracelet/bubbletea"

// MessageBlock renders one conversation message. View takes the current
// viewport width instead of the block tracking its own size, which keeps
// layout decisions in the root model and lets tests render a block at any
// width directly.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

// ToggleMsg asks the focused block to collapse or expand. Only staged
// blocks respond; everything else ignores it.
type ToggleMsg struct{}
