package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mstolarz/council"
)

var _ MessageBlock = (*PendingBlock)(nil)

// PendingBlock renders the in-flight turn's progress: one line per stage
// reached so far, plus an error or cancellation notice for turns that ended
// without a terminal answer.
type PendingBlock struct {
	turn   council.TurnState
	styles Styles
}

// NewPendingBlock creates a PendingBlock for the given turn state.
func NewPendingBlock(turn council.TurnState, styles Styles) *PendingBlock {
	return &PendingBlock{turn: turn, styles: styles}
}

func (b *PendingBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *PendingBlock) View(width int) string {
	var lines []string
	t := b.turn

	switch t.Mode {
	case council.ModeSimple:
		if t.Loading.Simple {
			lines = append(lines, b.pendingLine("answering"))
		} else if t.Simple != nil {
			lines = append(lines, b.doneLine("answer from "+t.Simple.DisplayName))
		}

	case council.ModeStaged:
		if t.Loading.Stage1 {
			label := "stage 1 · consulting"
			if len(t.Loading.Models) > 0 {
				label += " " + strings.Join(t.Loading.Models, ", ")
			}
			lines = append(lines, b.pendingLine(label))
		} else if t.Stage1 != nil {
			lines = append(lines, b.doneLine(fmt.Sprintf("stage 1 · %d responses", len(t.Stage1))))
		}

		if t.Loading.Stage2 {
			lines = append(lines, b.pendingLine("stage 2 · peers ranking answers"))
		} else if t.Stage2 != nil {
			lines = append(lines, b.doneLine(fmt.Sprintf("stage 2 · %d rankings", len(t.Stage2))))
		}

		if t.Loading.Stage3 {
			lines = append(lines, b.pendingLine("stage 3 · synthesizing"))
		} else if t.Stage3 != nil {
			lines = append(lines, b.doneLine("stage 3 · synthesis ready"))
		}

	default:
		if t.Status == council.TurnActive {
			lines = append(lines, b.pendingLine("waiting for the council"))
		}
	}

	switch t.Status {
	case council.TurnErrored:
		msg := t.ErrMessage
		if msg == "" {
			msg = "turn failed"
		}
		lines = append(lines, b.styles.Error.Render("✗ "+msg))
	case council.TurnCancelled:
		lines = append(lines, b.styles.Muted.Render("✗ cancelled"))
	}

	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (b *PendingBlock) pendingLine(label string) string {
	return b.styles.Pending.Render("⋯ " + label)
}

func (b *PendingBlock) doneLine(label string) string {
	return b.styles.Success.Render("✓ ") + b.styles.Stage.Render(label)
}
