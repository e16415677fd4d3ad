// Package bubbletea provides a Bubble Tea TUI for the council client.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mstolarz/council"
)

// Session is the turn lifecycle surface the TUI drives. It is satisfied by
// *council.Controller.
type Session interface {
	SendTurn(ctx context.Context, content string, opts ...council.TurnOption) error
	Regenerate(ctx context.Context, pos int, opts ...council.TurnOption) error
	CancelActiveTurn()
	Snapshot() council.Conversation
	Phase() council.Phase
}

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. When ctx is cancelled the program quits; pass the same ctx
// to [New] so an in-flight turn is cancelled with it.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// ConversationMsg delivers a conversation snapshot to the Bubble Tea model
// after each applied event.
type ConversationMsg struct {
	Conversation council.Conversation
}

// TurnDoneMsg signals that the active turn reached a terminal state.
type TurnDoneMsg struct {
	Err error
}

// turnFunc is the blocking send operation a turn runs: either SendTurn or
// Regenerate with the position bound.
type turnFunc func(ctx context.Context, onUpdate func(council.Conversation)) error

// startTurn runs one turn in a goroutine, forwarding snapshots to updateCh
// and the terminal error to doneCh.
func startTurn(ctx context.Context, run turnFunc, updateCh chan<- council.Conversation, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := run(ctx, func(snap council.Conversation) {
			select {
			case updateCh <- snap:
			case <-ctx.Done():
			}
		})
		close(updateCh)
		doneCh <- err
		return nil
	}
}

// listenForUpdate waits for the next snapshot from the channel. When the
// channel closes, it reads the turn's error from doneCh and returns
// TurnDoneMsg.
func listenForUpdate(ch <-chan council.Conversation, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return TurnDoneMsg{Err: <-doneCh}
		}
		return ConversationMsg{Conversation: snap}
	}
}
