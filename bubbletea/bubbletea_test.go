package bubbletea_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/mstolarz/council"
	bt "github.com/mstolarz/council/bubbletea"
)

// fakeSession is a scripted Session double for model tests. Turn commands
// are not executed; tests drive the model with ConversationMsg and
// TurnDoneMsg directly. Set sendFn to override SendTurn's outcome.
type fakeSession struct {
	conv       council.Conversation
	phase      council.Phase
	sent       []string
	regenerate []int
	cancels    int
	sendFn     func(ctx context.Context) error
}

func (s *fakeSession) SendTurn(ctx context.Context, content string, opts ...council.TurnOption) error {
	s.sent = append(s.sent, content)
	if s.sendFn != nil {
		return s.sendFn(ctx)
	}
	return nil
}

func (s *fakeSession) Regenerate(ctx context.Context, pos int, opts ...council.TurnOption) error {
	s.regenerate = append(s.regenerate, pos)
	return nil
}

func (s *fakeSession) CancelActiveTurn() { s.cancels++ }

func (s *fakeSession) Snapshot() council.Conversation { return s.conv }

func (s *fakeSession) Phase() council.Phase { return s.phase }

// initModel creates a model and sends a WindowSizeMsg to initialize the
// viewport.
func initModel(t *testing.T, session bt.Session) bt.Model {
	t.Helper()
	return initModelWithSize(t, session, 80, 24)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, session bt.Session, width, height int) bt.Model {
	t.Helper()
	m := bt.New(context.Background(), session, council.DefaultTheme())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// typeText feeds text into the input one rune batch at a time.
func typeText(t *testing.T, m bt.Model, text string) bt.Model {
	t.Helper()
	return updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}
