package bubbletea

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mstolarz/council"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the council TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	ctx     context.Context
	session Session
	theme   council.Theme
	styles  Styles

	conv       council.Conversation
	blocks     []MessageBlock
	blockFocus int // index of focused collapsible block (-1 = none)

	running  bool
	updateCh chan council.Conversation
	doneCh   chan error
	err      error
	ready    bool
}

// New creates a new TUI Model for the given session and theme. Turn
// goroutines inherit ctx, so cancelling it unblocks an in-flight turn on
// shutdown.
func New(ctx context.Context, session Session, theme council.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask the council..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:      ti,
		ctx:        ctx,
		session:    session,
		theme:      theme,
		styles:     NewStyles(theme),
		conv:       session.Snapshot(),
		blockFocus: -1,
	}
}

// Running returns whether a turn is currently in flight.
func (m Model) Running() bool { return m.running }

// Err returns the last turn's error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConversationMsg:
		m = m.syncBlocks(msg.Conversation)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.updateCh != nil {
			return m, listenForUpdate(m.updateCh, m.doneCh)
		}
		return m, nil

	case TurnDoneMsg:
		m.running = false
		m.updateCh = nil
		m.doneCh = nil
		if msg.Err != nil {
			m.err = msg.Err
		}
		m = m.updateBlockFocus()
		cmd := m.Input.Focus()
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// Pass remaining messages to sub-components. The viewport always
	// receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusH := 1
	gapH := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusH - gapH
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.syncBlocks(m.conv)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
		// Re-wrap content at the new width.
		m.Viewport.SetContent(m.renderContent())
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			m.session.CancelActiveTurn()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)

	case tea.KeyCtrlR:
		if m.running || len(m.conv.Messages) == 0 {
			return m, nil
		}
		return m.regenerateLast()

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	// When idle, pass keys to both the input (for typing) and the viewport
	// (for scrolling). Only forward non-character keys to the viewport to
	// avoid conflicts ('j'/'k' are viewport scroll AND text characters).
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	run := func(ctx context.Context, onUpdate func(council.Conversation)) error {
		return m.session.SendTurn(ctx, text, council.WithUpdateHandler(onUpdate))
	}
	return m.beginTurn(run)
}

func (m Model) regenerateLast() (tea.Model, tea.Cmd) {
	pos := len(m.conv.Messages) - 1
	run := func(ctx context.Context, onUpdate func(council.Conversation)) error {
		return m.session.Regenerate(ctx, pos, council.WithUpdateHandler(onUpdate))
	}
	return m.beginTurn(run)
}

func (m Model) beginTurn(run turnFunc) (tea.Model, tea.Cmd) {
	m.err = nil
	m.running = true
	m.updateCh = make(chan council.Conversation, 256)
	m.doneCh = make(chan error, 1)
	m.Input.Blur()

	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return m, tea.Batch(
		startTurn(ctx, run, m.updateCh, m.doneCh),
		listenForUpdate(m.updateCh, m.doneCh),
	)
}

// syncBlocks reconciles the block list with a conversation snapshot.
// Settled messages never change, so their blocks (and any toggled state)
// are kept; the trailing message is rebuilt because the pending message is
// replaced on every applied event. A shrink means the history was truncated
// for regeneration: everything is rebuilt.
func (m Model) syncBlocks(conv council.Conversation) Model {
	m.conv = conv
	if len(conv.Messages) < len(m.blocks) {
		m.blocks = nil
	}
	if n := len(m.blocks); n > 0 {
		m.blocks[n-1] = m.newBlock(conv.Messages[n-1])
	}
	for i := len(m.blocks); i < len(conv.Messages); i++ {
		m.blocks = append(m.blocks, m.newBlock(conv.Messages[i]))
	}
	return m.updateBlockFocus()
}

func (m Model) newBlock(msg council.Message) MessageBlock {
	switch msg := msg.(type) {
	case council.UserMessage:
		return NewUserMessageBlock(msg.Content, m.styles)
	case council.AssistantPending:
		return NewPendingBlock(msg.Turn, m.styles)
	case council.AssistantSimple:
		return NewSimpleBlock(msg.Final, m.theme, m.styles)
	case council.AssistantStaged:
		return NewStagedBlock(msg, m.theme, m.styles)
	default:
		return NewUserMessageBlock(fmt.Sprintf("%v", msg), m.styles)
	}
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// updateBlockFocus scans backwards to find the last collapsible block.
// Only the focused block responds to Tab. ShiftTab cycles to the previous
// collapsible block.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if _, ok := m.blocks[i].(*StagedBlock); ok {
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves blockFocus to the previous collapsible block,
// wrapping around.
func (m Model) cycleFocusPrev() Model {
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		if _, ok := m.blocks[idx].(*StagedBlock); ok {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.running {
		return m.styles.Muted.Render("Council deliberating... Ctrl+C to cancel")
	}
	title := m.conv.Title
	if title == "" {
		title = "new conversation"
	}
	return m.styles.Muted.Render(title + " · Enter to send · Ctrl+R to regenerate · Tab to expand · Ctrl+C to quit")
}
