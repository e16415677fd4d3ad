package council

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// cancelNoticeTimeout bounds the best-effort cancellation notice to the
// orchestrator. The caller never waits on it.
const cancelNoticeTimeout = 10 * time.Second

// Phase is the controller's session state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOpening
	PhaseStreaming
	PhaseCompleted
	PhaseErrored
	PhaseCancelled
)

// Active reports whether a turn is in flight. Terminal phases count as
// idle: the next turn may start.
func (p Phase) Active() bool {
	return p == PhaseOpening || p == PhaseStreaming
}

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOpening:
		return "opening"
	case PhaseStreaming:
		return "streaming"
	case PhaseCompleted:
		return "completed"
	case PhaseErrored:
		return "errored"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Controller owns one conversation's turn lifecycle: it opens the
// orchestrator stream, pumps decoded events through the reducer, applies
// each resulting state to the conversation's pending message, and
// reconciles local and remote cancellation. It enforces at most one active
// turn: callers must observe an inactive Phase before SendTurn.
type Controller struct {
	orch    Orchestrator
	log     logrus.FieldLogger
	refresh func()

	mu         sync.Mutex
	conv       *Conversation
	phase      Phase
	turn       TurnState
	cancelPump context.CancelFunc
	aborted    bool
	notify     func(Conversation)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the diagnostic logger. Defaults to the logrus standard
// logger.
func WithLogger(log logrus.FieldLogger) ControllerOption {
	return func(c *Controller) { c.log = log }
}

// WithListRefresh sets a hook invoked when the conversation list should be
// re-fetched (title generated, turn completed).
func WithListRefresh(fn func()) ControllerOption {
	return func(c *Controller) { c.refresh = fn }
}

// NewController creates a Controller for the given conversation.
func NewController(orch Orchestrator, conv *Conversation, opts ...ControllerOption) *Controller {
	c := &Controller{
		orch:  orch,
		conv:  conv,
		log:   logrus.StandardLogger(),
		phase: PhaseIdle,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TurnOption configures a single SendTurn or Regenerate invocation.
type TurnOption func(*turnConfig)

type turnConfig struct {
	onUpdate func(Conversation)
}

// WithUpdateHandler sets a callback that receives a conversation snapshot
// after every applied event, enabling progressive display. If not set,
// intermediate states are not observed.
func WithUpdateHandler(h func(Conversation)) TurnOption {
	return func(c *turnConfig) { c.onUpdate = h }
}

// Phase returns the current session phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot returns a read-only copy of the conversation.
func (c *Controller) Snapshot() Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Snapshot()
}

// SendTurn submits one user turn and blocks until the turn reaches a
// terminal state. The optimistic user/pending message pair is appended
// before the stream opens and rolled back if the open fails. Events are
// folded one at a time: each is fully applied to the conversation before
// the next is read.
func (c *Controller) SendTurn(ctx context.Context, content string, opts ...TurnOption) error {
	var cfg turnConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty turn content", ErrValidation)
	}

	c.mu.Lock()
	if c.phase.Active() {
		c.mu.Unlock()
		return ErrTurnActive
	}
	pumpCtx, cancel := context.WithCancel(ctx)
	c.phase = PhaseOpening
	c.turn = TurnState{}
	c.aborted = false
	c.cancelPump = cancel
	c.notify = cfg.onUpdate
	now := time.Now()
	c.conv.Messages = append(c.conv.Messages,
		UserMessage{Content: content, Timestamp: now},
		AssistantPending{Turn: c.turn},
	)
	convID := c.conv.ID
	c.mu.Unlock()
	defer cancel()

	c.publish()

	stream, err := c.orch.OpenTurn(pumpCtx, convID, content)
	if err != nil {
		c.mu.Lock()
		c.rollbackPendingLocked()
		aborted := c.aborted
		if aborted {
			c.phase = PhaseCancelled
		} else {
			c.phase = PhaseErrored
		}
		c.mu.Unlock()
		c.publish()
		if aborted {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrChannelOpen, err)
	}
	defer stream.Close()

	c.mu.Lock()
	if !c.aborted {
		c.phase = PhaseStreaming
	}
	c.mu.Unlock()

	var streamErr error
	for {
		evt, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		c.apply(evt)
		c.publish()
	}

	return c.finalize(streamErr)
}

// CancelActiveTurn aborts the active turn without blocking. Local state is
// updated eagerly: all loading flags are cleared, content already received
// stays in place, and the pending message keeps its in-flight shape. The
// remote cancellation notice is fired on a background goroutine; a later
// remote confirmation is reconciled idempotently. No-op when no turn is
// active.
func (c *Controller) CancelActiveTurn() {
	c.mu.Lock()
	if !c.phase.Active() {
		c.mu.Unlock()
		return
	}
	c.aborted = true
	if c.cancelPump != nil {
		c.cancelPump()
	}
	next, _ := Reduce(c.turn, EventAborted{})
	c.turn = next
	c.updatePendingLocked()
	c.phase = PhaseCancelled
	convID := c.conv.ID
	c.mu.Unlock()
	c.publish()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cancelNoticeTimeout)
		defer cancel()
		if err := c.orch.Cancel(ctx, convID); err != nil {
			c.log.WithField("conversation", convID).Warnf("cancel notice failed: %v", err)
		}
	}()
}

// Regenerate replays the turn at pos: it finds the user message that
// produced it, truncates the conversation to that point, and resubmits the
// content through the full send pipeline. The original user message is not
// mutated; its content is resubmitted as new input.
func (c *Controller) Regenerate(ctx context.Context, pos int, opts ...TurnOption) error {
	c.mu.Lock()
	if c.phase.Active() {
		c.mu.Unlock()
		return ErrTurnActive
	}
	k, content, err := c.conv.RegenerateTarget(pos)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.conv.Truncate(k)
	c.mu.Unlock()
	return c.SendTurn(ctx, content, opts...)
}

// apply folds one event into the turn state and the conversation. Events
// arriving after a local abort are dropped, except the remote cancellation
// confirmation, which is idempotent by construction.
func (c *Controller) apply(evt Event) {
	c.mu.Lock()
	if c.aborted {
		if _, ok := evt.(EventCancelled); !ok {
			c.mu.Unlock()
			return
		}
	}
	next, anom := Reduce(c.turn, evt)
	if anom != nil {
		c.log.WithFields(logrus.Fields{
			"conversation": c.conv.ID,
			"event":        anom.Event,
		}).Warnf("event anomaly: %s", anom.Reason)
	}
	c.turn = next
	c.updatePendingLocked()

	var refresh bool
	switch e := evt.(type) {
	case EventTitleComplete:
		c.conv.Title = e.Title
		refresh = true
	case EventComplete:
		refresh = true
	}
	c.mu.Unlock()

	if refresh && c.refresh != nil {
		c.refresh()
	}
}

// finalize settles the session phase once the pump stops and replaces the
// pending message with its terminal shape on completion.
func (c *Controller) finalize(streamErr error) error {
	c.mu.Lock()
	if c.aborted {
		c.phase = PhaseCancelled
		c.mu.Unlock()
		c.publish()
		return nil
	}
	switch c.turn.Status {
	case TurnCompleted:
		c.replacePendingLocked(c.turn.Message())
		c.phase = PhaseCompleted
		c.mu.Unlock()
		c.publish()
		return nil

	case TurnErrored:
		c.phase = PhaseErrored
		msg := c.turn.ErrMessage
		c.mu.Unlock()
		c.publish()
		return fmt.Errorf("%w: %s", ErrRemote, msg)

	case TurnCancelled:
		c.phase = PhaseCancelled
		c.mu.Unlock()
		c.publish()
		return nil

	default:
		// Stream ended while the turn was still active: a transport fault
		// or a truncated channel. Either way the turn is errored.
		if streamErr == nil {
			streamErr = fmt.Errorf("unexpected end of stream")
		}
		next, _ := Reduce(c.turn, EventError{Message: streamErr.Error()})
		c.turn = next
		c.updatePendingLocked()
		c.phase = PhaseErrored
		c.mu.Unlock()
		c.publish()
		return fmt.Errorf("%w: %v", ErrRemote, streamErr)
	}
}

// updatePendingLocked writes the current turn state into the conversation's
// pending message. Callers hold c.mu.
func (c *Controller) updatePendingLocked() {
	if i, ok := c.conv.Pending(); ok {
		c.conv.Messages[i] = AssistantPending{Turn: c.turn}
	}
}

// replacePendingLocked swaps the pending message for its terminal shape.
// Callers hold c.mu.
func (c *Controller) replacePendingLocked(m Message) {
	now := time.Now()
	switch t := m.(type) {
	case AssistantSimple:
		t.Timestamp = now
		m = t
	case AssistantStaged:
		t.Timestamp = now
		m = t
	}
	if i, ok := c.conv.Pending(); ok {
		c.conv.Messages[i] = m
	}
}

// rollbackPendingLocked removes the optimistic user/pending pair appended
// by SendTurn. Callers hold c.mu.
func (c *Controller) rollbackPendingLocked() {
	n := len(c.conv.Messages)
	if n < 2 {
		return
	}
	if _, ok := c.conv.Messages[n-1].(AssistantPending); !ok {
		return
	}
	if _, ok := c.conv.Messages[n-2].(UserMessage); !ok {
		return
	}
	c.conv.Messages = c.conv.Messages[:n-2]
}

// publish delivers a snapshot to the active turn's update handler outside
// the lock.
func (c *Controller) publish() {
	c.mu.Lock()
	notify := c.notify
	var snap Conversation
	if notify != nil {
		snap = c.conv.Snapshot()
	}
	c.mu.Unlock()
	if notify != nil {
		notify(snap)
	}
}
