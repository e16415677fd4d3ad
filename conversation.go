package council

import "time"

// Conversation is the ordered history of one conversation. During an active
// turn the Controller is its sole writer; other goroutines read snapshots.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	Messages  []Message
}

// ConversationSummary is the list-view projection of a conversation.
type ConversationSummary struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	MessageCount int
}

// Snapshot returns a copy safe for concurrent readers. Message values are
// immutable apart from the pending message, which is replaced (not mutated)
// on every applied event, so copying the slice is sufficient.
func (c *Conversation) Snapshot() Conversation {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

// Pending returns the index of the in-flight AssistantPending message, or
// false when no turn is in flight.
func (c *Conversation) Pending() (int, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if _, ok := c.Messages[i].(AssistantPending); ok {
			return i, true
		}
	}
	return 0, false
}

// Truncate drops all messages at index n and beyond.
func (c *Conversation) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(c.Messages) {
		c.Messages = c.Messages[:n]
	}
}

// RegenerateTarget locates the user message that produced the turn at pos by
// scanning backward. It returns the user message's index and content.
// ErrRegenerateTarget is returned when no user message precedes pos; the
// conversation is left unmodified.
func (c *Conversation) RegenerateTarget(pos int) (int, string, error) {
	if pos >= len(c.Messages) {
		pos = len(c.Messages) - 1
	}
	for i := pos; i >= 0; i-- {
		if u, ok := c.Messages[i].(UserMessage); ok {
			return i, u.Content, nil
		}
	}
	return 0, "", ErrRegenerateTarget
}
