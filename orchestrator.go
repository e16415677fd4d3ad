package council

import "context"

// EventStream is a pull-based iterator over one turn's decoded events.
// Next returns io.EOF when the channel closed normally. The sequence is
// finite, strictly ordered, and not restartable. Cancellation flows through
// the context passed to Orchestrator.OpenTurn.
type EventStream interface {
	Next() (Event, error)
	Close() error
}

// Orchestrator is the answering backend: it accepts a turn, emits a stream
// of typed events, and accepts a best-effort cancellation signal on a side
// channel.
type Orchestrator interface {
	OpenTurn(ctx context.Context, conversationID, content string) (EventStream, error)
	Cancel(ctx context.Context, conversationID string) error
}

// Store is the conversation-storage collaborator. Plain request/response;
// message persistence during a turn is the orchestrator's job.
type Store interface {
	List(ctx context.Context) ([]ConversationSummary, error)
	Create(ctx context.Context) (*Conversation, error)
	Get(ctx context.Context, id string) (*Conversation, error)
	Delete(ctx context.Context, id string) error
}

// Settings is the orchestrator-side configuration surface: which model
// chairs the synthesis, which experts answer stage 1 (an empty list selects
// single-model mode), and provider API keys.
type Settings struct {
	Chairman string
	Experts  []string
	APIKeys  map[string]string
}
