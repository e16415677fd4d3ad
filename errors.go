package council

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates invalid caller input, e.g. an empty turn.
	ErrValidation = errors.New("validation error")

	// ErrTurnActive indicates a turn was started while one is in flight.
	ErrTurnActive = errors.New("a turn is already active")

	// ErrChannelOpen indicates the orchestrator stream could not be opened.
	// The optimistic user/pending message pair has been rolled back.
	ErrChannelOpen = errors.New("failed to open turn stream")

	// ErrRemote indicates the orchestrator reported an error event. Stage
	// data received before the error is retained on the pending message.
	ErrRemote = errors.New("orchestrator error")

	// ErrRegenerateTarget indicates no user message precedes the turn being
	// regenerated. This is a contract violation by the caller, not a
	// recoverable user-facing condition.
	ErrRegenerateTarget = errors.New("no user message precedes the regeneration target")

	// ErrStreamClosed indicates an operation on a closed event stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrNotFound indicates the requested conversation does not exist.
	ErrNotFound = errors.New("conversation not found")
)
