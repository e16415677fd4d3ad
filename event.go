package council

// Event is a sealed interface representing a streamed orchestrator event.
// Events are purely semantic. Transport/protocol errors come from
// Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventSimpleModeStart signals that the orchestrator answers this turn with
// a single model instead of the staged pipeline.
type EventSimpleModeStart struct{}

func (EventSimpleModeStart) event() {}

// EventSimpleModeComplete carries the single-model answer.
type EventSimpleModeComplete struct {
	Final FinalResponse
}

func (EventSimpleModeComplete) event() {}

// EventStage1Start signals the start of the independent-answers stage.
// Models lists the display names of the models queried.
type EventStage1Start struct {
	Models []string
}

func (EventStage1Start) event() {}

// EventStage1Complete carries the collected independent answers.
type EventStage1Complete struct {
	Responses []Response
}

func (EventStage1Complete) event() {}

// EventStage2Start signals the start of the peer-ranking stage.
type EventStage2Start struct{}

func (EventStage2Start) event() {}

// EventStage2Complete carries the collected rankings and ranking metadata.
type EventStage2Complete struct {
	Rankings []Ranking
	Metadata Metadata
}

func (EventStage2Complete) event() {}

// EventStage3Start signals the start of the final-synthesis stage.
type EventStage3Start struct{}

func (EventStage3Start) event() {}

// EventStage3Complete carries the synthesized final answer. It marks the
// turn terminal.
type EventStage3Complete struct {
	Final FinalResponse
}

func (EventStage3Complete) event() {}

// EventTitleComplete carries a freshly generated conversation title.
type EventTitleComplete struct {
	Title string
}

func (EventTitleComplete) event() {}

// EventComplete finalizes the turn as completed.
type EventComplete struct{}

func (EventComplete) event() {}

// EventError finalizes the turn as errored. Stage data received before the
// error is retained for inspection.
type EventError struct {
	Message string
}

func (EventError) event() {}

// EventCancelled is the orchestrator's confirmation that the turn was
// cancelled. Applied idempotently when the turn was already aborted locally.
type EventCancelled struct {
	Message string
}

func (EventCancelled) event() {}

// EventAborted is synthesized locally when the user cancels an active turn.
// It never arrives over the wire. It clears all loading flags but keeps
// stage data already received.
type EventAborted struct{}

func (EventAborted) event() {}

// EventUnknown wraps an event type the decoder does not recognize. The
// reducer treats it as a no-op and reports a diagnostic.
type EventUnknown struct {
	Type string
}

func (EventUnknown) event() {}

// Interface compliance checks.
var (
	_ Event = EventSimpleModeStart{}
	_ Event = EventSimpleModeComplete{}
	_ Event = EventStage1Start{}
	_ Event = EventStage1Complete{}
	_ Event = EventStage2Start{}
	_ Event = EventStage2Complete{}
	_ Event = EventStage3Start{}
	_ Event = EventStage3Complete{}
	_ Event = EventTitleComplete{}
	_ Event = EventComplete{}
	_ Event = EventError{}
	_ Event = EventCancelled{}
	_ Event = EventAborted{}
	_ Event = EventUnknown{}
)
