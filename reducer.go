package council

import "fmt"

// TurnStatus is the lifecycle status of a turn.
type TurnStatus int

const (
	TurnActive TurnStatus = iota
	TurnCompleted
	TurnErrored
	TurnCancelled
)

// String returns a human-readable status name.
func (s TurnStatus) String() string {
	switch s {
	case TurnActive:
		return "active"
	case TurnCompleted:
		return "completed"
	case TurnErrored:
		return "errored"
	case TurnCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("TurnStatus(%d)", int(s))
	}
}

// Mode is the answering mode the orchestrator chose for a turn. It is
// locked by the first mode-indicating event; events from the other mode are
// then ignored and flagged.
type Mode int

const (
	ModeUndecided Mode = iota
	ModeSimple
	ModeStaged
)

// TurnState is the accumulated state of one assistant turn. It is a value:
// Reduce returns a new state and never mutates its input.
type TurnState struct {
	Mode    Mode
	Loading StageState

	Simple   *FinalResponse
	Stage1   []Response
	Stage2   []Ranking
	Stage3   *FinalResponse
	Metadata Metadata

	Title      string
	Status     TurnStatus
	ErrMessage string

	// Monotonicity markers: a stage that has completed may not load again
	// within the same turn.
	doneSimple bool
	doneStage1 bool
	doneStage2 bool
	doneStage3 bool
}

// Anomaly describes an event that arrived outside the documented order or
// was not recognized. Anomalies are diagnostics for operators, never fatal:
// the reducer still applies whatever state the event carries.
type Anomaly struct {
	Event  string
	Reason string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s: %s", a.Event, a.Reason)
}

// Message returns the message shape the turn currently represents: the
// terminal AssistantSimple or AssistantStaged once the turn completed, and
// an AssistantPending snapshot otherwise (including errored and cancelled
// turns, which keep their partial stage data inspectable).
func (s TurnState) Message() Message {
	if s.Status == TurnCompleted {
		if s.Mode == ModeSimple && s.Simple != nil {
			return AssistantSimple{Final: *s.Simple}
		}
		return AssistantStaged{
			Stage1:   s.Stage1,
			Stage2:   s.Stage2,
			Stage3:   s.Stage3,
			Metadata: s.Metadata,
		}
	}
	return AssistantPending{Turn: s}
}

// Reduce folds one event into the turn state. It is pure: no I/O, no clock,
// no mutation of its input. Unknown events leave the state unchanged. The
// returned Anomaly is nil for clean transitions.
func Reduce(s TurnState, evt Event) (TurnState, *Anomaly) {
	switch e := evt.(type) {
	case EventSimpleModeStart:
		if anom := s.lockMode(ModeSimple, "simple_mode_start"); anom != nil {
			return s, anom
		}
		if s.doneSimple {
			return s, &Anomaly{Event: "simple_mode_start", Reason: "stage already completed this turn"}
		}
		s.Loading.Simple = true
		return s, nil

	case EventSimpleModeComplete:
		if anom := s.lockMode(ModeSimple, "simple_mode_complete"); anom != nil {
			return s, anom
		}
		var anom *Anomaly
		if !s.Loading.Simple {
			anom = &Anomaly{Event: "simple_mode_complete", Reason: "completion without a preceding start"}
		}
		final := e.Final
		s.Simple = &final
		s.Loading.Simple = false
		s.doneSimple = true
		return s, anom

	case EventStage1Start:
		if anom := s.lockMode(ModeStaged, "stage1_start"); anom != nil {
			return s, anom
		}
		if s.doneStage1 {
			return s, &Anomaly{Event: "stage1_start", Reason: "stage already completed this turn"}
		}
		s.Loading.Stage1 = true
		s.Loading.Models = e.Models
		return s, nil

	case EventStage1Complete:
		if anom := s.lockMode(ModeStaged, "stage1_complete"); anom != nil {
			return s, anom
		}
		var anom *Anomaly
		if !s.Loading.Stage1 {
			anom = &Anomaly{Event: "stage1_complete", Reason: "completion without a preceding start"}
		}
		s.Stage1 = e.Responses
		s.Loading.Stage1 = false
		s.Loading.Models = nil
		s.doneStage1 = true
		return s, anom

	case EventStage2Start:
		if anom := s.lockMode(ModeStaged, "stage2_start"); anom != nil {
			return s, anom
		}
		if s.doneStage2 {
			return s, &Anomaly{Event: "stage2_start", Reason: "stage already completed this turn"}
		}
		s.Loading.Stage2 = true
		return s, nil

	case EventStage2Complete:
		if anom := s.lockMode(ModeStaged, "stage2_complete"); anom != nil {
			return s, anom
		}
		var anom *Anomaly
		if !s.Loading.Stage2 {
			anom = &Anomaly{Event: "stage2_complete", Reason: "completion without a preceding start"}
		}
		s.Stage2 = e.Rankings
		s.Metadata = e.Metadata
		s.Loading.Stage2 = false
		s.doneStage2 = true
		return s, anom

	case EventStage3Start:
		if anom := s.lockMode(ModeStaged, "stage3_start"); anom != nil {
			return s, anom
		}
		if s.doneStage3 {
			return s, &Anomaly{Event: "stage3_start", Reason: "stage already completed this turn"}
		}
		s.Loading.Stage3 = true
		return s, nil

	case EventStage3Complete:
		if anom := s.lockMode(ModeStaged, "stage3_complete"); anom != nil {
			return s, anom
		}
		var anom *Anomaly
		if !s.Loading.Stage3 {
			anom = &Anomaly{Event: "stage3_complete", Reason: "completion without a preceding start"}
		}
		final := e.Final
		s.Stage3 = &final
		s.Loading.Stage3 = false
		s.doneStage3 = true
		s.Status = TurnCompleted
		return s, anom

	case EventTitleComplete:
		s.Title = e.Title
		return s, nil

	case EventComplete:
		var anom *Anomaly
		if s.Loading.Any() {
			anom = &Anomaly{Event: "complete", Reason: "turn completed while a stage was still loading"}
		}
		s.Loading = StageState{}
		s.Status = TurnCompleted
		return s, anom

	case EventError:
		s.Loading = StageState{}
		s.Status = TurnErrored
		s.ErrMessage = e.Message
		return s, nil

	case EventCancelled:
		// Idempotent: a locally aborted turn is already cancelled.
		s.Loading = StageState{}
		s.Status = TurnCancelled
		return s, nil

	case EventAborted:
		s.Loading = StageState{}
		s.Status = TurnCancelled
		return s, nil

	case EventUnknown:
		return s, &Anomaly{Event: e.Type, Reason: "unrecognized event type"}

	default:
		return s, &Anomaly{Event: fmt.Sprintf("%T", evt), Reason: "unrecognized event type"}
	}
}

// lockMode fixes the turn's answering mode on the first mode-indicating
// event. Events from the other mode are ignored once a mode is locked, so a
// turn that chose simple mode stays AssistantSimple regardless of stray
// stage events.
func (s *TurnState) lockMode(m Mode, event string) *Anomaly {
	if s.Mode == ModeUndecided {
		s.Mode = m
		return nil
	}
	if s.Mode != m {
		return &Anomaly{Event: event, Reason: "event conflicts with the turn's answering mode"}
	}
	return nil
}
