package council

import "time"

// Message is a sealed interface representing a conversation message.
// The unexported marker method prevents external implementations.
// Role() returns the message's role without requiring a type switch.
type Message interface {
	isMessage()
	Role() Role
}

// UserMessage represents a message submitted by the user.
type UserMessage struct {
	Content   string
	Timestamp time.Time
}

func (UserMessage) isMessage() {}

// Role returns RoleUser.
func (UserMessage) Role() Role { return RoleUser }

// AssistantPending is the in-flight assistant message for the active turn.
// It is the only message shape that is mutated in place; at most one exists
// per conversation.
type AssistantPending struct {
	Turn TurnState
}

func (AssistantPending) isMessage() {}

// Role returns RoleAssistant.
func (AssistantPending) Role() Role { return RoleAssistant }

// AssistantSimple is a terminal assistant message produced when the
// orchestrator answered in single-model mode.
type AssistantSimple struct {
	Final     FinalResponse
	Timestamp time.Time
}

func (AssistantSimple) isMessage() {}

// Role returns RoleAssistant.
func (AssistantSimple) Role() Role { return RoleAssistant }

// AssistantStaged is a terminal assistant message produced by the
// three-stage pipeline.
type AssistantStaged struct {
	Stage1    []Response
	Stage2    []Ranking
	Stage3    *FinalResponse
	Metadata  Metadata
	Timestamp time.Time
}

func (AssistantStaged) isMessage() {}

// Role returns RoleAssistant.
func (AssistantStaged) Role() Role { return RoleAssistant }

// Response is one model's independent answer from stage 1.
type Response struct {
	Model       string
	DisplayName string
	Text        string

	// Failover fields are set when a substitute model answered after the
	// configured one failed.
	IsFailover          bool
	OriginalProvider    string
	OriginalDisplayName string
}

// Ranking is one model's peer ranking from stage 2.
type Ranking struct {
	Model       string
	DisplayName string
	Text        string

	// ParsedOrder lists the anonymous response labels in ranked order as
	// extracted from Text by the orchestrator.
	ParsedOrder []string

	IsFailover          bool
	OriginalProvider    string
	OriginalDisplayName string
}

// FinalResponse is the stage 3 synthesis, or the whole answer in
// single-model mode.
type FinalResponse struct {
	Model       string
	DisplayName string
	Text        string
}

// AggregateRanking is one model's position averaged across all peer rankings.
type AggregateRanking struct {
	Model         string
	AverageRank   float64
	RankingsCount int
}

// Metadata carries ranking bookkeeping attached to stage 2 results.
type Metadata struct {
	LabelToModel      map[string]string
	AggregateRankings []AggregateRanking
}

// StageState holds the per-stage loading flags of an in-flight turn plus the
// model names announced for the stage currently loading. Each flag is
// monotonic within a turn: false, then true, then false, at most once.
type StageState struct {
	Simple bool
	Stage1 bool
	Stage2 bool
	Stage3 bool

	Models []string
}

// Any reports whether any stage is currently loading.
func (s StageState) Any() bool {
	return s.Simple || s.Stage1 || s.Stage2 || s.Stage3
}

// Interface compliance checks.
var (
	_ Message = UserMessage{}
	_ Message = AssistantPending{}
	_ Message = AssistantSimple{}
	_ Message = AssistantStaged{}
)
