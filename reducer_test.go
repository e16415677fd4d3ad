package council_test

import (
	"testing"

	"github.com/mstolarz/council"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reduceAll(t *testing.T, events ...council.Event) council.TurnState {
	t.Helper()
	var s council.TurnState
	for _, evt := range events {
		s, _ = council.Reduce(s, evt)
	}
	return s
}

func stagedTurnEvents() []council.Event {
	return []council.Event{
		council.EventStage1Start{Models: []string{"GPT-5", "Gemini 3 Pro", "Claude"}},
		council.EventStage1Complete{Responses: []council.Response{
			{Model: "openai/gpt-5", DisplayName: "GPT-5", Text: "Answer A"},
			{Model: "google/gemini-3-pro", DisplayName: "Gemini 3 Pro", Text: "Answer B"},
		}},
		council.EventStage2Start{},
		council.EventStage2Complete{
			Rankings: []council.Ranking{
				{Model: "openai/gpt-5", DisplayName: "GPT-5", Text: "1. Response B", ParsedOrder: []string{"Response B"}},
			},
			Metadata: council.Metadata{
				LabelToModel: map[string]string{"Response A": "openai/gpt-5"},
				AggregateRankings: []council.AggregateRanking{
					{Model: "openai/gpt-5", AverageRank: 1.0, RankingsCount: 2},
				},
			},
		},
		council.EventStage3Start{},
		council.EventStage3Complete{Final: council.FinalResponse{
			Model: "openai/gpt-5", DisplayName: "GPT-5", Text: "Synthesized answer.",
		}},
		council.EventComplete{},
	}
}

func TestReduce_FullStagedSequence(t *testing.T) {
	t.Parallel()
	var s council.TurnState
	for _, evt := range stagedTurnEvents() {
		var anom *council.Anomaly
		s, anom = council.Reduce(s, evt)
		assert.Nil(t, anom, "unexpected anomaly for %T", evt)
	}

	assert.Equal(t, council.TurnCompleted, s.Status)
	assert.Equal(t, council.ModeStaged, s.Mode)
	assert.False(t, s.Loading.Any(), "no stage may be loading after completion")

	msg, ok := s.Message().(council.AssistantStaged)
	require.True(t, ok, "expected AssistantStaged")
	require.Len(t, msg.Stage1, 2)
	require.Len(t, msg.Stage2, 1)
	require.NotNil(t, msg.Stage3)
	assert.Equal(t, "Synthesized answer.", msg.Stage3.Text)
	assert.Equal(t, "openai/gpt-5", msg.Metadata.LabelToModel["Response A"])
}

func TestReduce_SimpleModeSequence(t *testing.T) {
	t.Parallel()
	s := reduceAll(t,
		council.EventSimpleModeStart{},
		council.EventSimpleModeComplete{Final: council.FinalResponse{
			Model: "openai/gpt-5", DisplayName: "GPT-5", Text: "Quick answer.",
		}},
		council.EventTitleComplete{Title: "A quick question"},
		council.EventComplete{},
	)

	assert.Equal(t, council.TurnCompleted, s.Status)
	assert.Equal(t, council.ModeSimple, s.Mode)
	assert.Equal(t, "A quick question", s.Title)

	msg, ok := s.Message().(council.AssistantSimple)
	require.True(t, ok, "expected AssistantSimple")
	assert.Equal(t, "Quick answer.", msg.Final.Text)
}

func TestReduce_SimpleModeLocksOutStagedEvents(t *testing.T) {
	t.Parallel()
	s := reduceAll(t,
		council.EventSimpleModeStart{},
		council.EventSimpleModeComplete{Final: council.FinalResponse{Text: "Simple answer."}},
	)

	// A stray staged event must not flip the mode.
	next, anom := council.Reduce(s, council.EventStage1Start{Models: []string{"GPT-5"}})
	require.NotNil(t, anom)
	assert.Equal(t, "stage1_start", anom.Event)
	assert.Equal(t, council.ModeSimple, next.Mode)
	assert.False(t, next.Loading.Stage1)

	next, _ = council.Reduce(next, council.EventComplete{})
	msg, ok := next.Message().(council.AssistantSimple)
	require.True(t, ok, "simple mode must be permanent for the turn")
	assert.Equal(t, "Simple answer.", msg.Final.Text)
}

func TestReduce_StagedLocksOutSimpleEvents(t *testing.T) {
	t.Parallel()
	s := reduceAll(t, council.EventStage1Start{Models: []string{"GPT-5"}})

	next, anom := council.Reduce(s, council.EventSimpleModeComplete{Final: council.FinalResponse{Text: "stray"}})
	require.NotNil(t, anom)
	assert.Equal(t, council.ModeStaged, next.Mode)
	assert.Nil(t, next.Simple)
}

func TestReduce_CancelMidStage1(t *testing.T) {
	t.Parallel()
	s := reduceAll(t,
		council.EventStage1Start{Models: []string{"GPT-5", "Claude"}},
		council.EventAborted{},
	)

	assert.Equal(t, council.TurnCancelled, s.Status)
	assert.False(t, s.Loading.Any(), "cancellation must clear every loading flag")

	// No terminal shape: the message stays pending with partial data intact.
	_, ok := s.Message().(council.AssistantPending)
	assert.True(t, ok, "cancelled turn must not produce a terminal message")
}

func TestReduce_CancelPreservesPartialStageData(t *testing.T) {
	t.Parallel()
	s := reduceAll(t,
		council.EventStage1Start{Models: []string{"GPT-5"}},
		council.EventStage1Complete{Responses: []council.Response{{Model: "openai/gpt-5", Text: "Partial."}}},
		council.EventStage2Start{},
		council.EventAborted{},
	)

	assert.Equal(t, council.TurnCancelled, s.Status)
	require.Len(t, s.Stage1, 1)
	assert.Equal(t, "Partial.", s.Stage1[0].Text)
}

func TestReduce_RemoteCancelledIsIdempotentAfterAbort(t *testing.T) {
	t.Parallel()
	s := reduceAll(t,
		council.EventStage1Start{},
		council.EventAborted{},
	)
	next, anom := council.Reduce(s, council.EventCancelled{Message: "stream cancelled"})
	assert.Nil(t, anom)
	assert.Equal(t, council.TurnCancelled, next.Status)
	assert.False(t, next.Loading.Any())
}

func TestReduce_ErrorClearsLoadingAndKeepsData(t *testing.T) {
	t.Parallel()
	s := reduceAll(t,
		council.EventStage1Start{},
		council.EventStage1Complete{Responses: []council.Response{{Text: "kept"}}},
		council.EventStage2Start{},
		council.EventError{Message: "provider quota exceeded"},
	)

	assert.Equal(t, council.TurnErrored, s.Status)
	assert.Equal(t, "provider quota exceeded", s.ErrMessage)
	assert.False(t, s.Loading.Any())
	require.Len(t, s.Stage1, 1)
	assert.Equal(t, "kept", s.Stage1[0].Text)
}

func TestReduce_UnknownEventIsNoOp(t *testing.T) {
	t.Parallel()
	s := reduceAll(t, council.EventStage1Start{Models: []string{"GPT-5"}})

	next, anom := council.Reduce(s, council.EventUnknown{Type: "foo_bar"})
	require.NotNil(t, anom)
	assert.Equal(t, "foo_bar", anom.Event)
	assert.Equal(t, s, next, "unknown events must not change state")

	// The turn still finalizes normally afterwards.
	next = reduceAll(t,
		council.EventStage1Start{Models: []string{"GPT-5"}},
		council.EventUnknown{Type: "foo_bar"},
		council.EventStage1Complete{},
		council.EventComplete{},
	)
	assert.Equal(t, council.TurnCompleted, next.Status)
}

func TestReduce_CompletionWithoutStartIsLenient(t *testing.T) {
	t.Parallel()
	var s council.TurnState
	next, anom := council.Reduce(s, council.EventStage1Complete{
		Responses: []council.Response{{Text: "out of order"}},
	})

	require.NotNil(t, anom, "out-of-order completion should be flagged")
	require.Len(t, next.Stage1, 1, "payload must still be applied")
	assert.Equal(t, "out of order", next.Stage1[0].Text)
	assert.Equal(t, council.ModeStaged, next.Mode)
}

func TestReduce_StageCannotRestartAfterCompletion(t *testing.T) {
	t.Parallel()
	s := reduceAll(t,
		council.EventStage1Start{},
		council.EventStage1Complete{},
	)

	next, anom := council.Reduce(s, council.EventStage1Start{Models: []string{"GPT-5"}})
	require.NotNil(t, anom)
	assert.False(t, next.Loading.Stage1, "a completed stage must not load again")
}

func TestReduce_CompleteWhileLoadingIsFlagged(t *testing.T) {
	t.Parallel()
	s := reduceAll(t, council.EventStage2Start{})

	next, anom := council.Reduce(s, council.EventComplete{})
	require.NotNil(t, anom)
	assert.Equal(t, council.TurnCompleted, next.Status)
	assert.False(t, next.Loading.Any())
}

func TestReduce_Stage3CompleteFinalizesTurn(t *testing.T) {
	t.Parallel()
	s := reduceAll(t,
		council.EventStage3Start{},
		council.EventStage3Complete{Final: council.FinalResponse{Text: "done"}},
	)
	assert.Equal(t, council.TurnCompleted, s.Status, "stage3_complete is terminal even without complete")
}

func TestReduce_TitleAppliesInAnyMode(t *testing.T) {
	t.Parallel()
	s := reduceAll(t, council.EventTitleComplete{Title: "Early title"})
	assert.Equal(t, "Early title", s.Title)
	assert.Equal(t, council.ModeUndecided, s.Mode, "title events carry no mode")
}

func TestReduce_IsPure(t *testing.T) {
	t.Parallel()
	s := reduceAll(t, council.EventStage1Start{Models: []string{"GPT-5"}})
	before := s

	_, _ = council.Reduce(s, council.EventStage1Complete{Responses: []council.Response{{Text: "x"}}})
	assert.Equal(t, before, s, "Reduce must not mutate its input")
}

func TestTurnStatus_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "active", council.TurnActive.String())
	assert.Equal(t, "completed", council.TurnCompleted.String())
	assert.Equal(t, "errored", council.TurnErrored.String())
	assert.Equal(t, "cancelled", council.TurnCancelled.String())
}
