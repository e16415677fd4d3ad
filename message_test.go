package council_test

import (
	"testing"
	"time"

	"github.com/mstolarz/council"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage_ImplementsMessage(t *testing.T) {
	t.Parallel()
	var msg council.Message = council.UserMessage{
		Content:   "hello",
		Timestamp: time.Now(),
	}
	assert.NotNil(t, msg)
}

func TestAssistantPending_ImplementsMessage(t *testing.T) {
	t.Parallel()
	var msg council.Message = council.AssistantPending{
		Turn: council.TurnState{},
	}
	assert.NotNil(t, msg)
}

func TestAssistantSimple_ImplementsMessage(t *testing.T) {
	t.Parallel()
	var msg council.Message = council.AssistantSimple{
		Final:     council.FinalResponse{Model: "openai/gpt-5", DisplayName: "GPT-5", Text: "hi"},
		Timestamp: time.Now(),
	}
	assert.NotNil(t, msg)
}

func TestAssistantStaged_ImplementsMessage(t *testing.T) {
	t.Parallel()
	var msg council.Message = council.AssistantStaged{
		Stage1:    []council.Response{{Model: "openai/gpt-5", Text: "answer"}},
		Timestamp: time.Now(),
	}
	assert.NotNil(t, msg)
}

func TestMessageTypeSwitch_Exhaustive(t *testing.T) {
	t.Parallel()
	messages := []council.Message{
		council.UserMessage{Content: "hello"},
		council.AssistantPending{},
		council.AssistantSimple{},
		council.AssistantStaged{},
	}
	for _, msg := range messages {
		switch msg.(type) {
		case council.UserMessage:
		case council.AssistantPending:
		case council.AssistantSimple:
		case council.AssistantStaged:
		default:
			t.Fatalf("unexpected message type: %T", msg)
		}
	}
}

func TestMessage_Role(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		msg  council.Message
		want council.Role
	}{
		{"UserMessage", council.UserMessage{}, council.RoleUser},
		{"AssistantPending", council.AssistantPending{}, council.RoleAssistant},
		{"AssistantSimple", council.AssistantSimple{}, council.RoleAssistant},
		{"AssistantStaged", council.AssistantStaged{}, council.RoleAssistant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.msg.Role())
		})
	}
}

func TestStageState_Any(t *testing.T) {
	t.Parallel()
	assert.False(t, council.StageState{}.Any())
	assert.True(t, council.StageState{Simple: true}.Any())
	assert.True(t, council.StageState{Stage1: true}.Any())
	assert.True(t, council.StageState{Stage2: true}.Any())
	assert.True(t, council.StageState{Stage3: true}.Any())
}
