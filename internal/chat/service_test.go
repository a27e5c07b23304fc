package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/recovery-coach/internal/domain"
)

func userTurn(content string) domain.ChatMessage {
	return domain.ChatMessage{Role: domain.RoleUser, Content: content}
}

func TestReplyCrisisSkipsModel(t *testing.T) {
	t.Parallel()

	model := &fakeModel{reply: "should not be used"}
	turns := &recordingLogger{}
	svc := NewService(model, turns, 0)

	resp, err := svc.Reply(context.Background(), ChatRequest{
		Messages:  []domain.ChatMessage{userTurn("I want to end my life")},
		SessionID: "sess-1",
	})
	require.NoError(t, err)
	assert.True(t, resp.Crisis)
	assert.True(t, resp.RequiresEscalation)
	assert.Equal(t, CrisisMessage, resp.Response)
	assert.Equal(t, 0, model.callCount())
	assert.Empty(t, turns.logged())
}

func TestReplyCrisisWinsOverValidation(t *testing.T) {
	t.Parallel()

	long := make([]domain.ChatMessage, 0, DefaultMaxMessages+1)
	for i := 0; i < DefaultMaxMessages; i++ {
		long = append(long, userTurn("still here"))
	}
	long = append(long, userTurn("I want to die"))

	tests := []struct {
		name     string
		max      int
		messages []domain.ChatMessage
	}{
		{name: "over default cap", max: 0, messages: long},
		{
			name:     "over small cap",
			max:      2,
			messages: []domain.ChatMessage{userTurn("a"), userTurn("b"), userTurn("c"), userTurn("thinking of an overdose")},
		},
		{
			name: "blank earlier turn",
			max:  0,
			messages: []domain.ChatMessage{
				{Role: domain.RoleAssistant, Content: " "},
				userTurn("I want to die"),
			},
		},
		{
			name: "unknown earlier role",
			max:  0,
			messages: []domain.ChatMessage{
				{Role: "system", Content: "x"},
				userTurn("I want to end my life"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{reply: "should not be used"}
			svc := NewService(model, nil, tt.max)

			resp, err := svc.Reply(context.Background(), ChatRequest{Messages: tt.messages})
			require.NoError(t, err)
			assert.True(t, resp.Crisis)
			assert.True(t, resp.RequiresEscalation)
			assert.Equal(t, CrisisMessage, resp.Response)
			assert.Equal(t, 0, model.callCount())
		})
	}
}

func TestReplyTrimsLongTranscript(t *testing.T) {
	t.Parallel()

	model := &fakeModel{reply: "ok"}
	turns := &recordingLogger{}
	svc := NewService(model, turns, 3)

	transcript := []domain.ChatMessage{
		userTurn("one"),
		{Role: domain.RoleAssistant, Content: "reply one"},
		userTurn("two"),
		{Role: domain.RoleAssistant, Content: "reply two"},
		userTurn("three"),
	}
	_, err := svc.Reply(context.Background(), ChatRequest{Messages: transcript, SessionID: "sess-3"})
	require.NoError(t, err)

	require.Equal(t, 1, model.callCount())
	assert.Equal(t, transcript[2:], model.calls[0].Messages)

	// A window that would open on an assistant turn starts at the next user turn.
	transcript = append(transcript, domain.ChatMessage{Role: domain.RoleAssistant, Content: "reply three"}, userTurn("four"))
	_, err = NewService(model, nil, 4).Reply(context.Background(), ChatRequest{Messages: transcript})
	require.NoError(t, err)
	require.Equal(t, 2, model.callCount())
	assert.Equal(t, transcript[4:], model.calls[1].Messages)

	logged := turns.logged()
	require.Len(t, logged, 1)
	assert.Equal(t, "three", logged[0].UserMessage)
}

func TestReplyRelaysTranscript(t *testing.T) {
	t.Parallel()

	model := &fakeModel{reply: "Notice where you feel it in your body."}
	turns := &recordingLogger{}
	svc := NewService(model, turns, 0)

	transcript := []domain.ChatMessage{
		userTurn("hi"),
		{Role: domain.RoleAssistant, Content: "Hello, how are you arriving today?"},
		userTurn("I have cravings tonight"),
	}
	resp, err := svc.Reply(context.Background(), ChatRequest{Messages: transcript, SessionID: "sess-2"})
	require.NoError(t, err)
	assert.Equal(t, "Notice where you feel it in your body.", resp.Response)
	assert.False(t, resp.Crisis)
	assert.False(t, resp.RequiresEscalation)

	require.Equal(t, 1, model.callCount())
	assert.Equal(t, SystemPrompt, model.calls[0].System)
	assert.Equal(t, transcript, model.calls[0].Messages)

	logged := turns.logged()
	require.Len(t, logged, 1)
	assert.Equal(t, "sess-2", logged[0].SessionID)
	assert.Equal(t, "I have cravings tonight", logged[0].UserMessage)
	assert.Equal(t, "Notice where you feel it in your body.", logged[0].AssistantMessage)
}

func TestReplyWithoutSessionIsNotLogged(t *testing.T) {
	t.Parallel()

	turns := &recordingLogger{}
	svc := NewService(&fakeModel{reply: "ok"}, turns, 0)

	_, err := svc.Reply(context.Background(), ChatRequest{Messages: []domain.ChatMessage{userTurn("hello")}})
	require.NoError(t, err)
	assert.Empty(t, turns.logged())
}

func TestReplyValidation(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeModel{reply: "ok"}, nil, 3)

	tests := []struct {
		name     string
		messages []domain.ChatMessage
		contains string
	}{
		{name: "empty", messages: nil, contains: "Invalid messages format"},
		{name: "bad role", messages: []domain.ChatMessage{{Role: "system", Content: "x"}}, contains: "Invalid role"},
		{name: "blank content", messages: []domain.ChatMessage{userTurn("   ")}, contains: "Empty content"},
		{
			name:     "blank inside trimmed window",
			messages: []domain.ChatMessage{userTurn("a"), userTurn("b"), userTurn("  "), userTurn("c")},
			contains: "Empty content at message 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reply(context.Background(), ChatRequest{Messages: tt.messages})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, strings.Contains(verr.Message, tt.contains), verr.Message)
		})
	}
}

func TestReplyUpstreamErrors(t *testing.T) {
	t.Parallel()

	authFail := &UpstreamError{Provider: "fake", StatusCode: http.StatusUnauthorized, Err: errors.New("bad key")}
	svc := NewService(&fakeModel{err: authFail}, nil, 0)
	_, err := svc.Reply(context.Background(), ChatRequest{Messages: []domain.ChatMessage{userTurn("hello")}})
	require.ErrorIs(t, err, ErrUpstreamAuth)
	require.ErrorIs(t, err, ErrUpstream)

	overloaded := &UpstreamError{Provider: "fake", StatusCode: 529, Err: errors.New("overloaded")}
	svc = NewService(&fakeModel{err: overloaded}, nil, 0)
	_, err = svc.Reply(context.Background(), ChatRequest{Messages: []domain.ChatMessage{userTurn("hello")}})
	require.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrUpstreamAuth)
}
