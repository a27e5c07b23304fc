package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashureev/recovery-coach/internal/domain"
)

func TestDetectCrisis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		messages []domain.ChatMessage
		want     bool
		keyword  string
	}{
		{
			name:     "plain message",
			messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "I had a hard day"}},
		},
		{
			name:     "keyword mixed case",
			messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "Sometimes I Want To Die"}},
			want:     true,
			keyword:  "want to die",
		},
		{
			name:     "substring inside a longer word",
			messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "I read about suicidepreventionlifeline"}},
			want:     true,
			keyword:  "suicide",
		},
		{
			name: "only the latest user turn is scanned",
			messages: []domain.ChatMessage{
				{Role: domain.RoleUser, Content: "I thought about an overdose last year"},
				{Role: domain.RoleAssistant, Content: "Thank you for telling me."},
				{Role: domain.RoleUser, Content: "Today is better"},
			},
		},
		{
			name: "assistant turns are ignored",
			messages: []domain.ChatMessage{
				{Role: domain.RoleUser, Content: "hello"},
				{Role: domain.RoleAssistant, Content: "If you feel like you might end my life..."},
			},
		},
		{
			name: "assistant after crisis user turn",
			messages: []domain.ChatMessage{
				{Role: domain.RoleUser, Content: "I want to kill myself"},
				{Role: domain.RoleAssistant, Content: "I hear you."},
			},
			want:    true,
			keyword: "kill myself",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kw, got := DetectCrisis(tt.messages)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.keyword, kw)
		})
	}
}

func TestLastUserMessageEmpty(t *testing.T) {
	t.Parallel()

	_, ok := LastUserMessage(nil)
	assert.False(t, ok)
}
