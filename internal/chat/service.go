package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/recovery-coach/internal/domain"
)

// DefaultMaxMessages bounds the transcript length forwarded to the model.
const DefaultMaxMessages = 100

// Service relays chat transcripts to the model.
type Service struct {
	model       Model
	turns       ConversationLogger
	maxMessages int
}

// NewService creates a chat service. A nil turns logger disables persistence.
func NewService(model Model, turns ConversationLogger, maxMessages int) *Service {
	if turns == nil {
		turns = noopConversationLogger{}
	}
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Service{model: model, turns: turns, maxMessages: maxMessages}
}

// ModelName reports the configured provider/model.
func (s *Service) ModelName() string {
	if s.model == nil {
		return ""
	}
	return s.model.Name()
}

// Reply short-circuits crisis messages, then validates the transcript and
// returns the model's reply verbatim. Transcripts longer than the configured
// cap are trimmed to their most recent turns before reaching the model.
func (s *Service) Reply(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, &ValidationError{Message: "Invalid messages format"}
	}

	if kw, crisis := DetectCrisis(req.Messages); crisis {
		slog.Warn("crisis keyword detected", "session_id", req.SessionID, "keyword", kw)
		return &ChatResponse{
			Response:           CrisisMessage,
			Crisis:             true,
			RequiresEscalation: true,
		}, nil
	}

	messages := s.window(req.Messages)
	if err := validate(messages, len(req.Messages)-len(messages)); err != nil {
		return nil, err
	}

	reply, err := s.model.Complete(ctx, CompletionRequest{
		System:   SystemPrompt,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("complete chat: %w", err)
	}

	if req.SessionID != "" {
		userMsg, _ := LastUserMessage(messages)
		s.turns.Log(domain.ConversationTurn{
			SessionID:        req.SessionID,
			UserMessage:      userMsg,
			AssistantMessage: reply,
		})
	}

	return &ChatResponse{Response: reply}, nil
}

// window keeps the most recent maxMessages turns, starting on a user turn.
func (s *Service) window(messages []domain.ChatMessage) []domain.ChatMessage {
	if len(messages) <= s.maxMessages {
		return messages
	}
	trimmed := messages[len(messages)-s.maxMessages:]
	for len(trimmed) > 1 && trimmed[0].Role != domain.RoleUser {
		trimmed = trimmed[1:]
	}
	return trimmed
}

func validate(messages []domain.ChatMessage, offset int) error {
	for j, msg := range messages {
		i := j + offset
		if msg.Role != domain.RoleUser && msg.Role != domain.RoleAssistant {
			return &ValidationError{Message: fmt.Sprintf("Invalid role at message %d", i)}
		}
		if strings.TrimSpace(msg.Content) == "" {
			return &ValidationError{Message: fmt.Sprintf("Empty content at message %d", i)}
		}
	}
	return nil
}

// Close flushes pending conversation turns.
func (s *Service) Close() error {
	return s.turns.Close()
}
