package chat

import (
	"context"
	"fmt"

	"github.com/ashureev/recovery-coach/internal/domain"
)

// CompletionRequest is a full transcript plus the behavioral instruction.
type CompletionRequest struct {
	System   string
	Messages []domain.ChatMessage
}

// Model generates the assistant reply for a transcript.
// Implemented by the Anthropic and OpenAI-compatible clients.
type Model interface {
	// Complete returns the reply text for the transcript.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name identifies the provider and model for logs and /api/config.
	Name() string
}

// NewModel builds the Model selected by cfg.Provider.
func NewModel(cfg Config) (Model, error) {
	switch cfg.Provider {
	case "", ProviderAnthropic:
		return NewAnthropicModel(cfg)
	case ProviderOpenAI:
		return NewOpenAIModel(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
