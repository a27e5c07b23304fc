// Package chat relays conversation transcripts to a hosted language model,
// short-circuiting crisis messages with a static safety response.
package chat

import (
	"time"

	"github.com/ashureev/recovery-coach/internal/domain"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages  []domain.ChatMessage `json:"messages"`
	SessionID string               `json:"sessionId,omitempty"`
}

// ChatResponse is returned for every successful chat turn.
type ChatResponse struct {
	Response           string `json:"response"`
	Crisis             bool   `json:"crisis"`
	RequiresEscalation bool   `json:"requiresEscalation"`
}

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds model provider configuration.
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int
}

// DefaultConfig returns default provider configuration.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Model:      "claude-sonnet-4-5",
		MaxTokens:  1024,
		Timeout:    60 * time.Second,
		MaxRetries: 2,
	}
}
