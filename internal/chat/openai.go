package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/ashureev/recovery-coach/internal/domain"
)

// OpenAIModel calls an OpenAI-compatible chat completions endpoint.
type OpenAIModel struct {
	client    openai.Client
	model     string
	maxTokens int64
}

const defaultOpenAIModel = "gpt-4o-mini"

// NewOpenAIModel creates a chat completions client from cfg. BaseURL may
// point at any OpenAI-compatible gateway.
func NewOpenAIModel(cfg Config) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultConfig().MaxTokens
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIModel{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}, nil
}

// Name returns "openai/<model>".
func (m *OpenAIModel) Name() string { return ProviderOpenAI + "/" + m.model }

// Complete sends the system instruction followed by the transcript.
func (m *OpenAIModel) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	msgs = append(msgs, openai.SystemMessage(req.System))
	for _, msg := range req.Messages {
		if msg.Role == domain.RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(msg.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(msg.Content))
		}
	}

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(m.model),
		Messages:  msgs,
		MaxTokens: openai.Int(m.maxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Provider: ProviderOpenAI, StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", &UpstreamError{Provider: ProviderOpenAI, Err: fmt.Errorf("request failed: %w", err)}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &UpstreamError{Provider: ProviderOpenAI, Err: errors.New("response contained no text")}
	}
	return resp.Choices[0].Message.Content, nil
}
