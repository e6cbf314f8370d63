package core

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// OpenAIClient completes prompts against any OpenAI-compatible endpoint.
type OpenAIClient struct {
	llm     llms.Model
	timeout time.Duration
}

func NewOpenAIClient(baseURL, token, model string, timeout time.Duration) (*OpenAIClient, error) {
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize openai client: %w", err)
	}
	return NewOpenAIClientWithModel(llm, timeout), nil
}

// NewOpenAIClientWithModel wraps an already constructed langchaingo model.
func NewOpenAIClientWithModel(llm llms.Model, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{llm: llm, timeout: timeout}
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []PromptMessage) (string, error) {
	if _, _, err := splitPrompt(messages); err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var t schema.ChatMessageType
		switch m.Role {
		case RoleSystem:
			t = schema.ChatMessageTypeSystem
		case RoleAssistant:
			t = schema.ChatMessageTypeAI
		default:
			t = schema.ChatMessageTypeHuman
		}
		content = append(content, llms.TextParts(t, m.Content))
	}

	resp, err := c.llm.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%w: openai GenerateContent: %w", ErrCompletionFailed, err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", completionError("openai returned an empty response")
	}
	return resp.Choices[0].Content, nil
}
