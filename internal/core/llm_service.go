package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.5-flash"

// geminiContinueCue closes a transcript that ends on a model turn. The chat
// API always sends a user turn last.
const geminiContinueCue = "Continue."

// GeminiClient completes prompts with Google's Gemini models.
type GeminiClient struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGeminiClient dials the Gemini API. Extra options are applied after the
// API key, e.g. a custom endpoint.
func NewGeminiClient(ctx context.Context, apiKey, modelName string, timeout time.Duration, logger *zap.Logger, opts ...option.ClientOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	return &GeminiClient{
		client:    client,
		modelName: modelName,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *GeminiClient) Complete(ctx context.Context, messages []PromptMessage) (string, error) {
	system, turns, err := splitPrompt(messages)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := c.client.GenerativeModel(c.modelName)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	history := turns
	next := genai.Text(geminiContinueCue)
	if last := turns[len(turns)-1]; last.Role == RoleUser {
		history = turns[:len(turns)-1]
		next = genai.Text(last.Content)
	}

	chatSession := model.StartChat()
	chatSession.History = make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := "user"
		if t.Role == RoleAssistant {
			role = "model"
		}
		chatSession.History = append(chatSession.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Content)}})
	}

	resp, err := chatSession.SendMessage(ctx, next)
	if err != nil {
		return "", fmt.Errorf("%w: gemini SendMessage: %w", ErrCompletionFailed, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", completionError("gemini returned no candidates")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			c.logger.Debug("skipping non-text gemini part", zap.String("type", fmt.Sprintf("%T", part)))
		}
	}

	if responseText.Len() == 0 {
		return "", completionError("gemini returned an empty response")
	}
	return responseText.String(), nil
}
