package core

import (
	"context"
	"fmt"
	"strings"
)

// CompletionClient turns an assembled prompt into generated text. Every
// failure is reported wrapped in ErrCompletionFailed. Implementations do
// not retry.
type CompletionClient interface {
	Complete(ctx context.Context, messages []PromptMessage) (string, error)
}

func completionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCompletionFailed, fmt.Sprintf(format, args...))
}

// splitPrompt separates system entries from the conversation. The
// conversation may end on either role.
func splitPrompt(messages []PromptMessage) (system string, turns []PromptMessage, err error) {
	var sys []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 {
		return "", nil, completionError("prompt has no conversation turns")
	}
	return strings.Join(sys, "\n\n"), turns, nil
}

// MockClient answers by echoing the most recent user turn. Used for local
// runs without provider credentials.
type MockClient struct{}

func (MockClient) Complete(ctx context.Context, messages []PromptMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	_, turns, err := splitPrompt(messages)
	if err != nil {
		return "", err
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return "Echo: " + turns[i].Content, nil
		}
	}
	return "Echo: ", nil
}
