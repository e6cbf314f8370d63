package core

import (
	"strings"

	"agentdesk.io/agentdesk/internal/store"
)

// ContextSeparator sits between the agent instruction and its knowledge.
const ContextSeparator = "\n\nContext:\n"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a turn as supplied by a channel.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptMessage is one entry of the sequence sent to a CompletionClient.
type PromptMessage struct {
	Role    Role
	Content string
}

// BuildContext assembles the completion input: one system entry carrying
// the instruction and every snippet body, the prior user/assistant turns in
// order, then the new user message. Snippets are used in the order given.
func BuildContext(instruction string, snippets []store.KnowledgeSnippet, history []ChatMessage, newMessage string) []PromptMessage {
	out := buildTranscript(instruction, snippets, history)
	return append(out, PromptMessage{Role: RoleUser, Content: newMessage})
}

// buildTranscript is BuildContext without a new turn, for payloads that
// do not end on a user message.
func buildTranscript(instruction string, snippets []store.KnowledgeSnippet, history []ChatMessage) []PromptMessage {
	out := make([]PromptMessage, 0, len(history)+2)

	system := instruction
	if len(snippets) > 0 {
		bodies := make([]string, len(snippets))
		for i, k := range snippets {
			bodies[i] = k.Body
		}
		system += ContextSeparator + strings.Join(bodies, "\n")
	}
	if system != "" {
		out = append(out, PromptMessage{Role: RoleSystem, Content: system})
	}

	for _, m := range history {
		if isTurn(m) {
			out = append(out, PromptMessage{Role: Role(m.Role), Content: m.Content})
		}
	}
	return out
}

func isTurn(m ChatMessage) bool {
	return m.Role == string(RoleUser) || m.Role == string(RoleAssistant)
}
