package core

import (
	"strings"
	"testing"

	"agentdesk.io/agentdesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snippets(bodies ...string) []store.KnowledgeSnippet {
	out := make([]store.KnowledgeSnippet, len(bodies))
	for i, b := range bodies {
		out[i] = store.KnowledgeSnippet{Body: b}
	}
	return out
}

func TestBuildContextNoSnippets(t *testing.T) {
	got := BuildContext("Be nice.", nil, nil, "Hi")

	require.Len(t, got, 2)
	assert.Equal(t, PromptMessage{Role: RoleSystem, Content: "Be nice."}, got[0])
	assert.Equal(t, PromptMessage{Role: RoleUser, Content: "Hi"}, got[1])
}

func TestBuildContextAllSnippetsInOrder(t *testing.T) {
	got := BuildContext("Be nice.", snippets("one", "two", "two", "three"), nil, "Hi")

	require.NotEmpty(t, got)
	assert.Equal(t, "Be nice.\n\nContext:\none\ntwo\ntwo\nthree", got[0].Content)
	assert.Equal(t, 1, strings.Count(got[0].Content, ContextSeparator))
}

func TestBuildContextShopScenario(t *testing.T) {
	got := BuildContext("You are a helpful shop assistant.", snippets("Store hours: 9am-5pm."), nil, "When are you open?")

	require.Len(t, got, 2)
	assert.Equal(t, RoleSystem, got[0].Role)
	assert.Contains(t, got[0].Content, "You are a helpful shop assistant.")
	assert.Contains(t, got[0].Content, "Store hours: 9am-5pm.")
	assert.Equal(t, PromptMessage{Role: RoleUser, Content: "When are you open?"}, got[1])
}

func TestBuildContextMapsHistoryAndDropsUnknownRoles(t *testing.T) {
	history := []ChatMessage{
		{Role: "user", Content: "a"},
		{Role: "system", Content: "ignored"},
		{Role: "assistant", Content: "b"},
		{Role: "tool", Content: "ignored"},
	}
	got := BuildContext("I", nil, history, "c")

	assert.Equal(t, []PromptMessage{
		{Role: RoleSystem, Content: "I"},
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
		{Role: RoleUser, Content: "c"},
	}, got)
}

func TestBuildContextOmitsEmptySystemEntry(t *testing.T) {
	got := BuildContext("", nil, nil, "Hi")
	assert.Equal(t, []PromptMessage{{Role: RoleUser, Content: "Hi"}}, got)
}
