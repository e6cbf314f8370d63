package core

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"agentdesk.io/agentdesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedClient returns a fixed reply or error and records prompts.
type scriptedClient struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts [][]PromptMessage
}

func (c *scriptedClient) Complete(ctx context.Context, messages []PromptMessage) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, messages)
	return c.reply, c.err
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "core.db"), 5)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedShop(t *testing.T, s *store.Store) *store.Agent {
	t.Helper()
	ctx := context.Background()
	u := &store.User{Email: "shop@example.com", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, u))
	a := &store.Agent{UserID: u.ID, Name: "Shop", Instruction: "You are a helpful shop assistant."}
	require.NoError(t, s.CreateAgent(ctx, a))
	require.NoError(t, s.CreateSnippet(ctx, &store.KnowledgeSnippet{AgentID: a.ID, Body: "Store hours: 9am-5pm."}))
	return a
}

func newPipeline(s *store.Store, c CompletionClient) *Pipeline {
	return NewPipeline(s, s, s, c, zap.NewNop())
}

func widgetInbound(token string, msgs ...ChatMessage) Inbound {
	return Inbound{Channel: store.ChannelWidget, SessionToken: token, Messages: msgs}
}

func TestRunPersistsBothTurns(t *testing.T) {
	s := newTestStore(t)
	a := seedShop(t, s)
	client := &scriptedClient{reply: "Hello"}
	p := newPipeline(s, client)

	reply, err := p.Run(context.Background(), a.ID, widgetInbound("tok", ChatMessage{Role: "user", Content: "When are you open?"}))
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply.Message.Content)

	msgs, err := s.ListMessages(context.Background(), reply.Session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, store.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, "When are you open?", msgs[0].Content)
	last := msgs[len(msgs)-1]
	assert.Equal(t, store.MessageRoleAssistant, last.Role)
	assert.Equal(t, "Hello", last.Content)

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	require.Len(t, prompt, 2)
	assert.Contains(t, prompt[0].Content, "You are a helpful shop assistant.")
	assert.Contains(t, prompt[0].Content, "Store hours: 9am-5pm.")
	assert.Equal(t, PromptMessage{Role: RoleUser, Content: "When are you open?"}, prompt[1])
}

func TestRunUsesCallerHistoryAndPersistsOnlyLastUserTurn(t *testing.T) {
	s := newTestStore(t)
	a := seedShop(t, s)
	client := &scriptedClient{reply: "ok"}
	p := newPipeline(s, client)

	reply, err := p.Run(context.Background(), a.ID, widgetInbound("tok",
		ChatMessage{Role: "user", Content: "first"},
		ChatMessage{Role: "assistant", Content: "answer"},
		ChatMessage{Role: "user", Content: "second"},
	))
	require.NoError(t, err)

	msgs, err := s.ListMessages(context.Background(), reply.Session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second", msgs[0].Content)

	prompt := client.prompts[0]
	require.Len(t, prompt, 4)
	assert.Equal(t, RoleAssistant, prompt[2].Role)
}

func TestCompletionFailureKeepsUserTurnOnly(t *testing.T) {
	s := newTestStore(t)
	a := seedShop(t, s)
	p := newPipeline(s, &scriptedClient{err: errors.New("rate limited")})
	ctx := context.Background()

	_, err := p.Run(ctx, a.ID, widgetInbound("tok", ChatMessage{Role: "user", Content: "hi"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletionFailed)

	session, err := s.GetSession(ctx, a.ID, "tok")
	require.NoError(t, err)
	require.NotNil(t, session)
	msgs, err := s.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, store.MessageRoleUser, msgs[0].Role)
}

func TestRunUnknownAgentHasNoSideEffects(t *testing.T) {
	s := newTestStore(t)
	p := newPipeline(s, &scriptedClient{reply: "x"})

	_, err := p.Run(context.Background(), "missing", widgetInbound("tok", ChatMessage{Role: "user", Content: "hi"}))
	assert.ErrorIs(t, err, ErrAgentNotFound)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalConversations)
	assert.Zero(t, st.TotalMessages)
}

func TestResolveAgentTelegramRequiresToken(t *testing.T) {
	s := newTestStore(t)
	a := seedShop(t, s)
	p := newPipeline(s, &scriptedClient{})

	_, err := p.ResolveAgent(context.Background(), a.ID, store.ChannelTelegram)
	assert.ErrorIs(t, err, ErrAgentNotFound)

	_, err = p.ResolveAgent(context.Background(), a.ID, store.ChannelWidget)
	assert.NoError(t, err)
}

func TestRunCompletesPayloadEndingOnAssistantTurn(t *testing.T) {
	s := newTestStore(t)
	a := seedShop(t, s)
	client := &scriptedClient{reply: "Anything else?"}
	p := newPipeline(s, client)
	ctx := context.Background()

	reply, err := p.Run(ctx, a.ID, widgetInbound("tok",
		ChatMessage{Role: "user", Content: "hi"},
		ChatMessage{Role: "assistant", Content: "hello"},
	))
	require.NoError(t, err)
	assert.Equal(t, "Anything else?", reply.Message.Content)

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	require.Len(t, prompt, 3)
	assert.Equal(t, RoleSystem, prompt[0].Role)
	assert.Equal(t, PromptMessage{Role: RoleUser, Content: "hi"}, prompt[1])
	assert.Equal(t, PromptMessage{Role: RoleAssistant, Content: "hello"}, prompt[2])

	msgs, err := s.ListMessages(ctx, reply.Session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, store.MessageRoleAssistant, msgs[0].Role)
	assert.Equal(t, "Anything else?", msgs[0].Content)
}

func TestRunRejectsPayloadsWithNothingToAnswer(t *testing.T) {
	cases := map[string]Inbound{
		"no messages":      widgetInbound("tok"),
		"blank user turn":  widgetInbound("tok", ChatMessage{Role: "user", Content: "  "}),
		"only system":      widgetInbound("tok", ChatMessage{Role: "system", Content: "x"}),
		"no session token": widgetInbound("", ChatMessage{Role: "user", Content: "hi"}),
		"unknown channel":  {Channel: "sms", SessionToken: "tok", Messages: []ChatMessage{{Role: "user", Content: "hi"}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			a := seedShop(t, s)
			client := &scriptedClient{reply: "x"}

			_, err := newPipeline(s, client).Run(context.Background(), a.ID, in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, client.prompts)

			st, err := s.Stats(context.Background())
			require.NoError(t, err)
			assert.Zero(t, st.TotalConversations)
			assert.Zero(t, st.TotalMessages)
		})
	}
}

func TestRunSameTokenReusesSession(t *testing.T) {
	s := newTestStore(t)
	a := seedShop(t, s)
	p := newPipeline(s, &scriptedClient{reply: "x"})
	ctx := context.Background()

	r1, err := p.Run(ctx, a.ID, widgetInbound("tok", ChatMessage{Role: "user", Content: "one"}))
	require.NoError(t, err)
	r2, err := p.Run(ctx, a.ID, widgetInbound("tok", ChatMessage{Role: "user", Content: "two"}))
	require.NoError(t, err)
	assert.Equal(t, r1.Session.ID, r2.Session.ID)

	msgs, err := s.ListMessages(ctx, r1.Session.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
}

func TestRunConcurrentFirstContact(t *testing.T) {
	s := newTestStore(t)
	a := seedShop(t, s)
	p := newPipeline(s, &scriptedClient{reply: "x"})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Run(ctx, a.ID, widgetInbound("fresh", ChatMessage{Role: "user", Content: "hi"}))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := s.CountSessions(ctx, a.ID, "fresh")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}
