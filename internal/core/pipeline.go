package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"agentdesk.io/agentdesk/internal/store"
	"go.uber.org/zap"
)

// AgentReader loads agents by id for the channel adapters.
type AgentReader interface {
	GetAgent(ctx context.Context, id string) (*store.Agent, error)
}

// KnowledgeReader lists an agent's snippets in creation order.
type KnowledgeReader interface {
	ListSnippets(ctx context.Context, agentID string) ([]store.KnowledgeSnippet, error)
}

// ConversationWriter owns sessions and their message log.
type ConversationWriter interface {
	EnsureSession(ctx context.Context, agentID, token, channel string) (*store.Session, error)
	CreateMessage(ctx context.Context, msg *store.Message) error
}

// Inbound is a channel-neutral inbound message. When the last entry of
// Messages is a user turn it is the new turn and everything before it is
// caller-supplied history; otherwise the whole list is history.
type Inbound struct {
	Channel      string // store.ChannelWidget or store.ChannelTelegram
	SessionToken string // widget chat id or Telegram chat id
	Messages     []ChatMessage
}

// Reply is the persisted assistant message and the session it belongs to.
type Reply struct {
	Session *store.Session
	Message *store.Message
}

// Pipeline runs one inbound message through session bookkeeping, context
// assembly and completion.
type Pipeline struct {
	agents        AgentReader
	knowledge     KnowledgeReader
	conversations ConversationWriter
	completion    CompletionClient
	logger        *zap.Logger
}

func NewPipeline(agents AgentReader, knowledge KnowledgeReader, conversations ConversationWriter, completion CompletionClient, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		agents:        agents,
		knowledge:     knowledge,
		conversations: conversations,
		completion:    completion,
		logger:        logger,
	}
}

// ResolveAgent loads the agent addressed by an inbound request. Telegram
// traffic additionally requires a configured bot token.
func (p *Pipeline) ResolveAgent(ctx context.Context, agentID, channel string) (*store.Agent, error) {
	if agentID == "" {
		return nil, fmt.Errorf("%w: bot id is required", ErrValidation)
	}
	agent, err := p.agents.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agent: %w", err)
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	if channel == store.ChannelTelegram && !agent.HasTelegram() {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

// Converse persists the inbound user turn, asks the completion client for
// a reply and persists it. A payload that does not end on a user turn is
// completed from its history alone and only the reply is stored. A
// completion failure leaves the user turn in place and returns an error
// wrapping ErrCompletionFailed.
func (p *Pipeline) Converse(ctx context.Context, agent *store.Agent, in Inbound) (*Reply, error) {
	if err := validateInbound(in); err != nil {
		return nil, err
	}
	last := in.Messages[len(in.Messages)-1]
	userTurn := last.Role == string(RoleUser)
	logger := p.logger.With(zap.String("agent_id", agent.ID), zap.String("channel", in.Channel))

	session, err := p.conversations.EnsureSession(ctx, agent.ID, in.SessionToken, in.Channel)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure session: %w", err)
	}
	logger = logger.With(zap.String("session_id", session.ID))

	if userTurn {
		userMsg := store.Message{
			SessionID: session.ID,
			Role:      store.MessageRoleUser,
			Content:   last.Content,
		}
		if err := p.conversations.CreateMessage(ctx, &userMsg); err != nil {
			return nil, fmt.Errorf("failed to store user message: %w", err)
		}
	} else {
		logger.Debug("payload does not end on a user turn, nothing inbound to store", zap.String("last_role", last.Role))
	}

	snippets, err := p.knowledge.ListSnippets(ctx, agent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge: %w", err)
	}

	var prompt []PromptMessage
	if userTurn {
		prompt = BuildContext(agent.Instruction, snippets, in.Messages[:len(in.Messages)-1], last.Content)
	} else {
		prompt = buildTranscript(agent.Instruction, snippets, in.Messages)
	}
	logger.Debug("prompt assembled", zap.Int("entries", len(prompt)), zap.Int("snippets", len(snippets)))

	text, err := p.completion.Complete(ctx, prompt)
	if err != nil {
		if !errors.Is(err, ErrCompletionFailed) {
			err = fmt.Errorf("%w: %w", ErrCompletionFailed, err)
		}
		logger.Warn("completion failed", zap.Error(err))
		return nil, err
	}

	modelMsg := store.Message{
		SessionID: session.ID,
		Role:      store.MessageRoleAssistant,
		Content:   text,
	}
	if err := p.conversations.CreateMessage(ctx, &modelMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	logger.Info("conversation turn completed", zap.Int("reply_len", len(text)))
	return &Reply{Session: session, Message: &modelMsg}, nil
}

// Run resolves the agent and converses in one step.
func (p *Pipeline) Run(ctx context.Context, agentID string, in Inbound) (*Reply, error) {
	agent, err := p.ResolveAgent(ctx, agentID, in.Channel)
	if err != nil {
		return nil, err
	}
	return p.Converse(ctx, agent, in)
}

// validateInbound rejects payloads with nothing to answer. Only a trailing
// user turn must carry content.
func validateInbound(in Inbound) error {
	if in.SessionToken == "" {
		return fmt.Errorf("%w: session token is required", ErrValidation)
	}
	if in.Channel != store.ChannelWidget && in.Channel != store.ChannelTelegram {
		return fmt.Errorf("%w: unknown channel %q", ErrValidation, in.Channel)
	}
	if !slices.ContainsFunc(in.Messages, isTurn) {
		return fmt.Errorf("%w: at least one user or assistant message is required", ErrValidation)
	}
	last := in.Messages[len(in.Messages)-1]
	if last.Role == string(RoleUser) && strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: message content cannot be empty", ErrValidation)
	}
	return nil
}
