package core

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"agentdesk.io/agentdesk/internal/store"
	"go.uber.org/zap"
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type AgentStore interface {
	CreateAgent(ctx context.Context, a *store.Agent) error
	GetAgentForOwner(ctx context.Context, id, userID string) (*store.Agent, error)
	ListAgentsByOwner(ctx context.Context, userID string) ([]store.Agent, error)
	UpdateAgent(ctx context.Context, a *store.Agent) (bool, error)
	DeleteAgent(ctx context.Context, id, userID string) (bool, error)
}

// WebhookRegistrar points a messaging bot at our webhook endpoint.
type WebhookRegistrar interface {
	SetWebhook(ctx context.Context, token, url string) error
}

// AgentInput is a create or update request. Nil fields are left unchanged
// on update.
type AgentInput struct {
	Name             *string `json:"name"`
	SystemPrompt     *string `json:"systemPrompt"`
	PrimaryColor     *string `json:"primaryColor"`
	TelegramBotToken *string `json:"telegramBotToken"`
}

type AgentService struct {
	agents        AgentStore
	webhooks      WebhookRegistrar
	publicBaseURL string
	logger        *zap.Logger
}

// NewAgentService wires agent CRUD. webhooks may be nil; registration is
// skipped when it is or when publicBaseURL is empty.
func NewAgentService(agents AgentStore, webhooks WebhookRegistrar, publicBaseURL string, logger *zap.Logger) *AgentService {
	return &AgentService{
		agents:        agents,
		webhooks:      webhooks,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

func (s *AgentService) List(ctx context.Context, ownerID string) ([]store.Agent, error) {
	return s.agents.ListAgentsByOwner(ctx, ownerID)
}

// Get returns an owned agent or ErrAgentNotFound.
func (s *AgentService) Get(ctx context.Context, ownerID, id string) (*store.Agent, error) {
	a, err := s.agents.GetAgentForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAgentNotFound
	}
	return a, nil
}

func (s *AgentService) Create(ctx context.Context, ownerID string, in AgentInput) (*store.Agent, error) {
	a := &store.Agent{UserID: ownerID}
	if err := applyAgentInput(a, in); err != nil {
		return nil, err
	}
	if a.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.agents.CreateAgent(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("agent created", zap.String("agent_id", a.ID), zap.String("user_id", ownerID))
	s.registerWebhook(ctx, a, "")
	return a, nil
}

func (s *AgentService) Update(ctx context.Context, ownerID, id string, in AgentInput) (*store.Agent, error) {
	a, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	previousToken := ""
	if a.TelegramToken != nil {
		previousToken = *a.TelegramToken
	}

	if err := applyAgentInput(a, in); err != nil {
		return nil, err
	}
	if a.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	ok, err := s.agents.UpdateAgent(ctx, a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAgentNotFound
	}
	s.registerWebhook(ctx, a, previousToken)
	return a, nil
}

func (s *AgentService) Delete(ctx context.Context, ownerID, id string) error {
	ok, err := s.agents.DeleteAgent(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAgentNotFound
	}
	s.logger.Info("agent deleted", zap.String("agent_id", id), zap.String("user_id", ownerID))
	return nil
}

// WebhookURL is the Telegram webhook address for an agent, or "" when no
// public base URL is configured.
func (s *AgentService) WebhookURL(agentID string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return s.publicBaseURL + "/api/webhooks/telegram?botId=" + url.QueryEscape(agentID)
}

// registerWebhook runs when the Telegram token changed. Failures are
// logged; the agent update itself stands.
func (s *AgentService) registerWebhook(ctx context.Context, a *store.Agent, previousToken string) {
	if s.webhooks == nil || !a.HasTelegram() || *a.TelegramToken == previousToken {
		return
	}
	hook := s.WebhookURL(a.ID)
	if hook == "" {
		return
	}
	if err := s.webhooks.SetWebhook(ctx, *a.TelegramToken, hook); err != nil {
		s.logger.Warn("telegram webhook registration failed", zap.String("agent_id", a.ID), zap.Error(err))
		return
	}
	s.logger.Info("telegram webhook registered", zap.String("agent_id", a.ID))
}

func applyAgentInput(a *store.Agent, in AgentInput) error {
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.SystemPrompt != nil {
		a.Instruction = *in.SystemPrompt
	}
	if in.PrimaryColor != nil {
		color := strings.TrimSpace(*in.PrimaryColor)
		if color == "" {
			color = store.DefaultPrimaryColor
		}
		if !colorPattern.MatchString(color) {
			return fmt.Errorf("%w: primaryColor must be a hex color like #3b82f6", ErrValidation)
		}
		a.PrimaryColor = color
	}
	if in.TelegramBotToken != nil {
		token := strings.TrimSpace(*in.TelegramBotToken)
		if token == "" {
			a.TelegramToken = nil
		} else {
			a.TelegramToken = &token
		}
	}
	return nil
}
