package core

import (
	"context"

	"agentdesk.io/agentdesk/internal/store"
)

const failureListLimit = 100

type AdminStore interface {
	Stats(ctx context.Context) (*store.Stats, error)
	ListAgentOverviews(ctx context.Context) ([]store.AgentOverview, error)
	ListRecentConversations(ctx context.Context, limit int) ([]store.ConversationOverview, error)
	ListFailures(ctx context.Context, limit int) ([]store.WebhookFailure, error)
}

// AdminService exposes cross-tenant read models for the admin panel.
type AdminService struct {
	store AdminStore
}

func NewAdminService(s AdminStore) *AdminService {
	return &AdminService{store: s}
}

func (s *AdminService) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Stats(ctx)
}

// Bots lists every agent. Telegram tokens are reduced to a flag.
func (s *AdminService) Bots(ctx context.Context) ([]store.AgentOverview, error) {
	bots, err := s.store.ListAgentOverviews(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bots {
		bots[i].TelegramEnabled = bots[i].HasTelegram()
		bots[i].TelegramToken = nil
	}
	return bots, nil
}

func (s *AdminService) Conversations(ctx context.Context) ([]store.ConversationOverview, error) {
	return s.store.ListRecentConversations(ctx, conversationListLimit)
}

func (s *AdminService) Failures(ctx context.Context) ([]store.WebhookFailure, error) {
	return s.store.ListFailures(ctx, failureListLimit)
}
