package core

import (
	"context"
	"fmt"

	"agentdesk.io/agentdesk/internal/store"
)

const conversationListLimit = 100

type ConversationReader interface {
	ListConversationsByOwner(ctx context.Context, userID string, limit int) ([]store.ConversationOverview, error)
	GetConversationForOwner(ctx context.Context, id, userID string) (*store.ConversationOverview, error)
	ListMessages(ctx context.Context, sessionID string) ([]store.Message, error)
}

type ConversationDetail struct {
	store.ConversationOverview
	Messages []store.Message `json:"messages"`
}

// ConversationService is the owner-scoped read side of the conversation log.
type ConversationService struct {
	conversations ConversationReader
}

func NewConversationService(conversations ConversationReader) *ConversationService {
	return &ConversationService{conversations: conversations}
}

func (s *ConversationService) List(ctx context.Context, ownerID string) ([]store.ConversationOverview, error) {
	return s.conversations.ListConversationsByOwner(ctx, ownerID, conversationListLimit)
}

func (s *ConversationService) Get(ctx context.Context, ownerID, id string) (*ConversationDetail, error) {
	c, err := s.conversations.GetConversationForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: conversation", ErrNotFound)
	}
	msgs, err := s.conversations.ListMessages(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &ConversationDetail{ConversationOverview: *c, Messages: msgs}, nil
}
