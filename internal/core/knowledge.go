package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"agentdesk.io/agentdesk/internal/extract"
	"agentdesk.io/agentdesk/internal/store"
	"go.uber.org/zap"
)

type SnippetStore interface {
	CreateSnippet(ctx context.Context, k *store.KnowledgeSnippet) error
	GetSnippet(ctx context.Context, agentID, id string) (*store.KnowledgeSnippet, error)
	ListSnippets(ctx context.Context, agentID string) ([]store.KnowledgeSnippet, error)
	UpdateSnippet(ctx context.Context, k *store.KnowledgeSnippet) (bool, error)
	DeleteSnippet(ctx context.Context, agentID, id string) (bool, error)
}

type OwnedAgentReader interface {
	GetAgentForOwner(ctx context.Context, id, userID string) (*store.Agent, error)
}

type SnippetInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// KnowledgeService manages an owner's knowledge snippets. Every operation
// first checks that the agent belongs to the caller.
type KnowledgeService struct {
	agents   OwnedAgentReader
	snippets SnippetStore
	logger   *zap.Logger
}

func NewKnowledgeService(agents OwnedAgentReader, snippets SnippetStore, logger *zap.Logger) *KnowledgeService {
	return &KnowledgeService{agents: agents, snippets: snippets, logger: logger}
}

func (s *KnowledgeService) ownedAgent(ctx context.Context, ownerID, agentID string) error {
	a, err := s.agents.GetAgentForOwner(ctx, agentID, ownerID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAgentNotFound
	}
	return nil
}

func (s *KnowledgeService) List(ctx context.Context, ownerID, agentID string) ([]store.KnowledgeSnippet, error) {
	if err := s.ownedAgent(ctx, ownerID, agentID); err != nil {
		return nil, err
	}
	return s.snippets.ListSnippets(ctx, agentID)
}

func (s *KnowledgeService) Add(ctx context.Context, ownerID, agentID string, in SnippetInput) (*store.KnowledgeSnippet, error) {
	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if err := s.ownedAgent(ctx, ownerID, agentID); err != nil {
		return nil, err
	}
	k := &store.KnowledgeSnippet{AgentID: agentID, Body: *in.Content}
	if in.Title != nil {
		k.Title = strings.TrimSpace(*in.Title)
	}
	if err := s.snippets.CreateSnippet(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

func (s *KnowledgeService) Update(ctx context.Context, ownerID, agentID, id string, in SnippetInput) (*store.KnowledgeSnippet, error) {
	if err := s.ownedAgent(ctx, ownerID, agentID); err != nil {
		return nil, err
	}
	k, err := s.snippets.GetSnippet(ctx, agentID, id)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, fmt.Errorf("%w: snippet", ErrNotFound)
	}
	if in.Title != nil {
		k.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", ErrValidation)
		}
		k.Body = *in.Content
	}
	if _, err := s.snippets.UpdateSnippet(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

func (s *KnowledgeService) Delete(ctx context.Context, ownerID, agentID, id string) error {
	if err := s.ownedAgent(ctx, ownerID, agentID); err != nil {
		return err
	}
	ok, err := s.snippets.DeleteSnippet(ctx, agentID, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: snippet", ErrNotFound)
	}
	return nil
}

// Upload extracts the text of a document and stores it as one snippet.
// Nothing is stored when extraction fails.
func (s *KnowledgeService) Upload(ctx context.Context, ownerID, agentID, filename, title string, data []byte) (*store.KnowledgeSnippet, error) {
	if err := s.ownedAgent(ctx, ownerID, agentID); err != nil {
		return nil, err
	}
	if !extract.Supported(filename) {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrDocumentExtraction, filepath.Ext(filename))
	}

	body, err := extract.Text(filename, data)
	if err != nil {
		s.logger.Warn("document extraction failed", zap.String("agent_id", agentID), zap.String("filename", filename), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDocumentExtraction, err)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = filepath.Base(filename)
	}
	k := &store.KnowledgeSnippet{AgentID: agentID, Title: title, Body: body}
	if err := s.snippets.CreateSnippet(ctx, k); err != nil {
		return nil, err
	}
	s.logger.Info("document ingested", zap.String("agent_id", agentID), zap.String("snippet_id", k.ID), zap.Int("chars", len(body)))
	return k, nil
}
