package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const snippetColumns = "id, agent_id, title, body, created_at, updated_at"

func scanSnippet(row interface{ Scan(...any) error }) (*KnowledgeSnippet, error) {
	var k KnowledgeSnippet
	if err := row.Scan(&k.ID, &k.AgentID, &k.Title, &k.Body, &k.CreatedAt, &k.UpdatedAt); err != nil {
		return nil, err
	}
	return &k, nil
}

func (s *Store) CreateSnippet(ctx context.Context, k *KnowledgeSnippet) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate snippet id: %w", err)
	}
	k.ID = id.String()
	k.CreatedAt = now()
	k.UpdatedAt = k.CreatedAt

	_, err = s.exec(ctx,
		"INSERT INTO knowledge_snippets ("+snippetColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		k.ID, k.AgentID, k.Title, k.Body, k.CreatedAt, k.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert snippet: %w", err)
	}
	return nil
}

func (s *Store) GetSnippet(ctx context.Context, agentID, id string) (*KnowledgeSnippet, error) {
	k, err := scanSnippet(s.queryRow(ctx, "SELECT "+snippetColumns+" FROM knowledge_snippets WHERE id = ? AND agent_id = ?", id, agentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snippet: %w", err)
	}
	return k, nil
}

// ListSnippets returns an agent's snippets in creation order.
func (s *Store) ListSnippets(ctx context.Context, agentID string) ([]KnowledgeSnippet, error) {
	rows, err := s.query(ctx, "SELECT "+snippetColumns+" FROM knowledge_snippets WHERE agent_id = ? ORDER BY created_at ASC, id ASC", agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snippets: %w", err)
	}
	defer rows.Close()

	snippets := []KnowledgeSnippet{}
	for rows.Next() {
		k, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snippet row: %w", err)
		}
		snippets = append(snippets, *k)
	}
	return snippets, rows.Err()
}

func (s *Store) UpdateSnippet(ctx context.Context, k *KnowledgeSnippet) (bool, error) {
	k.UpdatedAt = now()
	res, err := s.exec(ctx,
		"UPDATE knowledge_snippets SET title = ?, body = ?, updated_at = ? WHERE id = ? AND agent_id = ?",
		k.Title, k.Body, k.UpdatedAt, k.ID, k.AgentID)
	if err != nil {
		return false, fmt.Errorf("failed to update snippet: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (s *Store) DeleteSnippet(ctx context.Context, agentID, id string) (bool, error) {
	res, err := s.exec(ctx, "DELETE FROM knowledge_snippets WHERE id = ? AND agent_id = ?", id, agentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete snippet: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}
