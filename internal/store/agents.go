package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const agentColumns = "id, user_id, name, instruction, primary_color, telegram_token, created_at, updated_at"

func scanAgent(row interface{ Scan(...any) error }, extra ...any) (*Agent, error) {
	var a Agent
	var token sql.NullString
	dest := append([]any{&a.ID, &a.UserID, &a.Name, &a.Instruction, &a.PrimaryColor, &token, &a.CreatedAt, &a.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if token.Valid {
		a.TelegramToken = &token.String
	}
	return &a, nil
}

func (s *Store) CreateAgent(ctx context.Context, a *Agent) error {
	a.ID = uuid.NewString()
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt
	if a.PrimaryColor == "" {
		a.PrimaryColor = DefaultPrimaryColor
	}
	_, err := s.exec(ctx,
		"INSERT INTO agents ("+agentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.UserID, a.Name, a.Instruction, a.PrimaryColor, a.TelegramToken, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert agent: %w", err)
	}
	return nil
}

// GetAgent looks an agent up by id regardless of owner.
func (s *Store) GetAgent(ctx context.Context, id string) (*Agent, error) {
	a, err := scanAgent(s.queryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return a, nil
}

func (s *Store) GetAgentForOwner(ctx context.Context, id, userID string) (*Agent, error) {
	a, err := scanAgent(s.queryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = ? AND user_id = ?", id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return a, nil
}

func (s *Store) ListAgentsByOwner(ctx context.Context, userID string) ([]Agent, error) {
	rows, err := s.query(ctx, "SELECT "+agentColumns+" FROM agents WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	agents := []Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent row: %w", err)
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

// ListAgentOverviews returns every agent with its owner and usage counts.
func (s *Store) ListAgentOverviews(ctx context.Context) ([]AgentOverview, error) {
	rows, err := s.query(ctx, `SELECT a.id, a.user_id, a.name, a.instruction, a.primary_color, a.telegram_token, a.created_at, a.updated_at,
        u.email, u.name,
        (SELECT COUNT(*) FROM sessions c WHERE c.agent_id = a.id),
        (SELECT COUNT(*) FROM knowledge_snippets k WHERE k.agent_id = a.id)
        FROM agents a JOIN users u ON u.id = a.user_id
        ORDER BY a.created_at DESC, a.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent overviews: %w", err)
	}
	defer rows.Close()

	overviews := []AgentOverview{}
	for rows.Next() {
		var o AgentOverview
		a, err := scanAgent(rows, &o.OwnerEmail, &o.OwnerName, &o.ConversationCount, &o.DocumentCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent overview row: %w", err)
		}
		o.Agent = *a
		overviews = append(overviews, o)
	}
	return overviews, rows.Err()
}

// UpdateAgent writes the mutable settings of an agent owned by a.UserID.
func (s *Store) UpdateAgent(ctx context.Context, a *Agent) (bool, error) {
	a.UpdatedAt = now()
	res, err := s.exec(ctx,
		"UPDATE agents SET name = ?, instruction = ?, primary_color = ?, telegram_token = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		a.Name, a.Instruction, a.PrimaryColor, a.TelegramToken, a.UpdatedAt, a.ID, a.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to update agent: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// DeleteAgent removes an owned agent, cascading to its knowledge and
// conversations.
func (s *Store) DeleteAgent(ctx context.Context, id, userID string) (bool, error) {
	res, err := s.exec(ctx, "DELETE FROM agents WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete agent: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}
