package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const sessionColumns = "id, agent_id, token, channel, created_at"

func scanSession(row interface{ Scan(...any) error }, extra ...any) (*Session, error) {
	var c Session
	dest := append([]any{&c.ID, &c.AgentID, &c.Token, &c.Channel, &c.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &c, nil
}

// EnsureSession returns the session for (agentID, token), creating it if
// needed. Concurrent first contact with the same token resolves to one row.
func (s *Store) EnsureSession(ctx context.Context, agentID, token, channel string) (*Session, error) {
	_, err := s.exec(ctx,
		"INSERT INTO sessions ("+sessionColumns+") VALUES (?, ?, ?, ?, ?) ON CONFLICT (agent_id, token) DO NOTHING",
		uuid.NewString(), agentID, token, channel, now())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert session: %w", err)
	}

	c, err := scanSession(s.queryRow(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE agent_id = ? AND token = ?", agentID, token))
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return c, nil
}

func (s *Store) CountSessions(ctx context.Context, agentID, token string) (int, error) {
	var n int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM sessions WHERE agent_id = ? AND token = ?", agentID, token).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// CreateMessage assigns a time-ordered id and UTC timestamp and inserts.
func (s *Store) CreateMessage(ctx context.Context, msg *Message) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate message id: %w", err)
	}
	msg.ID = id.String()
	msg.CreatedAt = now()

	_, err = s.exec(ctx,
		"INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns a session's messages oldest first.
func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.query(ctx,
		"SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY created_at ASC, id ASC",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

const overviewSelect = `SELECT c.id, c.agent_id, c.token, c.channel, c.created_at,
        a.name, u.email,
        (SELECT COUNT(*) FROM messages m WHERE m.session_id = c.id)
        FROM sessions c
        JOIN agents a ON a.id = c.agent_id
        JOIN users u ON u.id = a.user_id`

func (s *Store) listOverviews(ctx context.Context, query string, args ...any) ([]ConversationOverview, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	overviews := []ConversationOverview{}
	for rows.Next() {
		var o ConversationOverview
		c, err := scanSession(rows, &o.AgentName, &o.OwnerEmail, &o.MessageCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		o.Session = *c
		overviews = append(overviews, o)
	}
	return overviews, rows.Err()
}

// ListConversationsByOwner returns conversations across all of a user's
// agents, newest first.
func (s *Store) ListConversationsByOwner(ctx context.Context, userID string, limit int) ([]ConversationOverview, error) {
	return s.listOverviews(ctx, overviewSelect+" WHERE a.user_id = ? ORDER BY c.created_at DESC, c.id DESC LIMIT ?", userID, limit)
}

// ListRecentConversations returns the newest conversations across tenants.
func (s *Store) ListRecentConversations(ctx context.Context, limit int) ([]ConversationOverview, error) {
	return s.listOverviews(ctx, overviewSelect+" ORDER BY c.created_at DESC, c.id DESC LIMIT ?", limit)
}

func (s *Store) GetConversationForOwner(ctx context.Context, id, userID string) (*ConversationOverview, error) {
	overviews, err := s.listOverviews(ctx, overviewSelect+" WHERE c.id = ? AND a.user_id = ?", id, userID)
	if err != nil {
		return nil, err
	}
	if len(overviews) == 0 {
		return nil, nil
	}
	return &overviews[0], nil
}

// GetSession is used by tests and diagnostics.
func (s *Store) GetSession(ctx context.Context, agentID, token string) (*Session, error) {
	c, err := scanSession(s.queryRow(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE agent_id = ? AND token = ?", agentID, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return c, nil
}
