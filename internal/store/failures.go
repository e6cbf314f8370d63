package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (s *Store) RecordFailure(ctx context.Context, f *WebhookFailure) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate failure id: %w", err)
	}
	f.ID = id.String()
	f.CreatedAt = now()
	_, err = s.exec(ctx,
		"INSERT INTO webhook_failures (id, channel, agent_id, error, created_at) VALUES (?, ?, ?, ?, ?)",
		f.ID, f.Channel, f.AgentID, f.Error, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert webhook failure: %w", err)
	}
	return nil
}

func (s *Store) ListFailures(ctx context.Context, limit int) ([]WebhookFailure, error) {
	rows, err := s.query(ctx,
		"SELECT id, channel, agent_id, error, created_at FROM webhook_failures ORDER BY created_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook failures: %w", err)
	}
	defer rows.Close()

	failures := []WebhookFailure{}
	for rows.Next() {
		var f WebhookFailure
		if err := rows.Scan(&f.ID, &f.Channel, &f.AgentID, &f.Error, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan webhook failure row: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
