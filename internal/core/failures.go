package core

import (
	"context"

	"agentdesk.io/agentdesk/internal/store"
	"go.uber.org/zap"
)

type FailureStore interface {
	RecordFailure(ctx context.Context, f *store.WebhookFailure) error
}

// FailureRecorder keeps a durable trail of channel failures that cannot be
// reported back to the sender.
type FailureRecorder interface {
	Record(ctx context.Context, channel, agentID string, err error)
}

// FailureLog logs each failure and persists it for the admin panel.
type FailureLog struct {
	store  FailureStore
	logger *zap.Logger
}

func NewFailureLog(s FailureStore, logger *zap.Logger) *FailureLog {
	return &FailureLog{store: s, logger: logger}
}

func (f *FailureLog) Record(ctx context.Context, channel, agentID string, err error) {
	f.logger.Error("channel delivery failed",
		zap.String("channel", channel),
		zap.String("agent_id", agentID),
		zap.Error(err))

	// The request may already be cancelled; the record should still land.
	ctx = context.WithoutCancel(ctx)
	rec := &store.WebhookFailure{Channel: channel, AgentID: agentID, Error: err.Error()}
	if perr := f.store.RecordFailure(ctx, rec); perr != nil {
		f.logger.Error("failed to persist channel failure", zap.String("agent_id", agentID), zap.Error(perr))
	}
}
