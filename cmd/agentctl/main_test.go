package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"agentdesk.io/agentdesk/internal/config"
	"agentdesk.io/agentdesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateAndPromote(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		DatabaseURL:    filepath.Join(t.TempDir(), "ctl.db"),
		DBMaxOpenConns: 1,
		SessionTTL:     time.Hour,
	}
	logger := zap.NewNop()

	require.NoError(t, run(ctx, cfg, logger, "create-user", []string{"-email", "Ops@Example.com", "-password", "password1"}))
	require.NoError(t, run(ctx, cfg, logger, "promote-admin", []string{"-email", "ops@example.com"}))
	require.NoError(t, run(ctx, cfg, logger, "ping-db", nil))
	require.NoError(t, run(ctx, cfg, logger, "list-bots", nil))

	s, err := store.Open(ctx, cfg.DatabaseURL, 1)
	require.NoError(t, err)
	defer s.Close()
	u, err := s.GetUserByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, store.RoleAdmin, u.Role)
}

func TestRunRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DatabaseURL: filepath.Join(t.TempDir(), "ctl.db"), DBMaxOpenConns: 1}

	assert.Error(t, run(ctx, cfg, zap.NewNop(), "launch-rockets", nil))
	assert.Error(t, run(ctx, cfg, zap.NewNop(), "create-user", []string{"-email", "a@b.c", "-password", "short"}))
	assert.Error(t, run(ctx, cfg, zap.NewNop(), "promote-admin", []string{"-email", "nobody@b.c"}))
}
