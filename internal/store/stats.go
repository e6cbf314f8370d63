package store

import (
	"context"
	"fmt"
)

const recentUsersLimit = 5

// Stats aggregates platform-wide totals for the admin overview.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	counts := []struct {
		table string
		dest  *int64
	}{
		{"users", &st.TotalUsers},
		{"agents", &st.TotalBots},
		{"sessions", &st.TotalConversations},
		{"messages", &st.TotalMessages},
		{"knowledge_snippets", &st.TotalDocuments},
	}
	for _, c := range counts {
		if err := s.queryRow(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	recent, err := s.ListUsers(ctx, recentUsersLimit)
	if err != nil {
		return nil, err
	}
	st.RecentUsers = recent
	return &st, nil
}
