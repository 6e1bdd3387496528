package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/pathway/pkg/domain"
)

// InsertCompletion records a finished pass. Re-inserting an id is a no-op.
func (s *Store) InsertCompletion(ctx context.Context, c domain.Completion) error {
	choices, err := json.Marshal(nonNil(c.Choices))
	if err != nil {
		return fmt.Errorf("failed to encode choices: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO completions (id, module_id, user_id, choices, time_spent_seconds, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		c.ID, c.ModuleID, c.UserID, string(choices), c.TimeSpentSeconds,
		toUnix(c.StartedAt), toUnix(c.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to insert completion %s: %w", c.ID, err)
	}
	return nil
}

// ListCompletions returns completions oldest first.
func (s *Store) ListCompletions(ctx context.Context, moduleID, userID string) ([]domain.Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, module_id, user_id, choices, time_spent_seconds, started_at, completed_at
		FROM completions WHERE module_id = ? AND user_id = ?
		ORDER BY completed_at, id`, moduleID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	out := []domain.Completion{}
	for rows.Next() {
		var (
			c                    domain.Completion
			choices              string
			startedAt, completed int64
		)
		if err := rows.Scan(&c.ID, &c.ModuleID, &c.UserID, &choices, &c.TimeSpentSeconds, &startedAt, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		if err := json.Unmarshal([]byte(choices), &c.Choices); err != nil {
			return nil, fmt.Errorf("failed to decode choices of %s: %w", c.ID, err)
		}
		c.StartedAt = fromUnix(startedAt)
		c.CompletedAt = fromUnix(completed)
		out = append(out, c)
	}
	return out, rows.Err()
}
