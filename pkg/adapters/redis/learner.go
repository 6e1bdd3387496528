package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/pathway/pkg/domain"
)

func (s *Store) learnerKey(moduleID, userID string) string {
	return s.prefix + "learner:" + domain.SessionKey(moduleID, userID)
}

func (s *Store) progressKey(moduleID, userID string) string {
	return s.prefix + "progress:" + domain.SessionKey(moduleID, userID)
}

func (s *Store) completionsKey(moduleID, userID string) string {
	return s.prefix + "completions:" + domain.SessionKey(moduleID, userID)
}

// GetOrCreateLearnerState creates the state with SETNX so concurrent first visits
// agree on a single created_at.
func (s *Store) GetOrCreateLearnerState(ctx context.Context, moduleID, userID string) (*domain.LearnerState, error) {
	key := s.learnerKey(moduleID, userID)
	fresh, err := json.Marshal(domain.NewLearnerState(moduleID, userID, s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal learner state: %w", err)
	}
	if err := s.client.SetNX(ctx, key, fresh, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to create learner state: %w", err)
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to get learner state: %w", err)
	}
	return decodeLearner(raw)
}

// UpdateLearnerState merges the update inside a WATCH transaction.
func (s *Store) UpdateLearnerState(ctx context.Context, moduleID, userID string, update domain.LearnerStateUpdate) (*domain.LearnerState, error) {
	key := s.learnerKey(moduleID, userID)
	var out *domain.LearnerState

	err := s.optimistic(ctx, key, func(tx *backend.Tx) error {
		st := domain.NewLearnerState(moduleID, userID, s.now())
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if st, err = decodeLearner(raw); err != nil {
				return err
			}
		case !errors.Is(err, backend.Nil):
			return err
		}

		update.Apply(st, s.now())
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to marshal learner state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		out = st
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update learner state: %w", err)
	}
	return out, nil
}

func decodeLearner(raw []byte) (*domain.LearnerState, error) {
	var st domain.LearnerState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal learner state: %w", err)
	}
	if st.VariablesState == nil {
		st.VariablesState = make(map[string]any)
	}
	return &st, nil
}

// UpdateProgress records a visit inside a WATCH transaction.
func (s *Store) UpdateProgress(ctx context.Context, moduleID, userID, nodeID string) error {
	key := s.progressKey(moduleID, userID)
	err := s.optimistic(ctx, key, func(tx *backend.Tx) error {
		p := domain.Progress{ModuleID: moduleID, UserID: userID, CompletedNodes: []string{}}
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("failed to unmarshal progress: %w", err)
			}
		case !errors.Is(err, backend.Nil):
			return err
		}

		p.Visit(nodeID, s.now())
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

func (s *Store) GetProgress(ctx context.Context, moduleID, userID string) (*domain.Progress, error) {
	raw, err := s.client.Get(ctx, s.progressKey(moduleID, userID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	var p domain.Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return &p, nil
}

// InsertCompletion adds the completion to a sorted set scored by completion time.
func (s *Store) InsertCompletion(ctx context.Context, c domain.Completion) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal completion: %w", err)
	}
	err = s.client.ZAdd(ctx, s.completionsKey(c.ModuleID, c.UserID), backend.Z{
		Score:  float64(c.CompletedAt.UnixMilli()),
		Member: data,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to insert completion: %w", err)
	}
	return nil
}

func (s *Store) ListCompletions(ctx context.Context, moduleID, userID string) ([]domain.Completion, error) {
	members, err := s.client.ZRange(ctx, s.completionsKey(moduleID, userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	out := make([]domain.Completion, 0, len(members))
	for _, m := range members {
		var c domain.Completion
		if err := json.Unmarshal([]byte(m), &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal completion: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}
