// Package tests holds reusable contract suites that every adapter of the ports
// interfaces is expected to pass.
package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
)

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// SampleModule builds a small valid module: a message leading to a router with two
// targets.
func SampleModule(id string) *domain.Module {
	return &domain.Module{
		ID:         id,
		Title:      "Sample " + id,
		AccessType: domain.AccessPublic,
		Nodes: []domain.Node{
			{ID: "intro", Type: domain.NodeTypeMessage, Position: domain.Position{X: 0, Y: 0},
				Data: domain.NodeData{Title: "Welcome", Content: "Hello", NextNodeID: "pick"}},
			{ID: "pick", Type: domain.NodeTypeRouter, Position: domain.Position{X: 0, Y: 120},
				Data: domain.NodeData{Question: "Continue?", Choices: []domain.Choice{
					{Text: "Yes", NextNodeID: "end"}, {Text: "No", NextNodeID: "intro"},
				}}},
			{ID: "end", Type: domain.NodeTypeMessage, Data: domain.NodeData{Title: "Bye"}},
		},
		Edges: []domain.Edge{
			{ID: "eintro-pick", Source: "intro", Target: "pick"},
			{ID: "epick-end-0", Source: "pick", Target: "end", SourceHandle: "choice-0"},
			{ID: "epick-intro-1", Source: "pick", Target: "intro", SourceHandle: "choice-1"},
		},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// CursorStoreContract verifies a ports.CursorStore implementation.
func CursorStoreContract(t *testing.T, store ports.CursorStore) {
	t.Helper()
	ctx := context.Background()
	key := domain.SessionKey(uniqueID("module"), "learner")

	t.Run("Save and Load", func(t *testing.T) {
		cur := &domain.Cursor{
			ModuleID:      "m",
			UserID:        "u",
			CurrentNodeID: "a",
			OverlayNodeID: "o",
			HasInteracted: true,
			History:       []string{"a", "o"},
		}
		require.NoError(t, store.Save(ctx, key, cur))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, cur, loaded)

		loaded.History[0] = "mutated"
		again, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "a", again.History[0], "loaded cursors must not alias stored data")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, &domain.Cursor{CurrentNodeID: "a", History: []string{"a"}}))
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		assert.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		k1, k2 := key+"-1", key+"-2"
		require.NoError(t, store.Save(ctx, k1, &domain.Cursor{History: []string{}}))
		require.NoError(t, store.Save(ctx, k2, &domain.Cursor{History: []string{}}))
		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}

// ModuleRepositoryContract verifies a ports.ModuleRepository implementation.
func ModuleRepositoryContract(t *testing.T, repo ports.ModuleRepository) {
	t.Helper()
	ctx := context.Background()
	id := uniqueID("module")

	t.Run("Upsert and Get", func(t *testing.T) {
		m := SampleModule(id)
		require.NoError(t, repo.UpsertModule(ctx, m))

		got, err := repo.GetModule(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, m.Title, got.Title)
		assert.Equal(t, m.Nodes, got.Nodes)
		assert.Equal(t, m.Edges, got.Edges)
		assert.True(t, m.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("Upsert replaces", func(t *testing.T) {
		m := SampleModule(id)
		m.Title = "Renamed"
		m.Nodes = m.Nodes[:1]
		m.Nodes[0].Data.NextNodeID = ""
		m.Edges = nil
		require.NoError(t, repo.UpsertModule(ctx, m))

		got, err := repo.GetModule(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Len(t, got.Nodes, 1)
		assert.Empty(t, got.Edges)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := repo.GetModule(ctx, "missing-"+id)
		assert.ErrorIs(t, err, domain.ErrModuleNotFound)
	})

	t.Run("List", func(t *testing.T) {
		ids, err := repo.ListModules(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id)
	})
}

// VariableRepositoryContract verifies a ports.VariableRepository implementation.
func VariableRepositoryContract(t *testing.T, repo ports.VariableRepository) {
	t.Helper()
	ctx := context.Background()
	moduleID := uniqueID("module")

	score := domain.Variable{ID: moduleID + "-score", ModuleID: moduleID, Name: "score", VarType: domain.VarNumber, DefaultValue: 3}
	tags := domain.Variable{ID: moduleID + "-tags", ModuleID: moduleID, Name: "tags", VarType: domain.VarArray, DefaultValue: []any{"a"}}
	require.NoError(t, repo.SaveVariable(ctx, score))
	require.NoError(t, repo.SaveVariable(ctx, tags))

	vars, err := repo.GetVariables(ctx, moduleID)
	require.NoError(t, err)
	require.Len(t, vars, 2)

	byName := map[string]domain.Variable{}
	for _, v := range vars {
		byName[v.Name] = v
	}
	assert.EqualValues(t, 3, byName["score"].DefaultValue)
	assert.Equal(t, domain.VarArray, byName["tags"].VarType)

	score.DefaultValue = 5
	require.NoError(t, repo.SaveVariable(ctx, score))
	vars, err = repo.GetVariables(ctx, moduleID)
	require.NoError(t, err)
	assert.Len(t, vars, 2, "saving an existing id replaces it")

	empty, err := repo.GetVariables(ctx, "missing-"+moduleID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// ConditionRepositoryContract verifies a ports.ConditionRepository implementation.
func ConditionRepositoryContract(t *testing.T, repo ports.ConditionRepository) {
	t.Helper()
	ctx := context.Background()
	moduleID := uniqueID("module")
	nodeID := uniqueID("router")

	for i, p := range []int{5, 1, 3} {
		require.NoError(t, repo.SaveCondition(ctx, domain.Condition{
			ID:               fmt.Sprintf("%s-c%d", nodeID, i),
			ModuleID:         moduleID,
			SourceNodeID:     nodeID,
			TargetVariableID: "v",
			ConditionType:    domain.CondInArray,
			ConditionValue:   []any{"x", float64(p)},
			ActionType:       domain.ActionSetVariable,
			ActionValue:      "0",
			Priority:         p,
		}))
	}

	// Same router id in another module.
	require.NoError(t, repo.SaveCondition(ctx, domain.Condition{
		ID:               nodeID + "-other",
		ModuleID:         "other-" + moduleID,
		SourceNodeID:     nodeID,
		TargetVariableID: "v",
		ConditionType:    domain.CondEquals,
		ConditionValue:   "y",
		ActionType:       domain.ActionSetVariable,
		ActionValue:      "0",
	}))

	conds, err := repo.GetConditions(ctx, moduleID, nodeID)
	require.NoError(t, err)
	require.Len(t, conds, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{conds[0].Priority, conds[1].Priority, conds[2].Priority})
	assert.Equal(t, []any{"x", float64(1)}, conds[0].ConditionValue)

	require.NoError(t, repo.DeleteCondition(ctx, nodeID+"-c1"))
	conds, err = repo.GetConditions(ctx, moduleID, nodeID)
	require.NoError(t, err)
	assert.Len(t, conds, 2)

	other, err := repo.GetConditions(ctx, "other-"+moduleID, nodeID)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, nodeID+"-other", other[0].ID)
}

// LearnerStateStoreContract verifies a ports.LearnerStateStore implementation.
func LearnerStateStoreContract(t *testing.T, store ports.LearnerStateStore) {
	t.Helper()
	ctx := context.Background()
	moduleID := uniqueID("module")

	first, err := store.GetOrCreateLearnerState(ctx, moduleID, "u1")
	require.NoError(t, err)
	assert.Empty(t, first.VariablesState)
	assert.False(t, first.CreatedAt.IsZero())

	again, err := store.GetOrCreateLearnerState(ctx, moduleID, "u1")
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt), "second call must not recreate")

	updated, err := store.UpdateLearnerState(ctx, moduleID, "u1", domain.LearnerStateUpdate{
		VariablesState: map[string]any{"score": 1, "name": "ada"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated.VariablesState["score"])

	updated, err = store.UpdateLearnerState(ctx, moduleID, "u1", domain.LearnerStateUpdate{
		VariablesState: map[string]any{"score": 2},
		History:        []domain.InteractionRecord{{Type: domain.NodeTypeTextInput, NodeID: "q", Answer: "hi"}},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated.VariablesState["score"])
	assert.Equal(t, "ada", updated.VariablesState["name"], "variables merge")
	require.Len(t, updated.History, 1)

	loaded, err := store.GetOrCreateLearnerState(ctx, moduleID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "q", loaded.History[0].NodeID)

	other, err := store.UpdateLearnerState(ctx, moduleID, "u2", domain.LearnerStateUpdate{VariablesState: map[string]any{"x": true}})
	require.NoError(t, err)
	assert.Equal(t, true, other.VariablesState["x"])
}

// CompletionStoreContract verifies a ports.CompletionStore implementation.
func CompletionStoreContract(t *testing.T, store ports.CompletionStore) {
	t.Helper()
	ctx := context.Background()
	moduleID := uniqueID("module")
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 2; i >= 0; i-- {
		require.NoError(t, store.InsertCompletion(ctx, domain.Completion{
			ID:               fmt.Sprintf("%s-%d", moduleID, i),
			ModuleID:         moduleID,
			UserID:           "u",
			Choices:          []domain.InteractionRecord{{Type: domain.NodeTypeRouter, NodeID: "r", Answer: "Yes"}},
			TimeSpentSeconds: int64(60 * (i + 1)),
			StartedAt:        base,
			CompletedAt:      base.Add(time.Duration(i+1) * time.Minute),
		}))
	}

	list, err := store.ListCompletions(ctx, moduleID, "u")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, moduleID+"-0", list[0].ID)
	assert.Equal(t, moduleID+"-2", list[2].ID)
	assert.EqualValues(t, 60, list[0].TimeSpentSeconds)
	assert.Equal(t, "Yes", list[0].Choices[0].Answer)

	none, err := store.ListCompletions(ctx, moduleID, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// ProgressStoreContract verifies a ports.ProgressStore implementation.
func ProgressStoreContract(t *testing.T, store ports.ProgressStore) {
	t.Helper()
	ctx := context.Background()
	moduleID := uniqueID("module")

	_, err := store.GetProgress(ctx, moduleID, "u")
	assert.ErrorIs(t, err, domain.ErrProgressNotFound)

	for _, id := range []string{"a", "b", "a", "c"} {
		require.NoError(t, store.UpdateProgress(ctx, moduleID, "u", id))
	}

	p, err := store.GetProgress(ctx, moduleID, "u")
	require.NoError(t, err)
	assert.Equal(t, "c", p.CurrentNodeID)
	assert.Equal(t, []string{"a", "b", "c"}, p.CompletedNodes)
}

// LockerContract verifies a ports.DistributedLocker implementation.
func LockerContract(t *testing.T, locker ports.DistributedLocker) {
	t.Helper()
	ctx := context.Background()
	key := uniqueID("lock")

	t.Run("Mutual exclusion", func(t *testing.T) {
		var inside, maxInside int32
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, key, 5*time.Second)
				if !assert.NoError(t, err) {
					return
				}
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				assert.NoError(t, unlock(ctx))
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 1, maxInside)
	})

	t.Run("Context cancellation", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(short, key, 5*time.Second)
		assert.Error(t, err)
	})
}
