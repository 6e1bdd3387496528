package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
	"github.com/aretw0/pathway/pkg/ports/tests"
)

var (
	_ ports.ModuleRepository    = (*Store)(nil)
	_ ports.VariableRepository  = (*Store)(nil)
	_ ports.ConditionRepository = (*Store)(nil)
	_ ports.CompletionStore     = (*Store)(nil)
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "pathway.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_Contract(t *testing.T) {
	store := createTestStore(t)

	t.Run("Modules", func(t *testing.T) { tests.ModuleRepositoryContract(t, store) })
	t.Run("Variables", func(t *testing.T) { tests.VariableRepositoryContract(t, store) })
	t.Run("Conditions", func(t *testing.T) { tests.ConditionRepositoryContract(t, store) })
	t.Run("Completions", func(t *testing.T) { tests.CompletionStoreContract(t, store) })
}

func TestOpen_Pragmas(t *testing.T) {
	store := createTestStore(t)

	var mode string
	require.NoError(t, store.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	version, err := schemaVersion(store.DB())
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathway.db")
	ctx := context.Background()

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.UpsertModule(ctx, tests.SampleModule("kept")))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	m, err := second.GetModule(ctx, "kept")
	require.NoError(t, err)
	assert.Len(t, m.Nodes, 3)
}

func TestUpsertModule_KeepsCreatedAt(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	m := tests.SampleModule("m")
	require.NoError(t, store.UpsertModule(ctx, m))

	later := m.Clone()
	later.CreatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	later.UpdatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	later.Published = true
	require.NoError(t, store.UpsertModule(ctx, later))

	got, err := store.GetModule(ctx, "m")
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(m.CreatedAt), "created_at is set once")
	assert.True(t, got.UpdatedAt.Equal(later.UpdatedAt))
	assert.True(t, got.Published)
	assert.Equal(t, domain.AccessPublic, got.AccessType)
}

func TestSaveCondition_Defaults(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCondition(ctx, domain.Condition{
		ID: "c", ModuleID: "m", SourceNodeID: "r", TargetVariableID: "v",
		ConditionType: domain.CondEquals, ConditionValue: "yes",
		ActionType: domain.ActionSetVariable, ActionValue: "1",
	}))

	conds, err := store.GetConditions(ctx, "m", "r")
	require.NoError(t, err)
	require.Len(t, conds, 1)
	assert.Equal(t, domain.ExpressionSimple, conds[0].ExpressionType)
	assert.Equal(t, domain.OperatorAnd, conds[0].ConditionOperator)
	assert.Equal(t, "yes", conds[0].ConditionValue)
}

func TestSaveVariable_NullDefault(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveVariable(ctx, domain.Variable{ID: "v", ModuleID: "m", Name: "flag", VarType: domain.VarBoolean}))

	vars, err := store.GetVariables(ctx, "m")
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.Nil(t, vars[0].DefaultValue)
}

func TestInsertCompletion_DuplicateID(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	c := domain.Completion{ID: "dup", ModuleID: "m", UserID: "u", CompletedAt: time.Now()}

	require.NoError(t, store.InsertCompletion(ctx, c))
	require.NoError(t, store.InsertCompletion(ctx, c))

	list, err := store.ListCompletions(ctx, "m", "u")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Empty(t, list[0].Choices)
}
