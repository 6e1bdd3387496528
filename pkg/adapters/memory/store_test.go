package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway/pkg/adapters/memory"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports/tests"
)

func TestCursorStore_Contract(t *testing.T) {
	tests.CursorStoreContract(t, memory.NewCursorStore())
}

func TestModuleRepository_Contract(t *testing.T) {
	tests.ModuleRepositoryContract(t, memory.NewModuleRepository())
}

func TestRuleRepository_Contract(t *testing.T) {
	repo := memory.NewRuleRepository()
	t.Run("Variables", func(t *testing.T) { tests.VariableRepositoryContract(t, repo) })
	t.Run("Conditions", func(t *testing.T) { tests.ConditionRepositoryContract(t, repo) })
}

func TestLearnerStore_Contract(t *testing.T) {
	store := memory.NewLearnerStore()
	t.Run("LearnerState", func(t *testing.T) { tests.LearnerStateStoreContract(t, store) })
	t.Run("Completions", func(t *testing.T) { tests.CompletionStoreContract(t, store) })
	t.Run("Progress", func(t *testing.T) { tests.ProgressStoreContract(t, store) })
}

func TestLocker_Contract(t *testing.T) {
	tests.LockerContract(t, memory.NewLocker())
}

func TestNewStores(t *testing.T) {
	stores := memory.NewStores(tests.SampleModule("m1"))
	assert.Empty(t, stores.Missing())

	m, err := stores.Modules.GetModule(t.Context(), "m1")
	require.NoError(t, err)
	assert.Len(t, m.Nodes, 3)

	_, err = memory.NewFromNodes("m2", domain.Node{Type: domain.NodeTypeMessage})
	assert.Error(t, err)
}
