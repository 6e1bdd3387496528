package ports

import (
	"context"

	"github.com/aretw0/pathway/pkg/domain"
)

// ModuleRepository stores authored modules.
type ModuleRepository interface {
	// GetModule returns domain.ErrModuleNotFound for unknown ids.
	GetModule(ctx context.Context, id string) (*domain.Module, error)

	// UpsertModule creates or replaces a module. Last writer wins.
	UpsertModule(ctx context.Context, m *domain.Module) error

	// ListModules returns every module id, sorted.
	ListModules(ctx context.Context) ([]string, error)
}

// ModuleWatcher is implemented by repositories that can notify about external changes.
type ModuleWatcher interface {
	// Watch emits the id of every module that changed until ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}

// VariableRepository stores module variables.
type VariableRepository interface {
	GetVariables(ctx context.Context, moduleID string) ([]domain.Variable, error)
	SaveVariable(ctx context.Context, v domain.Variable) error
}

// ConditionRepository stores the conditions attached to router nodes.
type ConditionRepository interface {
	// GetConditions returns the conditions of module moduleID whose source is nodeID,
	// by ascending priority.
	GetConditions(ctx context.Context, moduleID, nodeID string) ([]domain.Condition, error)
	SaveCondition(ctx context.Context, c domain.Condition) error
	DeleteCondition(ctx context.Context, id string) error
}
