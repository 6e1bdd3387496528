package ports

import (
	"context"

	"github.com/aretw0/pathway/pkg/domain"
)

// LearnerStateStore stores per learner module state.
type LearnerStateStore interface {
	// GetOrCreateLearnerState returns the state of the learner in the module,
	// creating an empty one stamped with the current time on first access.
	GetOrCreateLearnerState(ctx context.Context, moduleID, userID string) (*domain.LearnerState, error)

	// UpdateLearnerState applies a partial update and returns the stored result.
	// The state is created first when missing.
	UpdateLearnerState(ctx context.Context, moduleID, userID string, update domain.LearnerStateUpdate) (*domain.LearnerState, error)
}

// CompletionStore records finished passes through modules.
type CompletionStore interface {
	InsertCompletion(ctx context.Context, c domain.Completion) error

	// ListCompletions returns the learner's completions of the module, oldest first.
	ListCompletions(ctx context.Context, moduleID, userID string) ([]domain.Completion, error)
}

// ProgressStore tracks which nodes a learner visited.
type ProgressStore interface {
	// UpdateProgress sets the current node and records it as visited.
	UpdateProgress(ctx context.Context, moduleID, userID, nodeID string) error

	// GetProgress returns domain.ErrProgressNotFound when nothing was recorded.
	GetProgress(ctx context.Context, moduleID, userID string) (*domain.Progress, error)
}

// Stores bundles every port the engine persists through. Backends may mix adapters,
// e.g. SQLite for modules and Redis for cursors.
type Stores struct {
	Modules     ModuleRepository
	Variables   VariableRepository
	Conditions  ConditionRepository
	Learners    LearnerStateStore
	Completions CompletionStore
	Progress    ProgressStore
	Cursors     CursorStore
}

// IsZero reports whether no port is set.
func (s Stores) IsZero() bool {
	return s.Modules == nil && s.Variables == nil && s.Conditions == nil && s.Learners == nil &&
		s.Completions == nil && s.Progress == nil && s.Cursors == nil
}

// Missing lists the names of nil ports.
func (s Stores) Missing() []string {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("modules", s.Modules != nil)
	check("variables", s.Variables != nil)
	check("conditions", s.Conditions != nil)
	check("learners", s.Learners != nil)
	check("completions", s.Completions != nil)
	check("progress", s.Progress != nil)
	check("cursors", s.Cursors != nil)
	return missing
}
