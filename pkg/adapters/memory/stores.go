package memory

import (
	"time"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
)

// NewStores wires every port to an in-memory adapter, seeded with modules.
func NewStores(modules ...*domain.Module) ports.Stores {
	return NewStoresWithClock(time.Now, modules...)
}

// NewStoresWithClock is NewStores with a custom clock for learner timestamps.
func NewStoresWithClock(now func() time.Time, modules ...*domain.Module) ports.Stores {
	rules := NewRuleRepository()
	learners := NewLearnerStore(WithClock(now))
	return ports.Stores{
		Modules:     NewModuleRepository(modules...),
		Variables:   rules,
		Conditions:  rules,
		Learners:    learners,
		Completions: learners,
		Progress:    learners,
		Cursors:     NewCursorStore(),
	}
}
