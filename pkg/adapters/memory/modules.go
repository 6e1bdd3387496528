package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/pathway/pkg/domain"
)

// ModuleRepository implements ports.ModuleRepository in memory.
type ModuleRepository struct {
	mu      sync.RWMutex
	modules map[string]*domain.Module
}

// NewModuleRepository creates a repository seeded with modules.
func NewModuleRepository(modules ...*domain.Module) *ModuleRepository {
	r := &ModuleRepository{modules: make(map[string]*domain.Module)}
	for _, m := range modules {
		r.modules[m.ID] = m.Clone()
	}
	return r
}

// NewFromNodes builds a repository holding one module made of nodes. Edges are left
// empty; they are derived on demand.
func NewFromNodes(moduleID string, nodes ...domain.Node) (*ModuleRepository, error) {
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node missing ID")
		}
	}
	return NewModuleRepository(&domain.Module{ID: moduleID, Title: moduleID, Nodes: nodes}), nil
}

func (r *ModuleRepository) GetModule(_ context.Context, id string) (*domain.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrModuleNotFound, id)
	}
	return m.Clone(), nil
}

func (r *ModuleRepository) UpsertModule(_ context.Context, m *domain.Module) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("module missing ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.ID] = m.Clone()
	return nil
}

func (r *ModuleRepository) ListModules(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
