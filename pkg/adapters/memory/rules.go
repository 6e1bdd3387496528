package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/pathway/pkg/domain"
)

// RuleRepository implements ports.VariableRepository and ports.ConditionRepository
// in memory.
type RuleRepository struct {
	mu         sync.RWMutex
	variables  map[string]domain.Variable
	conditions map[string]domain.Condition
}

// NewRuleRepository creates an empty rule repository.
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{
		variables:  make(map[string]domain.Variable),
		conditions: make(map[string]domain.Condition),
	}
}

func (r *RuleRepository) GetVariables(_ context.Context, moduleID string) ([]domain.Variable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Variable{}
	for _, v := range r.variables {
		if v.ModuleID == moduleID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *RuleRepository) SaveVariable(_ context.Context, v domain.Variable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[v.ID] = v
	return nil
}

func (r *RuleRepository) GetConditions(_ context.Context, moduleID, nodeID string) ([]domain.Condition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Condition{}
	for _, c := range r.conditions {
		if c.ModuleID == moduleID && c.SourceNodeID == nodeID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *RuleRepository) SaveCondition(_ context.Context, c domain.Condition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions[c.ID] = c
	return nil
}

func (r *RuleRepository) DeleteCondition(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conditions, id)
	return nil
}
