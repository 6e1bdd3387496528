package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/pathway/pkg/domain"
)

// LearnerStore implements ports.LearnerStateStore, ports.ProgressStore and
// ports.CompletionStore in memory.
type LearnerStore struct {
	mu          sync.Mutex
	states      map[string]*domain.LearnerState
	progress    map[string]*domain.Progress
	completions []domain.Completion
	now         func() time.Time
}

// LearnerOption configures a LearnerStore.
type LearnerOption func(*LearnerStore)

// WithClock overrides time.Now for created and updated timestamps.
func WithClock(now func() time.Time) LearnerOption {
	return func(s *LearnerStore) {
		s.now = now
	}
}

// NewLearnerStore creates an empty learner store.
func NewLearnerStore(opts ...LearnerOption) *LearnerStore {
	s := &LearnerStore{
		states:   make(map[string]*domain.LearnerState),
		progress: make(map[string]*domain.Progress),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LearnerStore) getOrCreate(moduleID, userID string) *domain.LearnerState {
	key := domain.SessionKey(moduleID, userID)
	st, ok := s.states[key]
	if !ok {
		st = domain.NewLearnerState(moduleID, userID, s.now())
		s.states[key] = st
	}
	return st
}

func (s *LearnerStore) GetOrCreateLearnerState(_ context.Context, moduleID, userID string) (*domain.LearnerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(moduleID, userID).Clone(), nil
}

func (s *LearnerStore) UpdateLearnerState(_ context.Context, moduleID, userID string, update domain.LearnerStateUpdate) (*domain.LearnerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreate(moduleID, userID)
	update.Apply(st, s.now())
	return st.Clone(), nil
}

func (s *LearnerStore) UpdateProgress(_ context.Context, moduleID, userID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.SessionKey(moduleID, userID)
	p, ok := s.progress[key]
	if !ok {
		p = &domain.Progress{ModuleID: moduleID, UserID: userID, CompletedNodes: []string{}}
		s.progress[key] = p
	}
	p.Visit(nodeID, s.now())
	return nil
}

func (s *LearnerStore) GetProgress(_ context.Context, moduleID, userID string) (*domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.progress[domain.SessionKey(moduleID, userID)]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	out := *p
	out.CompletedNodes = append([]string(nil), p.CompletedNodes...)
	return &out, nil
}

func (s *LearnerStore) InsertCompletion(_ context.Context, c domain.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Choices = append([]domain.InteractionRecord(nil), c.Choices...)
	s.completions = append(s.completions, c)
	return nil
}

func (s *LearnerStore) ListCompletions(_ context.Context, moduleID, userID string) ([]domain.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Completion{}
	for _, c := range s.completions {
		if c.ModuleID == moduleID && c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}
