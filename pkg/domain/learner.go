package domain

import "time"

// InteractionRecord is one entry of a learner's interaction log.
type InteractionRecord struct {
	Type       NodeType  `json:"type"`
	NodeID     string    `json:"node_id,omitempty"`
	Question   string    `json:"question,omitempty"`
	Answer     any       `json:"answer,omitempty"`
	Ranking    []string  `json:"ranking,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Counts reports whether the record belongs in a completion summary.
func (r InteractionRecord) Counts() bool {
	switch r.Type {
	case NodeTypeTextInput, NodeTypeRouter, NodeTypeMultipleChoice, NodeTypeRanking:
		return true
	}
	return false
}

// LearnerState is the per (module, user) mutable session data.
type LearnerState struct {
	ModuleID       string              `json:"module_id"`
	UserID         string              `json:"user_id"`
	VariablesState map[string]any      `json:"variables_state"`
	History        []InteractionRecord `json:"history"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewLearnerState creates an empty state started at now.
func NewLearnerState(moduleID, userID string, now time.Time) *LearnerState {
	return &LearnerState{
		ModuleID:       moduleID,
		UserID:         userID,
		VariablesState: make(map[string]any),
		History:        []InteractionRecord{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a copy safe for independent mutation.
func (s *LearnerState) Clone() *LearnerState {
	if s == nil {
		return nil
	}
	c := *s
	c.VariablesState = make(map[string]any, len(s.VariablesState))
	for k, v := range s.VariablesState {
		c.VariablesState[k] = v
	}
	c.History = append([]InteractionRecord(nil), s.History...)
	return &c
}

// LearnerStateUpdate is a partial upsert. Nil fields are left untouched.
type LearnerStateUpdate struct {
	VariablesState map[string]any
	History        []InteractionRecord
}

// Apply merges the update into the state. VariablesState keys are merged; History replaces.
func (u LearnerStateUpdate) Apply(s *LearnerState, now time.Time) {
	if u.VariablesState != nil {
		if s.VariablesState == nil {
			s.VariablesState = make(map[string]any)
		}
		for k, v := range u.VariablesState {
			s.VariablesState[k] = v
		}
	}
	if u.History != nil {
		s.History = append([]InteractionRecord(nil), u.History...)
	}
	s.UpdatedAt = now
}

// Completion is the terminal record of one finished pass through a module.
type Completion struct {
	ID               string              `json:"id"`
	ModuleID         string              `json:"module_id"`
	UserID           string              `json:"user_id"`
	Choices          []InteractionRecord `json:"choices"`
	TimeSpentSeconds int64               `json:"time_spent_seconds"`
	StartedAt        time.Time           `json:"started_at"`
	CompletedAt      time.Time           `json:"completed_at"`
}

// NewCompletion summarizes a learner state finishing at completedAt.
func NewCompletion(id string, state *LearnerState, completedAt time.Time) Completion {
	choices := []InteractionRecord{}
	for _, r := range state.History {
		if r.Counts() {
			choices = append(choices, r)
		}
	}
	spent := int64(completedAt.Sub(state.CreatedAt).Seconds())
	if spent < 0 {
		spent = 0
	}
	return Completion{
		ID:               id,
		ModuleID:         state.ModuleID,
		UserID:           state.UserID,
		Choices:          choices,
		TimeSpentSeconds: spent,
		StartedAt:        state.CreatedAt,
		CompletedAt:      completedAt,
	}
}

// Progress tracks the furthest position and the set of visited nodes.
type Progress struct {
	ModuleID       string    `json:"module_id"`
	UserID         string    `json:"user_id"`
	CurrentNodeID  string    `json:"current_node_id"`
	CompletedNodes []string  `json:"completed_nodes"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Visit sets the current node and appends it to CompletedNodes if absent.
func (p *Progress) Visit(nodeID string, now time.Time) {
	p.CurrentNodeID = nodeID
	found := false
	for _, id := range p.CompletedNodes {
		if id == nodeID {
			found = true
			break
		}
	}
	if !found {
		p.CompletedNodes = append(p.CompletedNodes, nodeID)
	}
	p.UpdatedAt = now
}
