package pathway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/pathway/internal/metrics"
	"github.com/aretw0/pathway/internal/runtime"
	"github.com/aretw0/pathway/pkg/condition"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/schema"
)

// Interaction is a learner's answer to the current question node.
type Interaction struct {
	Answer any `json:"answer"`
}

// stepFunc computes the next cursor. Returning cur itself means nothing changed.
type stepFunc func(ctx context.Context, m *domain.Module, cur *domain.Cursor) (*domain.Cursor, Outcome, error)

// Start opens (or resumes) the learner's session on the module and records the entry
// node as visited.
func (e *Engine) Start(ctx context.Context, moduleID, userID string) (*Playback, error) {
	m, err := e.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if _, err := e.stores.Learners.GetOrCreateLearnerState(ctx, moduleID, userID); err != nil {
		return nil, fmt.Errorf("failed to prepare learner state: %w", err)
	}

	started := false
	cur, err := e.sessions.LoadOrStart(ctx, domain.SessionKey(moduleID, userID), func() *domain.Cursor {
		started = true
		return e.navigator.Begin(ctx, moduleID, userID, m.Nodes)
	})
	if err != nil {
		return nil, err
	}

	outcome := Outcome{Kind: runtime.OutcomeNone, To: cur.CurrentNodeID}
	if started {
		e.logger.InfoContext(ctx, "playback started", "module_id", moduleID, "user_id", userID, "node_id", cur.CurrentNodeID)
		if !cur.Completed {
			e.recordProgress(ctx, moduleID, userID, cur.CurrentNodeID)
		}
	}
	return e.view(ctx, m, nil, cur, outcome), nil
}

// Playback returns what the learner currently faces without moving.
func (e *Engine) Playback(ctx context.Context, moduleID, userID string) (*Playback, error) {
	m, err := e.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	cur, err := e.sessions.Load(ctx, domain.SessionKey(moduleID, userID))
	if err != nil {
		return nil, err
	}
	return e.view(ctx, m, cur, cur, Outcome{Kind: runtime.OutcomeNone, From: cur.CurrentNodeID}), nil
}

// Next advances along the current node. A required question must be answered first
// and a router is only left through Choose.
func (e *Engine) Next(ctx context.Context, moduleID, userID string) (*Playback, error) {
	return e.step(ctx, "next", moduleID, userID, func(ctx context.Context, m *domain.Module, cur *domain.Cursor) (*domain.Cursor, Outcome, error) {
		if n := runtime.CurrentNode(m.Nodes, cur); n != nil && !cur.Completed && !cur.HasOverlay() {
			stay := Outcome{Kind: runtime.OutcomeNone, From: cur.CurrentNodeID}
			if n.Type.Interactive() && n.Data.IsRequired && !cur.HasInteracted {
				return cur, stay, fmt.Errorf("%w: %s", domain.ErrAnswerRequired, n.ID)
			}
			// A displayed router is left through one of its choices.
			if n.IsRouter() && !n.Data.IsOverlay && len(n.Data.Choices) > 0 {
				return cur, stay, fmt.Errorf("%w: %s", domain.ErrChoiceRequired, n.ID)
			}
		}
		next, outcome := e.navigator.Next(ctx, m.Nodes, cur)
		return next, outcome, nil
	})
}

// Choose takes choice index of the active router and records it in the learner's
// history. Router conditions gate the choice as configured by WithStrictConditions.
func (e *Engine) Choose(ctx context.Context, moduleID, userID string, index int) (*Playback, error) {
	return e.step(ctx, "choose", moduleID, userID, func(ctx context.Context, m *domain.Module, cur *domain.Cursor) (*domain.Cursor, Outcome, error) {
		state, err := e.stores.Learners.GetOrCreateLearnerState(ctx, moduleID, userID)
		if err != nil {
			return cur, Outcome{Kind: runtime.OutcomeNone}, fmt.Errorf("failed to load learner state: %w", err)
		}
		vars, err := e.stores.Variables.GetVariables(ctx, moduleID)
		if err != nil {
			e.logger.WarnContext(ctx, "variables unavailable", "module_id", moduleID, "err", err)
		}

		guard := func(router domain.Node, i int) bool {
			conds, err := e.stores.Conditions.GetConditions(ctx, moduleID, router.ID)
			if err != nil {
				e.logger.WarnContext(ctx, "conditions unavailable, choice allowed", "node_id", router.ID, "err", err)
				return true
			}
			return condition.EvaluateChoice(i, conds, vars, state)
		}

		router := runtime.ActiveRouter(m.Nodes, cur)
		next, outcome, err := e.navigator.ChooseGuarded(ctx, m.Nodes, cur, index, guard)
		if err != nil {
			if errors.Is(err, domain.ErrChoiceBlocked) {
				metrics.ChoicesBlocked.Inc()
			}
			return cur, outcome, err
		}

		e.appendInteraction(ctx, state, domain.InteractionRecord{
			Type:       domain.NodeTypeRouter,
			NodeID:     router.ID,
			Question:   router.Prompt(),
			Answer:     router.Data.Choices[index].Text,
			RecordedAt: e.now(),
		})
		return next, outcome, nil
	})
}

// Previous steps back through the learner's history.
func (e *Engine) Previous(ctx context.Context, moduleID, userID string) (*Playback, error) {
	return e.step(ctx, "previous", moduleID, userID, func(ctx context.Context, m *domain.Module, cur *domain.Cursor) (*domain.Cursor, Outcome, error) {
		next, outcome := e.navigator.Previous(ctx, m.Nodes, cur)
		return next, outcome, nil
	})
}

// Interact records the learner's answer to the current question node and marks the
// node as interacted. Invalid answers leave the session untouched.
func (e *Engine) Interact(ctx context.Context, moduleID, userID string, in Interaction) (*Playback, error) {
	return e.step(ctx, "interact", moduleID, userID, func(ctx context.Context, m *domain.Module, cur *domain.Cursor) (*domain.Cursor, Outcome, error) {
		none := Outcome{Kind: runtime.OutcomeNone, From: cur.CurrentNodeID}
		if cur.Completed {
			return cur, none, fmt.Errorf("%w: module already completed", domain.ErrInvalidAnswer)
		}
		node := runtime.CurrentNode(m.Nodes, cur)
		if node == nil {
			return cur, none, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, cur.CurrentNodeID)
		}

		value, err := runtime.ResolveAnswer(node, in.Answer)
		if err != nil {
			return cur, none, err
		}

		rec := domain.InteractionRecord{
			Type:       node.Type,
			NodeID:     node.ID,
			Question:   node.Prompt(),
			RecordedAt: e.now(),
		}
		if ranking, ok := value.([]string); ok && node.Type == domain.NodeTypeRanking {
			rec.Ranking = ranking
		} else {
			rec.Answer = value
		}

		state, err := e.stores.Learners.GetOrCreateLearnerState(ctx, moduleID, userID)
		if err != nil {
			return cur, none, fmt.Errorf("failed to load learner state: %w", err)
		}
		history := append(append([]domain.InteractionRecord{}, state.History...), rec)
		if _, err := e.stores.Learners.UpdateLearnerState(ctx, moduleID, userID, domain.LearnerStateUpdate{History: history}); err != nil {
			return cur, none, fmt.Errorf("failed to record answer: %w", err)
		}
		return e.navigator.Interact(cur), none, nil
	})
}

// SetVariable stores a learner value for a module variable after checking it against
// the variable's declared type.
func (e *Engine) SetVariable(ctx context.Context, moduleID, userID, variableID string, value any) (*domain.LearnerState, error) {
	vars, err := e.stores.Variables.GetVariables(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variables: %w", err)
	}
	sch, err := schema.ForVariables(vars)
	if err != nil {
		return nil, err
	}
	if _, ok := sch[variableID]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrVariableNotFound, variableID)
	}
	if err := schema.ValidatePresent(sch, map[string]any{variableID: value}); err != nil {
		return nil, err
	}

	return e.stores.Learners.UpdateLearnerState(ctx, moduleID, userID, domain.LearnerStateUpdate{
		VariablesState: map[string]any{variableID: value},
	})
}

// Restart drops the learner's cursor and interaction log and starts over. Variables
// and earlier completions are kept.
func (e *Engine) Restart(ctx context.Context, moduleID, userID string) (*Playback, error) {
	if err := e.sessions.Delete(ctx, domain.SessionKey(moduleID, userID)); err != nil {
		return nil, fmt.Errorf("failed to reset session: %w", err)
	}
	_, err := e.stores.Learners.UpdateLearnerState(ctx, moduleID, userID, domain.LearnerStateUpdate{
		History: []domain.InteractionRecord{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset learner history: %w", err)
	}
	return e.Start(ctx, moduleID, userID)
}

// step runs fn under the session lock, persists the resulting cursor and performs the
// follow-up writes: progress for the node reached and a completion record at the end.
func (e *Engine) step(ctx context.Context, op, moduleID, userID string, fn stepFunc) (*Playback, error) {
	began := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues(op).Observe(float64(time.Since(began).Microseconds()) / 1000)
	}()

	m, err := e.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	key := domain.SessionKey(moduleID, userID)
	var (
		before, after *domain.Cursor
		outcome       Outcome
	)
	err = e.sessions.WithLock(ctx, key, func(ctx context.Context) error {
		cur, err := e.sessions.Store().Load(ctx, key)
		if err != nil {
			return err
		}
		next, out, err := fn(ctx, m, cur)
		if err != nil {
			return err
		}
		if next != cur {
			if err := e.sessions.Store().Save(ctx, key, next); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
		}
		before, after, outcome = cur, next, out
		return nil
	})
	if err != nil {
		metrics.Transitions.WithLabelValues(op, "error").Inc()
		return nil, err
	}
	metrics.Transitions.WithLabelValues(op, string(outcome.Kind)).Inc()

	if outcome.Moved() {
		e.recordProgress(ctx, moduleID, userID, outcome.To)
	}
	pb := e.view(ctx, m, before, after, outcome)
	if outcome.Kind == runtime.OutcomeCompleted {
		if err := e.recordCompletion(ctx, moduleID, userID); err != nil {
			return pb, err
		}
	}
	return pb, nil
}

// recordProgress never fails the step; failures are logged and counted.
func (e *Engine) recordProgress(ctx context.Context, moduleID, userID, nodeID string) {
	if err := e.stores.Progress.UpdateProgress(ctx, moduleID, userID, nodeID); err != nil {
		metrics.PersistenceFailures.WithLabelValues("progress").Inc()
		e.logger.WarnContext(ctx, "failed to record progress", "module_id", moduleID, "user_id", userID, "node_id", nodeID, "err", err)
	}
}

func (e *Engine) appendInteraction(ctx context.Context, state *domain.LearnerState, rec domain.InteractionRecord) {
	history := append(append([]domain.InteractionRecord{}, state.History...), rec)
	_, err := e.stores.Learners.UpdateLearnerState(ctx, state.ModuleID, state.UserID, domain.LearnerStateUpdate{History: history})
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues("learners").Inc()
		e.logger.WarnContext(ctx, "failed to record interaction", "module_id", state.ModuleID, "user_id", state.UserID, "node_id", rec.NodeID, "err", err)
	}
}

func (e *Engine) recordCompletion(ctx context.Context, moduleID, userID string) error {
	state, err := e.stores.Learners.GetOrCreateLearnerState(ctx, moduleID, userID)
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues("learners").Inc()
		return &PersistenceError{Op: "load learner state", Err: err}
	}
	c := domain.NewCompletion(e.newID(), state, e.now())
	if err := e.stores.Completions.InsertCompletion(ctx, c); err != nil {
		metrics.PersistenceFailures.WithLabelValues("completions").Inc()
		e.logger.ErrorContext(ctx, "failed to record completion", "module_id", moduleID, "user_id", userID, "err", err)
		return &PersistenceError{Op: "insert completion", Err: err}
	}
	e.logger.InfoContext(ctx, "module completed",
		"module_id", moduleID,
		"user_id", userID,
		"completion_id", c.ID,
		"time_spent_seconds", c.TimeSpentSeconds,
	)
	return nil
}
