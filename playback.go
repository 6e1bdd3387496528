package pathway

import (
	"context"

	"github.com/aretw0/pathway/internal/runtime"
	"github.com/aretw0/pathway/pkg/condition"
	"github.com/aretw0/pathway/pkg/domain"
)

// Playback is what a learner faces after a step.
type Playback struct {
	Cursor *domain.Cursor `json:"cursor"`

	// Node is the current node with its text rendered against learner variables.
	Node *domain.Node `json:"node,omitempty"`
	// Overlay is the open overlay router, rendered the same way.
	Overlay *domain.Node `json:"overlay,omitempty"`

	Completed bool `json:"completed"`

	// ChoiceValidity tells, per choice of the active router, whether its conditions pass.
	ChoiceValidity []bool `json:"choice_validity,omitempty"`

	Outcome Outcome            `json:"outcome"`
	Diff    *domain.CursorDiff `json:"diff,omitempty"`
}

// Router returns the router that choices apply to, or nil.
func (p *Playback) Router() *domain.Node {
	if p.Completed {
		return nil
	}
	if p.Overlay != nil {
		return p.Overlay
	}
	if p.Node != nil && p.Node.IsRouter() {
		return p.Node
	}
	return nil
}

// view builds the playback of cur. Missing learner state, variables or conditions are
// logged and treated as empty so that a view can always be produced.
func (e *Engine) view(ctx context.Context, m *domain.Module, before, cur *domain.Cursor, outcome Outcome) *Playback {
	pb := &Playback{
		Cursor:    cur,
		Completed: cur.Completed,
		Outcome:   outcome,
		Diff:      domain.Diff(before, cur),
	}

	state, err := e.stores.Learners.GetOrCreateLearnerState(ctx, cur.ModuleID, cur.UserID)
	if err != nil {
		e.logger.WarnContext(ctx, "learner state unavailable", "module_id", cur.ModuleID, "user_id", cur.UserID, "err", err)
		state = domain.NewLearnerState(cur.ModuleID, cur.UserID, e.now())
	}
	vars, err := e.stores.Variables.GetVariables(ctx, m.ID)
	if err != nil {
		e.logger.WarnContext(ctx, "variables unavailable", "module_id", m.ID, "err", err)
	}
	data := templateData(vars, state)

	if n := runtime.CurrentNode(m.Nodes, cur); n != nil {
		pb.Node = e.render(ctx, *n, data)
	}
	if n := runtime.OverlayNode(m.Nodes, cur); n != nil {
		pb.Overlay = e.render(ctx, *n, data)
	}

	if router := runtime.ActiveRouter(m.Nodes, cur); router != nil {
		conds, err := e.stores.Conditions.GetConditions(ctx, m.ID, router.ID)
		if err != nil {
			e.logger.WarnContext(ctx, "conditions unavailable", "module_id", m.ID, "node_id", router.ID, "err", err)
		}
		pb.ChoiceValidity = condition.ChoiceValidity(*router, conds, vars, state)
	}
	return pb
}

// render interpolates the learner-facing text of a copy of n. Text that fails to
// render is kept verbatim.
func (e *Engine) render(ctx context.Context, n domain.Node, data map[string]any) *domain.Node {
	out := n.Clone()
	fields := []*string{&out.Data.Title, &out.Data.Content, &out.Data.Question, &out.Data.Instructions}
	for _, f := range fields {
		if *f == "" {
			continue
		}
		text, err := e.interpolator(ctx, *f, data)
		if err != nil {
			e.logger.WarnContext(ctx, "interpolation failed", "node_id", n.ID, "err", err)
			continue
		}
		*f = text
	}
	for i, c := range out.Data.Choices {
		if text, err := e.interpolator(ctx, c.Text, data); err == nil {
			out.Data.Choices[i].Text = text
		}
	}
	return &out
}

// templateData exposes variable values by name and by id.
func templateData(vars []domain.Variable, state *domain.LearnerState) map[string]any {
	data := make(map[string]any, 2*len(vars))
	for _, v := range vars {
		value, ok := condition.ResolveValue(v, state)
		if !ok {
			continue
		}
		if v.Name != "" {
			data[v.Name] = value
		}
		data[v.ID] = value
	}
	return data
}
