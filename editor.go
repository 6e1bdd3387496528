package pathway

import (
	"context"
	"fmt"

	"github.com/aretw0/pathway/pkg/authoring"
	"github.com/aretw0/pathway/pkg/graph"
	"github.com/aretw0/pathway/pkg/schema"
)

// OpenEditor opens a module for editing. Extra options are passed to the session.
func (e *Engine) OpenEditor(ctx context.Context, moduleID string, opts ...authoring.SessionOption) (*authoring.Session, error) {
	m, err := e.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	base := []authoring.SessionOption{authoring.WithLogger(e.logger), authoring.WithClock(e.now)}
	return authoring.NewSession(m, append(base, opts...)...), nil
}

// SaveEditor validates the edited graph and stores it. Validation failures are
// returned as a *graph.AggregateError and nothing is written.
func (e *Engine) SaveEditor(ctx context.Context, s *authoring.Session) error {
	if err := graph.AsError(s.Validate()); err != nil {
		return err
	}

	m := s.Module()
	now := e.now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if err := e.stores.Modules.UpsertModule(ctx, m); err != nil {
		return fmt.Errorf("failed to save module %s: %w", m.ID, err)
	}
	s.MarkSaved()
	e.logger.InfoContext(ctx, "module saved", "module_id", m.ID, "nodes", len(m.Nodes))
	return nil
}

// PublishModule runs publish validation over the stored module and its variable
// defaults, then marks it published.
func (e *Engine) PublishModule(ctx context.Context, moduleID string) error {
	m, err := e.loadModule(ctx, moduleID)
	if err != nil {
		return err
	}
	if err := graph.AsError(graph.ValidateForPublish(m)); err != nil {
		return err
	}

	vars, err := e.stores.Variables.GetVariables(ctx, moduleID)
	if err != nil {
		return fmt.Errorf("failed to load variables: %w", err)
	}
	if err := schema.ValidateDefaults(vars); err != nil {
		return err
	}

	m.Published = true
	m.UpdatedAt = e.now()
	if err := e.stores.Modules.UpsertModule(ctx, m); err != nil {
		return fmt.Errorf("failed to publish module %s: %w", moduleID, err)
	}
	e.logger.InfoContext(ctx, "module published", "module_id", moduleID)
	return nil
}
