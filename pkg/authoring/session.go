package authoring

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/graph"
)

// Session is an open editor over one module. It implements graph.Canvas: every node
// mutation records a History snapshot and edges are kept derived from node data.
type Session struct {
	module    domain.Module
	nodes     []domain.Node
	edges     []domain.Edge
	history   *History
	clipboard *Clipboard
	updater   *graph.Updater
	logger    *slog.Logger
	now       func() time.Time
	dirty     bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger. It is shared with the node updater.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithClipboardDevice routes copy and paste through device.
func WithClipboardDevice(device ClipboardDevice) SessionOption {
	return func(s *Session) {
		s.clipboard = NewClipboard(device, s.now)
	}
}

// WithClock overrides time.Now for generated ids.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
		if s.clipboard != nil {
			s.clipboard.now = now
		}
	}
}

// NewSession opens m for editing. Edges are re-derived from node data so a module
// persisted with stale edges starts consistent.
func NewSession(m *domain.Module, opts ...SessionOption) *Session {
	s := &Session{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	if m != nil {
		s.module = *m.Clone()
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clipboard == nil {
		s.clipboard = NewClipboard(nil, s.now)
	}
	s.updater = graph.NewUpdater(graph.WithLogger(s.logger))
	s.nodes = domain.CloneNodes(s.module.Nodes)
	s.edges = graph.DeriveEdges(s.nodes)
	s.history = NewHistory(s.nodes)
	return s
}

// Nodes returns the live node collection. Callers must not mutate it.
func (s *Session) Nodes() []domain.Node { return s.nodes }

// Edges returns the live edge collection. Callers must not mutate it.
func (s *Session) Edges() []domain.Edge { return s.edges }

// SetNodes replaces the node collection and records a history snapshot.
func (s *Session) SetNodes(nodes []domain.Node) {
	s.nodes = nodes
	s.history.Record(nodes)
	s.dirty = true
}

// SetEdges replaces the edge collection.
func (s *Session) SetEdges(edges []domain.Edge) {
	s.edges = edges
	s.dirty = true
}

// UpdateNode applies an editor patch to one node.
func (s *Session) UpdateNode(id string, patch map[string]any) error {
	return s.updater.OnNodeUpdate(s, id, patch)
}

// AddNode appends n. An empty id is replaced with a generated one and routers get
// two blank choices when they carry fewer. It returns the stored node.
func (s *Session) AddNode(n domain.Node) (domain.Node, error) {
	n = n.Clone()
	if n.ID == "" {
		n.ID = fmt.Sprintf("node-%d", s.now().UnixMilli())
		for graph.FindNodeIndex(s.nodes, n.ID) >= 0 {
			n.ID += "-1"
		}
	}
	if graph.FindNodeIndex(s.nodes, n.ID) >= 0 {
		return domain.Node{}, fmt.Errorf("node %q already exists", n.ID)
	}
	if n.IsRouter() {
		for len(n.Data.Choices) < 2 {
			n.Data.Choices = append(n.Data.Choices, domain.Choice{Text: fmt.Sprintf("Option %d", len(n.Data.Choices)+1)})
		}
	}

	nodes := append(domain.CloneNodes(s.nodes), n)
	s.SetNodes(nodes)
	s.SetEdges(graph.DeriveEdges(nodes))
	return n, nil
}

// RemoveNodes deletes the given nodes. References to them held by the remaining nodes
// are cleared so that no dangling target is left behind.
func (s *Session) RemoveNodes(ids ...string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := make([]domain.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if drop[n.ID] {
			continue
		}
		n = n.Clone()
		if drop[n.Data.NextNodeID] {
			n.Data.NextNodeID = ""
		}
		for i, c := range n.Data.Choices {
			if drop[c.NextNodeID] {
				n.Data.Choices[i].NextNodeID = ""
			}
		}
		kept = append(kept, n)
	}

	removed := len(s.nodes) - len(kept)
	if removed == 0 {
		return 0
	}
	s.SetNodes(kept)
	s.SetEdges(graph.DeriveEdges(kept))
	return removed
}

// MoveNode updates the layout position of a node.
func (s *Session) MoveNode(id string, pos domain.Position) error {
	i := graph.FindNodeIndex(s.nodes, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	nodes := domain.CloneNodes(s.nodes)
	nodes[i].Position = pos
	s.SetNodes(nodes)
	return nil
}

// Connect draws a connection from source to target. The routing data of source is
// written first and the edges follow from it. For routers, handle selects the choice
// ("choice-<i>"); other nodes ignore it.
func (s *Session) Connect(source, target, handle string) error {
	src := graph.FindNodeByID(s.nodes, source)
	if src == nil {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, source)
	}
	if graph.FindNodeIndex(s.nodes, target) < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, target)
	}

	if !src.IsRouter() {
		return s.UpdateNode(source, map[string]any{"nextNodeId": target})
	}

	i, ok := domain.ParseChoiceHandle(handle)
	if !ok || i >= len(src.Data.Choices) {
		return fmt.Errorf("%w: %s has no handle %q", domain.ErrChoiceNotFound, source, handle)
	}
	choices := append([]domain.Choice(nil), src.Data.Choices...)
	choices[i].NextNodeID = target
	return s.UpdateNode(source, map[string]any{"choices": choices})
}

// Undo restores the previous node snapshot. It reports false at the oldest snapshot.
func (s *Session) Undo() bool {
	nodes, ok := s.history.Undo()
	if ok {
		s.restore(nodes)
	}
	return ok
}

// Redo reapplies the last undone snapshot. It reports false when there is none.
func (s *Session) Redo() bool {
	nodes, ok := s.history.Redo()
	if ok {
		s.restore(nodes)
	}
	return ok
}

func (s *Session) restore(nodes []domain.Node) {
	s.nodes = nodes
	s.edges = graph.DeriveEdges(nodes)
	s.dirty = true
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Copy places the selected nodes on the clipboard. Unknown ids are ignored.
func (s *Session) Copy(ids ...string) error {
	var selection []domain.Node
	for _, id := range ids {
		if n := graph.FindNodeByID(s.nodes, id); n != nil {
			selection = append(selection, *n)
		}
	}
	return s.clipboard.Copy(selection)
}

// Paste appends the clipboard selection and returns the pasted nodes.
func (s *Session) Paste() ([]domain.Node, error) {
	pasted, err := s.clipboard.Paste(s.nodes)
	if err != nil {
		return nil, err
	}
	nodes := append(domain.CloneNodes(s.nodes), pasted...)
	s.SetNodes(nodes)
	s.SetEdges(graph.DeriveEdges(nodes))
	s.logger.Debug("nodes pasted", "module_id", s.module.ID, "count", len(pasted))
	return pasted, nil
}

// Validate checks the live graph the way a save does.
func (s *Session) Validate() []graph.ValidationError {
	return graph.ValidateModuleGraph(s.nodes, s.edges)
}

// Dirty reports whether the session changed since it was opened or last marked saved.
func (s *Session) Dirty() bool { return s.dirty }

// MarkSaved clears the dirty flag.
func (s *Session) MarkSaved() { s.dirty = false }

// Module exports the edited module with the live nodes and edges.
func (s *Session) Module() *domain.Module {
	m := s.module.Clone()
	m.Nodes = domain.CloneNodes(s.nodes)
	m.Edges = append([]domain.Edge(nil), s.edges...)
	return m
}

// ModuleID is the id of the module being edited.
func (s *Session) ModuleID() string { return s.module.ID }
