package graph

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/domain"
)

// Canvas is the mutable node and edge collection of an editing session.
// OnNodeUpdate reads through the getters and writes only through the setters.
type Canvas interface {
	Nodes() []domain.Node
	Edges() []domain.Edge
	SetNodes([]domain.Node)
	SetEdges([]domain.Edge)
}

// Updater applies editor patches to nodes and keeps the edge projection in step.
type Updater struct {
	logger *slog.Logger
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithLogger sets the logger used for rejected updates and unresolved targets.
func WithLogger(logger *slog.Logger) UpdaterOption {
	return func(u *Updater) {
		u.logger = logger
	}
}

// NewUpdater creates an Updater. It logs nowhere unless WithLogger is given.
func NewUpdater(opts ...UpdaterOption) *Updater {
	u := &Updater{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// OnNodeUpdate merges patch into the data of node nodeID and reconciles its outgoing
// edges. Patch keys are the JSON names of domain.NodeData; a "type" key retypes the node.
//
// When the resulting node is a router and the patch carries "choices", the choice list
// is reconciled: choices without a target inherit the target of the existing edge on
// their choice handle, and all edges leaving the node are rebuilt. Otherwise the patch
// is merged shallowly and the single outgoing edge is replaced when nextNodeId changes.
// Targets that do not resolve stay in node data but produce no edge.
//
// An unknown node yields domain.ErrNodeNotFound and a router patch with fewer than two
// choices yields domain.ErrTooFewChoices. In both cases the canvas is left untouched.
func (u *Updater) OnNodeUpdate(c Canvas, nodeID string, patch map[string]any) error {
	nodes := c.Nodes()
	i := FindNodeIndex(nodes, nodeID)
	if i < 0 {
		u.logger.Warn("node update ignored: unknown node", "node_id", nodeID)
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}

	node := nodes[i].Clone()
	if t, ok := patch["type"].(string); ok && t != "" {
		node.Type = domain.NodeType(t)
	}

	if _, hasChoices := patch["choices"]; hasChoices && node.IsRouter() {
		return u.updateRouter(c, nodes, i, node, patch)
	}
	return u.updateNode(c, nodes, i, node, patch)
}

func (u *Updater) updateRouter(c Canvas, nodes []domain.Node, i int, node domain.Node, patch map[string]any) error {
	var choices []domain.Choice
	if err := domain.Decode(patch["choices"], &choices); err != nil {
		u.logger.Warn("router update ignored: malformed choices", "node_id", node.ID, "error", err)
		return fmt.Errorf("router %s: %w", node.ID, err)
	}
	if len(choices) < minRouterChoices {
		u.logger.Warn("router update ignored: too few choices", "node_id", node.ID, "choices", len(choices))
		return fmt.Errorf("%w: router %s has %d", domain.ErrTooFewChoices, node.ID, len(choices))
	}

	edges := c.Edges()
	for ci := range choices {
		if choices[ci].NextNodeID != "" {
			continue
		}
		handle := domain.ChoiceHandle(ci)
		for _, e := range edges {
			if e.Source == node.ID && e.SourceHandle == handle {
				choices[ci].NextNodeID = e.Target
				break
			}
		}
	}

	if err := domain.Decode(patch, &node.Data); err != nil {
		u.logger.Warn("router update ignored: malformed patch", "node_id", node.ID, "error", err)
		return fmt.Errorf("router %s: %w", node.ID, err)
	}
	node.Data.Choices = choices

	updated := replaceNode(nodes, i, node)
	idx := indexNodes(updated)
	for ci, ch := range choices {
		if ch.NextNodeID == "" {
			u.logger.Warn("router choice has no target", "node_id", node.ID, "choice", ci)
			continue
		}
		if _, ok := idx[ch.NextNodeID]; !ok {
			u.logger.Warn("router choice target not found", "node_id", node.ID, "choice", ci, "target", ch.NextNodeID)
		}
	}

	c.SetNodes(updated)
	c.SetEdges(append(withoutSource(edges, node.ID), nodeEdges(node, idx)...))
	return nil
}

func (u *Updater) updateNode(c Canvas, nodes []domain.Node, i int, node domain.Node, patch map[string]any) error {
	prev := nodes[i]
	if err := domain.Decode(patch, &node.Data); err != nil {
		u.logger.Warn("node update ignored: malformed patch", "node_id", node.ID, "error", err)
		return fmt.Errorf("node %s: %w", node.ID, err)
	}

	updated := replaceNode(nodes, i, node)
	c.SetNodes(updated)

	retyped := prev.IsRouter() != node.IsRouter()
	_, hasNext := patch["nextNodeId"]
	nextChanged := hasNext && !node.IsRouter() && node.Data.NextNodeID != prev.Data.NextNodeID
	if !retyped && !nextChanged {
		return nil
	}

	idx := indexNodes(updated)
	if next := node.Data.NextNodeID; next != "" && !node.IsRouter() {
		if _, ok := idx[next]; !ok {
			u.logger.Warn("next node not found, edge skipped", "node_id", node.ID, "target", next)
		}
	}
	c.SetEdges(append(withoutSource(c.Edges(), node.ID), nodeEdges(node, idx)...))
	return nil
}

func replaceNode(nodes []domain.Node, i int, node domain.Node) []domain.Node {
	out := make([]domain.Node, len(nodes))
	copy(out, nodes)
	out[i] = node
	return out
}
