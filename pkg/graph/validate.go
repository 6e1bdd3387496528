package graph

import (
	"fmt"

	"github.com/aretw0/pathway/pkg/domain"
)

const minRouterChoices = 2

// ValidateModuleGraph reports dangling targets, routers with fewer than two choices
// and duplicate node ids. Problems are listed in node order, then choice order, so
// validating an unchanged graph twice yields identical results. Empty targets are
// treated as "no successor" and are not reported.
//
// Edges are derived from node data and are not consulted.
func ValidateModuleGraph(nodes []domain.Node, edges []domain.Edge) []ValidationError {
	var errs []ValidationError
	idx := indexNodes(nodes)
	seen := make(map[string]bool, len(nodes))

	for _, n := range nodes {
		if seen[n.ID] {
			errs = append(errs, ValidationError{NodeID: n.ID, Field: "id", Message: "duplicate node id"})
		}
		seen[n.ID] = true

		if n.IsRouter() {
			if len(n.Data.Choices) < minRouterChoices {
				errs = append(errs, ValidationError{
					NodeID:  n.ID,
					Field:   "choices",
					Message: fmt.Sprintf("router must have at least %d choices, has %d", minRouterChoices, len(n.Data.Choices)),
				})
			}
			for i, c := range n.Data.Choices {
				if c.NextNodeID == "" {
					continue
				}
				if _, ok := idx[c.NextNodeID]; !ok {
					errs = append(errs, ValidationError{
						NodeID:  n.ID,
						Field:   fmt.Sprintf("choices[%d].nextNodeId", i),
						Message: fmt.Sprintf("target %q does not exist", c.NextNodeID),
					})
				}
			}
			continue
		}

		if next := n.Data.NextNodeID; next != "" {
			if _, ok := idx[next]; !ok {
				errs = append(errs, ValidationError{
					NodeID:  n.ID,
					Field:   "nextNodeId",
					Message: fmt.Sprintf("target %q does not exist", next),
				})
			}
		}
	}
	return errs
}

// ValidateForPublish runs ValidateModuleGraph plus the checks a playable module needs:
// a non-empty graph, router choices that all lead somewhere, playable node types,
// edges between known nodes and every node reachable from the start node.
func ValidateForPublish(m *domain.Module) []ValidationError {
	if m == nil || len(m.Nodes) == 0 {
		return []ValidationError{{Field: "nodes", Message: "module has no nodes"}}
	}

	errs := ValidateModuleGraph(m.Nodes, m.Edges)
	idx := indexNodes(m.Nodes)

	for _, n := range m.Nodes {
		if !n.Type.Playable() {
			errs = append(errs, ValidationError{
				NodeID:  n.ID,
				Field:   "type",
				Message: fmt.Sprintf("node type %q cannot be played", n.Type),
			})
		}
		if !n.IsRouter() {
			continue
		}
		for i, c := range n.Data.Choices {
			if c.NextNodeID == "" {
				errs = append(errs, ValidationError{
					NodeID:  n.ID,
					Field:   fmt.Sprintf("choices[%d].nextNodeId", i),
					Message: fmt.Sprintf("choice %q has no target", c.Text),
				})
			}
		}
	}

	for _, e := range m.Edges {
		for _, end := range []string{e.Source, e.Target} {
			if _, ok := idx[end]; !ok {
				errs = append(errs, ValidationError{
					NodeID:  e.Source,
					Field:   "edges",
					Message: fmt.Sprintf("edge %q references unknown node %q", e.ID, end),
				})
			}
		}
	}

	reached := Reachable(m.Nodes, m.Nodes[0].ID)
	for _, n := range m.Nodes {
		if !reached[n.ID] {
			errs = append(errs, ValidationError{
				NodeID:  n.ID,
				Message: fmt.Sprintf("not reachable from start node %q", m.Nodes[0].ID),
			})
		}
	}
	return errs
}

// Reachable walks node targets breadth-first from start and returns the visited set.
// Unknown targets are skipped.
func Reachable(nodes []domain.Node, start string) map[string]bool {
	idx := indexNodes(nodes)
	visited := make(map[string]bool, len(nodes))
	if _, ok := idx[start]; !ok {
		return visited
	}

	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		for _, target := range nodes[idx[id]].Targets() {
			if _, ok := idx[target]; ok && !visited[target] {
				queue = append(queue, target)
			}
		}
	}
	return visited
}
