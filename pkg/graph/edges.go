package graph

import (
	"fmt"

	"github.com/aretw0/pathway/pkg/domain"
)

// DeriveEdges projects node routing data onto edges. Routers yield one edge per choice
// with a resolvable target; other nodes yield at most one edge for NextNodeID.
func DeriveEdges(nodes []domain.Node) []domain.Edge {
	idx := indexNodes(nodes)
	edges := make([]domain.Edge, 0, len(nodes))
	for _, n := range nodes {
		edges = append(edges, nodeEdges(n, idx)...)
	}
	return edges
}

func nodeEdges(n domain.Node, idx map[string]int) []domain.Edge {
	var out []domain.Edge
	if n.IsRouter() {
		for i, c := range n.Data.Choices {
			if _, ok := idx[c.NextNodeID]; !ok || c.NextNodeID == "" {
				continue
			}
			out = append(out, domain.Edge{
				ID:           domain.ChoiceEdgeID(n.ID, c.NextNodeID, i),
				Source:       n.ID,
				Target:       c.NextNodeID,
				SourceHandle: domain.ChoiceHandle(i),
			})
		}
		return out
	}

	next := n.Data.NextNodeID
	if _, ok := idx[next]; ok && next != "" {
		out = append(out, domain.Edge{
			ID:     domain.NextEdgeID(n.ID, next),
			Source: n.ID,
			Target: next,
		})
	}
	return out
}

// withoutSource drops every edge leaving source.
func withoutSource(edges []domain.Edge, source string) []domain.Edge {
	out := make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		if e.Source != source {
			out = append(out, e)
		}
	}
	return out
}

// CheckConsistency verifies that edges mirror node data: every resolvable NextNodeID
// has exactly one matching edge, and every resolvable router choice has exactly one
// edge on its choice handle pointing at the choice target.
func CheckConsistency(nodes []domain.Node, edges []domain.Edge) []ValidationError {
	var errs []ValidationError
	idx := indexNodes(nodes)

	for _, n := range nodes {
		if n.IsRouter() {
			for i, c := range n.Data.Choices {
				if _, ok := idx[c.NextNodeID]; !ok || c.NextNodeID == "" {
					continue
				}
				handle := domain.ChoiceHandle(i)
				count, matching := 0, 0
				for _, e := range edges {
					if e.Source == n.ID && e.SourceHandle == handle {
						count++
						if e.Target == c.NextNodeID {
							matching++
						}
					}
				}
				if count != 1 || matching != 1 {
					errs = append(errs, ValidationError{
						NodeID:  n.ID,
						Field:   fmt.Sprintf("choices[%d]", i),
						Message: fmt.Sprintf("expected one edge on %s to %q, found %d (%d matching)", handle, c.NextNodeID, count, matching),
					})
				}
			}
			continue
		}

		next := n.Data.NextNodeID
		if _, ok := idx[next]; !ok || next == "" {
			continue
		}
		count := 0
		for _, e := range edges {
			if e.Source == n.ID && e.Target == next {
				count++
			}
		}
		if count != 1 {
			errs = append(errs, ValidationError{
				NodeID:  n.ID,
				Field:   "nextNodeId",
				Message: fmt.Sprintf("expected one edge to %q, found %d", next, count),
			})
		}
	}
	return errs
}
