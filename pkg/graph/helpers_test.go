package graph

import "github.com/aretw0/pathway/pkg/domain"

type memCanvas struct {
	nodes []domain.Node
	edges []domain.Edge
	sets  int
}

func newCanvas(nodes ...domain.Node) *memCanvas {
	return &memCanvas{nodes: nodes, edges: DeriveEdges(nodes)}
}

func (c *memCanvas) Nodes() []domain.Node     { return c.nodes }
func (c *memCanvas) Edges() []domain.Edge     { return c.edges }
func (c *memCanvas) SetNodes(n []domain.Node) { c.nodes = n; c.sets++ }
func (c *memCanvas) SetEdges(e []domain.Edge) { c.edges = e; c.sets++ }

func message(id, next string) domain.Node {
	return domain.Node{ID: id, Type: domain.NodeTypeMessage, Data: domain.NodeData{Title: id, NextNodeID: next}}
}

func router(id string, overlay bool, targets ...string) domain.Node {
	n := domain.Node{ID: id, Type: domain.NodeTypeRouter, Data: domain.NodeData{IsOverlay: overlay}}
	for i, t := range targets {
		n.Data.Choices = append(n.Data.Choices, domain.Choice{Text: string(rune('A' + i)), NextNodeID: t})
	}
	return n
}
