package dsl

import (
	"time"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/graph"
)

// rowHeight spaces nodes vertically when no position was given.
const rowHeight = 120

// Builder manages the module construction.
type Builder struct {
	module domain.Module
	order  []*NodeBuilder
	nodes  map[string]*NodeBuilder
}

// New creates a new module builder.
func New(moduleID string) *Builder {
	return &Builder{
		module: domain.Module{ID: moduleID, Title: moduleID, AccessType: domain.AccessPrivate},
		nodes:  make(map[string]*NodeBuilder),
	}
}

// Title sets the module title. It defaults to the module id.
func (b *Builder) Title(title string) *Builder {
	b.module.Title = title
	return b
}

// Description sets the module description.
func (b *Builder) Description(text string) *Builder {
	b.module.Description = text
	return b
}

// Access sets who may open the module.
func (b *Builder) Access(access domain.AccessType) *Builder {
	b.module.AccessType = access
	return b
}

// Published marks the module as published.
func (b *Builder) Published() *Builder {
	b.module.Published = true
	return b
}

// Owner sets the owning user id.
func (b *Builder) Owner(userID string) *Builder {
	b.module.OwnerID = userID
	return b
}

// CreatedAt stamps both timestamps of the module.
func (b *Builder) CreatedAt(t time.Time) *Builder {
	b.module.CreatedAt = t
	b.module.UpdatedAt = t
	return b
}

// Add creates a new node in the module.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID:   id,
			Type: domain.NodeTypeMessage,
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, nb)
	return nb
}

// Build assembles the module, derives its edges and checks the graph. The returned
// error carries every problem found, see graph.ValidationErrors.
func (b *Builder) Build() (*domain.Module, error) {
	m := b.module
	m.Nodes = make([]domain.Node, 0, len(b.order))
	for i, nb := range b.order {
		n := nb.node.Clone()
		if !nb.placed {
			n.Position = domain.Position{X: 0, Y: float64(i * rowHeight)}
		}
		m.Nodes = append(m.Nodes, n)
	}
	m.Edges = graph.DeriveEdges(m.Nodes)

	if err := graph.AsError(graph.ValidateModuleGraph(m.Nodes, m.Edges)); err != nil {
		return nil, err
	}
	return &m, nil
}

// MustBuild is like Build but panics on error. Meant for tests and static content.
func (b *Builder) MustBuild() *domain.Module {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}
