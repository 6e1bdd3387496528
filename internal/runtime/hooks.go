package runtime

import (
	"context"

	"github.com/aretw0/pathway/pkg/domain"
)

// Begin creates a cursor on the first node and announces the entry.
func (n *Navigator) Begin(ctx context.Context, moduleID, userID string, nodes []domain.Node) *domain.Cursor {
	c := NewCursor(moduleID, userID, nodes)
	if c.Completed {
		n.emitCompleted(ctx, c)
		return c
	}
	n.emitNodeEnter(ctx, c, &nodes[0])
	return c
}

func (n *Navigator) base(c *domain.Cursor, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: n.now(),
		Type:      t,
		ModuleID:  c.ModuleID,
		UserID:    c.UserID,
	}
}

func (n *Navigator) emitNodeEnter(ctx context.Context, c *domain.Cursor, node *domain.Node) {
	if n.hooks.OnNodeEnter == nil || node == nil {
		return
	}
	n.hooks.OnNodeEnter(ctx, &domain.NodeEvent{EventBase: n.base(c, domain.EventNodeEnter), NodeID: node.ID, NodeType: node.Type})
}

func (n *Navigator) emitNodeLeave(ctx context.Context, c *domain.Cursor, node *domain.Node) {
	if n.hooks.OnNodeLeave == nil || node == nil {
		return
	}
	n.hooks.OnNodeLeave(ctx, &domain.NodeEvent{EventBase: n.base(c, domain.EventNodeLeave), NodeID: node.ID, NodeType: node.Type})
}

func (n *Navigator) emitOverlayOpen(ctx context.Context, c *domain.Cursor, node *domain.Node) {
	if n.hooks.OnOverlayOpen == nil {
		return
	}
	n.hooks.OnOverlayOpen(ctx, &domain.NodeEvent{EventBase: n.base(c, domain.EventOverlayOpen), NodeID: node.ID, NodeType: node.Type})
}

func (n *Navigator) emitCompleted(ctx context.Context, c *domain.Cursor) {
	if n.hooks.OnCompleted == nil {
		return
	}
	n.hooks.OnCompleted(ctx, &domain.CompletionEvent{EventBase: n.base(c, domain.EventCompleted), LastNodeID: c.CurrentNodeID})
}
