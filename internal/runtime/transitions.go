package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/graph"
)

// Next advances from the current node along its NextNodeID. A missing or unresolved
// successor completes the module. Next does nothing while an overlay is open or after
// completion.
func (n *Navigator) Next(ctx context.Context, nodes []domain.Node, cur *domain.Cursor) (*domain.Cursor, Outcome) {
	if cur.Completed || cur.HasOverlay() {
		return cur, Outcome{Kind: OutcomeNone, From: cur.CurrentNodeID}
	}

	next := cur.Clone()
	next.Push(next.CurrentNodeID)

	current := CurrentNode(nodes, next)
	if current == nil {
		n.logger.WarnContext(ctx, "current node not found, completing", "module_id", cur.ModuleID, "node_id", cur.CurrentNodeID)
		return n.complete(ctx, next)
	}

	target := n.successor(current, nodes)
	if target == nil {
		return n.complete(ctx, next)
	}
	return n.transitionTo(ctx, next, current, target)
}

// Choose takes choice index of the active router without a guard.
func (n *Navigator) Choose(ctx context.Context, nodes []domain.Node, cur *domain.Cursor, index int) (*domain.Cursor, Outcome, error) {
	return n.ChooseGuarded(ctx, nodes, cur, index, nil)
}

// ChooseGuarded takes choice index of the active router. A missing router or choice,
// or a choice without a target, leaves the cursor untouched and returns
// domain.ErrNoActiveRouter or domain.ErrChoiceNotFound. When guard rejects the choice
// it is blocked with domain.ErrChoiceBlocked in strict mode and taken anyway otherwise.
// An unresolved target completes the module.
func (n *Navigator) ChooseGuarded(ctx context.Context, nodes []domain.Node, cur *domain.Cursor, index int, guard ChoiceGuard) (*domain.Cursor, Outcome, error) {
	router := ActiveRouter(nodes, cur)
	if router == nil {
		n.logger.WarnContext(ctx, "choice ignored: no active router", "module_id", cur.ModuleID, "user_id", cur.UserID, "node_id", cur.CurrentNodeID)
		return cur, Outcome{Kind: OutcomeNone, From: cur.CurrentNodeID}, domain.ErrNoActiveRouter
	}
	if index < 0 || index >= len(router.Data.Choices) || router.Data.Choices[index].NextNodeID == "" {
		n.logger.WarnContext(ctx, "choice ignored: no such choice", "module_id", cur.ModuleID, "node_id", router.ID, "choice", index)
		return cur, Outcome{Kind: OutcomeNone, From: cur.CurrentNodeID}, fmt.Errorf("%w: %s[%d]", domain.ErrChoiceNotFound, router.ID, index)
	}
	if guard != nil && !guard(*router, index) {
		if n.strict {
			n.logger.InfoContext(ctx, "choice blocked by conditions", "module_id", cur.ModuleID, "node_id", router.ID, "choice", index)
			return cur, Outcome{Kind: OutcomeNone, From: cur.CurrentNodeID}, fmt.Errorf("%w: %s[%d]", domain.ErrChoiceBlocked, router.ID, index)
		}
		n.logger.DebugContext(ctx, "choice taken despite failing conditions", "module_id", cur.ModuleID, "node_id", router.ID, "choice", index)
	}

	next := cur.Clone()
	next.OverlayNodeID = ""
	next.Push(router.ID)

	target := graph.FindNodeByID(nodes, router.Data.Choices[index].NextNodeID)
	if target == nil {
		n.logger.WarnContext(ctx, "choice target not found, completing", "module_id", cur.ModuleID, "node_id", router.ID, "target", router.Data.Choices[index].NextNodeID)
		out, outcome := n.complete(ctx, next)
		return out, outcome, nil
	}

	out, outcome := n.transitionTo(ctx, next, CurrentNode(nodes, next), target)
	return out, outcome, nil
}

// Previous steps back through history, skipping overlay routers, and never pops the
// last entry. From the completed state it returns to the node the learner finished on.
func (n *Navigator) Previous(ctx context.Context, nodes []domain.Node, cur *domain.Cursor) (*domain.Cursor, Outcome) {
	next := cur.Clone()

	if next.Completed {
		next.Completed = false
		next.OverlayNodeID = ""
		for len(next.History) > 1 && n.isOverlay(nodes, next.Top()) {
			next.History = next.History[:len(next.History)-1]
		}
		n.emitNodeEnter(ctx, next, CurrentNode(nodes, next))
		return next, Outcome{Kind: OutcomeRetreated, To: next.CurrentNodeID}
	}

	if len(next.History) <= 1 {
		return cur, Outcome{Kind: OutcomeNone, From: cur.CurrentNodeID}
	}

	next.History = next.History[:len(next.History)-1]
	for len(next.History) > 1 && (n.isOverlay(nodes, next.Top()) || graph.FindNodeIndex(nodes, next.Top()) < 0) {
		next.History = next.History[:len(next.History)-1]
	}

	target := graph.FindNodeByID(nodes, next.Top())
	if target == nil {
		n.logger.WarnContext(ctx, "history exhausted, staying put", "module_id", cur.ModuleID, "node_id", cur.CurrentNodeID)
		return cur, Outcome{Kind: OutcomeNone, From: cur.CurrentNodeID}
	}

	from := cur.CurrentNodeID
	n.emitNodeLeave(ctx, next, CurrentNode(nodes, cur))
	next.CurrentNodeID = target.ID
	next.OverlayNodeID = ""
	next.HasInteracted = false
	n.emitNodeEnter(ctx, next, target)
	return next, Outcome{Kind: OutcomeRetreated, From: from, To: target.ID}
}

// Interact records that the learner produced the input the current node asks for.
func (n *Navigator) Interact(cur *domain.Cursor) *domain.Cursor {
	next := cur.Clone()
	next.HasInteracted = true
	return next
}

// successor resolves the NextNodeID of a non-router node. Routers only leave through
// their choices.
func (n *Navigator) successor(node *domain.Node, nodes []domain.Node) *domain.Node {
	if node.IsRouter() {
		return nil
	}
	target := graph.FindNodeByID(nodes, node.Data.NextNodeID)
	if target == nil && node.Data.NextNodeID != "" {
		n.logger.Warn("next node not found, completing", "node_id", node.ID, "target", node.Data.NextNodeID)
	}
	return target
}

// transitionTo moves cur onto target. Overlay routers open above the current node
// instead of replacing it.
func (n *Navigator) transitionTo(ctx context.Context, cur *domain.Cursor, from, target *domain.Node) (*domain.Cursor, Outcome) {
	if target.IsOverlayRouter() {
		n.media.PauseAll()
		cur.OverlayNodeID = target.ID
		cur.Push(target.ID)
		n.emitOverlayOpen(ctx, cur, target)
		return cur, Outcome{Kind: OutcomeOverlay, From: cur.CurrentNodeID, To: target.ID}
	}

	prev := cur.CurrentNodeID
	n.emitNodeLeave(ctx, cur, from)
	cur.CurrentNodeID = target.ID
	cur.OverlayNodeID = ""
	cur.HasInteracted = false
	cur.Push(target.ID)
	n.emitNodeEnter(ctx, cur, target)
	return cur, Outcome{Kind: OutcomeAdvanced, From: prev, To: target.ID}
}

func (n *Navigator) complete(ctx context.Context, cur *domain.Cursor) (*domain.Cursor, Outcome) {
	cur.Completed = true
	cur.OverlayNodeID = ""
	n.emitCompleted(ctx, cur)
	return cur, Outcome{Kind: OutcomeCompleted, From: cur.CurrentNodeID}
}

func (n *Navigator) isOverlay(nodes []domain.Node, id string) bool {
	node := graph.FindNodeByID(nodes, id)
	return node != nil && node.IsOverlayRouter()
}
