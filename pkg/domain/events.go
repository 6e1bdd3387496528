package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter   EventType = "node_enter"
	EventNodeLeave   EventType = "node_leave"
	EventOverlayOpen EventType = "overlay_open"
	EventCompleted   EventType = "completed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ModuleID  string    `json:"module_id"`
	UserID    string    `json:"user_id"`
}

// NodeEvent represents entry into or exit from a node, or an overlay opening.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeType NodeType `json:"node_type"`
}

// CompletionEvent is emitted once a learner reaches the end of a module.
type CompletionEvent struct {
	EventBase
	LastNodeID string `json:"last_node_id"`
}

// LifecycleHooks defines callbacks for playback observability.
type LifecycleHooks struct {
	OnNodeEnter   func(context.Context, *NodeEvent)
	OnNodeLeave   func(context.Context, *NodeEvent)
	OnOverlayOpen func(context.Context, *NodeEvent)
	OnCompleted   func(context.Context, *CompletionEvent)
}
