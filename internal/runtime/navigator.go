package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/graph"
)

// OutcomeKind classifies the effect of a transition.
type OutcomeKind string

const (
	// OutcomeNone means the cursor did not change.
	OutcomeNone OutcomeKind = "none"
	// OutcomeAdvanced means the current node changed going forward.
	OutcomeAdvanced OutcomeKind = "advanced"
	// OutcomeOverlay means an overlay router opened above the current node.
	OutcomeOverlay OutcomeKind = "overlay"
	// OutcomeCompleted means the module ended.
	OutcomeCompleted OutcomeKind = "completed"
	// OutcomeRetreated means the learner went back in history.
	OutcomeRetreated OutcomeKind = "retreated"
)

// Outcome describes a transition. To is the node the learner now faces: the new
// current node, or the overlay router for OutcomeOverlay.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	From string      `json:"from,omitempty"`
	To   string      `json:"to,omitempty"`
}

// Moved reports whether the learner reached a new node (advanced, overlay or retreated).
func (o Outcome) Moved() bool {
	return o.Kind == OutcomeAdvanced || o.Kind == OutcomeOverlay || o.Kind == OutcomeRetreated
}

// MediaController pauses media playing on the learner's screen.
type MediaController interface {
	PauseAll()
}

// NopMedia is a MediaController with nothing to pause.
type NopMedia struct{}

func (NopMedia) PauseAll() {}

// ChoiceGuard reports whether the learner may take choice index of router.
type ChoiceGuard func(router domain.Node, index int) bool

// Navigator computes learner transitions over a read-only node snapshot.
// Transitions never mutate the cursor they are given; they return an updated copy.
type Navigator struct {
	logger *slog.Logger
	media  MediaController
	hooks  domain.LifecycleHooks
	strict bool
	now    func() time.Time
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger sets the logger for ignored transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// WithMediaController sets the controller paused when an overlay opens.
func WithMediaController(media MediaController) Option {
	return func(n *Navigator) {
		n.media = media
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(n *Navigator) {
		n.hooks = hooks
	}
}

// WithStrictChoices makes a failing ChoiceGuard block the choice. By default a
// failing guard is only logged.
func WithStrictChoices(strict bool) Option {
	return func(n *Navigator) {
		n.strict = strict
	}
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) {
		n.now = now
	}
}

// NewNavigator creates a Navigator.
func NewNavigator(opts ...Option) *Navigator {
	n := &Navigator{
		logger: logging.NewNop(),
		media:  NopMedia{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewCursor places a learner on the first node. An empty module starts completed.
func NewCursor(moduleID, userID string, nodes []domain.Node) *domain.Cursor {
	c := &domain.Cursor{ModuleID: moduleID, UserID: userID, History: []string{}}
	if len(nodes) == 0 {
		c.Completed = true
		return c
	}
	c.CurrentNodeID = nodes[0].ID
	c.History = []string{nodes[0].ID}
	return c
}

// CurrentNode resolves the cursor's current node, or nil.
func CurrentNode(nodes []domain.Node, c *domain.Cursor) *domain.Node {
	return graph.FindNodeByID(nodes, c.CurrentNodeID)
}

// OverlayNode resolves the open overlay router, or nil.
func OverlayNode(nodes []domain.Node, c *domain.Cursor) *domain.Node {
	return graph.FindNodeByID(nodes, c.OverlayNodeID)
}

// CurrentIndex is the position of the current node in nodes, or -1.
func CurrentIndex(nodes []domain.Node, c *domain.Cursor) int {
	return graph.FindNodeIndex(nodes, c.CurrentNodeID)
}

// ActiveRouter is the router that choices apply to: the overlay when one is open,
// otherwise the current node when it is a router.
func ActiveRouter(nodes []domain.Node, c *domain.Cursor) *domain.Node {
	if c.Completed {
		return nil
	}
	if c.HasOverlay() {
		if n := OverlayNode(nodes, c); n != nil && n.IsRouter() {
			return n
		}
		return nil
	}
	if n := CurrentNode(nodes, c); n != nil && n.IsRouter() {
		return n
	}
	return nil
}
