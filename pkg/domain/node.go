package domain

// NodeType is the variant tag of a Node.
type NodeType string

const (
	// NodeTypeMessage displays a title and free text.
	NodeTypeMessage NodeType = "message"
	// NodeTypeVideo plays a video with configurable controls.
	NodeTypeVideo NodeType = "video"
	// NodeTypeRouter offers labeled choices, each with its own successor.
	NodeTypeRouter NodeType = "router"
	// NodeTypeTextInput asks a free-text question.
	NodeTypeTextInput NodeType = "text_input"
	// NodeTypeMultipleChoice asks the learner to pick one or more options.
	NodeTypeMultipleChoice NodeType = "multiple_choice"
	// NodeTypeRanking asks the learner to reorder a list of options.
	NodeTypeRanking NodeType = "ranking"

	// Authoring-only variants, not yet supported in playback.
	NodeTypeLikertScale NodeType = "likert_scale"
	NodeTypeMatching    NodeType = "matching"
)

// Playable reports whether learners can traverse nodes of this type.
func (t NodeType) Playable() bool {
	switch t {
	case NodeTypeMessage, NodeTypeVideo, NodeTypeRouter,
		NodeTypeTextInput, NodeTypeMultipleChoice, NodeTypeRanking:
		return true
	}
	return false
}

// Known reports whether the type is recognized by the editor.
func (t NodeType) Known() bool {
	return t.Playable() || t == NodeTypeLikertScale || t == NodeTypeMatching
}

// Interactive reports whether the node expects learner input before advancing.
func (t NodeType) Interactive() bool {
	switch t {
	case NodeTypeTextInput, NodeTypeMultipleChoice, NodeTypeRanking:
		return true
	}
	return false
}

// Position is the editor layout coordinate. It has no traversal semantics.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Choice is a single router branch.
type Choice struct {
	Text       string `json:"text"`
	NextNodeID string `json:"nextNodeId"`
}

// NodeData is the tagged union of per-type fields. Only the fields relevant to the
// node's Type are populated; the rest stay at their zero value and are omitted on the wire.
type NodeData struct {
	// message / ranking
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`

	// video
	VideoURL      string `json:"videoUrl,omitempty"`
	ThumbnailURL  string `json:"thumbnailUrl,omitempty"`
	Autoplay      bool   `json:"autoplay,omitempty"`
	ShowPlayPause bool   `json:"showPlayPause,omitempty"`
	ShowVolume    bool   `json:"showVolume,omitempty"`
	ShowSeeking   bool   `json:"showSeeking,omitempty"`
	ShowSubtitles bool   `json:"showSubtitles,omitempty"`

	// text_input / multiple_choice / router
	Question      string   `json:"question,omitempty"`
	IsRequired    bool     `json:"isRequired,omitempty"`
	Options       []string `json:"options,omitempty"`
	AllowMultiple bool     `json:"allowMultiple,omitempty"`
	Instructions  string   `json:"instructions,omitempty"`

	// router
	Choices   []Choice `json:"choices,omitempty"`
	IsOverlay bool     `json:"isOverlay,omitempty"`
	ModuleID  string   `json:"moduleId,omitempty"`

	// NextNodeID is the single successor of non-router nodes. Empty means "no successor".
	NextNodeID string `json:"nextNodeId,omitempty"`
}

// Node is a unit of content or decision in a module graph.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// IsRouter reports whether the node branches through choices.
func (n Node) IsRouter() bool {
	return n.Type == NodeTypeRouter
}

// IsOverlayRouter reports whether the node is a router rendered above the active node.
func (n Node) IsOverlayRouter() bool {
	return n.Type == NodeTypeRouter && n.Data.IsOverlay
}

// Prompt returns the learner-facing question of the node, falling back to its title.
func (n Node) Prompt() string {
	if n.Data.Question != "" {
		return n.Data.Question
	}
	return n.Data.Title
}

// Targets lists the non-empty successor ids referenced by the node, in declaration order.
func (n Node) Targets() []string {
	var out []string
	if n.IsRouter() {
		for _, c := range n.Data.Choices {
			if c.NextNodeID != "" {
				out = append(out, c.NextNodeID)
			}
		}
		return out
	}
	if n.Data.NextNodeID != "" {
		out = append(out, n.Data.NextNodeID)
	}
	return out
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	c := n
	if n.Data.Options != nil {
		c.Data.Options = append([]string(nil), n.Data.Options...)
	}
	if n.Data.Choices != nil {
		c.Data.Choices = append([]Choice(nil), n.Data.Choices...)
	}
	return c
}

// CloneNodes deep-copies a node slice.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
