package domain

// Cursor is the navigation state of one learner playing one module.
//
// History is the stack of visited node ids, including overlay routers. Its top is the
// most recently visited node, which is either the current node or the open overlay.
type Cursor struct {
	ModuleID      string   `json:"module_id"`
	UserID        string   `json:"user_id"`
	CurrentNodeID string   `json:"current_node_id"`
	OverlayNodeID string   `json:"overlay_node_id,omitempty"`
	HasInteracted bool     `json:"has_interacted"`
	Completed     bool     `json:"completed"`
	History       []string `json:"history"`
}

// SessionKey identifies the playback session of a learner in a module.
func SessionKey(moduleID, userID string) string {
	return moduleID + ":" + userID
}

// Key returns the session key of the cursor.
func (c *Cursor) Key() string {
	return SessionKey(c.ModuleID, c.UserID)
}

// HasOverlay reports whether an overlay router is displayed.
func (c *Cursor) HasOverlay() bool {
	return c.OverlayNodeID != ""
}

// Top returns the most recent history entry, or "" when history is empty.
func (c *Cursor) Top() string {
	if len(c.History) == 0 {
		return ""
	}
	return c.History[len(c.History)-1]
}

// Push appends id to history unless it is already on top.
func (c *Cursor) Push(id string) {
	if id == "" || c.Top() == id {
		return
	}
	c.History = append(c.History, id)
}

// Clone returns a copy safe for independent mutation.
func (c *Cursor) Clone() *Cursor {
	if c == nil {
		return nil
	}
	next := *c
	next.History = append([]string(nil), c.History...)
	return &next
}
