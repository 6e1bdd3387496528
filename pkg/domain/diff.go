package domain

// CursorDiff represents the changes between two cursors of the same session.
// It is designed to be serialized to JSON for partial updates on the client.
type CursorDiff struct {
	// SessionKey is always present to identify the target.
	SessionKey string `json:"session_key"`

	CurrentNodeID *string `json:"current_node_id,omitempty"`
	OverlayNodeID *string `json:"overlay_node_id,omitempty"`
	HasInteracted *bool   `json:"has_interacted,omitempty"`
	Completed     *bool   `json:"completed,omitempty"`

	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta describes how the history stack moved. Retreating shrinks the stack,
// so a delta is either a truncation, an append, or a truncation followed by appends.
type HistoryDelta struct {
	// Truncate is the length the client must cut its stack to before appending.
	Truncate *int     `json:"truncate,omitempty"`
	Appended []string `json:"appended,omitempty"`
}

// Diff calculates the difference between oldCursor and newCursor.
// If oldCursor is nil, it returns a diff representing the whole newCursor (initial load).
// It returns nil when nothing changed.
func Diff(oldCursor, newCursor *Cursor) *CursorDiff {
	if newCursor == nil {
		return nil
	}

	diff := &CursorDiff{SessionKey: newCursor.Key()}

	if oldCursor == nil || oldCursor.CurrentNodeID != newCursor.CurrentNodeID {
		diff.CurrentNodeID = &newCursor.CurrentNodeID
	}
	if oldCursor == nil || oldCursor.OverlayNodeID != newCursor.OverlayNodeID {
		diff.OverlayNodeID = &newCursor.OverlayNodeID
	}
	if oldCursor == nil || oldCursor.HasInteracted != newCursor.HasInteracted {
		diff.HasInteracted = &newCursor.HasInteracted
	}
	if oldCursor == nil || oldCursor.Completed != newCursor.Completed {
		diff.Completed = &newCursor.Completed
	}
	diff.History = diffHistory(oldCursor, newCursor)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffHistory(old, new *Cursor) *HistoryDelta {
	if old == nil {
		if len(new.History) == 0 {
			return nil
		}
		return &HistoryDelta{Appended: append([]string(nil), new.History...)}
	}

	// Longest common prefix.
	common := 0
	for common < len(old.History) && common < len(new.History) && old.History[common] == new.History[common] {
		common++
	}
	if common == len(old.History) && common == len(new.History) {
		return nil
	}

	delta := &HistoryDelta{}
	if common < len(old.History) {
		n := common
		delta.Truncate = &n
	}
	if common < len(new.History) {
		delta.Appended = append([]string(nil), new.History[common:]...)
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *CursorDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.OverlayNodeID == nil &&
		d.HasInteracted == nil &&
		d.Completed == nil &&
		d.History == nil
}
