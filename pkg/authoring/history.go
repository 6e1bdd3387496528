package authoring

import "github.com/aretw0/pathway/pkg/domain"

// History is a linear list of node snapshots with a cursor. Recording after an undo
// discards the redo branch.
type History struct {
	snapshots [][]domain.Node
	index     int
}

// NewHistory starts a history whose first snapshot is initial.
func NewHistory(initial []domain.Node) *History {
	return &History{snapshots: [][]domain.Node{domain.CloneNodes(initial)}}
}

// Record appends a snapshot after the current one, truncating any redo entries.
func (h *History) Record(nodes []domain.Node) {
	h.snapshots = append(h.snapshots[:h.index+1], domain.CloneNodes(nodes))
	h.index = len(h.snapshots) - 1
}

// Undo steps back one snapshot. ok is false when already at the oldest one.
func (h *History) Undo() (nodes []domain.Node, ok bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.index--
	return h.Current(), true
}

// Redo steps forward one snapshot. ok is false when nothing was undone.
func (h *History) Redo() (nodes []domain.Node, ok bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.index++
	return h.Current(), true
}

func (h *History) CanUndo() bool { return h.index > 0 }
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }

// Current returns a copy of the snapshot under the cursor.
func (h *History) Current() []domain.Node {
	return domain.CloneNodes(h.snapshots[h.index])
}

// Len is the number of snapshots held.
func (h *History) Len() int { return len(h.snapshots) }
