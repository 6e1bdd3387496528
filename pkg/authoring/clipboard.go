package authoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/pathway/pkg/domain"
)

const (
	clipboardKind = "pathway/nodes"
	copySuffix    = "-copy"
)

// PasteOffset is added to the position of copied and pasted nodes so they do not
// land on top of their originals.
var PasteOffset = domain.Position{X: 50, Y: 50}

// ErrEmptyClipboard is returned by Paste when the device holds no node selection.
var ErrEmptyClipboard = errors.New("clipboard holds no nodes")

// ClipboardDevice is the host clipboard.
type ClipboardDevice interface {
	WriteText(text string) error
	ReadText() (string, error)
}

// MemoryDevice is an in-process ClipboardDevice.
type MemoryDevice struct {
	mu   sync.Mutex
	text string
}

func (d *MemoryDevice) WriteText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	return nil
}

func (d *MemoryDevice) ReadText() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text, nil
}

type clipboardPayload struct {
	Kind  string        `json:"kind"`
	Nodes []domain.Node `json:"nodes"`
}

// Clipboard serializes node selections to a ClipboardDevice.
type Clipboard struct {
	device ClipboardDevice
	now    func() time.Time
}

// NewClipboard creates a Clipboard over device. A nil device gets a MemoryDevice.
func NewClipboard(device ClipboardDevice, now func() time.Time) *Clipboard {
	if device == nil {
		device = &MemoryDevice{}
	}
	if now == nil {
		now = time.Now
	}
	return &Clipboard{device: device, now: now}
}

// Copy writes the selection to the device. Ids get a "-copy" suffix, references
// between selected nodes follow the renamed ids and positions are offset.
func (c *Clipboard) Copy(selection []domain.Node) error {
	if len(selection) == 0 {
		return nil
	}
	renamed := make(map[string]string, len(selection))
	for _, n := range selection {
		renamed[n.ID] = n.ID + copySuffix
	}
	nodes := relabel(selection, renamed)

	raw, err := json.Marshal(clipboardPayload{Kind: clipboardKind, Nodes: nodes})
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}
	return c.device.WriteText(string(raw))
}

// Paste reads a selection from the device and returns it ready to append to existing.
// Every node gets a fresh "node-<unix millis>-<i>" id that does not collide with
// existing, positions are offset again, references inside the selection are remapped
// and references to nodes absent from existing are cleared.
func (c *Clipboard) Paste(existing []domain.Node) ([]domain.Node, error) {
	text, err := c.device.ReadText()
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard: %w", err)
	}
	var payload clipboardPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil || payload.Kind != clipboardKind || len(payload.Nodes) == 0 {
		return nil, ErrEmptyClipboard
	}

	taken := make(map[string]bool, len(existing)+len(payload.Nodes))
	for _, n := range existing {
		taken[n.ID] = true
	}

	stamp := c.now().UnixMilli()
	renamed := make(map[string]string, len(payload.Nodes))
	for i, n := range payload.Nodes {
		id := fmt.Sprintf("node-%d-%d", stamp, i)
		for taken[id] {
			stamp++
			id = fmt.Sprintf("node-%d-%d", stamp, i)
		}
		taken[id] = true
		renamed[n.ID] = id
	}

	nodes := relabel(payload.Nodes, renamed)
	for i := range nodes {
		nodes[i].Data.NextNodeID = keepKnown(nodes[i].Data.NextNodeID, taken)
		for ci := range nodes[i].Data.Choices {
			nodes[i].Data.Choices[ci].NextNodeID = keepKnown(nodes[i].Data.Choices[ci].NextNodeID, taken)
		}
	}
	return nodes, nil
}

// relabel clones nodes, renames them and their references through ids, and offsets
// their positions.
func relabel(nodes []domain.Node, ids map[string]string) []domain.Node {
	out := domain.CloneNodes(nodes)
	for i := range out {
		out[i].ID = ids[out[i].ID]
		out[i].Position.X += PasteOffset.X
		out[i].Position.Y += PasteOffset.Y
		if to, ok := ids[out[i].Data.NextNodeID]; ok {
			out[i].Data.NextNodeID = to
		}
		for ci, ch := range out[i].Data.Choices {
			if to, ok := ids[ch.NextNodeID]; ok {
				out[i].Data.Choices[ci].NextNodeID = to
			}
		}
	}
	return out
}

func keepKnown(id string, known map[string]bool) string {
	if known[id] {
		return id
	}
	return ""
}
