package authoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway/pkg/domain"
)

var fixedNow = func() time.Time { return time.UnixMilli(1700000000000) }

func TestClipboard_CopyRenamesAndOffsets(t *testing.T) {
	dev := &MemoryDevice{}
	cb := NewClipboard(dev, fixedNow)

	sel := []domain.Node{
		{ID: "a", Type: domain.NodeTypeMessage, Position: domain.Position{X: 10, Y: 20}, Data: domain.NodeData{NextNodeID: "b"}},
		{ID: "b", Type: domain.NodeTypeMessage, Data: domain.NodeData{NextNodeID: "outside"}},
	}
	require.NoError(t, cb.Copy(sel))

	text, _ := dev.ReadText()
	assert.Contains(t, text, `"a-copy"`)
	assert.Contains(t, text, `"nextNodeId":"b-copy"`)
	assert.Contains(t, text, `"nextNodeId":"outside"`)

	// The original selection is untouched.
	assert.Equal(t, "a", sel[0].ID)
	assert.Equal(t, "b", sel[0].Data.NextNodeID)
}

func TestClipboard_Paste(t *testing.T) {
	dev := &MemoryDevice{}
	cb := NewClipboard(dev, fixedNow)

	existing := []domain.Node{
		{ID: "keep", Type: domain.NodeTypeMessage},
		{ID: "node-1700000000000-0", Type: domain.NodeTypeMessage},
	}
	sel := []domain.Node{
		{ID: "r", Type: domain.NodeTypeRouter, Data: domain.NodeData{Choices: []domain.Choice{
			{Text: "loop", NextNodeID: "m"}, {Text: "out", NextNodeID: "keep"}, {Text: "gone", NextNodeID: "deleted"},
		}}},
		{ID: "m", Type: domain.NodeTypeMessage, Position: domain.Position{X: 1, Y: 1}},
	}
	require.NoError(t, cb.Copy(sel))

	pasted, err := cb.Paste(existing)
	require.NoError(t, err)
	require.Len(t, pasted, 2)

	assert.Equal(t, "node-1700000000001-0", pasted[0].ID)
	assert.Equal(t, "node-1700000000001-1", pasted[1].ID)
	assert.Equal(t, pasted[1].ID, pasted[0].Data.Choices[0].NextNodeID)
	assert.Equal(t, "keep", pasted[0].Data.Choices[1].NextNodeID)
	assert.Empty(t, pasted[0].Data.Choices[2].NextNodeID)
	assert.Equal(t, domain.Position{X: 101, Y: 101}, pasted[1].Position)
}

func TestClipboard_PasteEmpty(t *testing.T) {
	cb := NewClipboard(nil, fixedNow)
	_, err := cb.Paste(nil)
	assert.ErrorIs(t, err, ErrEmptyClipboard)

	dev := &MemoryDevice{}
	_ = dev.WriteText("plain text from somewhere else")
	_, err = NewClipboard(dev, fixedNow).Paste(nil)
	assert.ErrorIs(t, err, ErrEmptyClipboard)
}
