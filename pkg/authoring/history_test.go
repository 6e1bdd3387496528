package authoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway/pkg/domain"
)

func titled(titles ...string) []domain.Node {
	nodes := make([]domain.Node, len(titles))
	for i, t := range titles {
		nodes[i] = domain.Node{ID: t, Type: domain.NodeTypeMessage, Data: domain.NodeData{Title: t}}
	}
	return nodes
}

func TestHistory_UndoAllRestoresInitial(t *testing.T) {
	initial := titled("a")
	h := NewHistory(initial)

	states := [][]domain.Node{titled("a", "b"), titled("a", "b", "c"), titled("c")}
	for _, s := range states {
		h.Record(s)
	}
	for range states {
		_, ok := h.Undo()
		require.True(t, ok)
	}

	assert.Equal(t, initial, h.Current())
	_, ok := h.Undo()
	assert.False(t, ok)
}

func TestHistory_RedoRestoresUndone(t *testing.T) {
	h := NewHistory(titled("a"))
	h.Record(titled("a", "b"))

	_, _ = h.Undo()
	got, ok := h.Redo()
	require.True(t, ok)
	assert.Equal(t, titled("a", "b"), got)

	_, ok = h.Redo()
	assert.False(t, ok)
}

func TestHistory_RecordTruncatesRedo(t *testing.T) {
	h := NewHistory(titled("a"))
	h.Record(titled("a", "b"))
	h.Record(titled("a", "b", "c"))

	_, _ = h.Undo()
	_, _ = h.Undo()
	h.Record(titled("z"))

	assert.False(t, h.CanRedo())
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, titled("z"), h.Current())
}

func TestHistory_SnapshotsAreIsolated(t *testing.T) {
	nodes := titled("a")
	h := NewHistory(nodes)
	nodes[0].Data.Title = "mutated"

	assert.Equal(t, "a", h.Current()[0].Data.Title)

	cur := h.Current()
	cur[0].Data.Title = "again"
	assert.Equal(t, "a", h.Current()[0].Data.Title)
}
