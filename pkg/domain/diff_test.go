package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	base := func() *Cursor {
		return &Cursor{
			ModuleID:      "m1",
			UserID:        "u1",
			CurrentNodeID: "a",
			History:       []string{"a"},
		}
	}

	t.Run("Initial Load (Old is Nil)", func(t *testing.T) {
		got := Diff(nil, base())
		require.NotNil(t, got)
		assert.Equal(t, "m1:u1", got.SessionKey)
		require.NotNil(t, got.CurrentNodeID)
		assert.Equal(t, "a", *got.CurrentNodeID)
		require.NotNil(t, got.History)
		assert.Equal(t, []string{"a"}, got.History.Appended)
		assert.Nil(t, got.History.Truncate)
	})

	t.Run("No Changes", func(t *testing.T) {
		assert.Nil(t, Diff(base(), base()))
	})

	t.Run("Advance Appends", func(t *testing.T) {
		next := base()
		next.CurrentNodeID = "b"
		next.History = append(next.History, "b")

		got := Diff(base(), next)
		require.NotNil(t, got)
		assert.Equal(t, "b", *got.CurrentNodeID)
		assert.Equal(t, []string{"b"}, got.History.Appended)
		assert.Nil(t, got.History.Truncate)
		assert.Nil(t, got.Completed)
	})

	t.Run("Retreat Truncates", func(t *testing.T) {
		old := base()
		old.CurrentNodeID = "c"
		old.History = []string{"a", "b", "c"}
		next := base()

		got := Diff(old, next)
		require.NotNil(t, got)
		require.NotNil(t, got.History.Truncate)
		assert.Equal(t, 1, *got.History.Truncate)
		assert.Empty(t, got.History.Appended)
	})

	t.Run("Overlay Opens", func(t *testing.T) {
		next := base()
		next.OverlayNodeID = "r"
		next.History = append(next.History, "r")

		got := Diff(base(), next)
		require.NotNil(t, got)
		assert.Nil(t, got.CurrentNodeID)
		assert.Equal(t, "r", *got.OverlayNodeID)
	})
}

func TestDiffJSONSerialization(t *testing.T) {
	old := &Cursor{ModuleID: "m", UserID: "u", CurrentNodeID: "a", History: []string{"a"}}
	next := old.Clone()
	next.Completed = true

	diff := Diff(old, next)
	require.NotNil(t, diff)

	bytes, err := json.Marshal(diff)
	require.NoError(t, err)
	s := string(bytes)
	assert.True(t, strings.Contains(s, `"completed":true`), s)
	assert.False(t, strings.Contains(s, `"history"`), s)
	assert.False(t, strings.Contains(s, `"current_node_id"`), s)
}
