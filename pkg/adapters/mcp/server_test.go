package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway"
	"github.com/aretw0/pathway/internal/runtime"
	"github.com/aretw0/pathway/internal/testutils"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := pathway.New(
		pathway.WithStores(testutils.CourseStores(t)),
		pathway.WithClock(testutils.Clock()),
	)
	require.NoError(t, err)
	return NewServer(eng)
}

func session(extra map[string]any) map[string]any {
	a := map[string]any{"module_id": testutils.CourseID, "user_id": "ada"}
	for k, v := range extra {
		a[k] = v
	}
	return a
}

func call(a map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = a
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_PlaybackTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	resp, err := s.handleStart(ctx, req, session(nil))
	require.NoError(t, err)
	assert.Equal(t, "intro", resp.Playback.Node.ID)
	assert.Empty(t, resp.Warning)

	resp, err = s.handleNext(ctx, req, session(nil))
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeOverlay, resp.Playback.Outcome.Kind)
	assert.Equal(t, "hint", resp.Playback.Router().ID)

	resp, err = s.handleChoose(ctx, req, session(map[string]any{"index": float64(0)}))
	require.NoError(t, err)
	assert.Equal(t, "quiz", resp.Playback.Node.ID)

	_, err = s.handleNext(ctx, req, session(nil))
	assert.Error(t, err, "required answer is enforced")

	resp, err = s.handleInteract(ctx, req, session(map[string]any{"answer": "42"}))
	require.NoError(t, err)
	assert.True(t, resp.Playback.Cursor.HasInteracted)

	resp, err = s.handlePlayback(ctx, req, session(nil))
	require.NoError(t, err)
	assert.Equal(t, "quiz", resp.Playback.Node.ID)

	resp, err = s.handlePrevious(ctx, req, session(nil))
	require.NoError(t, err)
	assert.Equal(t, "intro", resp.Playback.Node.ID)

	resp, err = s.handleRestart(ctx, req, session(nil))
	require.NoError(t, err)
	assert.Equal(t, "intro", resp.Playback.Node.ID)
}

func TestServer_ArgumentErrors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleStart(ctx, req, map[string]any{"module_id": testutils.CourseID})
	assert.Error(t, err)

	_, err = s.handleChoose(ctx, req, session(map[string]any{"index": 1.5}))
	assert.Error(t, err)

	_, err = s.handleChoose(ctx, req, session(map[string]any{"index": "0"}))
	assert.Error(t, err)

	_, err = s.handleStart(ctx, req, map[string]any{"module_id": "missing", "user_id": "ada"})
	assert.Error(t, err)
}

func TestServer_SetVariable(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleSetVariable(ctx, call(session(map[string]any{"variable_id": "v-name", "value": "Ada"})))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"v-name":"Ada"`)

	res, err = s.handleSetVariable(ctx, call(session(map[string]any{"variable_id": "v-score", "value": "10"})))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"v-score":10`)

	res, err = s.handleSetVariable(ctx, call(session(map[string]any{"variable_id": "v-score", "value": "ten"})))
	require.NoError(t, err)
	assert.True(t, res.IsError, "type mismatch is reported as a tool error")
}

func TestServer_Graph(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleStart(ctx, mcp.CallToolRequest{}, session(nil))
	require.NoError(t, err)

	res, err := s.handleGraph(ctx, call(session(nil)))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "graph TD")
	assert.Contains(t, text, "class intro current")

	res, err = s.handleGraph(ctx, call(map[string]any{"module_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
