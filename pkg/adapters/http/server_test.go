package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway"
	"github.com/aretw0/pathway/internal/testutils"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
)

// watchingEngine adds a scripted module watcher to a real engine.
type watchingEngine struct {
	*pathway.Engine
	events []string
}

func (e *watchingEngine) Watch(context.Context) (<-chan string, error) {
	ch := make(chan string, len(e.events))
	for _, ev := range e.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func newTestHandler(t *testing.T) (http.Handler, ports.Stores) {
	t.Helper()
	stores := testutils.CourseStores(t)
	eng, err := pathway.New(pathway.WithStores(stores), pathway.WithClock(testutils.Clock()))
	require.NoError(t, err)
	return NewHandler(&watchingEngine{Engine: eng, events: []string{"course"}}), stores
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodePlayback(t *testing.T, w *httptest.ResponseRecorder) pathway.Playback {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pb pathway.Playback
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pb))
	return pb
}

const session = "/modules/course/sessions/ada"

func TestServer_PlaybackFlow(t *testing.T) {
	h, _ := newTestHandler(t)

	pb := decodePlayback(t, do(t, h, "POST", session+"/start", ""))
	assert.Equal(t, "intro", pb.Cursor.CurrentNodeID)
	assert.Equal(t, "Hi learner", pb.Node.Data.Title)
	require.NotNil(t, pb.Diff)

	pb = decodePlayback(t, do(t, h, "POST", session+"/next", ""))
	assert.Equal(t, "hint", pb.Cursor.OverlayNodeID)
	assert.Equal(t, []bool{true, true}, pb.ChoiceValidity)

	pb = decodePlayback(t, do(t, h, "POST", session+"/choose", `{"index": 0}`))
	assert.Equal(t, "quiz", pb.Node.ID)

	w := do(t, h, "POST", session+"/next", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "answer required")

	pb = decodePlayback(t, do(t, h, "POST", session+"/interact", `{"answer": "42"}`))
	assert.True(t, pb.Cursor.HasInteracted)

	pb = decodePlayback(t, do(t, h, "POST", session+"/next", ""))
	assert.Equal(t, "pick", pb.Node.ID)
	assert.Equal(t, []bool{false, true}, pb.ChoiceValidity)

	w = do(t, h, "POST", session+"/next", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "choice required")

	w = do(t, h, "PUT", session+"/variables/v-score", `{"value": 9}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	pb = decodePlayback(t, do(t, h, "GET", session, ""))
	assert.Equal(t, []bool{true, true}, pb.ChoiceValidity)
	assert.Nil(t, pb.Diff)

	pb = decodePlayback(t, do(t, h, "POST", session+"/choose", `{"index": 0}`))
	assert.Equal(t, "end", pb.Node.ID)
	pb = decodePlayback(t, do(t, h, "POST", session+"/next", ""))
	assert.True(t, pb.Completed)

	pb = decodePlayback(t, do(t, h, "POST", session+"/previous", ""))
	assert.False(t, pb.Completed)

	pb = decodePlayback(t, do(t, h, "POST", session+"/restart", ""))
	assert.Equal(t, []string{"intro"}, pb.Cursor.History)
}

func TestServer_Errors(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown module", "POST", "/modules/missing/sessions/ada/start", "", http.StatusNotFound},
		{"unknown session", "POST", session + "/next", "", http.StatusNotFound},
		{"choose without body", "POST", session + "/choose", ``, http.StatusBadRequest},
		{"unknown variable", "PUT", session + "/variables/v-nope", `{"value": 1}`, http.StatusNotFound},
		{"wrong variable type", "PUT", session + "/variables/v-name", `{"value": 1}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	decodePlayback(t, do(t, h, "POST", session+"/start", ""))
	w := do(t, h, "POST", session+"/choose", `{"index": 0}`)
	assert.Equal(t, http.StatusConflict, w.Code, "no router is active on intro")
}

func TestServer_Modules(t *testing.T) {
	h, stores := newTestHandler(t)

	w := do(t, h, "GET", "/modules", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"modules": ["course"]}`, w.Body.String())

	w = do(t, h, "GET", "/modules/course", "")
	require.Equal(t, http.StatusOK, w.Code)
	var m domain.Module
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Len(t, m.Nodes, 5)

	m.Title = "Renamed"
	m.Edges = nil
	body, err := json.Marshal(m)
	require.NoError(t, err)
	w = do(t, h, "PUT", "/modules/course", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved, err := stores.Modules.GetModule(context.Background(), "course")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", saved.Title)
	assert.Equal(t, testutils.Epoch, saved.CreatedAt)
	assert.NotEmpty(t, saved.Edges, "edges are derived when omitted")

	m.Nodes[0].Data.NextNodeID = "ghost"
	body, err = json.Marshal(m)
	require.NoError(t, err)
	w = do(t, h, "PUT", "/modules/course", string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "intro", resp.Issues[0].NodeID)

	w = do(t, h, "POST", "/modules/course/publish", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved, err = stores.Modules.GetModule(context.Background(), "course")
	require.NoError(t, err)
	assert.True(t, saved.Published)
}

func TestServer_HealthInfoMetrics(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "GET", "/health", "")
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", "")
	assert.Contains(t, w.Body.String(), pathway.Version)

	decodePlayback(t, do(t, h, "POST", session+"/start", ""))
	decodePlayback(t, do(t, h, "POST", session+"/next", ""))
	w = do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pathway_transitions_total")

	w = do(t, h, "OPTIONS", "/modules", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

type failingCompletions struct{ ports.CompletionStore }

func (failingCompletions) InsertCompletion(context.Context, domain.Completion) error {
	return errors.New("disk full")
}

func TestServer_PersistenceFailureHeader(t *testing.T) {
	stores := testutils.CourseStores(t)
	stores.Completions = failingCompletions{stores.Completions}
	eng, err := pathway.New(pathway.WithStores(stores))
	require.NoError(t, err)
	h := NewHandler(eng)

	decodePlayback(t, do(t, h, "POST", session+"/start", ""))
	decodePlayback(t, do(t, h, "POST", session+"/next", ""))
	decodePlayback(t, do(t, h, "POST", session+"/choose", `{"index": 1}`))
	w := do(t, h, "POST", session+"/next", "")
	pb := decodePlayback(t, w)
	assert.True(t, pb.Completed)
	assert.Contains(t, w.Header().Get(PersistenceHeader), "disk full")
}

func TestSubscribeEvents_Global(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "GET", "/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event: ping")
	assert.Contains(t, w.Body.String(), "event: reload\ndata: course")
}

func TestSubscribeEvents_Session(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+session+"/events?watch=overlay", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: ping\n", line)

	post := func(path, body string) {
		r, err := http.Post(srv.URL+session+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		r.Body.Close()
		require.Equal(t, http.StatusOK, r.StatusCode)
	}
	post("/start", "")
	post("/next", "") // overlay opens

	// Diffs are unnamed events. The ping that opened the stream is skipped.
	var diffs []string
	event := "ping"
	for len(diffs) < 2 {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		switch {
		case line == "":
			event = ""
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == "":
			diffs = append(diffs, strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Contains(t, diffs[0], `"current_node_id":"intro"`, "the initial diff carries the whole cursor")
	assert.Contains(t, diffs[1], `"overlay_node_id":"hint"`)
	assert.Contains(t, diffs[1], `"session_key":"course:ada"`)
}
