package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/pathway"
	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/authoring"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/graph"
	"github.com/aretw0/pathway/pkg/ports"
	"github.com/aretw0/pathway/pkg/schema"
)

// Engine defines the playback and editing surface served over HTTP.
type Engine interface {
	Start(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)
	Playback(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)
	Next(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)
	Choose(ctx context.Context, moduleID, userID string, index int) (*pathway.Playback, error)
	Previous(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)
	Interact(ctx context.Context, moduleID, userID string, in pathway.Interaction) (*pathway.Playback, error)
	SetVariable(ctx context.Context, moduleID, userID, variableID string, value any) (*domain.LearnerState, error)
	Restart(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)
	SaveEditor(ctx context.Context, s *authoring.Session) error
	PublishModule(ctx context.Context, moduleID string) error
	Stores() ports.Stores
	Watch(ctx context.Context) (<-chan string, error)
}

var _ Engine = (*pathway.Engine)(nil)

// PersistenceHeader carries the error of a follow-up write that failed after a step
// succeeded. The response body is still the valid playback.
const PersistenceHeader = "X-Pathway-Persistence-Error"

// Server serves the engine.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/events", server.SubscribeEvents)

	r.Route("/modules", func(r chi.Router) {
		r.Get("/", server.ListModules)
		r.Route("/{moduleID}", func(r chi.Router) {
			r.Get("/", server.GetModule)
			r.Put("/", server.SaveModule)
			r.Post("/publish", server.PublishModule)

			r.Route("/sessions/{userID}", func(r chi.Router) {
				r.Get("/", server.step(func(e Engine, ctx context.Context, m, u string, _ *http.Request) (*pathway.Playback, error) {
					return e.Playback(ctx, m, u)
				}))
				r.Post("/start", server.step(func(e Engine, ctx context.Context, m, u string, _ *http.Request) (*pathway.Playback, error) {
					return e.Start(ctx, m, u)
				}))
				r.Post("/next", server.step(func(e Engine, ctx context.Context, m, u string, _ *http.Request) (*pathway.Playback, error) {
					return e.Next(ctx, m, u)
				}))
				r.Post("/previous", server.step(func(e Engine, ctx context.Context, m, u string, _ *http.Request) (*pathway.Playback, error) {
					return e.Previous(ctx, m, u)
				}))
				r.Post("/restart", server.step(func(e Engine, ctx context.Context, m, u string, _ *http.Request) (*pathway.Playback, error) {
					return e.Restart(ctx, m, u)
				}))
				r.Post("/choose", server.step(choose))
				r.Post("/interact", server.step(interact))
				r.Put("/variables/{variableID}", server.SetVariable)
				r.Get("/events", server.SubscribeSession)
			})
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", PersistenceHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type stepHandler func(e Engine, ctx context.Context, moduleID, userID string, r *http.Request) (*pathway.Playback, error)

// ChooseRequest is the body of POST .../choose.
type ChooseRequest struct {
	Index *int `json:"index"`
}

// VariableRequest is the body of PUT .../variables/{variableID}.
type VariableRequest struct {
	Value any `json:"value"`
}

func choose(e Engine, ctx context.Context, moduleID, userID string, r *http.Request) (*pathway.Playback, error) {
	var body ChooseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Index == nil {
		return nil, errBadRequest("expected {\"index\": <int>}")
	}
	return e.Choose(ctx, moduleID, userID, *body.Index)
}

func interact(e Engine, ctx context.Context, moduleID, userID string, r *http.Request) (*pathway.Playback, error) {
	var body pathway.Interaction
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, errBadRequest("expected {\"answer\": ...}")
	}
	return e.Interact(ctx, moduleID, userID, body)
}

// step wraps a playback operation: it writes the playback, flags persistence
// failures and broadcasts the cursor diff to session subscribers.
func (s *Server) step(fn stepHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moduleID := chi.URLParam(r, "moduleID")
		userID := chi.URLParam(r, "userID")

		pb, err := fn(s.Engine, r.Context(), moduleID, userID, r)
		var perr *pathway.PersistenceError
		if errors.As(err, &perr) && pb != nil {
			s.logger.WarnContext(r.Context(), "step persisted partially", "module_id", moduleID, "user_id", userID, "err", err)
			w.Header().Set(PersistenceHeader, perr.Error())
			err = nil
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		if pb.Diff != nil && r.Method != http.MethodGet {
			if payload, err := json.Marshal(pb.Diff); err == nil {
				s.Streams.Broadcast(domain.SessionKey(moduleID, userID), string(payload))
			}
		}
		s.writeJSON(w, http.StatusOK, pb)
	}
}

// SetVariable handles PUT /modules/{moduleID}/sessions/{userID}/variables/{variableID}.
func (s *Server) SetVariable(w http.ResponseWriter, r *http.Request) {
	var body VariableRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, errBadRequest("expected {\"value\": ...}"))
		return
	}
	state, err := s.Engine.SetVariable(r.Context(), chi.URLParam(r, "moduleID"), chi.URLParam(r, "userID"), chi.URLParam(r, "variableID"), body.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// ListModules handles GET /modules.
func (s *Server) ListModules(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Stores().Modules.ListModules(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"modules": ids})
}

// GetModule handles GET /modules/{moduleID}.
func (s *Server) GetModule(w http.ResponseWriter, r *http.Request) {
	m, err := s.Engine.Stores().Modules.GetModule(r.Context(), chi.URLParam(r, "moduleID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

// SaveModule handles PUT /modules/{moduleID}. The body is a module; its graph is
// validated before anything is stored.
func (s *Server) SaveModule(w http.ResponseWriter, r *http.Request) {
	var m domain.Module
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		s.writeError(w, r, errBadRequest(fmt.Sprintf("invalid module: %v", err)))
		return
	}
	m.ID = chi.URLParam(r, "moduleID")
	if len(m.Edges) == 0 {
		m.Edges = graph.DeriveEdges(m.Nodes)
	}
	if existing, err := s.Engine.Stores().Modules.GetModule(r.Context(), m.ID); err == nil && m.CreatedAt.IsZero() {
		m.CreatedAt = existing.CreatedAt
	}

	session := authoring.NewSession(&m, authoring.WithLogger(s.logger))
	if err := s.Engine.SaveEditor(r.Context(), session); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, session.Module())
}

// PublishModule handles POST /modules/{moduleID}/publish.
func (s *Server) PublishModule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "moduleID")
	if err := s.Engine.PublishModule(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "published": true})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "pathway-http",
		"version": strings.TrimSpace(pathway.Version),
	})
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string                  `json:"error"`
	Issues []graph.ValidationError `json:"issues,omitempty"`
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

func errBadRequest(msg string) error { return badRequest(msg) }

func statusOf(err error) int {
	var br badRequest
	var schemaErr *schema.AggregateError
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrModuleNotFound), errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrVariableNotFound), errors.Is(err, domain.ErrProgressNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrChoiceBlocked), errors.Is(err, domain.ErrNoActiveRouter),
		errors.Is(err, domain.ErrChoiceRequired):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAnswerRequired), errors.Is(err, domain.ErrInvalidAnswer),
		errors.Is(err, domain.ErrChoiceNotFound), graph.ValidationErrors(err) != nil,
		errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Issues: graph.ValidationErrors(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // session key -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(key string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[key]; !ok {
		sm.subscribers[key] = make(map[chan<- string]struct{})
	}
	sm.subscribers[key][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[key]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, key)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of key. Slow clients miss messages.
func (sm *StreamManager) Broadcast(key string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[key] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// SubscribeEvents handles GET /events: one message per changed module document.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	events, err := s.Engine.Watch(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sseHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// SubscribeSession handles GET .../sessions/{userID}/events: one cursor diff per
// step of the session. The optional watch parameter (comma separated: node, overlay,
// interacted, completed, history) drops diffs that touch none of the listed fields.
func (s *Server) SubscribeSession(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	key := domain.SessionKey(chi.URLParam(r, "moduleID"), chi.URLParam(r, "userID"))

	var watchList []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watchList = strings.Split(raw, ",")
	}

	ch, cancel := s.Streams.Subscribe(key)
	defer cancel()

	sseHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.DebugContext(r.Context(), "session subscriber connected", "session_key", key)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func matchesWatch(msg string, fields []string) bool {
	var diff domain.CursorDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "node":
			if diff.CurrentNodeID != nil {
				return true
			}
		case "overlay":
			if diff.OverlayNodeID != nil {
				return true
			}
		case "interacted":
			if diff.HasInteracted != nil {
				return true
			}
		case "completed":
			if diff.Completed != nil {
				return true
			}
		case "history":
			if diff.History != nil {
				return true
			}
		}
	}
	return false
}

func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
