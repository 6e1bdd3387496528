package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/pathway"
	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/internal/presentation/graph"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
)

// PlaybackResponse is the structured result of every playback tool.
type PlaybackResponse struct {
	Playback *pathway.Playback `json:"playback" jsonschema_description:"What the learner faces after the step"`
	Warning  string            `json:"warning,omitempty" jsonschema_description:"A follow-up write that failed after the step succeeded"`
}

// Engine defines the playback surface exposed to MCP clients.
type Engine interface {
	Start(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)
	Playback(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)
	Next(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)
	Choose(ctx context.Context, moduleID, userID string, index int) (*pathway.Playback, error)
	Previous(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)
	Interact(ctx context.Context, moduleID, userID string, in pathway.Interaction) (*pathway.Playback, error)
	SetVariable(ctx context.Context, moduleID, userID, variableID string, value any) (*domain.LearnerState, error)
	Restart(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)
	Stores() ports.Stores
}

var _ Engine = (*pathway.Engine)(nil)

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for tool failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("pathway-mcp", strings.TrimSpace(pathway.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func sessionTool(name, description string, extra ...mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module to play")),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Opaque learner id")),
	}
	opts = append(opts, extra...)
	opts = append(opts, mcp.WithOutputSchema[PlaybackResponse]())
	return mcp.NewTool(name, opts...)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(sessionTool("start_module",
		"Start or resume a learner session and return the current node."),
		mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(sessionTool("get_playback",
		"Return what the learner currently faces without moving."),
		mcp.NewStructuredToolHandler(s.handlePlayback))

	s.mcpServer.AddTool(sessionTool("next",
		"Advance past the current node. Required questions must be answered first."),
		mcp.NewStructuredToolHandler(s.handleNext))

	s.mcpServer.AddTool(sessionTool("choose",
		"Take a choice of the active router.",
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based choice index"))),
		mcp.NewStructuredToolHandler(s.handleChoose))

	s.mcpServer.AddTool(sessionTool("previous",
		"Go back to the previous node in the learner's history."),
		mcp.NewStructuredToolHandler(s.handlePrevious))

	s.mcpServer.AddTool(sessionTool("interact",
		"Answer the current question node.",
		mcp.WithString("answer", mcp.Required(), mcp.Description("Answer text, or a JSON array for multi-select and ranking questions"))),
		mcp.NewStructuredToolHandler(s.handleInteract))

	s.mcpServer.AddTool(sessionTool("restart",
		"Drop the learner's position and interaction log and start over."),
		mcp.NewStructuredToolHandler(s.handleRestart))

	s.mcpServer.AddTool(mcp.NewTool("set_variable",
		mcp.WithDescription("Set a learner variable after checking its declared type."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module of the variable")),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Opaque learner id")),
		mcp.WithString("variable_id", mcp.Required(), mcp.Description("Variable id")),
		mcp.WithString("value", mcp.Required(), mcp.Description("JSON encoded value, e.g. 5, true or \"text\"")),
	), s.handleSetVariable)

	s.mcpServer.AddTool(mcp.NewTool("list_modules",
		mcp.WithDescription("List the ids of every module."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.engine.Stores().Modules.ListModules(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get a Mermaid flowchart of a module, highlighting a learner's path when user_id is given."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module to draw")),
		mcp.WithString("user_id", mcp.Description("Learner whose position is highlighted (optional)")),
	), s.handleGraph)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("pathway://modules", "Module ids",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.Stores().Modules.ListModules(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list modules: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "pathway://modules",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

type args = map[string]any

func sessionArgs(a args) (moduleID, userID string, err error) {
	moduleID, _ = a["module_id"].(string)
	userID, _ = a["user_id"].(string)
	if moduleID == "" || userID == "" {
		return "", "", errors.New("module_id and user_id are required")
	}
	return moduleID, userID, nil
}

// respond turns a step result into a tool result. Persistence failures become a
// warning next to the valid playback.
func (s *Server) respond(ctx context.Context, tool string, pb *pathway.Playback, err error) (PlaybackResponse, error) {
	var perr *pathway.PersistenceError
	if errors.As(err, &perr) && pb != nil {
		s.logger.WarnContext(ctx, "step persisted partially", "tool", tool, "err", err)
		return PlaybackResponse{Playback: pb, Warning: perr.Error()}, nil
	}
	if err != nil {
		return PlaybackResponse{}, fmt.Errorf("%s failed: %w", tool, err)
	}
	return PlaybackResponse{Playback: pb}, nil
}

type stepFunc func(ctx context.Context, moduleID, userID string) (*pathway.Playback, error)

func (s *Server) run(ctx context.Context, tool string, a args, fn stepFunc) (PlaybackResponse, error) {
	moduleID, userID, err := sessionArgs(a)
	if err != nil {
		return PlaybackResponse{}, err
	}
	pb, err := fn(ctx, moduleID, userID)
	return s.respond(ctx, tool, pb, err)
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, a args) (PlaybackResponse, error) {
	return s.run(ctx, "start_module", a, s.engine.Start)
}

func (s *Server) handlePlayback(ctx context.Context, _ mcp.CallToolRequest, a args) (PlaybackResponse, error) {
	return s.run(ctx, "get_playback", a, s.engine.Playback)
}

func (s *Server) handleNext(ctx context.Context, _ mcp.CallToolRequest, a args) (PlaybackResponse, error) {
	return s.run(ctx, "next", a, s.engine.Next)
}

func (s *Server) handlePrevious(ctx context.Context, _ mcp.CallToolRequest, a args) (PlaybackResponse, error) {
	return s.run(ctx, "previous", a, s.engine.Previous)
}

func (s *Server) handleRestart(ctx context.Context, _ mcp.CallToolRequest, a args) (PlaybackResponse, error) {
	return s.run(ctx, "restart", a, s.engine.Restart)
}

func (s *Server) handleChoose(ctx context.Context, _ mcp.CallToolRequest, a args) (PlaybackResponse, error) {
	index, ok := a["index"].(float64)
	if !ok || index != float64(int(index)) {
		return PlaybackResponse{}, errors.New("index must be an integer")
	}
	return s.run(ctx, "choose", a, func(ctx context.Context, moduleID, userID string) (*pathway.Playback, error) {
		return s.engine.Choose(ctx, moduleID, userID, int(index))
	})
}

func (s *Server) handleInteract(ctx context.Context, _ mcp.CallToolRequest, a args) (PlaybackResponse, error) {
	raw, _ := a["answer"].(string)
	var answer any = raw
	if trimmed := strings.TrimSpace(raw); strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			answer = list
		}
	}
	return s.run(ctx, "interact", a, func(ctx context.Context, moduleID, userID string) (*pathway.Playback, error) {
		return s.engine.Interact(ctx, moduleID, userID, pathway.Interaction{Answer: answer})
	})
}

func (s *Server) handleSetVariable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := request.GetArguments()
	moduleID, userID, err := sessionArgs(a)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	variableID, _ := a["variable_id"].(string)
	raw, _ := a["value"].(string)

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		// Bare words are taken as strings.
		value = raw
	}
	state, err := s.engine.SetVariable(ctx, moduleID, userID, variableID, value)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("set_variable failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(state.VariablesState)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := request.GetArguments()
	moduleID, _ := a["module_id"].(string)
	m, err := s.engine.Stores().Modules.GetModule(ctx, moduleID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get_graph failed: %v", err)), nil
	}

	var overlay *graph.GraphOverlay
	if userID, _ := a["user_id"].(string); userID != "" {
		if pb, err := s.engine.Playback(ctx, moduleID, userID); err == nil {
			overlay = graph.OverlayFromCursor(pb.Cursor)
		}
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(m, overlay)), nil
}
