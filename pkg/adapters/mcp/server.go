// Package mcp exposes the simulator sessions as Model Context Protocol tools,
// so an assistant can build circuits and read their truth tables.
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

	"github.com/aretw0/breadboard/internal/logging"
	"github.com/aretw0/breadboard/internal/validator"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// KindsURI is the resource listing the component kinds.
const KindsURI = "breadboard://kinds"

// Server wraps the session manager and exposes it as an MCP Server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("breadboard-mcp", strings.TrimSpace(version)),
		logger:    logging.NewNop(),
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

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

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
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("MCP Server shutting down")
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Tool arguments.

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type placeArgs struct {
	SessionID string  `json:"session_id"`
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type connectArgs struct {
	SessionID  string `json:"session_id"`
	From       string `json:"from"`
	FromOutput int    `json:"from_output"`
	To         string `json:"to"`
	ToInput    int    `json:"to_input"`
	Style      string `json:"style"`
}

type simulationArgs struct {
	SessionID string `json:"session_id"`
	Running   bool   `json:"running"`
}

type activateArgs struct {
	SessionID   string `json:"session_id"`
	ComponentID string `json:"component_id"`
}

type keyArgs struct {
	SessionID string `json:"session_id"`
	Key       string `json:"key"`
	Pressed   bool   `json:"pressed"`
}

// Tool results that are not session views.

// KindsResult lists the component kinds.
type KindsResult struct {
	Kinds []session.KindView `json:"kinds" jsonschema_description:"Built-in and custom component kinds"`
}

// KeyResult reports how many keyboard inputs a key event reached.
type KeyResult struct {
	Matched int `json:"matched" jsonschema_description:"Number of keyboard inputs bound to the key"`
}

// LintResult lists likely wiring mistakes.
type LintResult struct {
	Issues []validator.Issue `json:"issues"`
}

// DiagramResult holds a Mermaid flowchart of the circuit.
type DiagramResult struct {
	Mermaid string `json:"mermaid"`
}

func (s *Server) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session (circuit) identifier"))

	s.mcpServer.AddTool(mcp.NewTool("list_kinds",
		mcp.WithDescription("List the component kinds that can be placed, with their pin counts."),
		mcp.WithOutputSchema[KindsResult](),
	), mcp.NewStructuredToolHandler(s.handleListKinds))

	s.mcpServer.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open a circuit session, creating an empty one when it does not exist."),
		sessionID,
		mcp.WithOutputSchema[session.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleOpen))

	s.mcpServer.AddTool(mcp.NewTool("get_circuit",
		mcp.WithDescription("Get the components, wires and signal levels of a circuit."),
		sessionID,
		mcp.WithOutputSchema[session.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleSnapshot))

	s.mcpServer.AddTool(mcp.NewTool("place_component",
		mcp.WithDescription("Place a component of the given kind on the canvas."),
		sessionID,
		mcp.WithString("type", mcp.Required(), mcp.Description("Kind name, e.g. AND, Button, Lamp")),
		mcp.WithNumber("x", mcp.Description("Canvas x coordinate")),
		mcp.WithNumber("y", mcp.Description("Canvas y coordinate")),
		mcp.WithOutputSchema[session.ComponentView](),
	), mcp.NewStructuredToolHandler(s.handlePlace))

	s.mcpServer.AddTool(mcp.NewTool("connect",
		mcp.WithDescription("Wire an output pin of one component to an input pin of another."),
		sessionID,
		mcp.WithString("from", mcp.Required(), mcp.Description("Source component id")),
		mcp.WithNumber("from_output", mcp.Description("Source output pin, default 0")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Destination component id")),
		mcp.WithNumber("to_input", mcp.Description("Destination input pin, default 0")),
		mcp.WithString("style", mcp.Description("Route style, default curve")),
		mcp.WithOutputSchema[session.ConnectionView](),
	), mcp.NewStructuredToolHandler(s.handleConnect))

	s.mcpServer.AddTool(mcp.NewTool("set_simulation",
		mcp.WithDescription("Start or stop the live simulation of a circuit."),
		sessionID,
		mcp.WithBoolean("running", mcp.Required(), mcp.Description("true to start, false to stop")),
		mcp.WithOutputSchema[session.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleSimulation))

	s.mcpServer.AddTool(mcp.NewTool("activate",
		mcp.WithDescription("Toggle a button while the simulation runs."),
		sessionID,
		mcp.WithString("component_id", mcp.Required(), mcp.Description("Button component id")),
		mcp.WithOutputSchema[session.ComponentView](),
	), mcp.NewStructuredToolHandler(s.handleActivate))

	s.mcpServer.AddTool(mcp.NewTool("press_key",
		mcp.WithDescription("Press or release a key, driving the keyboard inputs bound to it."),
		sessionID,
		mcp.WithString("key", mcp.Required(), mcp.Description("Single character key")),
		mcp.WithBoolean("pressed", mcp.Required(), mcp.Description("true for key down, false for key up")),
		mcp.WithOutputSchema[KeyResult](),
	), mcp.NewStructuredToolHandler(s.handleKey))

	s.mcpServer.AddTool(mcp.NewTool("truth_table",
		mcp.WithDescription("Enumerate every input combination of a circuit and return the outputs."),
		sessionID,
		mcp.WithOutputSchema[session.Job](),
	), mcp.NewStructuredToolHandler(s.handleTruthTable))

	s.mcpServer.AddTool(mcp.NewTool("lint",
		mcp.WithDescription("Report floating inputs, unused outputs and unreachable components."),
		sessionID,
		mcp.WithOutputSchema[LintResult](),
	), mcp.NewStructuredToolHandler(s.handleLint))

	s.mcpServer.AddTool(mcp.NewTool("diagram",
		mcp.WithDescription("Render the circuit as a Mermaid flowchart."),
		sessionID,
		mcp.WithOutputSchema[DiagramResult](),
	), mcp.NewStructuredToolHandler(s.handleDiagram))
}

func (s *Server) handleListKinds(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (KindsResult, error) {
	return KindsResult{Kinds: s.sessions.ListKinds()}, nil
}

func (s *Server) handleOpen(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (session.Snapshot, error) {
	return deref(s.sessions.Open(ctx, args.SessionID))
}

func (s *Server) handleSnapshot(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (session.Snapshot, error) {
	return deref(s.sessions.Snapshot(ctx, args.SessionID))
}

func (s *Server) handlePlace(ctx context.Context, _ mcp.CallToolRequest, args placeArgs) (session.ComponentView, error) {
	return deref(s.sessions.Place(ctx, args.SessionID, args.Type, domain.Position{X: args.X, Y: args.Y}))
}

func (s *Server) handleConnect(ctx context.Context, _ mcp.CallToolRequest, args connectArgs) (session.ConnectionView, error) {
	return deref(s.sessions.Connect(ctx, args.SessionID, args.From, args.FromOutput, args.To, args.ToInput,
		domain.RouteStyle(args.Style)))
}

func (s *Server) handleSimulation(ctx context.Context, _ mcp.CallToolRequest, args simulationArgs) (session.Snapshot, error) {
	if args.Running {
		return deref(s.sessions.StartSimulation(ctx, args.SessionID))
	}
	if err := s.sessions.StopSimulation(ctx, args.SessionID); err != nil {
		return session.Snapshot{}, err
	}
	return deref(s.sessions.Snapshot(ctx, args.SessionID))
}

func (s *Server) handleActivate(ctx context.Context, _ mcp.CallToolRequest, args activateArgs) (session.ComponentView, error) {
	return deref(s.sessions.Activate(ctx, args.SessionID, args.ComponentID))
}

func (s *Server) handleKey(ctx context.Context, _ mcp.CallToolRequest, args keyArgs) (KeyResult, error) {
	press := s.sessions.KeyUp
	if args.Pressed {
		press = s.sessions.KeyDown
	}
	n, err := press(ctx, args.SessionID, args.Key)
	if err != nil {
		return KeyResult{}, err
	}
	return KeyResult{Matched: n}, nil
}

// handleTruthTable blocks until the job finishes; tool calls have no polling.
func (s *Server) handleTruthTable(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (session.Job, error) {
	job, err := s.sessions.RequestTruthTable(ctx, args.SessionID)
	if err != nil {
		return session.Job{}, err
	}
	job, err = s.sessions.Wait(ctx, job.ID)
	if err != nil {
		return session.Job{}, err
	}
	if jerr := job.Err(); jerr != nil {
		s.logger.Warn("MCP truth table failed", "session_id", args.SessionID, "error", jerr)
		return session.Job{}, jerr
	}
	return *job, nil
}

func (s *Server) handleLint(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (LintResult, error) {
	issues, err := s.sessions.Lint(ctx, args.SessionID)
	if err != nil {
		return LintResult{}, err
	}
	return LintResult{Issues: issues}, nil
}

func (s *Server) handleDiagram(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (DiagramResult, error) {
	out, err := s.sessions.Diagram(ctx, args.SessionID)
	if err != nil {
		return DiagramResult{}, err
	}
	return DiagramResult{Mermaid: out}, nil
}

func deref[T any](v *T, err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	return *v, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(KindsURI, "Component kinds",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return s.kindsResource()
	})
}

func (s *Server) kindsResource() ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(s.sessions.ListKinds())
	if err != nil {
		return nil, fmt.Errorf("failed to encode kinds: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      KindsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
