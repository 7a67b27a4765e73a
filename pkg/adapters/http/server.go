package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/breadboard/internal/logging"
	"github.com/aretw0/breadboard/pkg/codec"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/aretw0/breadboard/pkg/session"
	"github.com/go-chi/chi/v5"
)

// MaxDocumentSize bounds imported circuit documents.
const MaxDocumentSize = 8 << 20

// Server exposes a session manager to a rendering client.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	metrics http.Handler
	version string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Streams:  NewStreamManager(),
		version:  "unknown",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/kinds", func(r chi.Router) {
		r.Get("/", s.ListKinds)
		r.Post("/", s.DefineBlock)
		r.Delete("/{name}", s.RemoveBlock)
	})
	r.Get("/jobs/{jobID}", s.GetJob)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Put("/", s.OpenSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/clear", s.ClearSession)

			r.Post("/components", s.PlaceComponent)
			r.Patch("/components/{cid}", s.UpdateComponent)
			r.Delete("/components/{cid}", s.RemoveComponent)
			r.Post("/components/{cid}/activate", s.Activate)

			r.Post("/connections", s.Connect)
			r.Patch("/connections/{cid}", s.UpdateConnection)
			r.Delete("/connections/{cid}", s.Disconnect)

			r.Post("/simulation", s.StartSimulation)
			r.Delete("/simulation", s.StopSimulation)
			r.Post("/keys", s.Key)

			r.Post("/truth-table", s.RequestTruthTable)
			r.Get("/lint", s.Lint)
			r.Get("/diagram", s.Diagram)
			r.Get("/export", s.Export)
			r.Post("/import", s.Import)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Requests --

type placeRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type componentPatch struct {
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
	Type *string  `json:"type"`
	Key  *string  `json:"key"`
}

type connectRequest struct {
	From       string            `json:"from"`
	FromOutput int               `json:"fromOutput"`
	To         string            `json:"to"`
	ToInput    int               `json:"toInput"`
	Style      domain.RouteStyle `json:"style"`
}

type connectionPatch struct {
	Style domain.RouteStyle `json:"style"`
}

type keyRequest struct {
	Key     string `json:"key"`
	Pressed bool   `json:"pressed"`
}

// -- Handlers --

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"app":       "breadboard-http",
		"version":   s.version,
		"extension": codec.Extension,
	})
}

// ListKinds handles the GET /kinds request.
func (s *Server) ListKinds(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.Sessions.ListKinds())
}

// DefineBlock handles the POST /kinds request.
func (s *Server) DefineBlock(w http.ResponseWriter, r *http.Request) {
	var def registry.BlockDefinition
	if !s.decode(w, r, &def) {
		return
	}
	k, err := s.Sessions.DefineBlock(def)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, k)
}

// RemoveBlock handles the DELETE /kinds/{name} request.
func (s *Server) RemoveBlock(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.RemoveBlock(chi.URLParam(r, "name")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, ids)
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Create(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, snap)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, snap)
}

// OpenSession handles the PUT /sessions/{id} request, creating the session
// when it does not exist.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, snap)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearSession handles the POST /sessions/{id}/clear request.
func (s *Server) ClearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Clear(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// PlaceComponent handles the POST /sessions/{id}/components request.
func (s *Server) PlaceComponent(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	c, err := s.Sessions.Place(r.Context(), id, req.Type, domain.Position{X: req.X, Y: req.Y})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	s.respond(w, http.StatusCreated, c)
}

// UpdateComponent handles the PATCH /sessions/{id}/components/{cid} request.
// Position, kind and trigger key are applied together or not at all.
func (s *Server) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	var req componentPatch
	if !s.decode(w, r, &req) {
		return
	}
	if (req.X == nil) != (req.Y == nil) {
		s.fail(w, r, fmt.Errorf("%w: x and y must be set together", domain.ErrValidation))
		return
	}
	id := chi.URLParam(r, "id")
	u := session.ComponentUpdate{Kind: req.Type, Key: req.Key}
	if req.X != nil {
		u.Position = &domain.Position{X: *req.X, Y: *req.Y}
	}
	c, err := s.Sessions.Update(r.Context(), id, chi.URLParam(r, "cid"), u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	s.respond(w, http.StatusOK, c)
}

// RemoveComponent handles the DELETE /sessions/{id}/components/{cid} request.
func (s *Server) RemoveComponent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.RemoveComponent(r.Context(), id, chi.URLParam(r, "cid")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// Activate handles the POST /sessions/{id}/components/{cid}/activate request.
func (s *Server) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.Sessions.Activate(r.Context(), id, chi.URLParam(r, "cid"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	s.respond(w, http.StatusOK, c)
}

// Connect handles the POST /sessions/{id}/connections request.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	conn, err := s.Sessions.Connect(r.Context(), id, req.From, req.FromOutput, req.To, req.ToInput, req.Style)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	s.respond(w, http.StatusCreated, conn)
}

// UpdateConnection handles the PATCH /sessions/{id}/connections/{cid} request.
func (s *Server) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	var req connectionPatch
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	conn, err := s.Sessions.SetConnectionStyle(r.Context(), id, chi.URLParam(r, "cid"), req.Style)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	s.respond(w, http.StatusOK, conn)
}

// Disconnect handles the DELETE /sessions/{id}/connections/{cid} request.
func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Disconnect(r.Context(), id, chi.URLParam(r, "cid")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// StartSimulation handles the POST /sessions/{id}/simulation request.
func (s *Server) StartSimulation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.Sessions.StartSimulation(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	s.respond(w, http.StatusOK, snap)
}

// StopSimulation handles the DELETE /sessions/{id}/simulation request.
func (s *Server) StopSimulation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.StopSimulation(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// Key handles the POST /sessions/{id}/keys request.
func (s *Server) Key(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	press := s.Sessions.KeyUp
	if req.Pressed {
		press = s.Sessions.KeyDown
	}
	n, err := press(r.Context(), id, req.Key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if n > 0 {
		s.changed(r.Context(), id)
	}
	s.respond(w, http.StatusOK, map[string]int{"matched": n})
}

// RequestTruthTable handles the POST /sessions/{id}/truth-table request.
func (s *Server) RequestTruthTable(w http.ResponseWriter, r *http.Request) {
	job, err := s.Sessions.RequestTruthTable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/jobs/"+job.ID)
	s.respond(w, http.StatusAccepted, job)
}

// GetJob handles the GET /jobs/{jobID} request. With ?wait=true it blocks
// until the job finishes or the client goes away.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	get := s.Sessions.TruthTable
	if r.URL.Query().Get("wait") == "true" {
		get = s.Sessions.Wait
	}
	job, err := get(r.Context(), jobID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, job)
}

// Export handles the GET /sessions/{id}/export request.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	data, err := s.Sessions.Export(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", codec.DefaultFileName))
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Export write failed", "error", err)
	}
}

// Lint handles the GET /sessions/{id}/lint request.
func (s *Server) Lint(w http.ResponseWriter, r *http.Request) {
	issues, err := s.Sessions.Lint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, issues)
}

// Diagram handles the GET /sessions/{id}/diagram request with a Mermaid
// flowchart.
func (s *Server) Diagram(w http.ResponseWriter, r *http.Request) {
	out, err := s.Sessions.Diagram(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.mermaid; charset=utf-8")
	if _, err := io.WriteString(w, out); err != nil {
		s.logger.Error("Diagram write failed", "error", err)
	}
}

// Import handles the POST /sessions/{id}/import request. The body is the
// raw document.
func (s *Server) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxDocumentSize+1))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", domain.ErrFormat, err))
		return
	}
	if len(data) > MaxDocumentSize {
		s.fail(w, r, fmt.Errorf("%w: document larger than %d bytes", domain.ErrFormat, MaxDocumentSize))
		return
	}
	id := chi.URLParam(r, "id")
	report, err := s.Sessions.Import(r.Context(), id, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.changed(r.Context(), id)
	s.respond(w, http.StatusOK, report)
}

// -- Helpers --

// changed pushes the new snapshot to the session's event subscribers.
func (s *Server) changed(ctx context.Context, id string) {
	if !s.Streams.Watched(id) {
		return
	}
	snap, err := s.Sessions.Snapshot(ctx, id)
	if err != nil {
		s.logger.Warn("Snapshot for subscribers failed", "session_id", id, "error", err)
		return
	}
	if data, err := json.Marshal(snap); err == nil {
		s.Streams.Broadcast(id, string(data))
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	s.respond(w, status, map[string]string{"error": err.Error()})
}

// StatusOf returns the HTTP status for an error returned by the session
// manager.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateKind):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBuiltinKind):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrCircuitNotFound),
		errors.Is(err, domain.ErrComponentNotFound),
		errors.Is(err, domain.ErrConnectionNotFound),
		errors.Is(err, domain.ErrKindNotFound),
		errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotSimulating):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrDanglingConnection),
		errors.Is(err, domain.ErrPinOutOfRange),
		errors.Is(err, domain.ErrTooManyInputs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
