package gateway

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/events"
	"github.com/threatthriver/thinkchat/internal/feedback"
	"github.com/threatthriver/thinkchat/internal/gateway/ws"
	"github.com/threatthriver/thinkchat/internal/sessions"
)

//go:embed web/index.html
var webFS embed.FS

// Info describes the running gateway for /api/info.
type Info struct {
	Greeting string      `json:"greeting"`
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Modes    []chat.Mode `json:"modes"`
	Ratings  []string    `json:"ratings"`
}

// Server is the thinkchat gateway HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	store      sessions.Store
	handler    *ChatHandler
	info       Info
	host       string
	port       int
}

// NewServer creates a new gateway server.
func NewServer(bus *events.Bus, store sessions.Store, handler *ChatHandler, info Info, host string, port int) *Server {
	hub := ws.NewHub(bus, handler)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	if info.Modes == nil {
		info.Modes = chat.Modes
	}
	if info.Ratings == nil {
		for _, rt := range feedback.Ratings {
			info.Ratings = append(info.Ratings, string(rt))
		}
	}

	s := &Server{
		hub:     hub,
		bus:     bus,
		store:   store,
		handler: handler,
		info:    info,
		host:    host,
		port:    port,
	}

	// Routes
	r.Get("/", s.handleIndex)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/info", s.handleInfo)
	r.Get("/api/ws", hub.ServeWS)
	// Unauthenticated; see config.GatewayConfig.Host.
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/sessions", s.handleSessions)
	r.Get("/api/sessions/{id}", s.handleSessionHistory)

	// API: feedback
	r.Get("/api/feedback", s.handleListFeedback)
	r.Post("/api/feedback", s.handleSubmitFeedback)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("thinkchat gateway listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := s.info
	info.Greeting = chat.Greeting(s.handler.now())
	writeJSON(w, http.StatusOK, info)
}

// queryLimit reads ?limit=, falling back to def for missing or bad values.
func queryLimit(r *http.Request, def int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	history := s.bus.History(queryLimit(r, 50))

	type eventJSON struct {
		ID        string             `json:"id"`
		SessionID string             `json:"session_id,omitempty"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			SessionID: e.SessionID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	turns, err := s.handler.History(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sessions.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if turns == nil {
		turns = []chat.Turn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	if s.handler.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, ErrFeedbackDisabled)
		return
	}
	entries, err := s.handler.feedback.List(r.Context(), queryLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	counts, err := s.handler.feedback.Counts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []feedback.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "counts": counts})
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
		ws.SubmitFeedbackParams
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	res, err := s.handler.SubmitFeedback(r.Context(), body.SessionID, body.Rating, body.Comment)
	switch {
	case errors.Is(err, feedback.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrFeedbackDisabled):
		writeError(w, http.StatusServiceUnavailable, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusCreated, res)
	}
}
