// Package api serves the ticketing REST API.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ticketd-io/ticketd/internal/logbuf"
	"github.com/ticketd-io/ticketd/internal/ticket"
	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// LogQuerier abstracts log entry querying to avoid coupling to logbuf directly.
type LogQuerier interface {
	Query(since time.Time, minLevel slog.Level, limit int) []logbuf.Entry
}

// Config holds API server configuration.
type Config struct {
	Addr string
	Key  string // shared secret expected in the X-API-Key header
}

// Server is the ticketing REST API server.
type Server struct {
	store  ticket.Store
	cfg    Config
	logger *slog.Logger
	logs   LogQuerier
	srv    *http.Server
}

// NewServer creates a new API server. logs may be nil.
func NewServer(store ticket.Store, cfg Config, logger *slog.Logger, logs LogQuerier) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:  store,
		cfg:    cfg,
		logger: logger,
		logs:   logs,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1/tickets", s.requireKey(s.handleCreateTicket))
	mux.HandleFunc("GET /v1/tickets", s.requireKey(s.handleListTickets))
	mux.HandleFunc("GET /v1/tickets/{id}", s.requireKey(s.handleGetTicket))
	mux.HandleFunc("PUT /v1/tickets/{id}", s.requireKey(s.handleUpdateTicket))
	mux.HandleFunc("PATCH /v1/tickets/{id}", s.requireKey(s.handleUpdateTicket))
	mux.HandleFunc("DELETE /v1/tickets/{id}", s.requireKey(s.handleDeleteTicket))
	mux.HandleFunc("GET /v1/logs", s.requireKey(s.handleGetLogs))

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins listening. Blocks until context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutCtx)
	}()

	s.logger.Info("api server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// --- Middleware ---

// requireKey checks the X-API-Key header against the configured shared
// secret. A server with no secret configured answers 500: that is a
// deployment mistake, not an auth failure the caller can fix.
func (s *Server) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Key == "" {
			s.logger.Error("api key is not configured")
			writeDetail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			writeDetail(w, http.StatusUnauthorized, "Missing API key. Include 'X-API-Key' header.")
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.Key)) != 1 {
			writeDetail(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		next(w, r)
	}
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "ticketing-api"})
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var data protocol.TicketCreate
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if err := data.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t, err := s.store.Create(data)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.logger.Info("ticket created", "id", t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	var status *protocol.TicketStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		ts := protocol.TicketStatus(raw)
		if !ts.Valid() {
			writeDetail(w, http.StatusUnprocessableEntity, "status must be one of OPEN, RESOLVED, CLOSED")
			return
		}
		status = &ts
	}

	tickets, err := s.store.List(status)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, err := s.store.Get(id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var upd protocol.TicketUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if err := upd.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t, err := s.store.Update(id, upd)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.logger.Info("ticket updated", "id", t.ID, "status", t.Status)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(id); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.logger.Info("ticket deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		writeDetail(w, http.StatusNotFound, "log capture is not enabled")
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "since must be RFC3339")
			return
		}
		since = t
	}
	minLevel := slog.LevelDebug
	if raw := r.URL.Query().Get("level"); raw != "" {
		if err := minLevel.UnmarshalText([]byte(raw)); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "unknown log level")
			return
		}
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	entries := s.logs.Query(since, minLevel, limit)
	writeJSON(w, http.StatusOK, entries)
}

// storeError maps store sentinels to HTTP status codes.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		writeDetail(w, http.StatusNotFound,
			fmt.Sprintf("Ticket with ID '%s' not found", r.PathValue("id")))
	case errors.Is(err, ticket.ErrResolutionRequired):
		writeDetail(w, http.StatusUnprocessableEntity,
			"Resolution is required when setting status to RESOLVED")
	default:
		s.logger.Error("store error", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
