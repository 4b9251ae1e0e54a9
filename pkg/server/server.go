package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openclaw/channelmgr/internal/catalog"
	"github.com/openclaw/channelmgr/internal/session"
	"github.com/openclaw/channelmgr/internal/store"
	"github.com/openclaw/channelmgr/pkg/browser"
)

//go:embed console.html
var consoleFS embed.FS

// Server provides the HTTP API and the static console page.
type Server struct {
	store         store.Store
	channels      []catalog.Channel
	launcher      *browser.Launcher
	logger        *slog.Logger
	port          int
	checkInterval time.Duration
}

// New creates a new HTTP server.
func New(s store.Store, channels []catalog.Channel, launcher *browser.Launcher, logger *slog.Logger, port int, checkInterval time.Duration) *Server {
	if port == 0 {
		port = 8390
	}
	return &Server{
		store:         s,
		channels:      channels,
		launcher:      launcher,
		logger:        logger,
		port:          port,
		checkInterval: checkInterval,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/api/channels", s.handleChannels)
	r.Get("/api/leads", s.handleLeads)
	r.Get("/api/confirm", s.handleConfirm)
	r.Get("/api/browser-login", s.handleBrowserLogin)
	r.Get("/console", s.handleConsole)
	return r
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("http server listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.ListChannels(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":              channels,
		"count":             len(channels),
		"check_interval_ms": s.checkInterval.Milliseconds(),
	})
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.store.ListRecentLeads(r.Context(), store.LeadListOpts{Limit: 50})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	counts, err := s.store.CountLeads(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"counts": counts,
		"leads":  leads,
	})
}

// handleConfirm marks a session connected. A side-effecting GET is a
// known looseness kept for compatibility with the console page.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "channelId query param required"})
		return
	}

	if _, err := s.store.UpdateSessionStatus(r.Context(), channelID, session.StatusConnected, "Confirmed via console UI"); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.logActivity(r, &channelID, "confirm", "connected", "Confirmed via console UI")

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"channelId": channelID,
		"status":    session.StatusConnected,
	})
}

func (s *Server) handleBrowserLogin(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	ch, ok := catalog.ByID(s.channels, channelID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("channel %q not found", channelID)})
		return
	}

	// Detached: the response does not wait on the spawned process.
	s.launcher.Open(ch.ID, ch.LoginURL)
	s.logActivity(r, &channelID, "browser_login", "pending", fmt.Sprintf("Launched browser for %s login", ch.Name))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"channelId": ch.ID,
		"loginUrl":  ch.LoginURL,
		"message":   fmt.Sprintf("Opening %s login in the shared browser profile...", ch.Name),
	})
}

func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	data, err := consoleFS.ReadFile("console.html")
	if err != nil {
		http.Error(w, "console page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (s *Server) logActivity(r *http.Request, channelID *string, action, result, notes string) {
	if err := s.store.AppendActivity(r.Context(), channelID, action, result, notes); err != nil {
		s.logger.Warn("activity append failed", "action", action, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
