package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/languard-core/internal/wifi"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// Paths sit at the root so existing dashboards keep working.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.handleHealth)

	// Devices
	r.Get("/scan", s.handleScan)
	r.Get("/devices", s.handleDevices)
	r.Get("/history", s.handleHistory)

	// Blocking
	r.Post("/block", s.handleBlock)
	r.Post("/unblock", s.handleUnblock)
	r.Get("/blocklist", s.handleBlocklist)

	r.Get("/wifi", s.handleWiFi)
	r.Get("/audit", s.handleListAudit)

	r.Get(s.wsPath(), s.handleWebSocket)

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleWiFi returns the SSID of the host's wireless network.
// It never fails; detection problems are reported in the SSID itself.
func (s *Server) handleWiFi(w http.ResponseWriter, r *http.Request) {
	ssid := wifi.Unavailable
	if s.wifi != nil {
		ssid = s.wifi.SSID(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]string{"ssid": ssid})
}
