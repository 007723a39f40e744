package api

import (
	"fmt"
	"net/http"
	"net/netip"

	"github.com/nerrad567/languard-core/internal/audit"
	"github.com/nerrad567/languard-core/internal/engine"
)

// resolveRange returns the range named by the cidr query parameter, or the
// engine's default range when it is absent. On failure it writes the error
// response and returns false.
func (s *Server) resolveRange(w http.ResponseWriter, r *http.Request) (netip.Prefix, bool) {
	raw := r.URL.Query().Get("cidr")
	if raw == "" {
		rng, err := s.engine.DefaultRange(r.Context())
		if err != nil {
			s.writeEngineError(w, r, err)
			return netip.Prefix{}, false
		}
		return rng, true
	}

	rng, err := netip.ParsePrefix(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRange, fmt.Sprintf("invalid cidr %q", raw))
		return netip.Prefix{}, false
	}
	return rng, true
}

// handleScan sweeps the network and returns every responder as online.
// The block ledger is not consulted.
//
// Query parameters:
//   - cidr: range to sweep (default: gateway-anchored range)
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	rng, ok := s.resolveRange(w, r)
	if !ok {
		return
	}

	ctx := engine.WithSource(r.Context(), audit.SourceAPI)
	views, err := s.engine.Scan(ctx, rng, s.now())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleDevices sweeps the network and returns the device list reconciled
// with the block ledger (online, blocked and scheduled entries).
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	rng, ok := s.resolveRange(w, r)
	if !ok {
		return
	}

	ctx := engine.WithSource(r.Context(), audit.SourceAPI)
	views, err := s.engine.Compose(ctx, rng, s.now())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleHistory returns every device ever seen, sorted by identity.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.engine.History(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
