package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/languard-core/internal/audit"
	"github.com/nerrad567/languard-core/internal/engine"
	"github.com/nerrad567/languard-core/internal/identity"
)

// BlockRequest is the body of POST /block.
type BlockRequest struct {
	MAC      string `json:"mac"`
	Duration string `json:"duration,omitempty"`
}

// BlockResponse is returned by a successful POST /block.
type BlockResponse struct {
	Message   string     `json:"message"`
	Duration  string     `json:"duration"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// UnblockRequest is the body of POST /unblock.
type UnblockRequest struct {
	MAC string `json:"mac"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// handleBlock blocks a device at the router and records it in the ledger.
//
// Body: {"mac": "...", "duration": "1h"}. Duration is optional; without it
// the block is indefinite.
func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	var req BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := engine.WithSource(r.Context(), audit.SourceAPI)
	out, err := s.engine.Block(ctx, req.MAC, req.Duration, s.now())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	msg := fmt.Sprintf("Device %s blocked for %s", out.Entry.MAC, out.Duration)
	if out.Entry.ExpiresAt == nil {
		msg = fmt.Sprintf("Device %s blocked indefinitely", out.Entry.MAC)
	}
	writeJSON(w, http.StatusOK, BlockResponse{
		Message:   msg,
		Duration:  out.Duration,
		ExpiresAt: out.Entry.ExpiresAt,
	})
}

// handleUnblock lifts a block. Unblocking a device that is not blocked
// succeeds.
func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	var req UnblockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := engine.WithSource(r.Context(), audit.SourceAPI)
	removed, err := s.engine.Unblock(ctx, req.MAC, s.now())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	id := identity.Normalize(req.MAC)
	msg := fmt.Sprintf("Device %s unblocked", id)
	if !removed {
		msg = fmt.Sprintf("Device %s was not blocked", id)
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// handleBlocklist returns the raw ledger. Expired entries stay listed
// until the next /devices call sweeps them.
func (s *Server) handleBlocklist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.engine.BlockList(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
