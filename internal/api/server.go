package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"github.com/nerrad567/languard-core/internal/audit"
	"github.com/nerrad567/languard-core/internal/blocklist"
	"github.com/nerrad567/languard-core/internal/engine"
	"github.com/nerrad567/languard-core/internal/infrastructure/config"
	"github.com/nerrad567/languard-core/internal/infrastructure/logging"
	"github.com/nerrad567/languard-core/internal/tracking"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Engine is the subset of *engine.Engine the handlers call.
type Engine interface {
	DefaultRange(ctx context.Context) (netip.Prefix, error)
	Scan(ctx context.Context, rng netip.Prefix, now time.Time) ([]engine.DeviceView, error)
	Compose(ctx context.Context, rng netip.Prefix, now time.Time) ([]engine.DeviceView, error)
	Block(ctx context.Context, mac, duration string, now time.Time) (engine.BlockOutcome, error)
	Unblock(ctx context.Context, mac string, now time.Time) (bool, error)
	BlockList(ctx context.Context) ([]blocklist.Entry, error)
	History(ctx context.Context) ([]tracking.Entry, error)
}

// AuditLister pages through the audit trail. *audit.SQLiteRepository satisfies it.
type AuditLister interface {
	List(ctx context.Context, filter audit.Filter) (*audit.ListResult, error)
}

// SSIDSource reports the wireless network name. *wifi.Detector satisfies it.
type SSIDSource interface {
	SSID(ctx context.Context) string
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	Engine  Engine
	Audit   AuditLister // optional: /audit answers 503 without it
	WiFi    SSIDSource  // optional: /wifi answers "Unavailable" without it
	Hub     *Hub        // optional: created by Start when nil
	Version string

	// Now is the clock handed to the engine. Defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP API server for LanGuard.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	engine      Engine
	audit       AuditLister
	wifi        SSIDSource
	version     string
	now         func() time.Time
	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If the logger or engine is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	s := &Server{
		cfg:     deps.Config,
		wsCfg:   deps.WS,
		logger:  deps.Logger,
		engine:  deps.Engine,
		audit:   deps.Audit,
		wifi:    deps.WiFi,
		version: deps.Version,
		now:     deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	// The engine needs the hub as an observer before the server starts,
	// so main usually creates it and passes it in.
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	}

	return s, nil
}

// Hub returns the WebSocket hub, or nil before Start when none was injected.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections in a background goroutine.
//
// Parameters:
//   - ctx: Parent context for the hub; the listener stops on Close()
//
// Returns:
//   - error: Always nil; listener failures are logged
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	// An injected hub is run by whoever created it.
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
