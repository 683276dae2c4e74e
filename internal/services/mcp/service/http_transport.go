package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/mcptoolbox/internal/platform/errors"
	"github.com/louisbranch/mcptoolbox/internal/platform/logging"
	"github.com/louisbranch/mcptoolbox/internal/platform/timeouts"
)

// DefaultHTTPAddr keeps the HTTP transport on loopback unless configured.
const DefaultHTTPAddr = "localhost:8081"

var listenTCP = net.Listen

// HTTPService serves MCP over streamable HTTP at /mcp with a health check
// at /healthz.
type HTTPService struct {
	server  *Server
	addr    string
	guard   hostGuard
	log     *logging.Entry
	state   stateBox
	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewHTTPService builds the HTTP runner for server.
func NewHTTPService(server *Server, cfg Config) *HTTPService {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = DefaultHTTPAddr
	}
	s := &HTTPService{
		server: server,
		addr:   addr,
		guard:  newHostGuard(cfg.AllowedHosts),
		log:    logging.Named(cfg.Logger, "http"),
	}
	s.handler = s.routes()
	return s
}

func (s *HTTPService) routes() http.Handler {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server.mcpServer
	}, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.guard.middleware)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/mcp", mcpHandler)
	return r
}

// Handler returns the router, for embedding or tests.
func (s *HTTPService) Handler() http.Handler {
	return s.handler
}

// Addr reports the bound address once Run has started listening, or the
// configured address before that.
func (s *HTTPService) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// State reports the current lifecycle phase.
func (s *HTTPService) State() State {
	return s.state.get()
}

// Run listens and serves until ctx ends or the server fails. A listen
// failure is a startup failure.
func (s *HTTPService) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if !s.state.start() {
		s.mu.Unlock()
		return nil
	}
	listener, err := listenTCP("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		s.state.advance(StateStopped)
		return apperrors.Wrap(apperrors.CodeStartupFailure, "listen on "+s.addr, err)
	}
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	s.listener = listener
	s.httpServer = httpServer
	s.mu.Unlock()

	s.log.WithField("addr", listener.Addr().String()).Info("MCP HTTP server listening")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

// Shutdown drains tool calls and stops the HTTP server. Only the first call
// does work.
func (s *HTTPService) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.shutdownOnce.Do(func() {
		s.state.advance(StateShuttingDown)
		s.log.Info("shutting down MCP HTTP server")

		var errs []error
		if err := s.server.dispatcher.Drain(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain tool calls: %w", err))
		}

		// Streamable sessions hold long-lived requests open, so they have to
		// end before http.Server.Shutdown can finish.
		closed := s.server.closeSessions()
		if closed > 0 {
			s.log.WithField("sessions", closed).Debug("closed MCP sessions")
		}

		s.mu.Lock()
		httpServer := s.httpServer
		s.mu.Unlock()
		if httpServer != nil {
			if err := httpServer.Shutdown(ctx); err != nil {
				_ = httpServer.Close()
				errs = append(errs, fmt.Errorf("shutdown HTTP server: %w", err))
			}
		}

		s.state.advance(StateStopped)
		s.shutdownErr = errors.Join(errs...)
	})
	return s.shutdownErr
}

type healthResponse struct {
	Status   string `json:"status"`
	State    string `json:"state"`
	Tools    int    `json:"tools"`
	InFlight int    `json:"in_flight"`
}

// handleHealth reports 200 while serving and 503 once shutdown has begun.
func (s *HTTPService) handleHealth(w http.ResponseWriter, _ *http.Request) {
	state := s.State()
	resp := healthResponse{
		Status:   "ok",
		State:    state.String(),
		Tools:    s.server.dispatcher.Registry().Len(),
		InFlight: s.server.dispatcher.InFlight(),
	}
	status := http.StatusOK
	if state >= StateShuttingDown {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.WithError(err).Debug("write health response")
	}
}
