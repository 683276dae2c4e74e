package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/mcptoolbox/internal/platform/errors"
	"github.com/louisbranch/mcptoolbox/internal/platform/logging"
)

// TransportKind selects how MCP messages reach the server.
type TransportKind string

const (
	TransportStdio TransportKind = "stdio"
	TransportHTTP  TransportKind = "http"
)

// Config selects and configures the transport.
type Config struct {
	Transport TransportKind
	// HTTPAddr is the listen address for the HTTP transport. Defaults to
	// localhost:8081.
	HTTPAddr string
	// AllowedHosts extends the loopback-only Host/Origin check of the HTTP
	// transport.
	AllowedHosts []string
	Logger       *logging.Entry
}

// Runner is a transport-bound server with a managed lifecycle.
type Runner interface {
	Run(ctx context.Context) error
	Shutdown(ctx context.Context) error
	State() State
}

// Open returns the runner for the configured transport.
func Open(server *Server, cfg Config) (Runner, error) {
	if server == nil {
		return nil, fmt.Errorf("server is required")
	}
	switch cfg.Transport {
	case "", TransportStdio:
		return NewService(server, &mcp.StdioTransport{}, cfg.Logger), nil
	case TransportHTTP:
		return NewHTTPService(server, cfg), nil
	default:
		return nil, fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Service runs the server over a single session transport such as stdio.
type Service struct {
	server    *Server
	transport mcp.Transport
	log       *logging.Entry
	state     stateBox

	mu      sync.Mutex
	session *mcp.ServerSession

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewService binds server to transport. Nothing happens until Run.
func NewService(server *Server, transport mcp.Transport, logger *logging.Entry) *Service {
	return &Service{
		server:    server,
		transport: transport,
		log:       logging.Named(logger, "service"),
	}
}

// State reports the current lifecycle phase.
func (s *Service) State() State {
	return s.state.get()
}

// Run connects the server to the transport and blocks until ctx ends or the
// peer closes the session. A failure to connect is a startup failure. Run
// after Shutdown returns immediately.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if !s.state.start() {
		s.mu.Unlock()
		return nil
	}
	session, err := s.server.mcpServer.Connect(ctx, s.transport, nil)
	if err != nil {
		s.mu.Unlock()
		s.state.advance(StateStopped)
		return apperrors.Wrap(apperrors.CodeStartupFailure, "connect MCP transport", err)
	}
	s.session = session
	s.mu.Unlock()
	s.log.Info("MCP server running")

	ended := make(chan error, 1)
	go func() {
		ended <- session.Wait()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-ended:
		if s.State() >= StateShuttingDown || err == nil || errors.Is(err, io.EOF) {
			s.log.Info("MCP session ended")
			return nil
		}
		return fmt.Errorf("serve MCP: %w", err)
	}
}

// Shutdown refuses new tool calls, waits for in-flight calls until ctx ends,
// then closes the session. Only the first call does work; later calls return
// the same result.
func (s *Service) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.shutdownOnce.Do(func() {
		s.state.advance(StateShuttingDown)
		s.log.Info("shutting down MCP server")

		var errs []error
		if err := s.server.dispatcher.Drain(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain tool calls: %w", err))
		}

		s.mu.Lock()
		session := s.session
		s.mu.Unlock()
		if session != nil {
			if err := session.Close(); err != nil {
				s.log.WithError(err).Debug("close MCP session")
			}
		}

		s.state.advance(StateStopped)
		s.shutdownErr = errors.Join(errs...)
	})
	return s.shutdownErr
}
