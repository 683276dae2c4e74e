package service

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/mcptoolbox/internal/platform/logging"
	"github.com/louisbranch/mcptoolbox/internal/services/mcp/registry"
)

const (
	// DefaultServerName identifies the server during initialization.
	DefaultServerName = "mcptoolbox"
	// DefaultServerVersion is advertised when no version is configured.
	DefaultServerVersion = "0.1.0"

	methodCallTool  = "tools/call"
	methodListTools = "tools/list"
)

// ServerOptions configures NewServer.
type ServerOptions struct {
	Name    string
	Version string
	Logger  *logging.Entry
}

// Server hosts the MCP server and the dispatcher behind it.
type Server struct {
	mcpServer  *mcp.Server
	dispatcher *registry.Dispatcher
	log        *logging.Entry
}

// NewServer creates an MCP server exposing every tool in the dispatcher's
// registry.
func NewServer(dispatcher *registry.Dispatcher, opts ServerOptions) (*Server, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	name := opts.Name
	if name == "" {
		name = DefaultServerName
	}
	version := opts.Version
	if version == "" {
		version = DefaultServerVersion
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)
	s := &Server{
		mcpServer:  mcpServer,
		dispatcher: dispatcher,
		log:        logging.Named(opts.Logger, "server"),
	}
	s.registerTools()
	mcpServer.AddReceivingMiddleware(s.toolsMiddleware)
	return s, nil
}

// closeSessions closes every session connected to the server and reports
// how many there were.
func (s *Server) closeSessions() int {
	var sessions []*mcp.ServerSession
	for session := range s.mcpServer.Sessions() {
		sessions = append(sessions, session)
	}
	for _, session := range sessions {
		if err := session.Close(); err != nil {
			s.log.WithError(err).Debug("close MCP session")
		}
	}
	return len(sessions)
}

// Dispatcher returns the dispatcher serving tool calls.
func (s *Server) Dispatcher() *registry.Dispatcher {
	return s.dispatcher
}

// registerTools advertises each registry entry with the go-sdk so the tools
// capability is negotiated. Calls still go through toolsMiddleware.
func (s *Server) registerTools() {
	for _, tool := range s.dispatcher.Registry().List() {
		s.mcpServer.AddTool(tool, s.handleCallTool)
		s.log.WithField("tool", tool.Name).Debug("registered tool")
	}
}

func (s *Server) handleCallTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req == nil || req.Params == nil {
		return s.dispatcher.Dispatch(ctx, "", nil), nil
	}
	return s.dispatcher.Dispatch(ctx, req.Params.Name, req.Params.Arguments), nil
}

// toolsMiddleware routes every tools/call to the dispatcher, so unknown names
// come back as error results rather than protocol errors, and serves
// tools/list in registration order.
func (s *Server) toolsMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		switch method {
		case methodCallTool:
			call, ok := req.(*mcp.CallToolRequest)
			if !ok {
				return next(ctx, method, req)
			}
			return s.handleCallTool(ctx, call)
		case methodListTools:
			return &mcp.ListToolsResult{Tools: s.dispatcher.Registry().List()}, nil
		default:
			return next(ctx, method, req)
		}
	}
}
