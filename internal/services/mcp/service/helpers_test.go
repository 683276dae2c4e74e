package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/mcptoolbox/internal/random"
	"github.com/louisbranch/mcptoolbox/internal/services/mcp/registry"
)

type fakeProber struct {
	version string
	err     error
}

func (p fakeProber) Version(context.Context) (string, error) {
	return p.version, p.err
}

type failingTransport struct{}

func (failingTransport) Connect(context.Context) (mcp.Connection, error) {
	return nil, errors.New("stdin unavailable")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg, err := registry.NewDefault(registry.Dependencies{
		Source: random.NewSource(7),
		Prober: fakeProber{version: "go version go1.24.1 linux/amd64"},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	dispatcher, err := registry.NewDispatcher(reg, registry.DispatcherOptions{})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	server, err := NewServer(dispatcher, ServerOptions{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return server
}

// startInMemory runs svc over an in-memory transport and returns a connected
// client session plus the channel Run reports on.
func startInMemory(t *testing.T, server *Server) (*Service, *mcp.ClientSession, <-chan error) {
	t.Helper()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	svc := NewService(server, serverTransport, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	runErr := make(chan error, 1)
	go func() {
		runErr <- svc.Run(ctx)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return svc, session, runErr
}

func waitForState(t *testing.T, r Runner, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %s, want %s", r.State(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func callText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) != 1 {
		t.Fatalf("expected one content block, got %+v", result)
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}
