package registry

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/mcptoolbox/internal/random"
)

type fakeProber struct {
	version string
	err     error
}

func (p fakeProber) Version(context.Context) (string, error) {
	return p.version, p.err
}

func newTestRegistry(t *testing.T, seed uint64, prober fakeProber) *Registry {
	t.Helper()
	reg, err := NewDefault(Dependencies{Source: random.NewSource(seed), Prober: prober})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

func newTestDispatcher(t *testing.T, reg *Registry, opts DispatcherOptions) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(reg, opts)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}
