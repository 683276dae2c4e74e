package service

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestNewServerRequiresDispatcher(t *testing.T) {
	if _, err := NewServer(nil, ServerOptions{}); err == nil {
		t.Fatal("expected error for nil dispatcher")
	}
}

func TestClientListsToolsInRegistrationOrder(t *testing.T) {
	_, session, _ := startInMemory(t, newTestServer(t))

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		if tool.Description == "" {
			t.Errorf("tool %q has no description", tool.Name)
		}
		if tool.InputSchema == nil {
			t.Errorf("tool %q has no input schema", tool.Name)
		}
	}
	want := []string{"echo", "selectRandom", "runtimeVersion"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("tools = %v, want %v", names, want)
	}

	again, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools again: %v", err)
	}
	if len(again.Tools) != len(result.Tools) {
		t.Fatalf("second listing returned %d tools, want %d", len(again.Tools), len(result.Tools))
	}
	for i := range again.Tools {
		if again.Tools[i].Name != result.Tools[i].Name {
			t.Fatalf("listing order changed at %d: %q != %q", i, again.Tools[i].Name, result.Tools[i].Name)
		}
	}
}

func TestClientCallsTools(t *testing.T) {
	_, session, _ := startInMemory(t, newTestServer(t))
	ctx := context.Background()

	tests := []struct {
		name      string
		params    *mcp.CallToolParams
		want      string
		wantError bool
	}{
		{
			name:   "echo",
			params: &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"echoText": "Test Text To Echo"}},
			want:   "You sent: Test Text To Echo",
		},
		{
			name:   "echo without arguments",
			params: &mcp.CallToolParams{Name: "echo"},
			want:   "You sent: ",
		},
		{
			name:   "select random from single value",
			params: &mcp.CallToolParams{Name: "selectRandom", Arguments: map[string]any{"ints": []int{42}}},
			want:   "I picked: 42",
		},
		{
			name:   "select random from nothing",
			params: &mcp.CallToolParams{Name: "selectRandom", Arguments: map[string]any{}},
			want:   "I picked: 0",
		},
		{
			name:   "select random from null",
			params: &mcp.CallToolParams{Name: "selectRandom", Arguments: map[string]any{"ints": nil}},
			want:   "I picked: 0",
		},
		{
			name:   "runtime version",
			params: &mcp.CallToolParams{Name: "runtimeVersion", Arguments: map[string]any{}},
			want:   "Go version: go version go1.24.1 linux/amd64",
		},
		{
			name:      "unknown tool",
			params:    &mcp.CallToolParams{Name: "unknownTool", Arguments: map[string]any{}},
			want:      "Unknown tool",
			wantError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := session.CallTool(ctx, tt.params)
			if err != nil {
				t.Fatalf("call tool: %v", err)
			}
			if result.IsError != tt.wantError {
				t.Fatalf("isError = %v, want %v (%q)", result.IsError, tt.wantError, callText(t, result))
			}
			if got := callText(t, result); got != tt.want {
				t.Fatalf("text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientInvalidInputIsToolError(t *testing.T) {
	_, session, _ := startInMemory(t, newTestServer(t))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "echo",
		Arguments: map[string]any{"echoText": 42},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := callText(t, result); !strings.HasPrefix(got, "Invalid input for echo") {
		t.Fatalf("unexpected text %q", got)
	}
}
