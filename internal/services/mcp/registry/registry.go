package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/mcptoolbox/internal/platform/errors"
	"github.com/louisbranch/mcptoolbox/internal/services/mcp/domain"
)

// Entry binds one tool's metadata, input decoder and handler.
type Entry struct {
	spec   domain.ToolSpec
	tool   *mcp.Tool
	decode func(json.RawMessage) (domain.Input, error)
	invoke func(context.Context, domain.Input) (string, error)
}

// Spec returns the tool description the entry was registered with.
func (e *Entry) Spec() domain.ToolSpec {
	return e.spec
}

// Tool returns the discovery metadata for the entry.
func (e *Entry) Tool() *mcp.Tool {
	return e.tool
}

// Registry is the source of truth for the tools a server exposes.
type Registry struct {
	entries []*Entry
	index   map[domain.ToolName]*Entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{index: make(map[domain.ToolName]*Entry)}
}

// Register adds a tool whose arguments decode into I. The input schema is
// inferred from I and carries I's example value.
func Register[I domain.Input](r *Registry, spec domain.ToolSpec, handler func(context.Context, I) (string, error)) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if handler == nil {
		return fmt.Errorf("handler for tool %q is nil", spec.Name)
	}
	if _, ok := domain.ParseToolName(string(spec.Name)); !ok {
		return fmt.Errorf("tool %q is not a known tool", spec.Name)
	}
	if _, exists := r.index[spec.Name]; exists {
		return fmt.Errorf("tool %q is already registered", spec.Name)
	}

	schema, err := jsonschema.For[I](nil)
	if err != nil {
		return fmt.Errorf("infer schema for tool %q: %w", spec.Name, err)
	}
	var zero I
	schema.Examples = []any{zero.Example()}
	allowNullOptional(schema)
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve schema for tool %q: %w", spec.Name, err)
	}

	entry := &Entry{
		spec: spec,
		tool: &mcp.Tool{
			Name:        string(spec.Name),
			Description: spec.Description,
			InputSchema: schema,
		},
		decode: func(raw json.RawMessage) (domain.Input, error) {
			return decodeArguments[I](resolved, raw)
		},
		invoke: func(ctx context.Context, input domain.Input) (string, error) {
			typed, ok := input.(I)
			if !ok {
				return "", fmt.Errorf("tool %q received input of type %T", spec.Name, input)
			}
			return handler(ctx, typed)
		},
	}
	r.entries = append(r.entries, entry)
	r.index[spec.Name] = entry
	return nil
}

// List returns discovery metadata in registration order.
func (r *Registry) List() []*mcp.Tool {
	tools := make([]*mcp.Tool, 0, len(r.entries))
	for _, entry := range r.entries {
		tools = append(tools, entry.tool)
	}
	return tools
}

// Resolve looks up a tool by exact name.
func (r *Registry) Resolve(name string) (*Entry, error) {
	toolName, ok := domain.ParseToolName(name)
	if ok {
		if entry, found := r.index[toolName]; found {
			return entry, nil
		}
	}
	return nil, apperrors.WithMetadata(apperrors.CodeUnknownTool, "Unknown tool", map[string]string{"tool": name})
}

// Len reports how many tools are registered.
func (r *Registry) Len() int {
	return len(r.entries)
}

// allowNullOptional lets optional properties be sent as null, which decodes
// to the zero value.
func allowNullOptional(schema *jsonschema.Schema) {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	for name, prop := range schema.Properties {
		if prop == nil || required[name] {
			continue
		}
		switch {
		case prop.Type != "" && prop.Type != "null":
			prop.Types = []string{"null", prop.Type}
			prop.Type = ""
		case len(prop.Types) > 0 && !slices.Contains(prop.Types, "null"):
			prop.Types = append([]string{"null"}, prop.Types...)
		}
	}
}

// decodeArguments validates raw against the tool schema, then decodes it.
// Empty or null arguments mean no arguments.
func decodeArguments[I any](resolved *jsonschema.Resolved, raw json.RawMessage) (I, error) {
	var zero I
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	var instance map[string]any
	if err := json.Unmarshal(trimmed, &instance); err != nil {
		return zero, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return zero, err
	}

	var input I
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		return zero, err
	}
	return input, nil
}
