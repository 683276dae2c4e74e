// Package mcp assembles the toolbox server from its parts and runs it.
package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/mcptoolbox/internal/platform/lifecycle"
	"github.com/louisbranch/mcptoolbox/internal/platform/logging"
	"github.com/louisbranch/mcptoolbox/internal/random"
	"github.com/louisbranch/mcptoolbox/internal/services/mcp/domain"
	"github.com/louisbranch/mcptoolbox/internal/services/mcp/registry"
	"github.com/louisbranch/mcptoolbox/internal/services/mcp/service"
)

// Options carries everything needed to build the server.
type Options struct {
	Transport      string
	HTTPAddr       string
	AllowedHosts   []string
	ServerName     string
	ServerVersion  string
	VersionCommand string
	VersionTimeout time.Duration
	// PickSeed makes selectRandom deterministic when set.
	PickSeed        string
	RateLimit       int
	RateBurst       int
	ShutdownTimeout time.Duration
	Logger          *logging.Entry
}

// ParseTransport maps a transport name to its kind.
func ParseTransport(transport string) (service.TransportKind, error) {
	switch strings.ToLower(strings.TrimSpace(transport)) {
	case "http":
		return service.TransportHTTP, nil
	case "stdio", "":
		return service.TransportStdio, nil
	default:
		return "", fmt.Errorf("invalid transport %q: must be 'stdio' or 'http'", transport)
	}
}

// Build wires the registry, dispatcher and server, and returns the runner for
// the selected transport.
func Build(opts Options) (service.Runner, error) {
	kind, err := ParseTransport(opts.Transport)
	if err != nil {
		return nil, err
	}
	source, err := newSource(opts.PickSeed)
	if err != nil {
		return nil, err
	}

	reg, err := registry.NewDefault(registry.Dependencies{
		Source: source,
		Prober: domain.NewCommandProber(opts.VersionCommand, opts.VersionTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}
	dispatcher, err := registry.NewDispatcher(reg, registry.DispatcherOptions{
		Logger:    opts.Logger,
		RateLimit: opts.RateLimit,
		RateBurst: opts.RateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}
	server, err := service.NewServer(dispatcher, service.ServerOptions{
		Name:    opts.ServerName,
		Version: opts.ServerVersion,
		Logger:  opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build MCP server: %w", err)
	}
	return service.Open(server, service.Config{
		Transport:    kind,
		HTTPAddr:     opts.HTTPAddr,
		AllowedHosts: opts.AllowedHosts,
		Logger:       opts.Logger,
	})
}

// Run builds the server and serves it until a termination signal, ctx
// cancellation, or the peer closing the session.
func Run(ctx context.Context, opts Options) error {
	runner, err := Build(opts)
	if err != nil {
		return err
	}
	group := lifecycle.NewGroup(lifecycle.Options{
		GracePeriod: opts.ShutdownTimeout,
		Logger:      opts.Logger,
	}, runner)
	return group.Run(ctx)
}

func newSource(seed string) (random.Source, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return random.NewSeededSource()
	}
	value, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse pick seed %q: %w", seed, err)
	}
	return random.NewSource(value), nil
}
