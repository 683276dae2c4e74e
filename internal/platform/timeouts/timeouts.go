// Package timeouts defines shared timeout constants used across the server.
// Centralizing these values prevents drift between packages and makes the
// durations discoverable.
package timeouts

import "time"

// VersionProbe caps how long the runtime version subprocess may run.
const VersionProbe = 5 * time.Second

// ReadHeader limits how long the HTTP transport waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the server waits for in-flight tool calls
// during graceful shutdown.
const Shutdown = 5 * time.Second

// TelemetryShutdown limits how long span export may take on exit.
const TelemetryShutdown = 5 * time.Second
