// Package registry maps tool names to handlers and turns tool calls into MCP
// results.
//
// The Registry is built once at startup and only read afterwards. The
// Dispatcher is the single boundary where handler faults become error
// results; nothing a tool does escapes it as a Go error or panic.
package registry
