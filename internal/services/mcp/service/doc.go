// Package service wires the tool registry to an MCP transport.
//
// It is the transport adapter layer: it knows how to run MCP over stdio or
// HTTP and how to stop cleanly, and it delegates every tool call to the
// registry dispatcher.
package service
