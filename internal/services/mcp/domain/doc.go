// Package domain defines the toolbox tools: their identifiers, typed inputs,
// and the pure handlers behind them.
//
// Handlers never see protocol types. The registry decodes arguments into the
// typed inputs declared here and wraps handler output into MCP results.
package domain
