// Package errors provides structured error handling for tool dispatch.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Dispatch errors, surfaced to MCP clients as error results.
	CodeUnknownTool    Code = "UNKNOWN_TOOL"
	CodeInvalidInput   Code = "INVALID_INPUT"
	CodeHandlerFailure Code = "HANDLER_FAILURE"
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeShuttingDown   Code = "SHUTTING_DOWN"

	// Process errors, fatal to the server.
	CodeStartupFailure Code = "STARTUP_FAILURE"
)

// Fatal reports whether errors with this code must stop the process.
func (c Code) Fatal() bool {
	return c == CodeStartupFailure
}

// Retryable reports whether a caller may retry the same request unchanged.
func (c Code) Retryable() bool {
	switch c {
	case CodeRateLimited, CodeHandlerFailure:
		return true
	default:
		return false
	}
}
