package config

import (
	"fmt"
	"io"
	"os"
)

// Exit codes used by the toolbox binaries.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ProgramName prefixes every fatal message.
const ProgramName = "mcptoolbox"

// Exitf reports a runtime failure on stderr and exits with ExitFailure.
func Exitf(format string, args ...any) {
	ExitCodef(ExitFailure, format, args...)
}

// ExitCodef reports a fatal message on stderr and exits with code.
func ExitCodef(code int, format string, args ...any) {
	writeFatal(os.Stderr, format, args...)
	os.Exit(code)
}

func writeFatal(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s: "+format+"\n", append([]any{ProgramName}, args...)...)
}
