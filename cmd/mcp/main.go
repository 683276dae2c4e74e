package main

import (
	"context"
	"flag"
	"os"

	mcpcmd "github.com/louisbranch/mcptoolbox/internal/cmd/mcp"
	"github.com/louisbranch/mcptoolbox/internal/platform/config"
)

// main starts the MCP toolbox on stdio or HTTP.
func main() {
	cfg, err := mcpcmd.ParseConfig(flag.CommandLine, os.Args[1:], nil)
	if err != nil {
		config.ExitCodef(config.ExitUsage, "parse flags: %v", err)
	}
	if err := mcpcmd.Run(context.Background(), cfg); err != nil {
		config.Exitf("failed to serve MCP: %v", err)
	}
}
