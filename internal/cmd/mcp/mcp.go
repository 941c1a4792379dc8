// Package mcp parses MCP command flags and starts the MCP stdio server.
package mcp

import (
	"context"
	"flag"

	gamecmd "github.com/louisbranch/emberfall/internal/cmd/game"
	"github.com/louisbranch/emberfall/internal/mcp/service"
	entrypoint "github.com/louisbranch/emberfall/internal/platform/cmd"
)

// Config holds MCP command configuration. The pipeline is wired the same
// way as the game command; only the surface differs.
type Config = gamecmd.Config

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	return gamecmd.ParseConfig(fs, args)
}

// Run starts the MCP server on stdio and blocks until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		manager, store, err := gamecmd.Build(cfg)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}
		server, err := service.NewServer(manager)
		if err != nil {
			return err
		}
		return server.Serve(ctx)
	})
}
