// Package service assembles and runs the MCP server over stdio.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/emberfall/internal/game/pipeline"
	"github.com/louisbranch/emberfall/internal/mcp/domain"
)

const (
	serverName = "emberfall"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Server hosts the MCP tool surface over one pipeline manager.
type Server struct {
	mcpServer *mcp.Server
}

// NewServer builds an MCP server with every pipeline tool registered.
func NewServer(manager *pipeline.Manager) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("pipeline manager is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{})
	session := domain.NewSession(manager)

	mcp.AddTool(mcpServer, domain.ProcessActionTool(), domain.ProcessActionHandler(session))
	mcp.AddTool(mcpServer, domain.CheckActionTool(), domain.CheckActionHandler(session))
	mcp.AddTool(mcpServer, domain.SystemReportTool(), domain.SystemReportHandler(session))
	mcp.AddTool(mcpServer, domain.RulesExportTool(), domain.RulesExportHandler(session))
	mcp.AddTool(mcpServer, domain.StateGetTool(), domain.StateGetHandler(session))

	return &Server{mcpServer: mcpServer}, nil
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
