// Package mcp exposes the portal's retrieval and agent capabilities as
// an MCP (Model Context Protocol) server over stdio, so editor and
// assistant clients can call them as tools.
package mcp

import (
	"context"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"

	agentuc "github.com/lorehub/lore/internal/usecase/agent"
	searchuc "github.com/lorehub/lore/internal/usecase/search"
)

const (
	// ServerName is the MCP server name.
	ServerName = "lore-mcp"
	// ServerVersion is the current server version.
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp    *server.MCPServer
	search *searchuc.Service
	agent  *agentuc.Service
}

// NewServer creates an MCP server exposing search and agent tools.
func NewServer(search *searchuc.Service, agent *agentuc.Service) *Server {
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		search: search,
		agent:  agent,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until the client
// disconnects or ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveOn(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveOn(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchPortalTool(), s.handleSearchPortal)
	s.mcp.AddTool(askAgentTool(), s.handleAskAgent)
}
