// ABOUTME: MCP server implementation for wikifaves
// ABOUTME: Provides tools, resources, and prompts for AI agents to work with favorites, history, and trash

package mcp

import (
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/harper/wikifaves/internal/faves"
)

// Server wraps the MCP server with the wikifaves service
type Server struct {
	mcpServer *server.MCPServer
	svc       *faves.Service
	now       func() time.Time
}

// NewServer creates a new MCP server instance
func NewServer(svc *faves.Service, version string) *Server {
	s := &Server{
		svc: svc,
		now: time.Now,
	}

	s.mcpServer = server.NewMCPServer(
		"wikifaves",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
