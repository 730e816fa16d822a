// Package mcp exposes PMForge project documents to the external agent over
// the Model Context Protocol. Every write made through these tools is
// attributed to the ai-agent source.
package mcp

import (
	"context"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
)

// DocumentService reads and writes the singleton project documents.
type DocumentService interface {
	GetPRD(ctx context.Context, projectID string) (*document.PRD, error)
	UpsertPRD(ctx context.Context, projectID string, req document.UpdatePRDRequest) (*document.PRD, error)
	GetSpec(ctx context.Context, projectID string) (*document.Spec, error)
	UpsertSpec(ctx context.Context, projectID string, req document.UpdateSpecRequest) (*document.Spec, error)
}

// RoadmapService reads and extends a project's roadmap.
type RoadmapService interface {
	List(ctx context.Context, projectID string) ([]roadmap.Task, error)
	BulkCreate(ctx context.Context, projectID string, req roadmap.BulkCreateRequest) ([]roadmap.Task, error)
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Name    string
	Version string
	// APIKey, when set, is required as a Bearer token on every request.
	APIKey string
}

// ServerDeps holds the services the tools call.
type ServerDeps struct {
	Documents DocumentService
	Roadmap   RoadmapService
}

// Server is the MCP tool surface.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
}

// NewServer creates the MCP server and registers all tools.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable HTTP transport guarded by the API key.
func (s *Server) Handler() http.Handler {
	return AuthMiddleware(s.cfg.APIKey, mcpserver.NewStreamableHTTPServer(s.mcpServer))
}
