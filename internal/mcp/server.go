// Package mcp exposes the documentation pipeline as MCP tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/docgen"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Documenter runs the pipeline.
type Documenter interface {
	Document(ctx context.Context, req docgen.Request) (*docgen.Result, error)
	Estimate(ctx context.Context, req docgen.Request) (*docgen.Estimate, error)
}

// CacheAdmin inspects and edits the documentation cache.
type CacheAdmin interface {
	Lookup(ctx context.Context, key cache.Key) (*cache.Entry, bool)
	Remove(ctx context.Context, key cache.Key) error
	Stats(ctx context.Context) cache.Stats
}

// Server wraps an MCP server that exposes documentation tools.
type Server struct {
	docs    Documenter
	cache   CacheAdmin
	docsDir string
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies. docsDir
// is where `chunkdoc generate` writes its Markdown output.
func NewServer(docs Documenter, cacheAdmin CacheAdmin, docsDir string) *Server {
	s := &Server{
		docs:    docs,
		cache:   cacheAdmin,
		docsDir: docsDir,
	}

	s.mcp = server.NewMCPServer(
		"chunkdoc",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(generateDocumentationTool, s.handleGenerateDocumentation)
	s.mcp.AddTool(estimateCostTool, s.handleEstimateCost)
	s.mcp.AddTool(cacheStatsTool, s.handleCacheStats)
	s.mcp.AddTool(getCachedDocumentationTool, s.handleGetCachedDocumentation)
	s.mcp.AddTool(invalidateCacheTool, s.handleInvalidateCache)
	s.mcp.AddTool(getFileDocsTool, s.handleGetFileDocs)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
