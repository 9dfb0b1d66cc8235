package mcp

import "github.com/mark3labs/mcp-go/mcp"

// generateDocumentationTool defines the generate_documentation MCP tool.
var generateDocumentationTool = mcp.NewTool("generate_documentation",
	mcp.WithDescription("Generate Markdown documentation for a source file. Large files are split into chunks that are documented in parallel; unchanged content is served from the cache."),
	mcp.WithString("file_path",
		mcp.Required(),
		mcp.Description("Path of the file, used for language detection and in the document title"),
	),
	mcp.WithString("file_content",
		mcp.Description("Source text to document. When omitted the file is read from file_path."),
	),
	mcp.WithBoolean("include_metadata",
		mcp.Description("Return the full result as JSON instead of just the Markdown (default false)"),
	),
)

// estimateCostTool defines the estimate_cost MCP tool.
var estimateCostTool = mcp.NewTool("estimate_cost",
	mcp.WithDescription("Estimate how many chunks, tokens and dollars documenting a file would take, counting only parts that are not cached yet."),
	mcp.WithString("file_path",
		mcp.Required(),
		mcp.Description("Path of the file"),
	),
	mcp.WithString("file_content",
		mcp.Description("Source text. When omitted the file is read from file_path."),
	),
)

// cacheStatsTool defines the cache_stats MCP tool.
var cacheStatsTool = mcp.NewTool("cache_stats",
	mcp.WithDescription("Report the documentation cache backend, its item count and hit/miss counters."),
)

// getCachedDocumentationTool defines the get_cached_documentation MCP tool.
var getCachedDocumentationTool = mcp.NewTool("get_cached_documentation",
	mcp.WithDescription("Fetch a cache entry by its SHA-256 key."),
	mcp.WithString("file_hash",
		mcp.Required(),
		mcp.Description("64-character hex cache key"),
	),
)

// invalidateCacheTool defines the invalidate_cache MCP tool.
var invalidateCacheTool = mcp.NewTool("invalidate_cache",
	mcp.WithDescription("Remove a cache entry so the next request regenerates it."),
	mcp.WithString("file_hash",
		mcp.Required(),
		mcp.Description("64-character hex cache key"),
	),
)

// getFileDocsTool defines the get_file_docs MCP tool.
var getFileDocsTool = mcp.NewTool("get_file_docs",
	mcp.WithDescription("Get documentation previously written by `chunkdoc generate` for a specific file."),
	mcp.WithString("file_path",
		mcp.Required(),
		mcp.Description("Path to the file relative to the project root"),
	),
)
