package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/docgen"
)

// docRequest builds a pipeline request from tool arguments, reading the
// file when no content was passed.
func docRequest(request mcp.CallToolRequest) (docgen.Request, *mcp.CallToolResult) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return docgen.Request{}, mcp.NewToolResultError("missing required parameter: file_path")
	}
	content := request.GetString("file_content", "")
	if content == "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return docgen.Request{}, mcp.NewToolResultError(fmt.Sprintf("no file_content given and reading %s failed: %v", filePath, err))
		}
		content = string(data)
	}
	return docgen.Request{FilePath: filePath, Content: content}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleGenerateDocumentation runs the pipeline for one file.
func (s *Server) handleGenerateDocumentation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, errResult := docRequest(request)
	if errResult != nil {
		return errResult, nil
	}

	res, err := s.docs.Document(ctx, req)
	if err != nil {
		if errors.Is(err, docgen.ErrInvalidRequest) || errors.Is(err, docgen.ErrUnsupportedFile) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("documentation failed: %v", err)), nil
	}

	if request.GetBool("include_metadata", false) {
		return jsonResult(res)
	}
	return mcp.NewToolResultText(res.Documentation), nil
}

// handleEstimateCost predicts the cost of documenting a file.
func (s *Server) handleEstimateCost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, errResult := docRequest(request)
	if errResult != nil {
		return errResult, nil
	}
	est, err := s.docs.Estimate(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(est)
}

// handleCacheStats reports cache statistics.
func (s *Server) handleCacheStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.cache.Stats(ctx))
}

// handleGetCachedDocumentation returns a cache entry.
func (s *Server) handleGetCachedDocumentation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, errResult := requireKey(request)
	if errResult != nil {
		return errResult, nil
	}
	e, ok := s.cache.Lookup(ctx, key)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no cache entry for %s", key)), nil
	}
	return jsonResult(e)
}

// handleInvalidateCache removes a cache entry.
func (s *Server) handleInvalidateCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, errResult := requireKey(request)
	if errResult != nil {
		return errResult, nil
	}
	if err := s.cache.Remove(ctx, key); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("removing cache entry: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed cache entry %s", key)), nil
}

func requireKey(request mcp.CallToolRequest) (cache.Key, *mcp.CallToolResult) {
	raw, err := request.RequireString("file_hash")
	if err != nil {
		return "", mcp.NewToolResultError("missing required parameter: file_hash")
	}
	key, err := cache.ParseKey(raw)
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	return key, nil
}

// handleGetFileDocs reads the documentation written for a specific file.
func (s *Server) handleGetFileDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: file_path"), nil
	}

	docPath := filepath.Join(s.docsDir, filePath+".md")
	content, err := os.ReadFile(docPath)
	if err != nil {
		if os.IsNotExist(err) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"No documentation found for %q. Run `chunkdoc generate` to generate documentation.",
				filePath,
			)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to read documentation: %v", err)), nil
	}

	return mcp.NewToolResultText(string(content)), nil
}
