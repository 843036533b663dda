package tools

import (
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/leonardcser/mcp-remote/internal/api"
	"github.com/leonardcser/mcp-remote/internal/logger"
	"github.com/leonardcser/mcp-remote/internal/memory"
)

// Fetcher backs the fetch tool. Its truncation limit is advertised in the
// tool description.
type Fetcher interface {
	api.Fetcher
	MaxContentLength() int
}

// NewServer builds an MCP server exposing the memory and fetch tools over
// the given store and fetcher.
func NewServer(name, version string, store memory.Store, fetcher Fetcher) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewToolWithRawSchema("memory-store", multiline(
		"Stores a JSON value under a key in the server's memory",
		"\nUsage notes:",
		"- Writing an existing key replaces its value",
		"- Memory lasts until the server restarts",
	), memoryStoreSchema()), MemoryStoreHandler(store))

	s.AddTool(mcp.NewTool("memory-retrieve",
		mcp.WithDescription("Returns the value stored under a key, with the time it was written"),
		mcp.WithString("key", mcp.Required(), mcp.Description("The key to look up")),
	), MemoryRetrieveHandler(store))

	s.AddTool(mcp.NewTool("memory-list",
		mcp.WithDescription("Lists every stored key with its value and write time"),
	), MemoryListHandler(store))

	s.AddTool(mcp.NewTool("fetch",
		mcp.WithDescription(multiline(
			"Fetches a URL with a single GET request and returns the status and body",
			"\nUsage notes:",
			"- The URL must be a fully-formed http or https URL",
			"- Any HTTP status is returned as-is; only network failures are errors",
			"- format=text or format=markdown converts HTML pages; other bodies are returned raw",
			"- The content is truncated to "+strconv.Itoa(fetcher.MaxContentLength())+" characters",
		)),
		mcp.WithString("url", mcp.Required(), mcp.Description("The URL to fetch")),
		mcp.WithString("format", mcp.Description("raw (default), text or markdown"), mcp.Enum("raw", "text", "markdown")),
	), FetchHandler(fetcher))

	logger.Infof("Registered MCP tools: memory-store, memory-retrieve, memory-list, fetch")
	return s
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }
