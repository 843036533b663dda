package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/mcp-remote/internal/api"
	"github.com/leonardcser/mcp-remote/internal/memory"
)

// storeArgs documents the memory-store input; its schema is generated.
type storeArgs struct {
	Key   string `json:"key" jsonschema_description:"Key to store the value under"`
	Value any    `json:"value" jsonschema_description:"Any non-null JSON value"`
}

func memoryStoreSchema() json.RawMessage {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	s := r.Reflect(&storeArgs{})
	s.Version = ""
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("memory-store schema: %v", err))
	}
	return b
}

// MemoryStoreHandler returns the MCP tool handler for "memory-store".
func MemoryStoreHandler(store memory.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		raw, ok := req.GetArguments()["value"]
		if !ok || raw == nil {
			return mcp.NewToolResultError("value is required"), nil
		}
		value, err := json.Marshal(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rec, err := store.Put(key, value)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(api.NewStoreResponse(key, rec))
	}
}

// MemoryRetrieveHandler returns the MCP tool handler for "memory-retrieve".
func MemoryRetrieveHandler(store memory.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rec, err := store.Get(key)
		if errors.Is(err, memory.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no memory stored for key %q", key)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(api.NewMemoryItem(key, rec))
	}
}

// MemoryListHandler returns the MCP tool handler for "memory-list".
func MemoryListHandler(store memory.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := store.List()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(api.NewListResponse(entries))
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
