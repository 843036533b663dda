package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/mcp-remote/internal/api"
	"github.com/leonardcser/mcp-remote/internal/web"
)

// FetchHandler returns the MCP tool handler for the "fetch" tool.
func FetchHandler(fetcher api.Fetcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		url, err := req.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		format := req.GetString("format", string(web.FormatRaw))

		res, err := fetcher.Fetch(ctx, url, web.Format(format))
		if err != nil {
			_, body := api.Classify(err)
			return mcp.NewToolResultError(body.Error + ": " + err.Error()), nil
		}
		return jsonResult(api.NewFetchResponse(res))
	}
}
