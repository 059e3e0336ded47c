package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flarexio/vectorblade"
)

const (
	ToolListIndexes = "list_indexes"
	ToolIndexStatus = "index_status"
	ToolQueryIndex  = "query_index"
)

func Tools() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(ToolListIndexes,
			mcp.WithDescription("List all registered indexes and the ones currently loaded in memory."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		mcp.NewTool(ToolIndexStatus,
			mcp.WithDescription("Show whether an index is loaded and when it was last accessed."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("index_name",
				mcp.Required(),
				mcp.Description("Name of the index"),
			),
		),
		mcp.NewTool(ToolQueryIndex,
			mcp.WithDescription("Answer a question from the documents of an index, returning the answer and its source chunks."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("index_name",
				mcp.Required(),
				mcp.Description("Name of the index"),
			),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Natural language question"),
			),
			mcp.WithNumber("similarity_top_k",
				mcp.Description("Number of source chunks to retrieve"),
				mcp.Min(1),
			),
		),
	}
}

type toolHandler func(ctx context.Context, svc vectorblade.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

var toolHandlers = map[string]toolHandler{
	ToolListIndexes: listIndexes,
	ToolIndexStatus: indexStatus,
	ToolQueryIndex:  queryIndex,
}

type ListIndexesResult struct {
	Available []string `json:"available"`
	Loaded    []string `json:"loaded"`
}

func listIndexes(ctx context.Context, svc vectorblade.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	available, err := svc.ListAvailableIndexes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	loaded, err := svc.ListLoadedIndexes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(&ListIndexesResult{
		Available: available,
		Loaded:    loaded,
	})
}

func indexStatus(ctx context.Context, svc vectorblade.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("index_name", "")

	status, err := svc.IndexStatus(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(status)
}

func queryIndex(ctx context.Context, svc vectorblade.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("index_name", "")
	query := req.GetString("query", "")
	topK := req.GetInt("similarity_top_k", 0)

	result, err := svc.Query(ctx, name, query, topK)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(result)
}

// Service errors are reported inside the tool result so the calling model
// can see them; only encoding failures become protocol errors.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	bs, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(string(bs)), nil
}
