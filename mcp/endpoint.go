package mcp

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flarexio/vectorblade"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      mcp.RequestId   `json:"id"`
	Method  mcp.MCPMethod   `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func errorResponse(id mcp.RequestId, code int, message string) mcp.JSONRPCError {
	resp := mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
	}

	resp.Error.Code = code
	resp.Error.Message = message
	return resp
}

type MCPEndpoint func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage

func MakeEndpoints(svc vectorblade.Service) map[mcp.MCPMethod]MCPEndpoint {
	return map[mcp.MCPMethod]MCPEndpoint{
		mcp.MethodInitialize: InitializeEndpoint(svc),
		mcp.MethodPing:       PingEndpoint(svc),
		mcp.MethodToolsList:  ListToolsEndpoint(svc),
		mcp.MethodToolsCall:  CallToolEndpoint(svc),
	}
}

const MCPSERVER_INSTRUCTIONS string = `VectorBlade serves named document indexes for retrieval-augmented answers.

Available tools:
- list_indexes: List every registered index and which ones are loaded
- index_status: Show whether an index is loaded and when it was last queried
- query_index: Ask a question against an index and get an answer with its source chunks

Indexes are loaded from disk on first query, so the first call to a cold index may be slower.`

func InitializeEndpoint(svc vectorblade.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.InitializeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		protocolVersion := mcp.LATEST_PROTOCOL_VERSION
		if clientVersion := params.ProtocolVersion; clientVersion != "" {
			if slices.Contains(mcp.ValidProtocolVersions, clientVersion) {
				protocolVersion = clientVersion
			}
		}

		result := &mcp.InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged,omitempty"`
				}{},
			},
			ServerInfo: mcp.Implementation{
				Name:    "vectorblade",
				Version: vectorblade.Version,
			},
			Instructions: MCPSERVER_INSTRUCTIONS,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func PingEndpoint(svc vectorblade.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  struct{}{}, // empty response
		}
	}
}

func ListToolsEndpoint(svc vectorblade.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		result := &mcp.ListToolsResult{
			Tools: Tools(),
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func CallToolEndpoint(svc vectorblade.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		callToolReq := mcp.CallToolRequest{
			Request: mcp.Request{
				Method: string(req.Method),
			},
			Params: params,
		}

		handler, ok := toolHandlers[params.Name]
		if !ok {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, "unknown tool: "+params.Name)
		}

		result, err := handler(ctx, svc, callToolReq)
		if err != nil {
			return errorResponse(req.ID, mcp.INTERNAL_ERROR, err.Error())
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}
