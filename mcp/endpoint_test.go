package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func dispatch(t *testing.T, endpoints map[mcp.MCPMethod]MCPEndpoint, line string) mcp.JSONRPCMessage {
	t.Helper()

	var req JSONRPCRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		t.Fatal(err)
	}

	endpoint, ok := endpoints[req.Method]
	if !ok {
		t.Fatalf("no endpoint for %s", req.Method)
	}

	return endpoint(context.Background(), req)
}

func TestMakeEndpoints(t *testing.T) {
	assert := assert.New(t)

	endpoints := MakeEndpoints(&stubService{})

	assert.Len(endpoints, 4)
	for _, method := range []mcp.MCPMethod{
		mcp.MethodInitialize,
		mcp.MethodPing,
		mcp.MethodToolsList,
		mcp.MethodToolsCall,
	} {
		assert.Contains(endpoints, method)
	}
}

func TestDispatchQueryIndex(t *testing.T) {
	assert := assert.New(t)

	svc := &stubService{}
	endpoints := MakeEndpoints(svc)

	msg := dispatch(t, endpoints, `{
	  "jsonrpc": "2.0",
	  "id": "req-7",
	  "method": "tools/call",
	  "params": {
	    "name": "query_index",
	    "arguments": {"index_name": "docs1", "query": "What is Go?", "similarity_top_k": "4"}
	  }
	}`)

	resp, ok := msg.(mcp.JSONRPCResponse)
	if !ok {
		assert.Fail("unexpected response type")
		return
	}

	assert.Equal(mcp.NewRequestId("req-7"), resp.ID)
	assert.Equal(4, svc.lastTopK, "string numbers are accepted")

	result, ok := resp.Result.(*mcp.CallToolResult)
	if !ok {
		assert.Fail("unexpected result type")
		return
	}

	assert.False(result.IsError)
	assert.Contains(toolText(result), "Go is a programming language.")
}

func TestDispatchInvalidParams(t *testing.T) {
	assert := assert.New(t)

	endpoints := MakeEndpoints(&stubService{})

	tests := []string{
		`{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": "oops"}`,
		`{"jsonrpc": "2.0", "id": 2, "method": "tools/call", "params": [1, 2]}`,
		`{"jsonrpc": "2.0", "id": 3, "method": "tools/call", "params": {"name": "get_weather"}}`,
	}

	for _, line := range tests {
		msg := dispatch(t, endpoints, line)

		rpcErr, ok := msg.(mcp.JSONRPCError)
		if !assert.True(ok, line) {
			continue
		}

		assert.Equal(mcp.INVALID_PARAMS, rpcErr.Error.Code, line)
	}
}
