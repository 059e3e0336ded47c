package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"

	mcpE "github.com/flarexio/vectorblade/mcp"
)

func TestStdioMCPServerListen(t *testing.T) {
	assert := assert.New(t)

	s := NewStdioMCPServer()
	s.AddEndpoint(mcp.MethodPing, mcpE.PingEndpoint(nil))

	err := s.AddEndpoint(mcp.MethodPing, mcpE.PingEndpoint(nil))
	assert.Error(err)

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc": "2.0", "id": 1, "method": "ping"}`,
		`{"jsonrpc": "2.0", "method": "notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc": "2.0", "id": 2, "method": "resources/list"}`,
	}, "\n"))

	out := new(bytes.Buffer)
	if err := s.Listen(context.Background(), in, out); err != nil {
		assert.Fail(err.Error())
		return
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if !assert.Len(lines, 2) {
		return
	}

	assert.JSONEq(`{"jsonrpc": "2.0", "id": 1, "result": {}}`, lines[0])

	var rpcErr mcp.JSONRPCError
	if err := json.Unmarshal([]byte(lines[1]), &rpcErr); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(mcp.METHOD_NOT_FOUND, rpcErr.Error.Code)
}
