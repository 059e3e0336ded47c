package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"

	mcpE "github.com/flarexio/vectorblade/mcp"
)

func jsonrpcError(id mcp.RequestId, code int, message string) *mcp.JSONRPCError {
	resp := &mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
	}

	resp.Error.Code = code
	resp.Error.Message = message
	return resp
}

func MCPStreamableHandler(endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req mcpE.JSONRPCRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusBadRequest,
				jsonrpcError(req.ID, mcp.PARSE_ERROR, err.Error()))
			return
		}

		// Notifications carry no id and expect no response body.
		if req.ID.IsNil() {
			c.Status(http.StatusAccepted)
			return
		}

		endpoint, ok := endpoints[req.Method]
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound,
				jsonrpcError(req.ID, mcp.METHOD_NOT_FOUND, "method not found"))
			return
		}

		ctx := c.Request.Context()
		resp := endpoint(ctx, req)

		c.JSON(http.StatusOK, &resp)
	}
}
