package http

import (
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flarexio/vectorblade"

	mcpE "github.com/flarexio/vectorblade/mcp"
)

func AddRouters(r *gin.Engine, endpoints *vectorblade.EndpointSet) {
	r.GET("/", RootHandler())
	r.POST("/build", BuildIndexHandler(endpoints.BuildIndex))
	r.POST("/upload-build/:index_name", UploadBuildHandler(endpoints.UploadBuild))
	r.GET("/status/:index_name", IndexStatusHandler(endpoints.IndexStatus))
	r.GET("/list_available_indexes", ListIndexesHandler(endpoints.ListAvailableIndexes))
	r.GET("/list_loaded_indexes", ListIndexesHandler(endpoints.ListLoadedIndexes))
	r.POST("/query", QueryHandler(endpoints.Query))
	r.DELETE("/indexes/:index_name", DeleteIndexHandler(endpoints.DeleteIndex))
	r.POST("/rescan", RescanHandler(endpoints.Rescan))
}

func AddMetricsRouter(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func AddStreamableRouters(r *gin.Engine, endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) {
	r.POST("/mcp", MCPStreamableHandler(endpoints))
}
