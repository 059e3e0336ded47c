package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"

	"github.com/flarexio/vectorblade"
)

type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

func RootHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, &RootResponse{
			Message: "VectorBlade document index service",
			Version: vectorblade.Version,
		})
	}
}

func BuildIndexHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req vectorblade.BuildIndexRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
			return
		}

		if req.DocumentsPath == "" {
			req.DocumentsPath = vectorblade.DefaultDocumentsPath
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			abort(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func UploadBuildHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			abort(c, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
			return
		}

		headers := form.File["files"]
		if len(headers) == 0 {
			abort(c, fmt.Errorf("%w: no files uploaded", ErrInvalidRequest))
			return
		}

		files := make([]vectorblade.File, 0, len(headers))
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				abort(c, err)
				return
			}

			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				abort(c, err)
				return
			}

			files = append(files, vectorblade.File{
				Filename: header.Filename,
				Content:  content,
			})
		}

		req := vectorblade.UploadBuildRequest{
			IndexName: c.Param("index_name"),
			Files:     files,
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			abort(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func IndexStatusHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("index_name")

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, name)
		if err != nil {
			abort(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func ListIndexesHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		resp, err := endpoint(ctx, nil)
		if err != nil {
			abort(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func QueryHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req vectorblade.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			abort(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func DeleteIndexHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("index_name")

		ctx := c.Request.Context()
		if _, err := endpoint(ctx, name); err != nil {
			abort(c, err)
			return
		}

		c.JSON(http.StatusOK, &vectorblade.BuildResult{
			IndexName: name,
			Status:    "success",
			Message:   fmt.Sprintf("Index %s unregistered; its files were kept.", name),
		})
	}
}

func RescanHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		resp, err := endpoint(ctx, nil)
		if err != nil {
			abort(c, err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}
