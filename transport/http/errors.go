package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flarexio/vectorblade"
	"github.com/flarexio/vectorblade/reader"
	"github.com/flarexio/vectorblade/registry"
)

var ErrInvalidRequest = errors.New("invalid request")

// StatusCode maps a service error to the HTTP status it is reported with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, registry.ErrInvalidName),
		errors.Is(err, vectorblade.ErrNoDocuments),
		errors.Is(err, vectorblade.ErrEmptyQuery),
		errors.Is(err, reader.ErrMissingFilename),
		errors.Is(err, reader.ErrUnsupportedFileType):
		return http.StatusBadRequest

	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, reader.ErrPathNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func abort(c *gin.Context, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(StatusCode(err), &ErrorResponse{
		Detail: err.Error(),
	})
}
