package nats

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/vectorblade"
	"github.com/flarexio/vectorblade/reader"
	"github.com/flarexio/vectorblade/registry"
)

const (
	CodeBadRequest = "400"
	CodeNotFound   = "404"
	CodeInternal   = "500"
)

// Code maps a service error to the micro error code it is reported with.
func Code(err error) string {
	switch {
	case errors.Is(err, registry.ErrInvalidName),
		errors.Is(err, vectorblade.ErrNoDocuments),
		errors.Is(err, vectorblade.ErrEmptyQuery),
		errors.Is(err, reader.ErrMissingFilename),
		errors.Is(err, reader.ErrUnsupportedFileType):
		return CodeBadRequest

	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, reader.ErrPathNotFound):
		return CodeNotFound

	default:
		return CodeInternal
	}
}

func respondError(r micro.Request, err error) {
	r.Error(Code(err), err.Error(), nil)
}

func BuildIndexHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req vectorblade.BuildIndexRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error(CodeBadRequest, err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			respondError(r, err)
			return
		}

		r.RespondJSON(&resp)
	}
}

func UploadBuildHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req vectorblade.UploadBuildRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error(CodeBadRequest, err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			respondError(r, err)
			return
		}

		r.RespondJSON(&resp)
	}
}

// NameHandler serves endpoints whose request is a bare index name.
func NameHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		name := string(r.Data())
		if name == "" {
			r.Error(CodeBadRequest, "index name is required", nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, name)
		if err != nil {
			respondError(r, err)
			return
		}

		if resp == nil {
			r.Respond([]byte("OK"))
			return
		}

		r.RespondJSON(&resp)
	}
}

func ListIndexesHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()
		resp, err := endpoint(ctx, nil)
		if err != nil {
			respondError(r, err)
			return
		}

		names, ok := resp.([]string)
		if !ok {
			r.Error(CodeInternal, "invalid response type", nil)
			return
		}

		r.RespondJSON(&names)
	}
}

func QueryHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req vectorblade.QueryRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error(CodeBadRequest, err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			respondError(r, err)
			return
		}

		r.RespondJSON(&resp)
	}
}

func RescanHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()
		resp, err := endpoint(ctx, nil)
		if err != nil {
			respondError(r, err)
			return
		}

		r.RespondJSON(&resp)
	}
}
