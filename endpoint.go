package vectorblade

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	BuildIndex           endpoint.Endpoint
	UploadBuild          endpoint.Endpoint
	IndexStatus          endpoint.Endpoint
	ListAvailableIndexes endpoint.Endpoint
	ListLoadedIndexes    endpoint.Endpoint
	Query                endpoint.Endpoint
	DeleteIndex          endpoint.Endpoint
	Rescan               endpoint.Endpoint
}

func MakeEndpoints(svc Service) *EndpointSet {
	return &EndpointSet{
		BuildIndex:           BuildIndexEndpoint(svc),
		UploadBuild:          UploadBuildEndpoint(svc),
		IndexStatus:          IndexStatusEndpoint(svc),
		ListAvailableIndexes: ListAvailableIndexesEndpoint(svc),
		ListLoadedIndexes:    ListLoadedIndexesEndpoint(svc),
		Query:                QueryEndpoint(svc),
		DeleteIndex:          DeleteIndexEndpoint(svc),
		Rescan:               RescanEndpoint(svc),
	}
}

type BuildIndexRequest struct {
	IndexName     string `json:"index_name"`
	DocumentsPath string `json:"documents_path,omitempty"`
}

func BuildIndexEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(BuildIndexRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.BuildIndex(ctx, req.IndexName, req.DocumentsPath)
	}
}

type UploadBuildRequest struct {
	IndexName string `json:"index_name"`
	Files     []File `json:"files"`
}

func UploadBuildEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(UploadBuildRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.UploadBuild(ctx, req.IndexName, req.Files)
	}
}

func IndexStatusEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		name, ok := request.(string)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.IndexStatus(ctx, name)
	}
}

func ListAvailableIndexesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.ListAvailableIndexes(ctx)
	}
}

func ListLoadedIndexesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.ListLoadedIndexes(ctx)
	}
}

type QueryRequest struct {
	IndexName      string `json:"index_name"`
	Query          string `json:"query"`
	SimilarityTopK int    `json:"similarity_top_k,omitempty"`
}

func QueryEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(QueryRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Query(ctx, req.IndexName, req.Query, req.SimilarityTopK)
	}
}

func DeleteIndexEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		name, ok := request.(string)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		err := svc.DeleteIndex(ctx, name)
		return nil, err
	}
}

type RescanResponse struct {
	Registered int `json:"registered"`
}

func RescanEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		n, err := svc.Rescan(ctx)
		if err != nil {
			return nil, err
		}

		return &RescanResponse{Registered: n}, nil
	}
}
