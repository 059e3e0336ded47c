package vectorblade

import (
	"context"
	"errors"
)

// ProxyMiddleware turns an EndpointSet, typically backed by a remote
// transport, back into a Service.
func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return errors.New("method not implemented")
}

func (mw *proxyMiddleware) BuildIndex(ctx context.Context, name string, documentsPath string) (*BuildResult, error) {
	req := BuildIndexRequest{
		IndexName:     name,
		DocumentsPath: documentsPath,
	}

	resp, err := mw.endpoints.BuildIndex(ctx, req)
	if err != nil {
		return nil, err
	}

	result, ok := resp.(*BuildResult)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return result, nil
}

func (mw *proxyMiddleware) UploadBuild(ctx context.Context, name string, files []File) (*BuildResult, error) {
	req := UploadBuildRequest{
		IndexName: name,
		Files:     files,
	}

	resp, err := mw.endpoints.UploadBuild(ctx, req)
	if err != nil {
		return nil, err
	}

	result, ok := resp.(*BuildResult)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return result, nil
}

func (mw *proxyMiddleware) IndexStatus(ctx context.Context, name string) (*IndexStatus, error) {
	resp, err := mw.endpoints.IndexStatus(ctx, name)
	if err != nil {
		return nil, err
	}

	status, ok := resp.(*IndexStatus)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return status, nil
}

func (mw *proxyMiddleware) ListAvailableIndexes(ctx context.Context) ([]string, error) {
	return mw.names(ctx, mw.endpoints.ListAvailableIndexes)
}

func (mw *proxyMiddleware) ListLoadedIndexes(ctx context.Context) ([]string, error) {
	return mw.names(ctx, mw.endpoints.ListLoadedIndexes)
}

func (mw *proxyMiddleware) names(ctx context.Context, e func(context.Context, any) (any, error)) ([]string, error) {
	resp, err := e(ctx, nil)
	if err != nil {
		return nil, err
	}

	names, ok := resp.([]string)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return names, nil
}

func (mw *proxyMiddleware) Query(ctx context.Context, name string, query string, topK int) (*QueryResult, error) {
	req := QueryRequest{
		IndexName:      name,
		Query:          query,
		SimilarityTopK: topK,
	}

	resp, err := mw.endpoints.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	result, ok := resp.(*QueryResult)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return result, nil
}

func (mw *proxyMiddleware) DeleteIndex(ctx context.Context, name string) error {
	_, err := mw.endpoints.DeleteIndex(ctx, name)
	return err
}

func (mw *proxyMiddleware) Rescan(ctx context.Context) (int, error) {
	resp, err := mw.endpoints.Rescan(ctx, nil)
	if err != nil {
		return 0, err
	}

	result, ok := resp.(*RescanResponse)
	if !ok {
		return 0, errors.New("invalid response type")
	}

	return result.Registered, nil
}
