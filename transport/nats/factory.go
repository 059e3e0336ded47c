package nats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/vectorblade"
	"github.com/flarexio/vectorblade/registry"
)

// RequestTimeout bounds a request whose context carries no deadline.
// Builds and cold loads can take far longer than nats.DefaultTimeout.
var RequestTimeout = 2 * time.Minute

var ErrBadRequest = errors.New("bad request")

func MakeEndpoints(nc *nats.Conn, prefix string) *vectorblade.EndpointSet {
	return &vectorblade.EndpointSet{
		BuildIndex:           BuildIndexEndpoint(nc, prefix+"."+TopicBuildIndex),
		UploadBuild:          UploadBuildEndpoint(nc, prefix+"."+TopicUploadBuild),
		IndexStatus:          IndexStatusEndpoint(nc, prefix+"."+TopicIndexStatus),
		ListAvailableIndexes: ListIndexesEndpoint(nc, prefix+"."+TopicListAvailableIndexes),
		ListLoadedIndexes:    ListIndexesEndpoint(nc, prefix+"."+TopicListLoadedIndexes),
		Query:                QueryEndpoint(nc, prefix+"."+TopicQuery),
		DeleteIndex:          DeleteIndexEndpoint(nc, prefix+"."+TopicDeleteIndex),
		Rescan:               RescanEndpoint(nc, prefix+"."+TopicRescan),
	}
}

func request(ctx context.Context, nc *nats.Conn, topic string, data []byte) (*nats.Msg, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
	}

	resp, err := nc.RequestWithContext(ctx, topic, data)
	if err != nil {
		return nil, err
	}

	if err := Error(resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func requestJSON(ctx context.Context, nc *nats.Conn, topic string, req any, resp any) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	msg, err := request(ctx, nc, topic, data)
	if err != nil {
		return err
	}

	return json.Unmarshal(msg.Data, resp)
}

func BuildIndexEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(vectorblade.BuildIndexRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		var result *vectorblade.BuildResult
		if err := requestJSON(ctx, nc, topic, &req, &result); err != nil {
			return nil, err
		}

		return result, nil
	}
}

func UploadBuildEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(vectorblade.UploadBuildRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		var result *vectorblade.BuildResult
		if err := requestJSON(ctx, nc, topic, &req, &result); err != nil {
			return nil, err
		}

		return result, nil
	}
}

func IndexStatusEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		name, ok := req.(string)
		if !ok {
			return nil, errors.New("invalid request")
		}

		msg, err := request(ctx, nc, topic, []byte(name))
		if err != nil {
			return nil, err
		}

		var status *vectorblade.IndexStatus
		if err := json.Unmarshal(msg.Data, &status); err != nil {
			return nil, err
		}

		return status, nil
	}
}

func ListIndexesEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		msg, err := request(ctx, nc, topic, nil)
		if err != nil {
			return nil, err
		}

		var names []string
		if err := json.Unmarshal(msg.Data, &names); err != nil {
			return nil, err
		}

		return names, nil
	}
}

func QueryEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(vectorblade.QueryRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		var result *vectorblade.QueryResult
		if err := requestJSON(ctx, nc, topic, &req, &result); err != nil {
			return nil, err
		}

		return result, nil
	}
}

func DeleteIndexEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		name, ok := req.(string)
		if !ok {
			return nil, errors.New("invalid request")
		}

		_, err := request(ctx, nc, topic, []byte(name))
		return nil, err
	}
}

func RescanEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		msg, err := request(ctx, nc, topic, nil)
		if err != nil {
			return nil, err
		}

		var result *vectorblade.RescanResponse
		if err := json.Unmarshal(msg.Data, &result); err != nil {
			return nil, err
		}

		return result, nil
	}
}

// RemoteError is an error reported by a remote service. It unwraps to the
// local sentinel matching its code, so errors.Is works across the wire.
type RemoteError struct {
	Code        string
	Description string
}

func (e *RemoteError) Error() string {
	return e.Description
}

func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeBadRequest:
		return ErrBadRequest
	case CodeNotFound:
		return registry.ErrNotFound
	default:
		return nil
	}
}

func Error(msg *nats.Msg) error {
	if msg == nil {
		return errors.New("nil message")
	}

	code := msg.Header.Get(micro.ErrorCodeHeader)
	if code == "" {
		return nil
	}

	description := msg.Header.Get(micro.ErrorHeader)
	if description == "" {
		description = "unknown error"
	}

	return &RemoteError{
		Code:        code,
		Description: description,
	}
}
