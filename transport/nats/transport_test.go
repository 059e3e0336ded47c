package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/stretchr/testify/assert"

	"github.com/flarexio/vectorblade"
	"github.com/flarexio/vectorblade/reader"
	"github.com/flarexio/vectorblade/registry"
)

type fakeRequest struct {
	data []byte

	response    []byte
	code        string
	description string
}

func (r *fakeRequest) Respond(data []byte, opts ...micro.RespondOpt) error {
	r.response = data
	return nil
}

func (r *fakeRequest) RespondJSON(v any, opts ...micro.RespondOpt) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	r.response = data
	return nil
}

func (r *fakeRequest) Error(code, description string, data []byte, opts ...micro.RespondOpt) error {
	r.code = code
	r.description = description
	return nil
}

func (r *fakeRequest) Data() []byte { return r.data }
func (r *fakeRequest) Headers() micro.Headers { return nil }
func (r *fakeRequest) Subject() string { return "vectorblade.test" }
func (r *fakeRequest) Reply() string { return "" }

func TestCode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(CodeBadRequest, Code(fmt.Errorf("%w: a/b", registry.ErrInvalidName)))
	assert.Equal(CodeBadRequest, Code(vectorblade.ErrEmptyQuery))
	assert.Equal(CodeBadRequest, Code(reader.ErrUnsupportedFileType))
	assert.Equal(CodeNotFound, Code(fmt.Errorf("%w: docs1", registry.ErrNotFound)))
	assert.Equal(CodeNotFound, Code(reader.ErrPathNotFound))
	assert.Equal(CodeInternal, Code(errors.New("disk on fire")))
}

func TestQueryHandler(t *testing.T) {
	assert := assert.New(t)

	endpoint := func(ctx context.Context, request any) (any, error) {
		req := request.(vectorblade.QueryRequest)
		if req.IndexName != "docs1" {
			return nil, fmt.Errorf("%w: %s", registry.ErrNotFound, req.IndexName)
		}

		return &vectorblade.QueryResult{
			Response: "answer",
			Sources:  []string{"chunk"},
		}, nil
	}

	handler := QueryHandler(endpoint)

	r := &fakeRequest{data: []byte(`{"index_name": "docs1", "query": "q", "similarity_top_k": 2}`)}
	handler(r)

	assert.Empty(r.code)
	assert.JSONEq(`{"response": "answer", "sources": ["chunk"]}`, string(r.response))

	r = &fakeRequest{data: []byte(`{"index_name": "other", "query": "q"}`)}
	handler(r)

	assert.Equal(CodeNotFound, r.code)
	assert.Equal("index not found: other", r.description)

	r = &fakeRequest{data: []byte(`not json`)}
	handler(r)

	assert.Equal(CodeBadRequest, r.code)
}

func TestNameHandler(t *testing.T) {
	assert := assert.New(t)

	var got string
	endpoint := func(ctx context.Context, request any) (any, error) {
		got = request.(string)
		return nil, nil
	}

	handler := NameHandler(endpoint)

	r := &fakeRequest{data: []byte("docs1")}
	handler(r)

	assert.Equal("docs1", got)
	assert.Equal("OK", string(r.response))

	r = &fakeRequest{}
	handler(r)

	assert.Equal(CodeBadRequest, r.code)
}

func TestError(t *testing.T) {
	assert := assert.New(t)

	msg := nats.NewMsg("reply")
	assert.NoError(Error(msg))

	msg.Header.Set(micro.ErrorCodeHeader, CodeNotFound)
	msg.Header.Set(micro.ErrorHeader, "index not found: docs1")

	err := Error(msg)
	assert.ErrorIs(err, registry.ErrNotFound)
	assert.Equal("index not found: docs1", err.Error())

	msg.Header.Set(micro.ErrorCodeHeader, CodeBadRequest)
	assert.ErrorIs(Error(msg), ErrBadRequest)

	msg.Header.Set(micro.ErrorCodeHeader, CodeInternal)
	err = Error(msg)

	var remote *RemoteError
	assert.ErrorAs(err, &remote)
	assert.Equal(CodeInternal, remote.Code)
	assert.NotErrorIs(err, registry.ErrNotFound)
}
