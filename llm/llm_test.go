package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenAISynthesize(t *testing.T) {
	assert := assert.New(t)

	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/v1/chat/completions", r.URL.Path)
		assert.Equal("Bearer sk-test", r.Header.Get("Authorization"))

		json.NewDecoder(r.Body).Decode(&got)

		json.NewEncoder(w).Encode(ChatCompletionResponse{
			ID: "cmpl-1",
			Choices: []Choice{
				{Message: Message{Role: "assistant", Content: "  Paris.  "}},
			},
		})
	}))
	defer srv.Close()

	s, err := New(Config{
		Provider: ProviderOpenAI,
		BaseURL:  srv.URL + "/v1",
		APIKey:   "sk-test",
	})
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	answer, err := s.Synthesize(context.Background(), "Capital of France?", []string{"Paris is the capital of France."})
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("Paris.", answer)
	assert.Equal(DefaultModel, got.Model)
	assert.Len(got.Messages, 2)
	assert.Contains(got.Messages[1].Content, "Paris is the capital of France.")
	assert.Contains(got.Messages[1].Content, "Query: Capital of France?")
}

func TestOpenAISynthesizeError(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
	}))
	defer srv.Close()

	s, _ := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "bad"})

	_, err := s.Synthesize(context.Background(), "q", nil)
	assert.ErrorContains(err, "invalid api key")
}

func TestOpenAINoChoices(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	s, _ := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k"})

	_, err := s.Synthesize(context.Background(), "q", []string{"a"})
	assert.ErrorIs(err, ErrNoChoices)
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	_, err := New(Config{})
	assert.ErrorIs(err, ErrMissingAPIKey)

	_, err = New(Config{Provider: "bogus"})
	assert.ErrorIs(err, ErrUnsupportedProvider)

	s, err := New(Config{Provider: ProviderExtractive})
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	answer, _ := s.Synthesize(context.Background(), "q", []string{"one", "two"})
	assert.Equal("one\n\ntwo", answer)

	answer, _ = s.Synthesize(context.Background(), "q", nil)
	assert.Equal("Empty Response", answer)
}
