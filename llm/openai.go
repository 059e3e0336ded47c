package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// NewOpenAI returns a Synthesizer backed by an OpenAI-compatible
// chat completions endpoint.
func NewOpenAI(cfg Config) (Synthesizer, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &openAI{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

type openAI struct {
	cfg    Config
	client *http.Client
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index   int     `json:"index"`
	Message Message `json:"message"`
}

type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (o *openAI) Synthesize(ctx context.Context, query string, sources []string) (string, error) {
	temperature := o.cfg.Temperature

	body := ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: "You are an expert Q&A system. Answer using only the provided context."},
			{Role: "user", Content: buildPrompt(query, sources)},
		},
		Temperature: &temperature,
	}

	data, err := json.Marshal(&body)
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(o.cfg.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if json.Unmarshal(bs, &errResp) == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("chat completion failed: %s %s", resp.Status, errResp.Error.Message)
		}

		return "", fmt.Errorf("chat completion failed: %s %s", resp.Status, string(bs))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(bs, &result); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", ErrNoChoices
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
