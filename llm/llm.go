package llm

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported llm provider")
	ErrMissingAPIKey       = errors.New("llm api key is required")
	ErrNoChoices           = errors.New("llm returned no choices")
)

// Synthesizer turns retrieved sources into an answer for query.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, sources []string) (string, error)
}

type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderExtractive Provider = "extractive"
)

type Config struct {
	Provider    Provider      `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"baseURL"`
	APIKey      string        `yaml:"apiKey"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 60 * time.Second
)

func New(cfg Config) (Synthesizer, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg)
	case ProviderExtractive:
		return NewExtractive(), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

const textQATemplate = `Context information is below.
---------------------
{context}
---------------------
Given the context information and not prior knowledge, answer the query.
Query: {query}
Answer: `

func buildPrompt(query string, sources []string) string {
	r := strings.NewReplacer(
		"{context}", strings.Join(sources, "\n\n"),
		"{query}", query,
	)

	return r.Replace(textQATemplate)
}
