package embedding

import (
	"context"
	"errors"

	"github.com/philippgille/chromem-go"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	ErrMissingAPIKey       = errors.New("embedding api key is required")
)

// Func embeds a single text. It has the same shape as chromem.EmbeddingFunc.
type Func func(ctx context.Context, text string) ([]float32, error)

type Provider string

const (
	ProviderOpenAI       Provider = "openai"
	ProviderOpenAICompat Provider = "openai-compat"
	ProviderOllama       Provider = "ollama"
	ProviderStatic       Provider = "static"
)

const DefaultCacheSize = 1000

type Config struct {
	Provider  Provider `yaml:"provider"`
	Model     string   `yaml:"model"`
	BaseURL   string   `yaml:"baseURL"`
	APIKey    string   `yaml:"apiKey"`
	CacheSize int      `yaml:"cacheSize"` // 0 uses DefaultCacheSize, negative disables
}

// ModelName returns the effective model identifier for the configured provider.
func (cfg Config) ModelName() string {
	if cfg.Model != "" {
		return cfg.Model
	}

	switch cfg.Provider {
	case ProviderStatic:
		return StaticModelName
	case ProviderOllama:
		return "nomic-embed-text"
	default:
		return string(chromem.EmbeddingModelOpenAI3Small)
	}
}

// New builds the embedding function described by cfg, wrapped with an LRU
// cache unless disabled.
func New(cfg Config) (Func, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}

	model := cfg.ModelName()

	var embed Func
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}

		embed = Func(chromem.NewEmbeddingFuncOpenAI(cfg.APIKey, chromem.EmbeddingModelOpenAI(model)))

	case ProviderOpenAICompat:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = chromem.BaseURLOpenAI
		}

		embed = Func(chromem.NewEmbeddingFuncOpenAICompat(baseURL, cfg.APIKey, model, nil))

	case ProviderOllama:
		embed = Func(chromem.NewEmbeddingFuncOllama(model, cfg.BaseURL))

	case ProviderStatic:
		embed = NewStatic().Embed

	default:
		return nil, ErrUnsupportedProvider
	}

	if cfg.CacheSize < 0 {
		return embed, nil
	}

	return NewCached(embed, model, cfg.CacheSize).Embed, nil
}
