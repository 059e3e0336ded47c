package vector

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyInput = errors.New("no documents to index")
	ErrIO         = errors.New("index storage error")
	ErrLoad       = errors.New("index load error")
	ErrQuery      = errors.New("index query error")
)

type Config struct {
	Compress     bool `yaml:"compress"`
	Concurrency  int  `yaml:"concurrency"`
	ChunkSize    int  `yaml:"chunkSize"`
	ChunkOverlap int  `yaml:"chunkOverlap"`
}

func (cfg Config) WithDefaults() Config {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 0
	}

	return cfg
}

// Engine turns documents into searchable indexes and restores persisted ones.
type Engine interface {

	// Build indexes the given documents in memory. It fails with ErrEmptyInput
	// when there is nothing to index.
	Build(ctx context.Context, docs []Document) (Index, error)

	// Load restores an index previously written by Index.Persist.
	Load(ctx context.Context, dir string) (Index, error)
}

// Index is a materialized, queryable vector index.
type Index interface {
	Persist(ctx context.Context, dir string) error
	Retrieve(ctx context.Context, query string, topK int) ([]Result, error)
	Info() IndexInfo
}

type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Result struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float32           `json:"score"`
}

type IndexInfo struct {
	IndexID        string    `json:"index_id"`
	Engine         string    `json:"engine"`
	Collection     string    `json:"collection"`
	EmbeddingModel string    `json:"embedding_model"`
	DocumentCount  int       `json:"document_count"`
	NodeCount      int       `json:"node_count"`
	ChunkSize      int       `json:"chunk_size"`
	ChunkOverlap   int       `json:"chunk_overlap"`
	CreatedAt      time.Time `json:"created_at"`
	Version        int       `json:"version"`
}
