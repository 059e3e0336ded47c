package vectorblade

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/flarexio/vectorblade/embedding"
	"github.com/flarexio/vectorblade/llm"
)

func TestConfigYAMLUnmarshal(t *testing.T) {
	assert := assert.New(t)

	input := `storage:
  dir: /var/lib/vectorblade
registry:
  maxLoaded: 8
  loadTimeout: 2m
  watch: true
embedding:
  provider: ollama
  model: nomic-embed-text
  baseURL: http://localhost:11434/api
llm:
  provider: extractive
documents:
  extensions:
    - .txt
    - .md
  recursive: true
vector:
  compress: true
  chunkSize: 512
  chunkOverlap: 64
query:
  defaultTopK: 3
  timeout: 30s`

	var cfg Config
	if err := yaml.Unmarshal([]byte(input), &cfg); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("/var/lib/vectorblade", cfg.Storage.Dir)
	assert.Equal(8, cfg.Registry.MaxLoaded)
	assert.Equal(2*time.Minute, cfg.Registry.LoadTimeout)
	assert.True(cfg.Registry.Watch)
	assert.Equal(embedding.ProviderOllama, cfg.Embedding.Provider)
	assert.Equal(llm.ProviderExtractive, cfg.LLM.Provider)
	assert.Equal([]string{".txt", ".md"}, cfg.Documents.Extensions)
	assert.True(cfg.Documents.Recursive)
	assert.True(cfg.Vector.Compress)
	assert.Equal(512, cfg.Vector.ChunkSize)
	assert.Equal(3, cfg.Query.DefaultTopK)
	assert.Equal(30*time.Second, cfg.Query.Timeout.Duration())
}

func TestDurationJSON(t *testing.T) {
	assert := assert.New(t)

	bs, err := json.Marshal(Duration(90 * time.Second))
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(`"1m30s"`, string(bs))

	var d Duration
	if err := json.Unmarshal([]byte(`"250ms"`), &d); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(250*time.Millisecond, d.Duration())

	err = json.Unmarshal([]byte(`"soon"`), &d)
	assert.Error(err)
}

func TestQueryRequestJSON(t *testing.T) {
	assert := assert.New(t)

	input := `{"index_name": "docs1", "query": "what is go?", "similarity_top_k": 3}`

	var req QueryRequest
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("docs1", req.IndexName)
	assert.Equal("what is go?", req.Query)
	assert.Equal(3, req.SimilarityTopK)
}
