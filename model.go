package vectorblade

import (
	"encoding/json"
	"errors"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flarexio/vectorblade/embedding"
	"github.com/flarexio/vectorblade/llm"
	"github.com/flarexio/vectorblade/reader"
	"github.com/flarexio/vectorblade/registry"
	"github.com/flarexio/vectorblade/vector"
)

var (
	ErrNoDocuments   = errors.New("no documents found")
	ErrEmptyQuery    = errors.New("query must not be empty")
	ErrStorageLocked = errors.New("storage directory is locked by another process")
)

const (
	Version = "1.0.0"

	DefaultDocumentsPath = "./data"
	DefaultTopK          = 5
	LockFile             = ".vectorblade.lock"
)

type Config struct {
	Storage   StorageConfig    `yaml:"storage"`
	Registry  registry.Config  `yaml:"registry"`
	Embedding embedding.Config `yaml:"embedding"`
	LLM       llm.Config       `yaml:"llm"`
	Documents reader.Options   `yaml:"documents"`
	Vector    vector.Config    `yaml:"vector"`
	Query     QueryConfig      `yaml:"query"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

type QueryConfig struct {
	DefaultTopK int      `yaml:"defaultTopK"`
	Timeout     Duration `yaml:"timeout"`
}

type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	str := d.Duration().String()
	return json.Marshal(str)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	duration, err := time.ParseDuration(str)
	if err != nil {
		return err
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration().String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}

	duration, err := time.ParseDuration(str)
	if err != nil {
		return err
	}

	*d = Duration(duration)
	return nil
}

type BuildResult struct {
	IndexName string `json:"index_name"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

type QueryResult struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

type IndexStatus = registry.Status

type File = reader.File
