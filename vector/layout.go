package vector

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// On-disk layout of a persisted index directory.
const (
	DocStoreFile           = "docstore.json"
	IndexStoreFile         = "index_store.json"
	VectorStoreSuffix      = "vector_store.gob"
	DefaultVectorStoreFile = "default__" + VectorStoreSuffix
)

// IsValidIndexDir reports whether path looks like a complete persisted index:
// a directory holding the docstore and index-store descriptors plus at least
// one vector store file. Any I/O error yields false.
func IsValidIndexDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}

	var hasDocStore, hasIndexStore, hasVectorStore bool
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		name := entry.Name()
		switch {
		case name == DocStoreFile:
			hasDocStore = true
		case name == IndexStoreFile:
			hasIndexStore = true
		case strings.HasSuffix(name, VectorStoreSuffix):
			hasVectorStore = true
		}
	}

	return hasDocStore && hasIndexStore && hasVectorStore
}

// FindVectorStore returns the vector store file inside dir, preferring the
// default name.
func FindVectorStore(dir string) (string, error) {
	path := filepath.Join(dir, DefaultVectorStoreFile)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoad, err)
	}

	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), VectorStoreSuffix) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("%w: vector store not found in %s", ErrLoad, dir)
}

// DocStore keeps the chunked nodes and the source documents they came from.
type DocStore struct {
	Nodes     map[string]Node   `json:"nodes"`
	Documents map[string]DocRef `json:"documents"`
}

type Node struct {
	RefDocID string            `json:"ref_doc_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type DocRef struct {
	NodeIDs  []string          `json:"node_ids"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func ReadDocStore(dir string) (DocStore, error) {
	var store DocStore
	if err := readJSON(filepath.Join(dir, DocStoreFile), &store); err != nil {
		return DocStore{}, err
	}

	return store, nil
}

func ReadIndexStore(dir string) (IndexInfo, error) {
	var info IndexInfo
	if err := readJSON(filepath.Join(dir, IndexStoreFile), &info); err != nil {
		return IndexInfo{}, err
	}

	return info, nil
}

func readJSON(path string, v any) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if err := json.Unmarshal(bs, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoad, filepath.Base(path), err)
	}

	return nil
}

// WriteJSON atomically replaces path with the JSON encoding of v.
func WriteJSON(path string, v any) error {
	return WriteFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// WriteFile writes through a temp file in the same directory and renames it
// into place, so readers never observe a partial file.
func WriteFile(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	return nil
}
