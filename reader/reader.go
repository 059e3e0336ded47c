package reader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/flarexio/vectorblade/vector"
)

var (
	ErrPathNotFound        = errors.New("documents path not found")
	ErrMissingFilename     = errors.New("file must have a filename")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

var DefaultExtensions = []string{".txt", ".md"}

type Options struct {
	Extensions  []string `yaml:"extensions"`
	Recursive   bool     `yaml:"recursive"`
	Concurrency int      `yaml:"concurrency"`
}

func (opts Options) WithDefaults() Options {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = 8
	}

	return opts
}

func (opts Options) allowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(opts.Extensions, ext)
}

// LoadDir reads every eligible file under dir. Hidden entries, binary files
// and files without text are skipped. An empty result is not an error.
func LoadDir(ctx context.Context, dir string, opts Options) ([]vector.Document, error) {
	opts = opts.WithDefaults()

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, dir)
		}

		return nil, err
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrPathNotFound, dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == dir {
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() {
			if !opts.Recursive {
				return filepath.SkipDir
			}

			return nil
		}

		if d.Type().IsRegular() && opts.allowed(d.Name()) {
			paths = append(paths, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	docs := make([]*vector.Document, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			doc, err := loadFile(path)
			if err != nil {
				return err
			}

			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]vector.Document, 0, len(docs))
	for _, doc := range docs {
		if doc != nil {
			result = append(result, *doc)
		}
	}

	return result, nil
}

func loadFile(path string) (*vector.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text, ok := decode(content)
	if !ok {
		return nil, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	name := filepath.Base(path)
	return &vector.Document{
		ID:      documentID(abs, content),
		Content: text,
		Metadata: map[string]string{
			"file_name":          name,
			"file_path":          abs,
			"file_type":          mimeType(name),
			"file_size":          strconv.FormatInt(info.Size(), 10),
			"last_modified_date": info.ModTime().UTC().Format(time.DateOnly),
		},
	}, nil
}

// File is an uploaded file held in memory.
type File struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// FromFiles converts uploaded files to documents. Every file must carry a
// filename with an allowed extension; files without text and repeats of an
// earlier file with the same name and content are skipped.
func FromFiles(files []File, opts Options) ([]vector.Document, error) {
	opts = opts.WithDefaults()

	for _, f := range files {
		if f.Filename == "" {
			return nil, ErrMissingFilename
		}

		if !opts.allowed(f.Filename) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, f.Filename)
		}
	}

	now := time.Now().UTC().Format(time.DateOnly)

	seen := make(map[string]struct{}, len(files))

	docs := make([]vector.Document, 0, len(files))
	for _, f := range files {
		text, ok := decode(f.Content)
		if !ok {
			continue
		}

		name := filepath.Base(f.Filename)

		id := documentID(name, f.Content)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		docs = append(docs, vector.Document{
			ID:      id,
			Content: text,
			Metadata: map[string]string{
				"file_name":          name,
				"file_type":          mimeType(name),
				"file_size":          strconv.Itoa(len(f.Content)),
				"last_modified_date": now,
			},
		})
	}

	return docs, nil
}

func decode(content []byte) (string, bool) {
	head := content
	if len(head) > 512 {
		head = head[:512]
	}

	if bytes.IndexByte(head, 0) >= 0 {
		return "", false
	}

	if !utf8.Valid(content) {
		return "", false
	}

	text := strings.TrimPrefix(string(content), "\ufeff")
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	return text, true
}

func documentID(source string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write(content)
	return "doc_" + hex.EncodeToString(h.Sum(nil)[:12])
}

func mimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md":
		return "text/markdown"
	default:
		return "text/plain"
	}
}
