package vectorblade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/flarexio/vectorblade/llm"
	"github.com/flarexio/vectorblade/reader"
	"github.com/flarexio/vectorblade/registry"
	"github.com/flarexio/vectorblade/vector"
)

// Service defines the core logic of VectorBlade.
type Service interface {

	// Close stops background work and releases the storage directory.
	Close() error

	// BuildIndex builds an index from the documents under documentsPath,
	// persists it and registers it as loaded.
	BuildIndex(ctx context.Context, name string, documentsPath string) (*BuildResult, error)

	// UploadBuild builds an index from uploaded .txt and .md files.
	UploadBuild(ctx context.Context, name string, files []File) (*BuildResult, error)

	// IndexStatus reports whether an index is loaded and when it was last used.
	IndexStatus(ctx context.Context, name string) (*IndexStatus, error)

	// ListAvailableIndexes returns every registered index name.
	ListAvailableIndexes(ctx context.Context) ([]string, error)

	// ListLoadedIndexes returns the names of indexes held in memory.
	ListLoadedIndexes(ctx context.Context) ([]string, error)

	// Query retrieves the topK most similar chunks and synthesizes an answer,
	// loading the index first if needed.
	Query(ctx context.Context, name string, query string, topK int) (*QueryResult, error)

	// DeleteIndex unregisters an index, keeping its files.
	DeleteIndex(ctx context.Context, name string) error

	// Rescan registers index directories that appeared under the storage root.
	Rescan(ctx context.Context) (int, error)
}

type ServiceMiddleware func(Service) Service

func NewService(ctx context.Context, cfg Config, reg *registry.Registry, engine vector.Engine, synth llm.Synthesizer) (Service, error) {
	log := zap.L().With(
		zap.String("service", "vectorblade"),
	)

	root := cfg.Storage.Dir
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(root, LockFile))

	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}

	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrStorageLocked, root)
	}

	ctx, cancel := context.WithCancel(ctx)

	svc := &service{
		registry: reg,
		engine:   engine,
		synth:    synth,
		lock:     lock,

		cfg:    cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}

	if cfg.Registry.Watch {
		if err := reg.Watch(ctx); err != nil {
			svc.Close()
			return nil, err
		}

		log.Info("watching storage directory", zap.String("dir", root))
	}

	return svc, nil
}

type service struct {
	registry *registry.Registry
	engine   vector.Engine
	synth    llm.Synthesizer
	lock     *flock.Flock

	cfg    Config
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func (svc *service) Close() error {
	if svc.cancel != nil {
		svc.cancel()
		svc.cancel = nil
	}

	if svc.lock != nil {
		err := svc.lock.Unlock()
		svc.lock = nil
		return err
	}

	return nil
}

func (svc *service) BuildIndex(ctx context.Context, name string, documentsPath string) (*BuildResult, error) {
	if err := registry.ValidateName(name); err != nil {
		return nil, err
	}

	if documentsPath == "" {
		documentsPath = DefaultDocumentsPath
	}

	docs, err := reader.LoadDir(ctx, documentsPath, svc.cfg.Documents)
	if err != nil {
		return nil, err
	}

	if err := svc.build(ctx, name, docs); err != nil {
		return nil, err
	}

	return &BuildResult{
		IndexName: name,
		Status:    "success",
		Message:   fmt.Sprintf("Index built and persisted successfully from %d documents.", len(docs)),
	}, nil
}

func (svc *service) UploadBuild(ctx context.Context, name string, files []File) (*BuildResult, error) {
	if err := registry.ValidateName(name); err != nil {
		return nil, err
	}

	docs, err := reader.FromFiles(files, svc.cfg.Documents)
	if err != nil {
		return nil, err
	}

	if err := svc.build(ctx, name, docs); err != nil {
		return nil, err
	}

	return &BuildResult{
		IndexName: name,
		Status:    "success",
		Message:   fmt.Sprintf("Uploaded and indexed %d documents successfully.", len(docs)),
	}, nil
}

func (svc *service) build(ctx context.Context, name string, docs []vector.Document) error {
	if len(docs) == 0 {
		return ErrNoDocuments
	}

	svc.log.Debug("building index",
		zap.String("index_name", name),
		zap.Int("documents", len(docs)),
	)

	_, err := svc.registry.Build(ctx, name, func(ctx context.Context, dir string) (vector.Index, error) {
		index, err := svc.engine.Build(ctx, docs)
		if err != nil {
			if errors.Is(err, vector.ErrEmptyInput) {
				return nil, fmt.Errorf("%w: %w", ErrNoDocuments, err)
			}

			return nil, err
		}

		if err := index.Persist(ctx, dir); err != nil {
			return nil, err
		}

		return index, nil
	})

	return err
}

func (svc *service) IndexStatus(ctx context.Context, name string) (*IndexStatus, error) {
	status, err := svc.registry.Status(name)
	if err != nil {
		return nil, err
	}

	return &status, nil
}

func (svc *service) ListAvailableIndexes(ctx context.Context) ([]string, error) {
	return svc.registry.ListAll(), nil
}

func (svc *service) ListLoadedIndexes(ctx context.Context) ([]string, error) {
	return svc.registry.ListLoaded(), nil
}

func (svc *service) Query(ctx context.Context, name string, query string, topK int) (*QueryResult, error) {
	if err := registry.ValidateName(name); err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	if topK <= 0 {
		topK = svc.cfg.Query.DefaultTopK
	}

	if topK <= 0 {
		topK = DefaultTopK
	}

	if timeout := svc.cfg.Query.Timeout.Duration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	index, err := svc.registry.GetOrLoad(ctx, name)
	if err != nil {
		return nil, err
	}

	results, err := index.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	sources := make([]string, len(results))
	for i, result := range results {
		sources[i] = result.Content
	}

	answer, err := svc.synth.Synthesize(ctx, query, sources)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrQuery, err)
	}

	return &QueryResult{
		Response: answer,
		Sources:  sources,
	}, nil
}

func (svc *service) DeleteIndex(ctx context.Context, name string) error {
	return svc.registry.Delete(name)
}

func (svc *service) Rescan(ctx context.Context) (int, error) {
	return svc.registry.Discover(), nil
}
