package chromem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/flarexio/vectorblade/embedding"
	"github.com/flarexio/vectorblade/vector"
)

const (
	EngineName        = "chromem"
	DefaultCollection = "default"
	layoutVersion     = 1
)

// NewEngine returns a vector.Engine keeping each index in its own in-memory
// chromem database.
func NewEngine(cfg vector.Config, embed embedding.Func, model string) vector.Engine {
	return &engine{
		cfg:   cfg.WithDefaults(),
		embed: chromem.EmbeddingFunc(embed),
		model: model,
		log: zap.L().With(
			zap.String("engine", EngineName),
		),
	}
}

type engine struct {
	cfg   vector.Config
	embed chromem.EmbeddingFunc
	model string
	log   *zap.Logger
}

func (e *engine) Build(ctx context.Context, docs []vector.Document) (vector.Index, error) {
	if len(docs) == 0 {
		return nil, vector.ErrEmptyInput
	}

	store := vector.DocStore{
		Nodes:     make(map[string]vector.Node),
		Documents: make(map[string]vector.DocRef),
	}

	nodes := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		ref := vector.DocRef{
			Metadata: doc.Metadata,
		}

		chunks := vector.SplitText(doc.Content, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
		for i, chunk := range chunks {
			id := fmt.Sprintf("%s_%d", doc.ID, i)

			metadata := make(map[string]string, len(doc.Metadata)+1)
			maps.Copy(metadata, doc.Metadata)
			metadata["ref_doc_id"] = doc.ID

			nodes = append(nodes, chromem.Document{
				ID:       id,
				Metadata: metadata,
				Content:  chunk,
			})

			store.Nodes[id] = vector.Node{
				RefDocID: doc.ID,
				Content:  chunk,
				Metadata: metadata,
			}

			ref.NodeIDs = append(ref.NodeIDs, id)
		}

		if len(ref.NodeIDs) > 0 {
			store.Documents[doc.ID] = ref
		}
	}

	if len(nodes) == 0 {
		return nil, vector.ErrEmptyInput
	}

	db := chromem.NewDB()

	metadata := map[string]string{
		"embedding_model": e.model,
	}

	collection, err := db.CreateCollection(DefaultCollection, metadata, e.embed)
	if err != nil {
		return nil, err
	}

	if err := collection.AddDocuments(ctx, nodes, e.cfg.Concurrency); err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}

	info := vector.IndexInfo{
		IndexID:        uuid.NewString(),
		Engine:         EngineName,
		Collection:     DefaultCollection,
		EmbeddingModel: e.model,
		DocumentCount:  len(store.Documents),
		NodeCount:      collection.Count(),
		ChunkSize:      e.cfg.ChunkSize,
		ChunkOverlap:   e.cfg.ChunkOverlap,
		CreatedAt:      time.Now().UTC(),
		Version:        layoutVersion,
	}

	e.log.Debug("index built",
		zap.String("index_id", info.IndexID),
		zap.Int("documents", info.DocumentCount),
		zap.Int("nodes", info.NodeCount),
	)

	return &index{
		db:         db,
		collection: collection,
		store:      store,
		info:       info,
		compress:   e.cfg.Compress,
	}, nil
}

func (e *engine) Load(ctx context.Context, dir string) (vector.Index, error) {
	if !vector.IsValidIndexDir(dir) {
		return nil, fmt.Errorf("%w: incomplete index directory %s", vector.ErrLoad, dir)
	}

	info, err := vector.ReadIndexStore(dir)
	if err != nil {
		return nil, err
	}

	if info.Engine != "" && info.Engine != EngineName {
		return nil, fmt.Errorf("%w: unsupported engine %q", vector.ErrLoad, info.Engine)
	}

	if info.Collection == "" {
		info.Collection = DefaultCollection
	}

	if info.EmbeddingModel != "" && info.EmbeddingModel != e.model {
		e.log.Warn("embedding model mismatch",
			zap.String("dir", dir),
			zap.String("index_model", info.EmbeddingModel),
			zap.String("engine_model", e.model),
		)
	}

	store, err := vector.ReadDocStore(dir)
	if err != nil {
		return nil, err
	}

	path, err := vector.FindVectorStore(dir)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(path, "", info.Collection); err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrLoad, err)
	}

	collection := db.GetCollection(info.Collection, e.embed)
	if collection == nil {
		return nil, fmt.Errorf("%w: collection %q not found", vector.ErrLoad, info.Collection)
	}

	if count := collection.Count(); count != len(store.Nodes) {
		return nil, fmt.Errorf("%w: vector store has %d nodes, docstore has %d",
			vector.ErrLoad, count, len(store.Nodes))
	}

	return &index{
		db:         db,
		collection: collection,
		store:      store,
		info:       info,
		compress:   e.cfg.Compress,
	}, nil
}

type index struct {
	db         *chromem.DB
	collection *chromem.Collection
	store      vector.DocStore
	info       vector.IndexInfo
	compress   bool
}

func (idx *index) Info() vector.IndexInfo {
	return idx.info
}

// Persist writes the vector store and docstore first and the index store
// last, so a directory only validates once it is complete.
func (idx *index) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", vector.ErrIO, err)
	}

	// Drop the descriptor of a previous build before replacing its data.
	err := os.Remove(filepath.Join(dir, vector.IndexStoreFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", vector.ErrIO, err)
	}

	path := filepath.Join(dir, vector.DefaultVectorStoreFile)
	err = vector.WriteFile(path, func(w io.Writer) error {
		return idx.db.ExportToWriter(w, idx.compress, "", idx.info.Collection)
	})
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := vector.WriteJSON(filepath.Join(dir, vector.DocStoreFile), idx.store); err != nil {
		return err
	}

	return vector.WriteJSON(filepath.Join(dir, vector.IndexStoreFile), idx.info)
}

func (idx *index) Retrieve(ctx context.Context, query string, topK int) ([]vector.Result, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", vector.ErrQuery)
	}

	count := idx.collection.Count()
	if count == 0 {
		return []vector.Result{}, nil
	}

	if topK <= 0 || topK > count {
		topK = count
	}

	results, err := idx.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrQuery, err)
	}

	out := make([]vector.Result, len(results))
	for i, result := range results {
		out[i] = vector.Result{
			ID:       result.ID,
			Content:  result.Content,
			Metadata: result.Metadata,
			Score:    result.Similarity,
		}
	}

	return out, nil
}
