package vectorblade

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/flarexio/vectorblade/embedding"
	"github.com/flarexio/vectorblade/llm"
	"github.com/flarexio/vectorblade/persistence/chromem"
	"github.com/flarexio/vectorblade/reader"
	"github.com/flarexio/vectorblade/registry"
	"github.com/flarexio/vectorblade/vector"
)

type vectorBladeTestSuite struct {
	suite.Suite
	ctx     context.Context
	cfg     Config
	engine  vector.Engine
	docsDir string
	svc     Service
}

func (suite *vectorBladeTestSuite) SetupTest() {
	suite.ctx = context.Background()

	suite.cfg = Config{
		Storage: StorageConfig{
			Dir: suite.T().TempDir(),
		},
		Vector: vector.Config{
			Concurrency: 2,
			ChunkSize:   256,
		},
		Query: QueryConfig{
			DefaultTopK: 2,
		},
	}

	suite.engine = chromem.NewEngine(suite.cfg.Vector, embedding.NewStatic().Embed, embedding.StaticModelName)

	suite.docsDir = suite.T().TempDir()
	files := map[string]string{
		"go.txt":    "Go is a statically typed language. Goroutines and channels make concurrency simple.",
		"bread.md":  "# Bread\n\nBread is baked from flour, water, salt and yeast.",
		"tea.txt":   "Green tea is brewed at a lower temperature than black tea.",
		"image.png": "not a document",
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(suite.docsDir, name), []byte(content), 0o644); err != nil {
			suite.Fail(err.Error())
			return
		}
	}

	suite.svc = suite.newService()
}

func (suite *vectorBladeTestSuite) TearDownTest() {
	if suite.svc != nil {
		suite.svc.Close()
	}
}

func (suite *vectorBladeTestSuite) newService() Service {
	cfg := suite.cfg
	cfg.Registry.Root = cfg.Storage.Dir

	reg, err := registry.New(cfg.Registry, suite.engine)
	if err != nil {
		suite.Fail(err.Error())
		return nil
	}

	reg.Discover()

	svc, err := NewService(suite.ctx, cfg, reg, suite.engine, llm.NewExtractive())
	if err != nil {
		suite.Fail(err.Error())
		return nil
	}

	return svc
}

func (suite *vectorBladeTestSuite) TestBuildIndex() {
	result, err := suite.svc.BuildIndex(suite.ctx, "docs1", suite.docsDir)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("docs1", result.IndexName)
	suite.Equal("success", result.Status)
	suite.Equal("Index built and persisted successfully from 3 documents.", result.Message)

	loaded, err := suite.svc.ListLoadedIndexes(suite.ctx)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal([]string{"docs1"}, loaded)

	status, err := suite.svc.IndexStatus(suite.ctx, "docs1")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.True(status.Loaded)
	suite.NotNil(status.LastAccessed)
	suite.Equal(filepath.Join(suite.cfg.Storage.Dir, "docs1"), status.StoragePath)
	suite.True(vector.IsValidIndexDir(status.StoragePath))
}

func (suite *vectorBladeTestSuite) TestBuildIndexInvalid() {
	_, err := suite.svc.BuildIndex(suite.ctx, "bad/name", suite.docsDir)
	suite.ErrorIs(err, registry.ErrInvalidName)

	_, err = suite.svc.BuildIndex(suite.ctx, "docs1", filepath.Join(suite.docsDir, "missing"))
	suite.ErrorIs(err, reader.ErrPathNotFound)

	_, err = suite.svc.BuildIndex(suite.ctx, "docs1", suite.T().TempDir())
	suite.ErrorIs(err, ErrNoDocuments)

	names, _ := suite.svc.ListAvailableIndexes(suite.ctx)
	suite.Empty(names)
}

func (suite *vectorBladeTestSuite) TestUploadBuild() {
	files := []File{
		{Filename: "notes.md", Content: []byte("Chromem keeps vectors in memory and exports them to gob files.")},
		{Filename: "readme.txt", Content: []byte("VectorBlade serves named document indexes.")},
	}

	result, err := suite.svc.UploadBuild(suite.ctx, "uploads", files)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("Uploaded and indexed 2 documents successfully.", result.Message)

	files = append(files, File{Filename: "readme.txt", Content: []byte("VectorBlade serves named document indexes.")})

	result, err = suite.svc.UploadBuild(suite.ctx, "uploads", files)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("Uploaded and indexed 2 documents successfully.", result.Message, "repeated files count once")

	_, err = suite.svc.UploadBuild(suite.ctx, "uploads", []File{{Filename: "photo.jpg", Content: []byte("x")}})
	suite.ErrorIs(err, reader.ErrUnsupportedFileType)

	_, err = suite.svc.UploadBuild(suite.ctx, "uploads", []File{{Content: []byte("x")}})
	suite.ErrorIs(err, reader.ErrMissingFilename)

	_, err = suite.svc.UploadBuild(suite.ctx, "empty", []File{{Filename: "blank.txt", Content: []byte("  \n")}})
	suite.ErrorIs(err, ErrNoDocuments)
}

func (suite *vectorBladeTestSuite) TestQuery() {
	if _, err := suite.svc.BuildIndex(suite.ctx, "docs1", suite.docsDir); err != nil {
		suite.Fail(err.Error())
		return
	}

	result, err := suite.svc.Query(suite.ctx, "docs1", "goroutines and channels", 0)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(result.Sources, 2)
	suite.Contains(result.Sources[0], "Goroutines")
	suite.NotEmpty(result.Response)

	result, err = suite.svc.Query(suite.ctx, "docs1", "tea", 10)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(result.Sources, 3)
}

func (suite *vectorBladeTestSuite) TestQueryInvalid() {
	_, err := suite.svc.Query(suite.ctx, "docs1", "anything", 3)
	suite.ErrorIs(err, registry.ErrNotFound)

	_, err = suite.svc.Query(suite.ctx, "docs1", "   ", 3)
	suite.ErrorIs(err, ErrEmptyQuery)

	_, err = suite.svc.Query(suite.ctx, "a:b", "anything", 3)
	suite.ErrorIs(err, registry.ErrInvalidName)
}

func (suite *vectorBladeTestSuite) TestRestartLoadsLazily() {
	if _, err := suite.svc.BuildIndex(suite.ctx, "docs1", suite.docsDir); err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.svc.Close()
	suite.svc = suite.newService()

	names, _ := suite.svc.ListAvailableIndexes(suite.ctx)
	suite.Equal([]string{"docs1"}, names)

	status, err := suite.svc.IndexStatus(suite.ctx, "docs1")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.False(status.Loaded)
	suite.Nil(status.LastAccessed)

	result, err := suite.svc.Query(suite.ctx, "docs1", "bread flour", 2)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.LessOrEqual(len(result.Sources), 2)
	suite.Contains(result.Sources[0], "flour")

	loaded, _ := suite.svc.ListLoadedIndexes(suite.ctx)
	suite.Equal([]string{"docs1"}, loaded)
}

func (suite *vectorBladeTestSuite) TestDeleteAndRescan() {
	if _, err := suite.svc.BuildIndex(suite.ctx, "docs1", suite.docsDir); err != nil {
		suite.Fail(err.Error())
		return
	}

	err := suite.svc.DeleteIndex(suite.ctx, "docs1")
	suite.NoError(err)

	err = suite.svc.DeleteIndex(suite.ctx, "docs1")
	suite.ErrorIs(err, registry.ErrNotFound)

	_, err = suite.svc.IndexStatus(suite.ctx, "docs1")
	suite.ErrorIs(err, registry.ErrNotFound)

	n, err := suite.svc.Rescan(suite.ctx)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal(1, n)

	status, err := suite.svc.IndexStatus(suite.ctx, "docs1")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.False(status.Loaded)
}

func (suite *vectorBladeTestSuite) TestStorageLocked() {
	cfg := suite.cfg
	cfg.Registry.Root = cfg.Storage.Dir

	reg, err := registry.New(cfg.Registry, suite.engine)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	_, err = NewService(suite.ctx, cfg, reg, suite.engine, llm.NewExtractive())
	suite.ErrorIs(err, ErrStorageLocked)
}

func (suite *vectorBladeTestSuite) TestProxy() {
	endpoints := MakeEndpoints(suite.svc)
	proxy := ProxyMiddleware(endpoints)(nil)

	result, err := proxy.UploadBuild(suite.ctx, "proxied", []File{
		{Filename: "a.txt", Content: []byte("alpha beta gamma")},
	})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("proxied", result.IndexName)

	n, err := proxy.Rescan(suite.ctx)
	suite.NoError(err)
	suite.Equal(0, n)

	query, err := proxy.Query(suite.ctx, "proxied", "alpha", 1)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal([]string{"alpha beta gamma"}, query.Sources)

	err = proxy.DeleteIndex(suite.ctx, "missing")
	suite.ErrorIs(err, registry.ErrNotFound)
}

func TestVectorBladeTestSuite(t *testing.T) {
	suite.Run(t, new(vectorBladeTestSuite))
}
