package vectorblade

import (
	"context"

	"go.uber.org/zap"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "vectorblade"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) BuildIndex(ctx context.Context, name string, documentsPath string) (*BuildResult, error) {
	log := mw.log.With(
		zap.String("action", "build_index"),
		zap.String("index_name", name),
		zap.String("documents_path", documentsPath),
	)

	result, err := mw.next.BuildIndex(ctx, name, documentsPath)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("index built")
	return result, nil
}

func (mw *loggingMiddleware) UploadBuild(ctx context.Context, name string, files []File) (*BuildResult, error) {
	log := mw.log.With(
		zap.String("action", "upload_build"),
		zap.String("index_name", name),
		zap.Int("files", len(files)),
	)

	result, err := mw.next.UploadBuild(ctx, name, files)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("index built from upload")
	return result, nil
}

func (mw *loggingMiddleware) IndexStatus(ctx context.Context, name string) (*IndexStatus, error) {
	log := mw.log.With(
		zap.String("action", "index_status"),
		zap.String("index_name", name),
	)

	status, err := mw.next.IndexStatus(ctx, name)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("index status", zap.Bool("loaded", status.Loaded))
	return status, nil
}

func (mw *loggingMiddleware) ListAvailableIndexes(ctx context.Context) ([]string, error) {
	log := mw.log.With(
		zap.String("action", "list_available_indexes"),
	)

	names, err := mw.next.ListAvailableIndexes(ctx)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("indexes listed", zap.Int("count", len(names)))
	return names, nil
}

func (mw *loggingMiddleware) ListLoadedIndexes(ctx context.Context) ([]string, error) {
	log := mw.log.With(
		zap.String("action", "list_loaded_indexes"),
	)

	names, err := mw.next.ListLoadedIndexes(ctx)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("loaded indexes listed", zap.Int("count", len(names)))
	return names, nil
}

func (mw *loggingMiddleware) Query(ctx context.Context, name string, query string, topK int) (*QueryResult, error) {
	log := mw.log.With(
		zap.String("action", "query"),
		zap.String("index_name", name),
		zap.String("query", query),
	)

	if topK > 0 {
		log = log.With(
			zap.Int("top_k", topK),
		)
	}

	result, err := mw.next.Query(ctx, name, query, topK)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("index queried", zap.Int("sources", len(result.Sources)))
	return result, nil
}

func (mw *loggingMiddleware) DeleteIndex(ctx context.Context, name string) error {
	log := mw.log.With(
		zap.String("action", "delete_index"),
		zap.String("index_name", name),
	)

	err := mw.next.DeleteIndex(ctx, name)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("index deleted")
	return nil
}

func (mw *loggingMiddleware) Rescan(ctx context.Context) (int, error) {
	log := mw.log.With(
		zap.String("action", "rescan"),
	)

	count, err := mw.next.Rescan(ctx)
	if err != nil {
		log.Error(err.Error())
		return 0, err
	}

	log.Info("storage rescanned", zap.Int("registered", count))
	return count, nil
}
