package vectorblade

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/flarexio/vectorblade"

func TracingMiddleware() ServiceMiddleware {
	return func(next Service) Service {
		return &tracingMiddleware{
			tracer: otel.Tracer(tracerName),
			next:   next,
		}
	}
}

type tracingMiddleware struct {
	tracer trace.Tracer
	next   Service
}

func (mw *tracingMiddleware) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return mw.tracer.Start(ctx, "vectorblade."+name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

func (mw *tracingMiddleware) Close() error {
	return mw.next.Close()
}

func (mw *tracingMiddleware) BuildIndex(ctx context.Context, name string, documentsPath string) (result *BuildResult, err error) {
	ctx, span := mw.start(ctx, "BuildIndex",
		attribute.String("index.name", name),
		attribute.String("documents.path", documentsPath),
	)
	defer func() { finish(span, err) }()

	return mw.next.BuildIndex(ctx, name, documentsPath)
}

func (mw *tracingMiddleware) UploadBuild(ctx context.Context, name string, files []File) (result *BuildResult, err error) {
	ctx, span := mw.start(ctx, "UploadBuild",
		attribute.String("index.name", name),
		attribute.Int("files", len(files)),
	)
	defer func() { finish(span, err) }()

	return mw.next.UploadBuild(ctx, name, files)
}

func (mw *tracingMiddleware) IndexStatus(ctx context.Context, name string) (status *IndexStatus, err error) {
	ctx, span := mw.start(ctx, "IndexStatus",
		attribute.String("index.name", name),
	)
	defer func() { finish(span, err) }()

	return mw.next.IndexStatus(ctx, name)
}

func (mw *tracingMiddleware) ListAvailableIndexes(ctx context.Context) (names []string, err error) {
	ctx, span := mw.start(ctx, "ListAvailableIndexes")
	defer func() { finish(span, err) }()

	return mw.next.ListAvailableIndexes(ctx)
}

func (mw *tracingMiddleware) ListLoadedIndexes(ctx context.Context) (names []string, err error) {
	ctx, span := mw.start(ctx, "ListLoadedIndexes")
	defer func() { finish(span, err) }()

	return mw.next.ListLoadedIndexes(ctx)
}

func (mw *tracingMiddleware) Query(ctx context.Context, name string, query string, topK int) (result *QueryResult, err error) {
	ctx, span := mw.start(ctx, "Query",
		attribute.String("index.name", name),
		attribute.Int("top_k", topK),
	)
	defer func() { finish(span, err) }()

	result, err = mw.next.Query(ctx, name, query, topK)
	if err == nil {
		span.SetAttributes(attribute.Int("sources", len(result.Sources)))
	}

	return result, err
}

func (mw *tracingMiddleware) DeleteIndex(ctx context.Context, name string) (err error) {
	ctx, span := mw.start(ctx, "DeleteIndex",
		attribute.String("index.name", name),
	)
	defer func() { finish(span, err) }()

	return mw.next.DeleteIndex(ctx, name)
}

func (mw *tracingMiddleware) Rescan(ctx context.Context) (count int, err error) {
	ctx, span := mw.start(ctx, "Rescan")
	defer func() { finish(span, err) }()

	return mw.next.Rescan(ctx)
}
