package vectorblade

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/flarexio/vectorblade/vector"
)

func InstrumentingMiddleware(requestCount metrics.Counter, requestLatency metrics.Histogram) ServiceMiddleware {
	return func(next Service) Service {
		return &instrumentingMiddleware{
			requestCount:   requestCount,
			requestLatency: requestLatency,
			next:           next,
		}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw *instrumentingMiddleware) observe(method string, begin time.Time, err error) {
	lvs := []string{"method", method, "error", strconv.FormatBool(err != nil)}
	mw.requestCount.With(lvs...).Add(1)
	mw.requestLatency.With(lvs...).Observe(time.Since(begin).Seconds())
}

func (mw *instrumentingMiddleware) Close() error {
	return mw.next.Close()
}

func (mw *instrumentingMiddleware) BuildIndex(ctx context.Context, name string, documentsPath string) (result *BuildResult, err error) {
	defer func(begin time.Time) {
		mw.observe("build_index", begin, err)
	}(time.Now())

	return mw.next.BuildIndex(ctx, name, documentsPath)
}

func (mw *instrumentingMiddleware) UploadBuild(ctx context.Context, name string, files []File) (result *BuildResult, err error) {
	defer func(begin time.Time) {
		mw.observe("upload_build", begin, err)
	}(time.Now())

	return mw.next.UploadBuild(ctx, name, files)
}

func (mw *instrumentingMiddleware) IndexStatus(ctx context.Context, name string) (status *IndexStatus, err error) {
	defer func(begin time.Time) {
		mw.observe("index_status", begin, err)
	}(time.Now())

	return mw.next.IndexStatus(ctx, name)
}

func (mw *instrumentingMiddleware) ListAvailableIndexes(ctx context.Context) (names []string, err error) {
	defer func(begin time.Time) {
		mw.observe("list_available_indexes", begin, err)
	}(time.Now())

	return mw.next.ListAvailableIndexes(ctx)
}

func (mw *instrumentingMiddleware) ListLoadedIndexes(ctx context.Context) (names []string, err error) {
	defer func(begin time.Time) {
		mw.observe("list_loaded_indexes", begin, err)
	}(time.Now())

	return mw.next.ListLoadedIndexes(ctx)
}

func (mw *instrumentingMiddleware) Query(ctx context.Context, name string, query string, topK int) (result *QueryResult, err error) {
	defer func(begin time.Time) {
		mw.observe("query", begin, err)
	}(time.Now())

	return mw.next.Query(ctx, name, query, topK)
}

func (mw *instrumentingMiddleware) DeleteIndex(ctx context.Context, name string) (err error) {
	defer func(begin time.Time) {
		mw.observe("delete_index", begin, err)
	}(time.Now())

	return mw.next.DeleteIndex(ctx, name)
}

func (mw *instrumentingMiddleware) Rescan(ctx context.Context) (count int, err error) {
	defer func(begin time.Time) {
		mw.observe("rescan", begin, err)
	}(time.Now())

	return mw.next.Rescan(ctx)
}

// InstrumentingEngine counts and times engine builds and loads, the two
// expensive steps of the index lifecycle.
func InstrumentingEngine(engine vector.Engine, calls metrics.Counter, duration metrics.Histogram) vector.Engine {
	return &instrumentingEngine{
		calls:    calls,
		duration: duration,
		next:     engine,
	}
}

type instrumentingEngine struct {
	calls    metrics.Counter
	duration metrics.Histogram
	next     vector.Engine
}

func (e *instrumentingEngine) observe(op string, begin time.Time, err error) {
	lvs := []string{"op", op, "error", strconv.FormatBool(err != nil)}
	e.calls.With(lvs...).Add(1)
	e.duration.With(lvs...).Observe(time.Since(begin).Seconds())
}

func (e *instrumentingEngine) Build(ctx context.Context, docs []vector.Document) (index vector.Index, err error) {
	defer func(begin time.Time) {
		e.observe("build", begin, err)
	}(time.Now())

	return e.next.Build(ctx, docs)
}

func (e *instrumentingEngine) Load(ctx context.Context, dir string) (index vector.Index, err error) {
	defer func(begin time.Time) {
		e.observe("load", begin, err)
	}(time.Now())

	return e.next.Load(ctx, dir)
}
