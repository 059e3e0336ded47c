package vectorblade

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/go-kit/kit/metrics"
	"github.com/stretchr/testify/assert"

	"github.com/flarexio/vectorblade/vector"
)

type recorder struct {
	mu     sync.Mutex
	values map[string]float64
}

func newRecorder() *recorder {
	return &recorder{values: make(map[string]float64)}
}

func (r *recorder) add(labels []string, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[strings.Join(labels, ",")] += v
}

func (r *recorder) get(labels ...string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.values[strings.Join(labels, ",")]
}

type fakeCounter struct {
	rec    *recorder
	labels []string
}

func (c *fakeCounter) With(labelValues ...string) metrics.Counter {
	return &fakeCounter{rec: c.rec, labels: append(append([]string{}, c.labels...), labelValues...)}
}

func (c *fakeCounter) Add(delta float64) {
	c.rec.add(c.labels, delta)
}

type fakeHistogram struct {
	rec    *recorder
	labels []string
}

func (h *fakeHistogram) With(labelValues ...string) metrics.Histogram {
	return &fakeHistogram{rec: h.rec, labels: append(append([]string{}, h.labels...), labelValues...)}
}

func (h *fakeHistogram) Observe(value float64) {
	h.rec.add(h.labels, 1)
}

type stubService struct {
	Service
}

func (s *stubService) ListAvailableIndexes(ctx context.Context) ([]string, error) {
	return []string{"docs1"}, nil
}

func (s *stubService) Query(ctx context.Context, name string, query string, topK int) (*QueryResult, error) {
	return nil, ErrEmptyQuery
}

func TestInstrumentingMiddleware(t *testing.T) {
	assert := assert.New(t)

	counts := newRecorder()
	latencies := newRecorder()

	svc := InstrumentingMiddleware(
		&fakeCounter{rec: counts},
		&fakeHistogram{rec: latencies},
	)(&stubService{})

	ctx := context.Background()

	svc.ListAvailableIndexes(ctx)
	svc.ListAvailableIndexes(ctx)

	_, err := svc.Query(ctx, "docs1", "", 0)
	assert.ErrorIs(err, ErrEmptyQuery)

	assert.Equal(2.0, counts.get("method", "list_available_indexes", "error", "false"))
	assert.Equal(1.0, counts.get("method", "query", "error", "true"))
	assert.Equal(1.0, latencies.get("method", "query", "error", "true"))
}

type stubEngine struct{}

func (stubEngine) Build(ctx context.Context, docs []vector.Document) (vector.Index, error) {
	return nil, vector.ErrEmptyInput
}

func (stubEngine) Load(ctx context.Context, dir string) (vector.Index, error) {
	return nil, errors.New("corrupt")
}

func TestInstrumentingEngine(t *testing.T) {
	assert := assert.New(t)

	calls := newRecorder()
	engine := InstrumentingEngine(stubEngine{}, &fakeCounter{rec: calls}, &fakeHistogram{rec: newRecorder()})

	_, err := engine.Build(context.Background(), nil)
	assert.ErrorIs(err, vector.ErrEmptyInput)

	engine.Load(context.Background(), "/nowhere")
	engine.Load(context.Background(), "/nowhere")

	assert.Equal(1.0, calls.get("op", "build", "error", "true"))
	assert.Equal(2.0, calls.get("op", "load", "error", "true"))
}
