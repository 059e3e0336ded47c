package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/flarexio/vectorblade/vector"
)

var (
	ErrInvalidName           = errors.New("invalid index name")
	ErrNotFound              = errors.New("index not found")
	ErrConcurrentLoadFailure = errors.New("concurrent load failed")
	ErrStaleLoad             = errors.New("index changed during load")
)

type State int

const (
	StateRegistered State = iota + 1
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateLoaded:
		return "loaded"
	default:
		return "unregistered"
	}
}

type Config struct {
	Root          string        `yaml:"-"`
	MaxLoaded     int           `yaml:"maxLoaded"`
	LoadTimeout   time.Duration `yaml:"loadTimeout"`
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watchDebounce"`
}

// Loader materializes a persisted index directory. vector.Engine satisfies it.
type Loader interface {
	Load(ctx context.Context, dir string) (vector.Index, error)
}

type Status struct {
	Name         string     `json:"index_name"`
	Loaded       bool       `json:"loaded"`
	LastAccessed *time.Time `json:"last_accessed"`
	StoragePath  string     `json:"storage_path"`
}

type record struct {
	state        State
	lastAccessed time.Time
	index        vector.Index
	generation   uint64
}

// Registry tracks named indexes under a storage root and loads persisted
// ones on first use. At most one load per name runs at a time.
type Registry struct {
	cfg    Config
	loader Loader
	log    *zap.Logger
	now    func() time.Time

	mu         sync.Mutex
	records    map[string]*record
	generation uint64
	lru        *simplelru.LRU[string, uint64]

	flights singleflight.Group
	locks   keyedMutex
}

func New(cfg Config, loader Loader) (*Registry, error) {
	log := zap.L().With(
		zap.String("component", "registry"),
		zap.String("root", cfg.Root),
	)

	r := &Registry{
		cfg:     cfg,
		loader:  loader,
		log:     log,
		now:     time.Now,
		records: make(map[string]*record),
	}

	if cfg.MaxLoaded > 0 {
		lru, err := simplelru.NewLRU[string, uint64](cfg.MaxLoaded, r.demote)
		if err != nil {
			return nil, err
		}

		r.lru = lru
	}

	return r, nil
}

// StorageDir returns the directory an index named name persists to.
func (r *Registry) StorageDir(name string) string {
	return filepath.Join(r.cfg.Root, name)
}

// Discover registers every valid, not yet known index directory under the
// storage root and returns how many were added. Known records are never
// touched. A missing or unreadable root yields zero.
func (r *Registry) Discover() int {
	log := r.log.With(
		zap.String("action", "discover"),
	)

	entries, err := os.ReadDir(r.cfg.Root)
	if err != nil {
		log.Warn(err.Error())
		return 0
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()
		if err := ValidateName(name); err != nil {
			log.Debug("skipped directory", zap.String("name", name), zap.Error(err))
			continue
		}

		if !vector.IsValidIndexDir(r.StorageDir(name)) {
			continue
		}

		r.mu.Lock()
		if _, ok := r.records[name]; !ok {
			r.records[name] = &record{
				state:      StateRegistered,
				generation: r.nextGeneration(),
			}

			count++
		}
		r.mu.Unlock()
	}

	if count > 0 {
		log.Info("indexes discovered", zap.Int("count", count))
	}

	return count
}

// RegisterBuilt records a freshly built index as loaded, replacing any
// previous record of the same name.
func (r *Registry) RegisterBuilt(name string, index vector.Index) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if index == nil {
		return errors.New("index must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &record{
		state:        StateLoaded,
		lastAccessed: r.now(),
		index:        index,
		generation:   r.nextGeneration(),
	}

	r.records[name] = rec
	r.track(name, rec)

	return nil
}

// BuildFunc builds an index and persists it to dir.
type BuildFunc func(ctx context.Context, dir string) (vector.Index, error)

// Build runs fn for name while holding the name's lock, so it never overlaps
// a load or another build of the same name, then registers the result.
// Nothing is registered when fn fails.
func (r *Registry) Build(ctx context.Context, name string, fn BuildFunc) (vector.Index, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	unlock, err := r.locks.Lock(ctx, name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	index, err := fn(ctx, r.StorageDir(name))
	if err != nil {
		return nil, err
	}

	if err := r.RegisterBuilt(name, index); err != nil {
		return nil, err
	}

	return index, nil
}

// GetOrLoad returns the loaded index for name, loading it first when it is
// only registered. Concurrent callers share a single load; each caller stops
// waiting when its own ctx is done, without cancelling the load itself.
func (r *Registry) GetOrLoad(ctx context.Context, name string) (vector.Index, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	rec, ok := r.records[name]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if rec.state == StateLoaded {
		index := r.touch(name, rec)
		r.mu.Unlock()
		return index, nil
	}

	generation := rec.generation
	r.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)

	key := name + "\x00" + strconv.FormatUint(generation, 10)
	ch := r.flights.DoChan(key, func() (any, error) {
		return r.load(loadCtx, name, generation)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case result := <-ch:
		if result.Err != nil {
			if result.Shared {
				return nil, fmt.Errorf("%w: %w", ErrConcurrentLoadFailure, result.Err)
			}

			return nil, result.Err
		}

		return result.Val.(vector.Index), nil
	}
}

func (r *Registry) load(ctx context.Context, name string, generation uint64) (vector.Index, error) {
	log := r.log.With(
		zap.String("action", "load"),
		zap.String("index_name", name),
	)

	if r.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.LoadTimeout)
		defer cancel()
	}

	unlock, err := r.locks.Lock(ctx, name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// A build or an earlier load may have finished while waiting for the lock.
	r.mu.Lock()
	rec, ok := r.records[name]
	switch {
	case !ok:
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)

	case rec.state == StateLoaded:
		index := r.touch(name, rec)
		r.mu.Unlock()
		return index, nil

	default:
		generation = rec.generation
	}
	r.mu.Unlock()

	start := time.Now()

	index, err := r.loader.Load(ctx, r.StorageDir(name))
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok = r.records[name]
	if !ok {
		log.Warn("index deleted during load")
		return nil, fmt.Errorf("%w: %w: %s", ErrStaleLoad, ErrNotFound, name)
	}

	if rec.generation != generation {
		if rec.state == StateLoaded {
			return r.touch(name, rec), nil
		}

		log.Warn("index replaced during load")
		return nil, fmt.Errorf("%w: %s", ErrStaleLoad, name)
	}

	rec.state = StateLoaded
	rec.index = index
	rec.lastAccessed = r.now()
	r.track(name, rec)

	log.Info("index loaded", zap.Duration("elapsed", time.Since(start)))
	return index, nil
}

// touch must be called with r.mu held.
func (r *Registry) touch(name string, rec *record) vector.Index {
	rec.lastAccessed = r.now()

	if r.lru != nil {
		r.lru.Get(name)
	}

	return rec.index
}

// track must be called with r.mu held.
func (r *Registry) track(name string, rec *record) {
	if r.lru != nil {
		r.lru.Add(name, rec.generation)
	}
}

// demote is the LRU eviction callback and runs with r.mu held. The evicted
// record drops its handle and becomes registered again; callers already
// holding the handle keep using it.
func (r *Registry) demote(name string, generation uint64) {
	rec, ok := r.records[name]
	if !ok || rec.generation != generation || rec.state != StateLoaded {
		return
	}

	rec.state = StateRegistered
	rec.index = nil
	rec.generation = r.nextGeneration()

	r.log.Info("index unloaded",
		zap.String("action", "evict"),
		zap.String("index_name", name),
	)
}

func (r *Registry) nextGeneration() uint64 {
	r.generation++
	return r.generation
}

// ListAll returns the names of all registered indexes, sorted.
func (r *Registry) ListAll() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}

// ListLoaded returns the names of loaded indexes, sorted.
func (r *Registry) ListLoaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.records))
	for name, rec := range r.records {
		if rec.state == StateLoaded {
			names = append(names, name)
		}
	}

	slices.Sort(names)
	return names
}

func (r *Registry) Status(name string) (Status, error) {
	if err := ValidateName(name); err != nil {
		return Status{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[name]
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	status := Status{
		Name:        name,
		Loaded:      rec.state == StateLoaded,
		StoragePath: r.StorageDir(name),
	}

	if !rec.lastAccessed.IsZero() {
		t := rec.lastAccessed
		status.LastAccessed = &t
	}

	return status, nil
}

// Delete forgets name. Files under the storage root are left untouched, so
// a later Discover registers the index again.
func (r *Registry) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	delete(r.records, name)

	if r.lru != nil {
		r.lru.Remove(name)
	}

	return nil
}
