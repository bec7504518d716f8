package vertex

import (
	"errors"
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-layout/common"
	"github.com/gogpu/gg/cache"
	"go.uber.org/zap"
)

// resolverQueueSize bounds the batch worker pool's task queue.
const resolverQueueSize = 256

// ErrResolverClosed is returned by ResolveAll after Close.
var ErrResolverClosed = errors.New("vertex: resolver is closed")

// resolution is the cached outcome of resolving one record. Failures are cached too since
// the inputs are static and a failure recurs until the declaration changes.
type resolution struct {
	desc VertexLayoutDescriptor
	err  error
}

// resolver is the implementation of the Resolver interface.
type resolver struct {
	logger         *zap.Logger
	cacheCapacity  int
	workers        int
	maxBufferIndex int

	cache *cache.ShardedCache[string, resolution]

	// mu is held shared by running batches and exclusively by Close. The pool is started by
	// the first batch.
	mu       sync.RWMutex
	poolOnce sync.Once
	pool     worker.DynamicWorkerPool
	closed   bool
}

// Resolver turns record declarations into vertex layout descriptors. Descriptors are
// memoized by record name, so repeated calls for the same record type are served from cache.
// A Resolver is safe for concurrent use.
type Resolver interface {
	// Resolve returns the layout descriptor for a record, computing it on first use.
	// Records with an empty name are resolved every time and never cached.
	//
	// Parameters:
	//   - record: the record declaration
	//
	// Returns:
	//   - VertexLayoutDescriptor: the immutable descriptor
	//   - error: a *ResolveError wrapping the typed resolution error
	Resolve(record RecordDecl) (VertexLayoutDescriptor, error)

	// ResolveStruct describes a Go struct (a value, a pointer to one, or a reflect.Type) with
	// RecordFromType and resolves it.
	//
	// Parameters:
	//   - v: the struct value, pointer, or reflect.Type
	//
	// Returns:
	//   - VertexLayoutDescriptor: the immutable descriptor
	//   - error: a *ResolveError wrapping the typed resolution error
	ResolveStruct(v any) (VertexLayoutDescriptor, error)

	// ResolveAll resolves several records in parallel on the resolver's worker pool. Results are
	// returned in input order. If any record fails, the error of the first failing record in
	// input order is returned and no descriptors are returned.
	//
	// Parameters:
	//   - records: the record declarations
	//
	// Returns:
	//   - []VertexLayoutDescriptor: one descriptor per record, in input order
	//   - error: the first failure in input order
	ResolveAll(records []RecordDecl) ([]VertexLayoutDescriptor, error)

	// CacheStats reports hit/miss counters of the descriptor cache.
	CacheStats() cache.Stats

	// Purge drops every cached descriptor.
	Purge()

	// Close stops the worker pool used by ResolveAll. Resolve and ResolveStruct keep working
	// afterwards, ResolveAll returns ErrResolverClosed. Close is idempotent.
	//
	// Returns:
	//   - error: always nil
	Close() error
}

var _ Resolver = &resolver{}

// NewResolver creates a Resolver with all specified options applied.
//
// Parameters:
//   - opts: a variadic list of ResolverOption functions
//
// Returns:
//   - Resolver: a ready-to-use resolver
func NewResolver(opts ...ResolverOption) Resolver {
	r := &resolver{
		maxBufferIndex: -1,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.workers = common.Coalesce(r.workers, runtime.GOMAXPROCS(0))
	r.cacheCapacity = common.Coalesce(r.cacheCapacity, cache.DefaultCapacity)
	r.cache = cache.NewSharded[string, resolution](r.cacheCapacity, cache.StringHasher)
	return r
}

func (r *resolver) log() *zap.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}

func (r *resolver) Resolve(record RecordDecl) (VertexLayoutDescriptor, error) {
	if record.Name == "" {
		res := r.compute(record)
		return res.desc, res.err
	}
	res := r.cache.GetOrCreate(record.Name, func() resolution {
		return r.compute(record)
	})
	return res.desc, res.err
}

func (r *resolver) compute(record RecordDecl) resolution {
	desc, err := resolveLayout(record, r.maxBufferIndex)
	if err != nil {
		r.log().Warn("vertex layout resolution failed",
			zap.String("record", record.Name),
			zap.Error(err))
		return resolution{err: err}
	}
	r.log().Debug("vertex layout resolved",
		zap.String("record", record.Name),
		zap.Int("attributes", len(desc.attributes)),
		zap.Int("layouts", len(desc.layouts)),
		zap.Stringer("layout", desc))
	return resolution{desc: desc}
}

func (r *resolver) ResolveStruct(v any) (VertexLayoutDescriptor, error) {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	record, err := RecordFromType(t)
	if err != nil {
		name := ""
		if t != nil {
			name = t.String()
		}
		return VertexLayoutDescriptor{}, &ResolveError{Record: name, Err: err}
	}
	return r.Resolve(record)
}

func (r *resolver) ResolveAll(records []RecordDecl) ([]VertexLayoutDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrResolverClosed
	}
	if len(records) == 0 {
		return []VertexLayoutDescriptor{}, nil
	}
	r.poolOnce.Do(func() {
		r.pool = worker.NewDynamicWorkerPool(r.workers, resolverQueueSize, 1*time.Second)
	})

	results := make([]resolution, len(records))

	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		idx := i
		r.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				desc, err := r.Resolve(records[idx])
				results[idx] = resolution{desc: desc, err: err}
				return nil, err
			},
		})
	}
	wg.Wait()

	out := make([]VertexLayoutDescriptor, len(records))
	for i, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		out[i] = res.desc
	}
	return out, nil
}

func (r *resolver) CacheStats() cache.Stats {
	return r.cache.Stats()
}

func (r *resolver) Purge() {
	r.cache.Clear()
}

func (r *resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.pool != nil {
		r.pool.Stop()
	}
	return nil
}
