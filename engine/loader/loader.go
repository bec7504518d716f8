package loader

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
	"go.uber.org/zap"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loaderQueueSize bounds the LoadAll worker pool's task queue.
const loaderQueueSize = 64

// ErrLoaderClosed is returned by LoadAll after Close.
var ErrLoaderClosed = errors.New("loader: loader is closed")

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	resolver     vertex.Resolver
	ownsResolver bool
	logger       *zap.Logger
	workers      int

	// poolMu is held shared by running batches and exclusively by Close. The pool is started
	// by the first LoadAll.
	poolMu   sync.RWMutex
	poolOnce sync.Once
	pool     worker.DynamicWorkerPool
	closed   bool

	recordCache map[string][]vertex.RecordDecl

	backend loaderBackend
}

// Loader loads the vertex input records of model files and caches them by file path (or by
// name for readers). Record names are qualified with the cache key, "<key>:<mesh>#<primitive>",
// so records of different files never share a resolver cache entry.
type Loader interface {
	// Load reads a model file and caches its records. A cached path is returned without
	// touching the file again. The backend is selected from the file extension.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - []vertex.RecordDecl: one record per mesh primitive
	//   - error: error if loading fails
	Load(path string) ([]vertex.RecordDecl, error)

	// LoadReader reads a model from a stream and caches its records under name.
	//
	// Parameters:
	//   - name: the cache key for the loaded records
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - []vertex.RecordDecl: one record per mesh primitive
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) ([]vertex.RecordDecl, error)

	// LoadAll loads several files in parallel. Results are in input order. If any file fails,
	// the error of the first failing path in input order is returned.
	//
	// Parameters:
	//   - paths: the model file paths
	//
	// Returns:
	//   - [][]vertex.RecordDecl: the records of each file, in input order
	//   - error: the first failure in input order
	LoadAll(paths []string) ([][]vertex.RecordDecl, error)

	// Layouts resolves the records cached under key with the loader's resolver.
	//
	// Parameters:
	//   - key: the file path or reader name the records were loaded under
	//
	// Returns:
	//   - []vertex.VertexLayoutDescriptor: one descriptor per record, in record order
	//   - error: error if nothing is cached under key or resolution fails
	Layouts(key string) ([]vertex.VertexLayoutDescriptor, error)

	// Get retrieves cached records by key. Returns nil if not found.
	//
	// Parameters:
	//   - key: the cache key to look up
	//
	// Returns:
	//   - []vertex.RecordDecl: the cached records or nil
	Get(key string) []vertex.RecordDecl

	// Records returns a copy of the full record cache.
	//
	// Returns:
	//   - map[string][]vertex.RecordDecl: all cached records keyed by path or name
	Records() map[string][]vertex.RecordDecl

	// Close stops the LoadAll worker pool and closes the resolver if the loader created it.
	// A resolver passed with WithResolver is left open. LoadAll returns ErrLoaderClosed
	// afterwards, the cache stays readable. Close is idempotent.
	//
	// Returns:
	//   - error: the error from closing the owned resolver
	Close() error
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:          sync.RWMutex{},
		logger:      zap.NewNop(),
		recordCache: make(map[string][]vertex.RecordDecl),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}

	if l.resolver == nil {
		l.resolver = vertex.NewResolver(vertex.WithLogger(l.logger))
		l.ownsResolver = true
	}
	if l.workers <= 0 {
		l.workers = runtime.GOMAXPROCS(0)
	}
	return l
}

func (l *loader) Load(path string) ([]vertex.RecordDecl, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	records, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.store(path, records), nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) ([]vertex.RecordDecl, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	records, err := l.backend.LoadReader(r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.store(name, records), nil
}

func (l *loader) LoadAll(paths []string) ([][]vertex.RecordDecl, error) {
	l.poolMu.RLock()
	defer l.poolMu.RUnlock()
	if l.closed {
		return nil, ErrLoaderClosed
	}
	if len(paths) == 0 {
		return [][]vertex.RecordDecl{}, nil
	}
	l.poolOnce.Do(func() {
		l.pool = worker.NewDynamicWorkerPool(l.workers, loaderQueueSize, 1*time.Second)
	})

	results := make([][]vertex.RecordDecl, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i := range paths {
		wg.Add(1)
		idx := i
		l.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				results[idx], errs[idx] = l.Load(paths[idx])
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (l *loader) Layouts(key string) ([]vertex.VertexLayoutDescriptor, error) {
	records := l.Get(key)
	if records == nil {
		return nil, fmt.Errorf("no records loaded for %q", key)
	}
	return l.resolver.ResolveAll(records)
}

func (l *loader) Close() error {
	l.poolMu.Lock()
	defer l.poolMu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.pool != nil {
		l.pool.Stop()
	}
	if l.ownsResolver {
		return l.resolver.Close()
	}
	return nil
}

func (l *loader) Get(key string) []vertex.RecordDecl {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.recordCache[key]
}

func (l *loader) Records() map[string][]vertex.RecordDecl {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.recordCache)
}

// store qualifies the record names with key and caches them. If another goroutine stored the
// same key first, its records win.
func (l *loader) store(key string, records []vertex.RecordDecl) []vertex.RecordDecl {
	qualified := make([]vertex.RecordDecl, len(records))
	for i, r := range records {
		r.Name = key + ":" + r.Name
		qualified[i] = r
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.recordCache[key]; ok {
		return cached
	}
	l.recordCache[key] = qualified

	l.logger.Info("vertex records loaded",
		zap.String("source", key),
		zap.Int("records", len(qualified)))
	return qualified
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %s", ext)
	}
}
