package loader

import (
	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithResolver sets the resolver used by Layouts. Without it the loader creates its own.
//
// Parameters:
//   - r: the layout resolver
//
// Returns:
//   - LoaderBuilderOption: a function that applies the resolver option to a loader
func WithResolver(r vertex.Resolver) LoaderBuilderOption {
	return func(l *loader) {
		l.resolver = r
	}
}

// WithLogger sets the logger for load events.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithWorkers sets how many files LoadAll reads concurrently. Defaults to GOMAXPROCS.
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = n
	}
}

// WithRecords pre-populates the record cache. The records are stored as given, their names are
// not qualified.
//
// Parameters:
//   - key: the cache key for the records
//   - records: the records to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the records option to a loader
func WithRecords(key string, records []vertex.RecordDecl) LoaderBuilderOption {
	return func(l *loader) {
		l.recordCache[key] = records
	}
}
