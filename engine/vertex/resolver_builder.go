package vertex

import "go.uber.org/zap"

// ResolverOption is a functional option used to configure a Resolver during construction.
type ResolverOption func(*resolver)

// WithLogger sets the logger used by the resolver. Without it the package logger is used.
//
// Parameters:
//   - l: the zap logger
//
// Returns:
//   - ResolverOption: a function that sets the resolver's logger
func WithLogger(l *zap.Logger) ResolverOption {
	return func(r *resolver) {
		r.logger = l
	}
}

// WithCacheCapacity sets the per-shard capacity of the descriptor cache. Values <= 0 keep the
// default.
//
// Parameters:
//   - capacity: the maximum number of cached records per shard
//
// Returns:
//   - ResolverOption: a function that sets the cache capacity
func WithCacheCapacity(capacity int) ResolverOption {
	return func(r *resolver) {
		if capacity > 0 {
			r.cacheCapacity = capacity
		}
	}
}

// WithWorkers sets the number of workers ResolveAll may run concurrently. Values <= 0 keep
// the default of GOMAXPROCS.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - ResolverOption: a function that sets the worker count
func WithWorkers(n int) ResolverOption {
	return func(r *resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithMaxBufferIndex rejects any field annotation or directive naming a buffer index above n.
// Metal exposes 31 buffer slots (n = 30), WebGPU guarantees 8 (n = 7). A negative n disables
// the check, which is the default.
//
// Parameters:
//   - n: the highest permitted buffer index
//
// Returns:
//   - ResolverOption: a function that sets the buffer index limit
func WithMaxBufferIndex(n int) ResolverOption {
	return func(r *resolver) {
		r.maxBufferIndex = n
	}
}
