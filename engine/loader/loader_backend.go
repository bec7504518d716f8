package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
)

// loaderBackend defines the generic interface for reading vertex input records from model
// files or streams. Concrete implementations (e.g., gltfLoaderBackend) handle format-specific
// details.
type loaderBackend interface {
	// Load reads the records of the model file at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - []vertex.RecordDecl: one record per mesh primitive
	//   - error: error if loading fails
	Load(path string) ([]vertex.RecordDecl, error)

	// LoadReader reads the records of a model from a stream.
	//
	// Parameters:
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//
	// Returns:
	//   - []vertex.RecordDecl: one record per mesh primitive
	//   - error: error if loading fails
	LoadReader(r io.Reader, isGLB bool) ([]vertex.RecordDecl, error)
}
