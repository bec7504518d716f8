package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct{}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend() gltfLoaderBackend {
	return &gltfLoaderBackendImpl{}
}

func (b *gltfLoaderBackendImpl) Load(path string) ([]vertex.RecordDecl, error) {
	return LoadVertexRecords(path)
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader, isGLB bool) ([]vertex.RecordDecl, error) {
	if isGLB {
		return ParseGLB(r)
	}
	return ParseGLTF(r)
}
