package loader

// gltfDocument is the subset of a glTF 2.0 document needed to describe vertex inputs.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
type gltfDocument struct {
	// Asset contains metadata about the glTF asset. Required.
	Asset gltfAsset `json:"asset"`

	// Meshes is the array of meshes, each made of one or more primitives.
	Meshes []gltfMesh `json:"meshes,omitempty"`

	// Accessors is the array of typed views into buffer views.
	Accessors []gltfAccessor `json:"accessors,omitempty"`

	// BufferViews is the array of byte ranges into buffers.
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`

	// Buffers is the array of binary blobs. Only their declared lengths are read.
	Buffers []gltfBuffer `json:"buffers,omitempty"`
}

// gltfAsset contains metadata about the glTF asset.
type gltfAsset struct {
	// Version is the glTF version, must be "2.0".
	Version string `json:"version"`

	// Generator is the tool that produced the asset.
	Generator string `json:"generator,omitempty"`
}

// gltfMesh is a set of primitives to be rendered.
type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

// gltfPrimitive is one draw call worth of geometry. Attributes maps a semantic such as
// POSITION or TEXCOORD_0 to an accessor index.
type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`

	// Mode is the topology, triangles when nil.
	Mode *int `json:"mode,omitempty"`
}

// gltfAccessor is a typed view into a buffer view.
type gltfAccessor struct {
	Name string `json:"name,omitempty"`

	// BufferView is nil for sparse or zero-filled accessors.
	BufferView *int `json:"bufferView,omitempty"`

	// ByteOffset is relative to the start of the buffer view.
	ByteOffset int `json:"byteOffset,omitempty"`

	ComponentType int  `json:"componentType"`
	Normalized    bool `json:"normalized,omitempty"`
	Count         int  `json:"count"`

	// Type is the element type (SCALAR, VEC2, VEC3, VEC4, MAT2, MAT3, MAT4).
	Type string `json:"type"`
}

// ComponentType constants
const (
	gltfComponentTypeByte          = 5120
	gltfComponentTypeUnsignedByte  = 5121
	gltfComponentTypeShort         = 5122
	gltfComponentTypeUnsignedShort = 5123
	gltfComponentTypeUnsignedInt   = 5125
	gltfComponentTypeFloat         = 5126
)

// AccessorType constants
const (
	gltfAccessorTypeScalar = "SCALAR"
	gltfAccessorTypeVec2   = "VEC2"
	gltfAccessorTypeVec3   = "VEC3"
	gltfAccessorTypeVec4   = "VEC4"
)

// gltfBufferView is a byte range of a buffer. A non-nil ByteStride marks the view as
// interleaved vertex data.
type gltfBufferView struct {
	Name       string `json:"name,omitempty"`
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"`
	ByteLength int    `json:"byteLength"`
	ByteStride *int   `json:"byteStride,omitempty"`
	Target     *int   `json:"target,omitempty"`
}

// gltfBuffer is a binary blob. The bytes themselves are never loaded.
type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

// --- GLB Binary Format ---

// gltfGLBHeader is the header of a GLB file (12 bytes).
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
type gltfGLBHeader struct {
	Magic   uint32 // Must be 0x46546C67 ("glTF" in ASCII)
	Version uint32 // Must be 2
	Length  uint32 // Total file length
}

// gltfGLBChunkHeader is the header of a GLB chunk (8 bytes).
type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32 // 0x4E4F534A for JSON, 0x004E4942 for BIN
}

// GLB magic number and chunk type constants
const (
	gltfGLBMagic     = 0x46546C67 // "glTF" in little-endian ASCII
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON" in little-endian ASCII
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\0" in little-endian ASCII
)
