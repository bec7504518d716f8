package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
)

// GPUVertexSource is the WGSL VertexInput struct for static mesh pipelines. Its resolved
// vertex layout is identical to the layout resolved from GPUVertex.
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUSkinnedVertexSource is the WGSL vertex input struct for skinned mesh pipelines. Its
// resolved vertex layout is identical to the layout resolved from GPUSkinnedVertex.
//
//go:embed assets/skinned_vertex.wgsl
var GPUSkinnedVertexSource string

// GPUInstancedVertexSource is the WGSL vertex input struct for instanced static meshes. Its
// resolved vertex layout is identical to the layout resolved from GPUInstancedVertex.
//
//go:embed assets/instanced_vertex.wgsl
var GPUInstancedVertexSource string

// GPUMarshaler is implemented by the GPU vertex types. Marshal returns exactly Size bytes.
type GPUMarshaler interface {
	Size() int
	Marshal() []byte
}

// GPUVertex is a single mesh vertex for static (non-skinned) models. Every field is inferred,
// giving one tightly packed 64 byte buffer.
type GPUVertex struct {
	Position [3]float32 // float3, offset 0
	Normal   [3]float32 // float3, offset 12
	TexCoord [2]float32 // float2, offset 24
	Color    [4]float32 // float4, offset 32
	Tangent  [4]float32 // float4, offset 48: xyz tangent, w handedness
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the vertex in the layout resolved for GPUVertex.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	return g.appendTo(make([]byte, 0, g.Size()))
}

func (g *GPUVertex) appendTo(buf []byte) []byte {
	buf = appendFloats(buf, g.Position[:]...)
	buf = appendFloats(buf, g.Normal[:]...)
	buf = appendFloats(buf, g.TexCoord[:]...)
	buf = appendFloats(buf, g.Color[:]...)
	return appendFloats(buf, g.Tangent[:]...)
}

// GPUSkinnedVertex extends GPUVertex with up to four bone influences. The embedded vertex is
// flattened, so the bone data resolves to attributes 5 and 6 at offsets 64 and 80.
type GPUSkinnedVertex struct {
	GPUVertex
	BoneIndices [4]uint32  // uint4
	BoneWeights [4]float32 // float4, must sum to 1
}

// Size returns the size of the GPUSkinnedVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSkinnedVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the vertex in the layout resolved for GPUSkinnedVertex.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload.
func (g *GPUSkinnedVertex) Marshal() []byte {
	buf := g.GPUVertex.appendTo(make([]byte, 0, g.Size()))
	for _, idx := range g.BoneIndices {
		buf = binary.LittleEndian.AppendUint32(buf, idx)
	}
	return appendFloats(buf, g.BoneWeights[:]...)
}

// GPUInstance holds the per-instance model-to-world matrix as four column vectors. The
// columns live in vertex buffer 1, which steps once per instance.
type GPUInstance struct {
	Model0 [4]float32 `vertex:"buffer=1"`
	Model1 [4]float32 `vertex:"buffer=1"`
	Model2 [4]float32 `vertex:"buffer=1"`
	Model3 [4]float32 `vertex:"buffer=1"`
}

// VertexLayoutDirectives marks buffer 1 as per-instance. Types embedding GPUInstance inherit it.
func (GPUInstance) VertexLayoutDirectives() []vertex.LayoutDirective {
	return []vertex.LayoutDirective{{BufferIndex: 1, StepFunction: vertex.StepFunctionPerInstance}}
}

// NewGPUInstance splits a column-major 4x4 matrix into instance columns.
//
// Parameters:
//   - m: the model matrix in column-major order
//
// Returns:
//   - GPUInstance: the instance data
func NewGPUInstance(m [16]float32) GPUInstance {
	var g GPUInstance
	copy(g.Model0[:], m[0:4])
	copy(g.Model1[:], m[4:8])
	copy(g.Model2[:], m[8:12])
	copy(g.Model3[:], m[12:16])
	return g
}

// Size returns the size of the GPUInstance struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the instance for upload to vertex buffer 1.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUInstance) Marshal() []byte {
	buf := make([]byte, 0, g.Size())
	buf = appendFloats(buf, g.Model0[:]...)
	buf = appendFloats(buf, g.Model1[:]...)
	buf = appendFloats(buf, g.Model2[:]...)
	return appendFloats(buf, g.Model3[:]...)
}

// GPUInstancedVertex is the record of an instanced static mesh pipeline: GPUVertex data in
// buffer 0 and GPUInstance data in buffer 1. It is only used to describe the layout, the two
// buffers are filled separately from GPUVertex and GPUInstance values.
type GPUInstancedVertex struct {
	GPUVertex
	GPUInstance
}

// MarshalAll concatenates the serialized form of each value, producing the contents of one
// vertex buffer.
//
// Parameters:
//   - values: the vertices or instances to serialize, in draw order
//
// Returns:
//   - []byte: len(values) * Size bytes
func MarshalAll[T any, P interface {
	*T
	GPUMarshaler
}](values []T) []byte {
	if len(values) == 0 {
		return []byte{}
	}
	buf := make([]byte, 0, len(values)*P(&values[0]).Size())
	for i := range values {
		buf = append(buf, P(&values[i]).Marshal()...)
	}
	return buf
}

func appendFloats(buf []byte, vs ...float32) []byte {
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
