package vertex

import (
	"strings"
)

// Scalar names the component type of a declared field or a vertex format.
type Scalar string

const (
	ScalarF32 Scalar = "f32"
	ScalarF16 Scalar = "f16"
	ScalarI32 Scalar = "i32"
	ScalarU32 Scalar = "u32"
	ScalarI16 Scalar = "i16"
	ScalarU16 Scalar = "u16"
	ScalarI8  Scalar = "i8"
	ScalarU8  Scalar = "u8"

	// Normalized integer scalars are read by the shader as floats in [0, 1] or [-1, 1].

	ScalarI16Norm Scalar = "i16n"
	ScalarU16Norm Scalar = "u16n"
	ScalarI8Norm  Scalar = "i8n"
	ScalarU8Norm  Scalar = "u8n"
)

// scalarSizes holds the byte width of each known scalar.
var scalarSizes = map[Scalar]int{
	ScalarF32:     4,
	ScalarF16:     2,
	ScalarI32:     4,
	ScalarU32:     4,
	ScalarI16:     2,
	ScalarU16:     2,
	ScalarI8:      1,
	ScalarU8:      1,
	ScalarI16Norm: 2,
	ScalarU16Norm: 2,
	ScalarI8Norm:  1,
	ScalarU8Norm:  1,
}

// Size returns the byte width of the scalar, or 0 if it is not a known scalar.
func (s Scalar) Size() int {
	return scalarSizes[s]
}

// TypeTag is the canonical declared type of a record field, e.g. "vec3f32", "f32" or "vec4u8n".
// Tags outside that grammar (struct names, "string", "mat4f32") are still valid tags, they are
// simply not inferable and require an explicit format.
type TypeTag string

// Common tags.
const (
	TypeF32     TypeTag = "f32"
	TypeVec2F32 TypeTag = "vec2f32"
	TypeVec3F32 TypeTag = "vec3f32"
	TypeVec4F32 TypeTag = "vec4f32"
	TypeI32     TypeTag = "i32"
	TypeU32     TypeTag = "u32"
)

// VectorTag builds the tag for a vector of n components of the given scalar.
// A single component produces the bare scalar tag.
func VectorTag(s Scalar, n int) TypeTag {
	if n == 1 {
		return TypeTag(s)
	}
	return TypeTag("vec" + string(rune('0'+n)) + string(s))
}

// Shape returns the scalar and component count of the tag.
//
// Returns:
//   - Scalar: the component scalar
//   - int: the component count (1 for scalars, 2..4 for vectors)
//   - bool: false if the tag is not in the scalar/vector grammar
func (t TypeTag) Shape() (Scalar, int, bool) {
	s := string(t)
	n := 1
	if rest, ok := strings.CutPrefix(s, "vec"); ok {
		if len(rest) < 2 || rest[0] < '2' || rest[0] > '4' {
			return "", 0, false
		}
		n = int(rest[0] - '0')
		s = rest[1:]
	}
	if _, ok := scalarSizes[Scalar(s)]; !ok {
		return "", 0, false
	}
	return Scalar(s), n, true
}

// Components returns the component count of the tag, or 0 if it has no known shape.
func (t TypeTag) Components() int {
	_, n, ok := t.Shape()
	if !ok {
		return 0
	}
	return n
}

// Size returns the byte size of the tag's shape, or 0 if it has no known shape.
func (t TypeTag) Size() int {
	s, n, ok := t.Shape()
	if !ok {
		return 0
	}
	return s.Size() * n
}

// shapeKey indexes the inference table.
type shapeKey struct {
	scalar     Scalar
	components int
}

// inferenceTable maps every declared shape with an exact vertex format to that format.
// Built once from formatTable so both tables can never disagree.
var inferenceTable = func() map[shapeKey]VertexFormat {
	m := make(map[shapeKey]VertexFormat)
	for f := VertexFormatInvalid + 1; f < vertexFormatCount; f++ {
		info := formatTable[f]
		if info.scalar == "" {
			continue
		}
		m[shapeKey{info.scalar, info.components}] = f
	}
	return m
}()

// Infer returns the default vertex format for a declared type. Plain float vectors infer to
// float2/float3/float4, integer and half vectors to their exact counterparts. Types outside
// the scalar/vector grammar return false and need an explicit format.
//
// Parameters:
//   - t: the declared type tag
//
// Returns:
//   - VertexFormat: the inferred format
//   - bool: false if the type has no default format
func Infer(t TypeTag) (VertexFormat, bool) {
	s, n, ok := t.Shape()
	if !ok {
		return VertexFormatInvalid, false
	}
	f, ok := inferenceTable[shapeKey{s, n}]
	return f, ok
}

// Compatible reports whether an explicit format may annotate a field of declared type t.
// Types without a known shape accept any format. A packed format may annotate a single 32-bit
// scalar holding the whole word; every other pairing must match component counts.
func Compatible(t TypeTag, f VertexFormat) bool {
	if !f.Valid() {
		return false
	}
	if _, ok := Infer(t); !ok {
		return true
	}
	if f.Packed() && t.Components() == 1 {
		return t.Size() == f.Size()
	}
	return t.Components() == f.Components()
}
