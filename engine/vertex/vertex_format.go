package vertex

import (
	"fmt"
	"strings"
)

// VertexFormat identifies the in-memory representation of a single vertex attribute.
// The set mirrors the vertex formats exposed by Metal so that layouts produced here can be
// handed to any of the modern GPU APIs after a per-backend translation.
type VertexFormat int

const (
	// VertexFormatInvalid is the zero value and never produced by a successful resolution.
	VertexFormatInvalid VertexFormat = iota

	VertexFormatUChar
	VertexFormatUChar2
	VertexFormatUChar3
	VertexFormatUChar4
	VertexFormatChar
	VertexFormatChar2
	VertexFormatChar3
	VertexFormatChar4
	VertexFormatUCharNormalized
	VertexFormatUChar2Normalized
	VertexFormatUChar3Normalized
	VertexFormatUChar4Normalized
	VertexFormatCharNormalized
	VertexFormatChar2Normalized
	VertexFormatChar3Normalized
	VertexFormatChar4Normalized

	VertexFormatUShort
	VertexFormatUShort2
	VertexFormatUShort3
	VertexFormatUShort4
	VertexFormatShort
	VertexFormatShort2
	VertexFormatShort3
	VertexFormatShort4
	VertexFormatUShortNormalized
	VertexFormatUShort2Normalized
	VertexFormatUShort3Normalized
	VertexFormatUShort4Normalized
	VertexFormatShortNormalized
	VertexFormatShort2Normalized
	VertexFormatShort3Normalized
	VertexFormatShort4Normalized

	VertexFormatHalf
	VertexFormatHalf2
	VertexFormatHalf3
	VertexFormatHalf4

	VertexFormatFloat
	VertexFormatFloat2
	VertexFormatFloat3
	VertexFormatFloat4

	VertexFormatInt
	VertexFormatInt2
	VertexFormatInt3
	VertexFormatInt4

	VertexFormatUInt
	VertexFormatUInt2
	VertexFormatUInt3
	VertexFormatUInt4

	// VertexFormatInt1010102Normalized packs three signed 10-bit and one signed 2-bit component into 32 bits.
	VertexFormatInt1010102Normalized
	// VertexFormatUInt1010102Normalized packs three unsigned 10-bit and one unsigned 2-bit component into 32 bits.
	VertexFormatUInt1010102Normalized
	// VertexFormatUChar4NormalizedBGRA is a four byte normalized color stored in BGRA order.
	VertexFormatUChar4NormalizedBGRA
	// VertexFormatFloatRG11B10 packs two 11-bit and one 10-bit unsigned float into 32 bits.
	VertexFormatFloatRG11B10
	// VertexFormatFloatRGB9E5 packs three 9-bit mantissas sharing a 5-bit exponent into 32 bits.
	VertexFormatFloatRGB9E5

	vertexFormatCount
)

// formatInfo describes the fixed properties of a VertexFormat.
type formatInfo struct {
	name       string
	components int
	size       int
	// scalar is the component scalar for unpacked formats, empty for packed formats
	// and the BGRA swizzled format which have no declared-type counterpart.
	scalar Scalar
	packed bool
}

// formatTable holds the properties of every valid VertexFormat, indexed by format.
var formatTable = [vertexFormatCount]formatInfo{
	VertexFormatUChar:            {"uchar", 1, 1, ScalarU8, false},
	VertexFormatUChar2:           {"uchar2", 2, 2, ScalarU8, false},
	VertexFormatUChar3:           {"uchar3", 3, 3, ScalarU8, false},
	VertexFormatUChar4:           {"uchar4", 4, 4, ScalarU8, false},
	VertexFormatChar:             {"char", 1, 1, ScalarI8, false},
	VertexFormatChar2:            {"char2", 2, 2, ScalarI8, false},
	VertexFormatChar3:            {"char3", 3, 3, ScalarI8, false},
	VertexFormatChar4:            {"char4", 4, 4, ScalarI8, false},
	VertexFormatUCharNormalized:  {"ucharNormalized", 1, 1, ScalarU8Norm, false},
	VertexFormatUChar2Normalized: {"uchar2Normalized", 2, 2, ScalarU8Norm, false},
	VertexFormatUChar3Normalized: {"uchar3Normalized", 3, 3, ScalarU8Norm, false},
	VertexFormatUChar4Normalized: {"uchar4Normalized", 4, 4, ScalarU8Norm, false},
	VertexFormatCharNormalized:   {"charNormalized", 1, 1, ScalarI8Norm, false},
	VertexFormatChar2Normalized:  {"char2Normalized", 2, 2, ScalarI8Norm, false},
	VertexFormatChar3Normalized:  {"char3Normalized", 3, 3, ScalarI8Norm, false},
	VertexFormatChar4Normalized:  {"char4Normalized", 4, 4, ScalarI8Norm, false},

	VertexFormatUShort:            {"ushort", 1, 2, ScalarU16, false},
	VertexFormatUShort2:           {"ushort2", 2, 4, ScalarU16, false},
	VertexFormatUShort3:           {"ushort3", 3, 6, ScalarU16, false},
	VertexFormatUShort4:           {"ushort4", 4, 8, ScalarU16, false},
	VertexFormatShort:             {"short", 1, 2, ScalarI16, false},
	VertexFormatShort2:            {"short2", 2, 4, ScalarI16, false},
	VertexFormatShort3:            {"short3", 3, 6, ScalarI16, false},
	VertexFormatShort4:            {"short4", 4, 8, ScalarI16, false},
	VertexFormatUShortNormalized:  {"ushortNormalized", 1, 2, ScalarU16Norm, false},
	VertexFormatUShort2Normalized: {"ushort2Normalized", 2, 4, ScalarU16Norm, false},
	VertexFormatUShort3Normalized: {"ushort3Normalized", 3, 6, ScalarU16Norm, false},
	VertexFormatUShort4Normalized: {"ushort4Normalized", 4, 8, ScalarU16Norm, false},
	VertexFormatShortNormalized:   {"shortNormalized", 1, 2, ScalarI16Norm, false},
	VertexFormatShort2Normalized:  {"short2Normalized", 2, 4, ScalarI16Norm, false},
	VertexFormatShort3Normalized:  {"short3Normalized", 3, 6, ScalarI16Norm, false},
	VertexFormatShort4Normalized:  {"short4Normalized", 4, 8, ScalarI16Norm, false},

	VertexFormatHalf:  {"half", 1, 2, ScalarF16, false},
	VertexFormatHalf2: {"half2", 2, 4, ScalarF16, false},
	VertexFormatHalf3: {"half3", 3, 6, ScalarF16, false},
	VertexFormatHalf4: {"half4", 4, 8, ScalarF16, false},

	VertexFormatFloat:  {"float", 1, 4, ScalarF32, false},
	VertexFormatFloat2: {"float2", 2, 8, ScalarF32, false},
	VertexFormatFloat3: {"float3", 3, 12, ScalarF32, false},
	VertexFormatFloat4: {"float4", 4, 16, ScalarF32, false},

	VertexFormatInt:  {"int", 1, 4, ScalarI32, false},
	VertexFormatInt2: {"int2", 2, 8, ScalarI32, false},
	VertexFormatInt3: {"int3", 3, 12, ScalarI32, false},
	VertexFormatInt4: {"int4", 4, 16, ScalarI32, false},

	VertexFormatUInt:  {"uint", 1, 4, ScalarU32, false},
	VertexFormatUInt2: {"uint2", 2, 8, ScalarU32, false},
	VertexFormatUInt3: {"uint3", 3, 12, ScalarU32, false},
	VertexFormatUInt4: {"uint4", 4, 16, ScalarU32, false},

	VertexFormatInt1010102Normalized:  {"int1010102Normalized", 4, 4, "", true},
	VertexFormatUInt1010102Normalized: {"uint1010102Normalized", 4, 4, "", true},
	VertexFormatUChar4NormalizedBGRA:  {"uchar4Normalized_bgra", 4, 4, "", false},
	VertexFormatFloatRG11B10:          {"floatRG11B10", 3, 4, "", true},
	VertexFormatFloatRGB9E5:           {"floatRGB9E5", 3, 4, "", true},
}

// formatsByName maps the case name of every valid format to its VertexFormat.
// Built once during package initialization from formatTable.
var formatsByName map[string]VertexFormat

func init() {
	formatsByName = make(map[string]VertexFormat, vertexFormatCount)
	for f := VertexFormatInvalid + 1; f < vertexFormatCount; f++ {
		info := formatTable[f]
		if info.name == "" || info.size <= 0 || info.components <= 0 {
			panic(fmt.Sprintf("vertex: format %d has an incomplete table entry", f))
		}
		if _, dup := formatsByName[info.name]; dup {
			panic(fmt.Sprintf("vertex: duplicate format name %q", info.name))
		}
		formatsByName[info.name] = f
	}
}

// ParseVertexFormat resolves a format case name such as "float3" or ".uchar4Normalized".
// The leading dot is optional so that names copied from Swift-style annotations parse unchanged.
//
// Parameters:
//   - name: the format case name
//
// Returns:
//   - VertexFormat: the matching format, or VertexFormatInvalid
//   - bool: false if the name is not a recognized format
func ParseVertexFormat(name string) (VertexFormat, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), ".")
	f, ok := formatsByName[name]
	return f, ok
}

// VertexFormats returns every valid format in declaration order.
func VertexFormats() []VertexFormat {
	out := make([]VertexFormat, 0, vertexFormatCount-1)
	for f := VertexFormatInvalid + 1; f < vertexFormatCount; f++ {
		out = append(out, f)
	}
	return out
}

// Valid reports whether f is one of the defined formats.
func (f VertexFormat) Valid() bool {
	return f > VertexFormatInvalid && f < vertexFormatCount
}

// String returns the case name of the format, e.g. "float3".
func (f VertexFormat) String() string {
	if !f.Valid() {
		return fmt.Sprintf("VertexFormat(%d)", int(f))
	}
	return formatTable[f].name
}

// Size returns the byte size of one attribute of this format. There is no implicit padding,
// a float3 is 12 bytes. Invalid formats report 0.
func (f VertexFormat) Size() int {
	if !f.Valid() {
		return 0
	}
	return formatTable[f].size
}

// Components returns the number of components the shader sees for this format.
func (f VertexFormat) Components() int {
	if !f.Valid() {
		return 0
	}
	return formatTable[f].components
}

// Packed reports whether the format packs several components into a single 32-bit word.
func (f VertexFormat) Packed() bool {
	return f.Valid() && formatTable[f].packed
}

// Scalar returns the component scalar of the format, or "" for packed and swizzled formats.
func (f VertexFormat) Scalar() Scalar {
	if !f.Valid() {
		return ""
	}
	return formatTable[f].scalar
}

// MarshalText implements encoding.TextMarshaler using the case name.
func (f VertexFormat) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("vertex: cannot marshal invalid format %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the case name.
func (f *VertexFormat) UnmarshalText(text []byte) error {
	parsed, ok := ParseVertexFormat(string(text))
	if !ok {
		return fmt.Errorf("vertex: unknown format %q", string(text))
	}
	*f = parsed
	return nil
}
