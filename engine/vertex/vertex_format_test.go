package vertex

import (
	"testing"
)

func TestVertexFormatTable(t *testing.T) {
	formats := VertexFormats()
	if len(formats) != 53 {
		t.Fatalf("got %d formats, want 53", len(formats))
	}
	for _, f := range formats {
		parsed, ok := ParseVertexFormat(f.String())
		if !ok || parsed != f {
			t.Errorf("ParseVertexFormat(%q) = %v, %v", f.String(), parsed, ok)
		}
		if f.Size() <= 0 || f.Components() < 1 || f.Components() > 4 {
			t.Errorf("%s: size %d components %d", f, f.Size(), f.Components())
		}
		if !f.Packed() && f.Scalar() != "" && f.Size() != f.Scalar().Size()*f.Components() {
			t.Errorf("%s: size %d is not scalar size times components", f, f.Size())
		}
	}
}

func TestVertexFormatSizes(t *testing.T) {
	tests := []struct {
		format     VertexFormat
		size       int
		components int
		packed     bool
	}{
		{VertexFormatFloat, 4, 1, false},
		{VertexFormatFloat3, 12, 3, false},
		{VertexFormatHalf3, 6, 3, false},
		{VertexFormatUChar3Normalized, 3, 3, false},
		{VertexFormatShort2, 4, 2, false},
		{VertexFormatUInt4, 16, 4, false},
		{VertexFormatInt1010102Normalized, 4, 4, true},
		{VertexFormatUChar4NormalizedBGRA, 4, 4, false},
		{VertexFormatFloatRG11B10, 4, 3, true},
		{VertexFormatFloatRGB9E5, 4, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.Size(); got != tt.size {
				t.Errorf("Size() = %d, want %d", got, tt.size)
			}
			if got := tt.format.Components(); got != tt.components {
				t.Errorf("Components() = %d, want %d", got, tt.components)
			}
			if got := tt.format.Packed(); got != tt.packed {
				t.Errorf("Packed() = %v, want %v", got, tt.packed)
			}
		})
	}
}

func TestParseVertexFormat(t *testing.T) {
	tests := []struct {
		in   string
		want VertexFormat
		ok   bool
	}{
		{"float3", VertexFormatFloat3, true},
		{".float3", VertexFormatFloat3, true},
		{" uchar4Normalized_bgra ", VertexFormatUChar4NormalizedBGRA, true},
		{"Float3", VertexFormatInvalid, false},
		{"float5", VertexFormatInvalid, false},
		{"", VertexFormatInvalid, false},
	}
	for _, tt := range tests {
		got, ok := ParseVertexFormat(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseVertexFormat(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestVertexFormatText(t *testing.T) {
	text, err := VertexFormatHalf2.MarshalText()
	if err != nil || string(text) != "half2" {
		t.Fatalf("MarshalText = %q, %v", text, err)
	}
	var f VertexFormat
	if err := f.UnmarshalText([]byte("ushort4Normalized")); err != nil || f != VertexFormatUShort4Normalized {
		t.Fatalf("UnmarshalText = %v, %v", f, err)
	}
	if err := f.UnmarshalText([]byte("nope")); err == nil {
		t.Error("expected an error for an unknown name")
	}
	if _, err := VertexFormatInvalid.MarshalText(); err == nil {
		t.Error("expected an error marshaling the invalid format")
	}
}

func TestInfer(t *testing.T) {
	tests := []struct {
		tag  TypeTag
		want VertexFormat
		ok   bool
	}{
		{"f32", VertexFormatFloat, true},
		{"vec2f32", VertexFormatFloat2, true},
		{"vec3f32", VertexFormatFloat3, true},
		{"vec4f32", VertexFormatFloat4, true},
		{"vec3f16", VertexFormatHalf3, true},
		{"i32", VertexFormatInt, true},
		{"vec4u32", VertexFormatUInt4, true},
		{"vec2i16", VertexFormatShort2, true},
		{"vec4u8n", VertexFormatUChar4Normalized, true},
		{"i8n", VertexFormatCharNormalized, true},
		{"vec5f32", VertexFormatInvalid, false},
		{"mat4f32", VertexFormatInvalid, false},
		{"Material", VertexFormatInvalid, false},
		{"string", VertexFormatInvalid, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.tag), func(t *testing.T) {
			got, ok := Infer(tt.tag)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Infer(%q) = %v, %v, want %v, %v", tt.tag, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		name   string
		tag    TypeTag
		format VertexFormat
		want   bool
	}{
		{"same shape", "vec3f32", VertexFormatFloat3, true},
		{"narrower scalar", "vec4f32", VertexFormatUChar4Normalized, true},
		{"component mismatch", "vec3f32", VertexFormatFloat4, false},
		{"scalar into vector", "f32", VertexFormatFloat2, false},
		{"packed into u32", "u32", VertexFormatUInt1010102Normalized, true},
		{"packed into vec4u8", "vec4u8", VertexFormatInt1010102Normalized, true},
		{"packed into vec3f32", "vec3f32", VertexFormatFloatRG11B10, false},
		{"packed into i32", "i32", VertexFormatInt1010102Normalized, true},
		{"packed into u16", "u16", VertexFormatFloatRGB9E5, false},
		{"packed into vec3u8", "vec3u8", VertexFormatFloatRG11B10, true},
		{"packed into vec2f16", "vec2f16", VertexFormatFloatRGB9E5, false},
		{"packed into vec2u16", "vec2u16", VertexFormatFloatRG11B10, false},
		{"packed into vec4u8 with three components", "vec4u8", VertexFormatFloatRGB9E5, false},
		{"opaque type accepts anything", "Bones", VertexFormatUShort4, true},
		{"invalid format", "vec3f32", VertexFormatInvalid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compatible(tt.tag, tt.format); got != tt.want {
				t.Errorf("Compatible(%q, %s) = %v, want %v", tt.tag, tt.format, got, tt.want)
			}
		})
	}
}

func TestTypeTagShape(t *testing.T) {
	if got := VectorTag(ScalarF16, 3); got != "vec3f16" {
		t.Errorf("VectorTag = %q", got)
	}
	if got := VectorTag(ScalarU8Norm, 1); got != "u8n" {
		t.Errorf("VectorTag single = %q", got)
	}
	s, n, ok := TypeTag("vec4i16n").Shape()
	if !ok || s != ScalarI16Norm || n != 4 {
		t.Errorf("Shape = %q, %d, %v", s, n, ok)
	}
	if TypeVec3F32.Size() != 12 || TypeTag("vec").Size() != 0 {
		t.Errorf("unexpected tag sizes")
	}
}
