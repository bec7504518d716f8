package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-layout/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
)

func resolveStruct[T any](t *testing.T) vertex.VertexLayoutDescriptor {
	t.Helper()
	record, err := vertex.RecordOf[T]()
	if err != nil {
		t.Fatalf("RecordOf: %v", err)
	}
	desc, err := vertex.ResolveLayout(record)
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}
	return desc
}

func resolveSource(t *testing.T, source string) vertex.VertexLayoutDescriptor {
	t.Helper()
	s, err := shader.NewShader("asset", shader.ShaderTypeVertex, source)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	records := s.VertexRecords()
	if len(records) != 1 {
		t.Fatalf("got %d vertex records, want 1", len(records))
	}
	desc, err := vertex.ResolveLayout(records[0])
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}
	return desc
}

func TestGPUTypeStrides(t *testing.T) {
	tests := []struct {
		name    string
		desc    vertex.VertexLayoutDescriptor
		value   GPUMarshaler
		buffer  int
		formats []vertex.VertexFormat
	}{
		{
			name:   "GPUVertex",
			desc:   resolveStruct[GPUVertex](t),
			value:  &GPUVertex{},
			buffer: 0,
			formats: []vertex.VertexFormat{
				vertex.VertexFormatFloat3, vertex.VertexFormatFloat3, vertex.VertexFormatFloat2,
				vertex.VertexFormatFloat4, vertex.VertexFormatFloat4,
			},
		},
		{
			name:   "GPUSkinnedVertex",
			desc:   resolveStruct[GPUSkinnedVertex](t),
			value:  &GPUSkinnedVertex{},
			buffer: 0,
			formats: []vertex.VertexFormat{
				vertex.VertexFormatFloat3, vertex.VertexFormatFloat3, vertex.VertexFormatFloat2,
				vertex.VertexFormatFloat4, vertex.VertexFormatFloat4,
				vertex.VertexFormatUInt4, vertex.VertexFormatFloat4,
			},
		},
		{
			name:   "GPUInstance",
			desc:   resolveStruct[GPUInstance](t),
			value:  &GPUInstance{},
			buffer: 1,
			formats: []vertex.VertexFormat{
				vertex.VertexFormatFloat4, vertex.VertexFormatFloat4,
				vertex.VertexFormatFloat4, vertex.VertexFormatFloat4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, ok := tt.desc.Layout(tt.buffer)
			if !ok {
				t.Fatalf("no layout for buffer %d: %s", tt.buffer, tt.desc)
			}
			if layout.Stride != tt.value.Size() {
				t.Errorf("stride = %d, Size() = %d", layout.Stride, tt.value.Size())
			}
			if got := len(tt.value.Marshal()); got != layout.Stride {
				t.Errorf("len(Marshal()) = %d, stride = %d", got, layout.Stride)
			}

			attrs := tt.desc.Attributes()
			if len(attrs) != len(tt.formats) {
				t.Fatalf("got %d attributes, want %d", len(attrs), len(tt.formats))
			}
			for i, a := range attrs {
				if a.Format != tt.formats[i] {
					t.Errorf("attribute %s format = %s, want %s", a.Name, a.Format, tt.formats[i])
				}
			}
		})
	}
}

func TestGPUInstanceStepsPerInstance(t *testing.T) {
	desc := resolveStruct[GPUInstance](t)
	layout, _ := desc.Layout(1)
	if layout.StepFunction != vertex.StepFunctionPerInstance {
		t.Errorf("step function = %s, want perInstance", layout.StepFunction)
	}
	if _, ok := desc.Layout(0); ok {
		t.Errorf("GPUInstance should not describe buffer 0: %s", desc)
	}
}

func TestGPUInstancedVertexLayout(t *testing.T) {
	desc := resolveStruct[GPUInstancedVertex](t)

	layouts := desc.Layouts()
	want := []vertex.BufferLayoutDescriptor{
		{Index: 0, Stride: 64, StepFunction: vertex.StepFunctionUnspecified, StepRate: 1},
		{Index: 1, Stride: 64, StepFunction: vertex.StepFunctionPerInstance, StepRate: 1},
	}
	if len(layouts) != len(want) {
		t.Fatalf("got %d layouts, want %d: %s", len(layouts), len(want), desc)
	}
	for i := range want {
		if layouts[i] != want[i] {
			t.Errorf("layout %d = %+v, want %+v", i, layouts[i], want[i])
		}
	}

	model2, ok := desc.Attribute("Model2")
	if !ok {
		t.Fatal("missing Model2 attribute")
	}
	if model2.Index != 7 || model2.Offset != 32 || model2.BufferIndex != 1 {
		t.Errorf("Model2 = %+v, want index 7 offset 32 buffer 1", model2)
	}
}

// The WGSL assets and the Go types must resolve to the same layout apart from field names.
func TestWGSLAssetsMatchGoTypes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		goDesc vertex.VertexLayoutDescriptor
	}{
		{name: "vertex", source: GPUVertexSource, goDesc: resolveStruct[GPUVertex](t)},
		{name: "skinned", source: GPUSkinnedVertexSource, goDesc: resolveStruct[GPUSkinnedVertex](t)},
		{name: "instanced", source: GPUInstancedVertexSource, goDesc: resolveStruct[GPUInstancedVertex](t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wgslDesc := resolveSource(t, tt.source)

			wgslAttrs, goAttrs := wgslDesc.Attributes(), tt.goDesc.Attributes()
			if len(wgslAttrs) != len(goAttrs) {
				t.Fatalf("WGSL has %d attributes, Go has %d", len(wgslAttrs), len(goAttrs))
			}
			for i := range goAttrs {
				w, g := wgslAttrs[i], goAttrs[i]
				if w.Index != g.Index || w.Format != g.Format || w.Offset != g.Offset || w.BufferIndex != g.BufferIndex {
					t.Errorf("attribute %d: WGSL %+v, Go %+v", i, w, g)
				}
			}

			wgslLayouts, goLayouts := wgslDesc.Layouts(), tt.goDesc.Layouts()
			if len(wgslLayouts) != len(goLayouts) {
				t.Fatalf("WGSL has %d layouts, Go has %d", len(wgslLayouts), len(goLayouts))
			}
			for i := range goLayouts {
				if wgslLayouts[i] != goLayouts[i] {
					t.Errorf("layout %d: WGSL %+v, Go %+v", i, wgslLayouts[i], goLayouts[i])
				}
			}
		})
	}
}

func TestMarshalOffsetsMatchLayout(t *testing.T) {
	v := GPUSkinnedVertex{
		GPUVertex: GPUVertex{
			Position: [3]float32{1, 2, 3},
			TexCoord: [2]float32{0.25, 0.75},
			Tangent:  [4]float32{0, 0, 1, -1},
		},
		BoneIndices: [4]uint32{7, 8, 9, 10},
		BoneWeights: [4]float32{0.5, 0.25, 0.125, 0.125},
	}
	buf := v.Marshal()
	desc := resolveStruct[GPUSkinnedVertex](t)

	readFloat := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}

	tex, _ := desc.Attribute("TexCoord")
	if got := readFloat(tex.Offset + 4); got != 0.75 {
		t.Errorf("TexCoord.y at offset %d = %v, want 0.75", tex.Offset+4, got)
	}
	tangent, _ := desc.Attribute("Tangent")
	if got := readFloat(tangent.Offset + 12); got != -1 {
		t.Errorf("Tangent.w at offset %d = %v, want -1", tangent.Offset+12, got)
	}
	bones, _ := desc.Attribute("BoneIndices")
	if got := binary.LittleEndian.Uint32(buf[bones.Offset+8:]); got != 9 {
		t.Errorf("BoneIndices[2] at offset %d = %d, want 9", bones.Offset+8, got)
	}
	weights, _ := desc.Attribute("BoneWeights")
	if got := readFloat(weights.Offset); got != 0.5 {
		t.Errorf("BoneWeights[0] at offset %d = %v, want 0.5", weights.Offset, got)
	}
}

func TestMarshalAll(t *testing.T) {
	instances := []GPUInstance{
		NewGPUInstance([16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 6, 7, 1}),
		NewGPUInstance([16]float32{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, -1, -2, -3, 1}),
	}
	buf := MarshalAll(instances)
	if len(buf) != 2*64 {
		t.Fatalf("len = %d, want 128", len(buf))
	}
	// second instance, translation x is the first float of Model3
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[64+48:])); got != -1 {
		t.Errorf("instance 1 translation x = %v, want -1", got)
	}

	if got := MarshalAll([]GPUVertex{}); len(got) != 0 {
		t.Errorf("MarshalAll(empty) = %d bytes, want 0", len(got))
	}
}
