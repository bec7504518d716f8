package pipeline

import (
	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

// wgpuVertexFormatMap maps resolved vertex formats to their wgpu vertex format. WebGPU has no
// three-component or single-component 8 and 16 bit formats and no packed formats.
var wgpuVertexFormatMap = map[vertex.VertexFormat]wgpu.VertexFormat{
	vertex.VertexFormatUChar2:            wgpu.VertexFormatUint8x2,
	vertex.VertexFormatUChar4:            wgpu.VertexFormatUint8x4,
	vertex.VertexFormatChar2:             wgpu.VertexFormatSint8x2,
	vertex.VertexFormatChar4:             wgpu.VertexFormatSint8x4,
	vertex.VertexFormatUChar2Normalized:  wgpu.VertexFormatUnorm8x2,
	vertex.VertexFormatUChar4Normalized:  wgpu.VertexFormatUnorm8x4,
	vertex.VertexFormatChar2Normalized:   wgpu.VertexFormatSnorm8x2,
	vertex.VertexFormatChar4Normalized:   wgpu.VertexFormatSnorm8x4,
	vertex.VertexFormatUShort2:           wgpu.VertexFormatUint16x2,
	vertex.VertexFormatUShort4:           wgpu.VertexFormatUint16x4,
	vertex.VertexFormatShort2:            wgpu.VertexFormatSint16x2,
	vertex.VertexFormatShort4:            wgpu.VertexFormatSint16x4,
	vertex.VertexFormatUShort2Normalized: wgpu.VertexFormatUnorm16x2,
	vertex.VertexFormatUShort4Normalized: wgpu.VertexFormatUnorm16x4,
	vertex.VertexFormatShort2Normalized:  wgpu.VertexFormatSnorm16x2,
	vertex.VertexFormatShort4Normalized:  wgpu.VertexFormatSnorm16x4,
	vertex.VertexFormatHalf2:             wgpu.VertexFormatFloat16x2,
	vertex.VertexFormatHalf4:             wgpu.VertexFormatFloat16x4,
	vertex.VertexFormatFloat:             wgpu.VertexFormatFloat32,
	vertex.VertexFormatFloat2:            wgpu.VertexFormatFloat32x2,
	vertex.VertexFormatFloat3:            wgpu.VertexFormatFloat32x3,
	vertex.VertexFormatFloat4:            wgpu.VertexFormatFloat32x4,
	vertex.VertexFormatUInt:              wgpu.VertexFormatUint32,
	vertex.VertexFormatUInt2:             wgpu.VertexFormatUint32x2,
	vertex.VertexFormatUInt3:             wgpu.VertexFormatUint32x3,
	vertex.VertexFormatUInt4:             wgpu.VertexFormatUint32x4,
	vertex.VertexFormatInt:               wgpu.VertexFormatSint32,
	vertex.VertexFormatInt2:              wgpu.VertexFormatSint32x2,
	vertex.VertexFormatInt3:              wgpu.VertexFormatSint32x3,
	vertex.VertexFormatInt4:              wgpu.VertexFormatSint32x4,
}

// gputypesVertexFormatMap is wgpuVertexFormatMap for the gputypes vocabulary used by the
// pure Go WebGPU stack.
var gputypesVertexFormatMap = map[vertex.VertexFormat]gputypes.VertexFormat{
	vertex.VertexFormatUChar2:            gputypes.VertexFormatUint8x2,
	vertex.VertexFormatUChar4:            gputypes.VertexFormatUint8x4,
	vertex.VertexFormatChar2:             gputypes.VertexFormatSint8x2,
	vertex.VertexFormatChar4:             gputypes.VertexFormatSint8x4,
	vertex.VertexFormatUChar2Normalized:  gputypes.VertexFormatUnorm8x2,
	vertex.VertexFormatUChar4Normalized:  gputypes.VertexFormatUnorm8x4,
	vertex.VertexFormatChar2Normalized:   gputypes.VertexFormatSnorm8x2,
	vertex.VertexFormatChar4Normalized:   gputypes.VertexFormatSnorm8x4,
	vertex.VertexFormatUShort2:           gputypes.VertexFormatUint16x2,
	vertex.VertexFormatUShort4:           gputypes.VertexFormatUint16x4,
	vertex.VertexFormatShort2:            gputypes.VertexFormatSint16x2,
	vertex.VertexFormatShort4:            gputypes.VertexFormatSint16x4,
	vertex.VertexFormatUShort2Normalized: gputypes.VertexFormatUnorm16x2,
	vertex.VertexFormatUShort4Normalized: gputypes.VertexFormatUnorm16x4,
	vertex.VertexFormatShort2Normalized:  gputypes.VertexFormatSnorm16x2,
	vertex.VertexFormatShort4Normalized:  gputypes.VertexFormatSnorm16x4,
	vertex.VertexFormatHalf2:             gputypes.VertexFormatFloat16x2,
	vertex.VertexFormatHalf4:             gputypes.VertexFormatFloat16x4,
	vertex.VertexFormatFloat:             gputypes.VertexFormatFloat32,
	vertex.VertexFormatFloat2:            gputypes.VertexFormatFloat32x2,
	vertex.VertexFormatFloat3:            gputypes.VertexFormatFloat32x3,
	vertex.VertexFormatFloat4:            gputypes.VertexFormatFloat32x4,
	vertex.VertexFormatUInt:              gputypes.VertexFormatUint32,
	vertex.VertexFormatUInt2:             gputypes.VertexFormatUint32x2,
	vertex.VertexFormatUInt3:             gputypes.VertexFormatUint32x3,
	vertex.VertexFormatUInt4:             gputypes.VertexFormatUint32x4,
	vertex.VertexFormatInt:               gputypes.VertexFormatSint32,
	vertex.VertexFormatInt2:              gputypes.VertexFormatSint32x2,
	vertex.VertexFormatInt3:              gputypes.VertexFormatSint32x3,
	vertex.VertexFormatInt4:              gputypes.VertexFormatSint32x4,
}

// bufferSlot is one vertex buffer slot of a descriptor, in the API-neutral shape both
// translations start from.
type bufferSlot struct {
	stride     uint64
	instance   bool
	attributes []vertex.AttributeDescriptor
}

// bufferSlots groups a descriptor's attributes by buffer index into a dense slice indexed by
// slot. Buffer indices that no layout names become empty slots.
//
// Parameters:
//   - desc: the resolved vertex layout
//
// Returns:
//   - []bufferSlot: one slot per buffer index up to the highest used one
//   - error: an *UnsupportedStepRateError for a step rate other than 1
func bufferSlots(desc vertex.VertexLayoutDescriptor) ([]bufferSlot, error) {
	layouts := desc.Layouts()
	if len(layouts) == 0 {
		return []bufferSlot{}, nil
	}

	slots := make([]bufferSlot, layouts[len(layouts)-1].Index+1)
	for _, l := range layouts {
		if l.StepRate != 1 {
			return nil, &UnsupportedStepRateError{BufferIndex: l.Index, StepRate: l.StepRate}
		}
		slots[l.Index] = bufferSlot{
			stride:   uint64(l.Stride),
			instance: l.StepFunction == vertex.StepFunctionPerInstance,
		}
	}
	for _, a := range desc.Attributes() {
		slots[a.BufferIndex].attributes = append(slots[a.BufferIndex].attributes, a)
	}
	return slots, nil
}

// WGPUVertexBufferLayouts translates a resolved vertex layout into wgpu vertex buffer layouts.
// The slice index is the buffer slot, each attribute's shader location is its attribute index,
// and per-instance buffers step per instance.
//
// Parameters:
//   - desc: the resolved vertex layout
//
// Returns:
//   - []wgpu.VertexBufferLayout: one layout per buffer slot
//   - error: an *UnsupportedFormatError or *UnsupportedStepRateError
func WGPUVertexBufferLayouts(desc vertex.VertexLayoutDescriptor) ([]wgpu.VertexBufferLayout, error) {
	slots, err := bufferSlots(desc)
	if err != nil {
		return nil, err
	}

	out := make([]wgpu.VertexBufferLayout, len(slots))
	for i, slot := range slots {
		layout := wgpu.VertexBufferLayout{
			ArrayStride: slot.stride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  make([]wgpu.VertexAttribute, 0, len(slot.attributes)),
		}
		if slot.instance {
			layout.StepMode = wgpu.VertexStepModeInstance
		}
		for _, a := range slot.attributes {
			format, ok := wgpuVertexFormatMap[a.Format]
			if !ok {
				return nil, &UnsupportedFormatError{Attribute: a.Name, Format: a.Format, Target: "wgpu"}
			}
			layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
				Format:         format,
				Offset:         uint64(a.Offset),
				ShaderLocation: uint32(a.Index),
			})
		}
		out[i] = layout
	}
	return out, nil
}

// GPUTypesVertexBufferLayouts is WGPUVertexBufferLayouts for the gputypes vocabulary.
//
// Parameters:
//   - desc: the resolved vertex layout
//
// Returns:
//   - []gputypes.VertexBufferLayout: one layout per buffer slot
//   - error: an *UnsupportedFormatError or *UnsupportedStepRateError
func GPUTypesVertexBufferLayouts(desc vertex.VertexLayoutDescriptor) ([]gputypes.VertexBufferLayout, error) {
	slots, err := bufferSlots(desc)
	if err != nil {
		return nil, err
	}

	out := make([]gputypes.VertexBufferLayout, len(slots))
	for i, slot := range slots {
		layout := gputypes.VertexBufferLayout{
			ArrayStride: slot.stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  make([]gputypes.VertexAttribute, 0, len(slot.attributes)),
		}
		if slot.instance {
			layout.StepMode = gputypes.VertexStepModeInstance
		}
		for _, a := range slot.attributes {
			format, ok := gputypesVertexFormatMap[a.Format]
			if !ok {
				return nil, &UnsupportedFormatError{Attribute: a.Name, Format: a.Format, Target: "gputypes"}
			}
			layout.Attributes = append(layout.Attributes, gputypes.VertexAttribute{
				Format:         format,
				Offset:         uint64(a.Offset),
				ShaderLocation: uint32(a.Index),
			})
		}
		out[i] = layout
	}
	return out, nil
}
