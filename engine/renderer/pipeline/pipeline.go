package pipeline

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-layout/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// defaultResolver is shared by every pipeline created without WithResolver, so a record type
// is resolved once no matter how many pipelines draw it.
var defaultResolver = sync.OnceValue(func() vertex.Resolver {
	return vertex.NewResolver()
})

// pipeline is the implementation of the Pipeline interface.
// It holds the shaders, the vertex input source and the resolved vertex layout of a render
// pipeline, together with the state used to fill in its descriptor.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// The vertex input comes from exactly one of these. With none set the vertex shader's
	// vertex input struct is used.

	recordName  string
	record      *vertex.RecordDecl
	recordValue any

	resolver vertex.Resolver
	logger   *zap.Logger

	// mu guards the state set by Init
	mu          sync.Mutex
	initialized bool
	layout      vertex.VertexLayoutDescriptor
	buffers     []wgpu.VertexBufferLayout

	// The following properties are used to configure the pipeline during creation and can be toggled/set with the builder options.

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline defines the interface for a render pipeline whose vertex buffer layouts are derived
// from a record declaration instead of being written by hand. The record comes from the vertex
// shader's input struct, a Go struct, or an explicit declaration.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Init resolves the vertex input record into a vertex layout and translates it into wgpu
	// vertex buffer layouts. It is idempotent and safe to call from several goroutines.
	//
	// Returns:
	//   - error: an error if no record can be selected, resolution fails, or the layout cannot be expressed in wgpu
	Init() error

	// VertexLayout returns the resolved vertex layout. It is empty before Init.
	//
	// Returns:
	//   - vertex.VertexLayoutDescriptor: the resolved layout
	VertexLayout() vertex.VertexLayoutDescriptor

	// VertexBuffers returns the wgpu vertex buffer layouts, indexed by buffer slot. Nil before Init.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts
	VertexBuffers() []wgpu.VertexBufferLayout

	// VertexState assembles the vertex stage of the render pipeline descriptor.
	//
	// Parameters:
	//   - module: the shader module created from the vertex shader's Module descriptor
	//
	// Returns:
	//   - wgpu.VertexState: the vertex state with the vertex shader's entry point and the resolved buffers
	VertexState(module *wgpu.ShaderModule) wgpu.VertexState

	// PrimitiveState returns the primitive state configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveState: topology, front face and cull mode
	PrimitiveState() wgpu.PrimitiveState

	// DepthStencilState returns the depth/stencil state for the given depth format. Disabling the
	// depth test compares with CompareFunctionAlways.
	//
	// Parameters:
	//   - format: the depth texture format
	//
	// Returns:
	//   - *wgpu.DepthStencilState: the depth/stencil state
	DepthStencilState(format wgpu.TextureFormat) *wgpu.DepthStencilState

	// ColorTargetState returns the color target for the given surface format, with the blend
	// state applied only when blending is enabled.
	//
	// Parameters:
	//   - format: the color target format
	//
	// Returns:
	//   - wgpu.ColorTargetState: the color target state
	ColorTargetState(format wgpu.TextureFormat) wgpu.ColorTargetState

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline (e.g., wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack)
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline (e.g., wgpu.PrimitiveTopologyTriangleList)
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline (e.g., wgpu.FrontFaceCCW, wgpu.FrontFaceCW)
	FrontFace() wgpu.FrontFace
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface. The vertex layout is not
// resolved until Init is called.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		logger:            zap.NewNop(),
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blendEnabled:      false,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.resolver == nil {
		p.resolver = defaultResolver()
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}

	layout, err := p.resolveLayout()
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}
	buffers, err := WGPUVertexBufferLayouts(layout)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}

	p.layout = layout
	p.buffers = buffers
	p.initialized = true

	p.logger.Info("pipeline vertex layout ready",
		zap.String("pipeline", p.pipelineKey),
		zap.Int("buffers", len(buffers)),
		zap.Stringer("layout", layout))
	return nil
}

// resolveLayout picks the vertex input record and resolves it.
func (p *pipeline) resolveLayout() (vertex.VertexLayoutDescriptor, error) {
	switch {
	case p.record != nil:
		return p.resolver.Resolve(*p.record)
	case p.recordValue != nil:
		return p.resolver.ResolveStruct(p.recordValue)
	}

	if p.vertexShader == nil {
		return vertex.VertexLayoutDescriptor{}, fmt.Errorf("no vertex shader and no vertex input record")
	}
	if p.recordName != "" {
		record, ok := p.vertexShader.VertexRecord(p.recordName)
		if !ok {
			return vertex.VertexLayoutDescriptor{}, fmt.Errorf("vertex shader %s has no vertex input struct %s", p.vertexShader.Key(), p.recordName)
		}
		return p.resolver.Resolve(record)
	}

	records := p.vertexShader.VertexRecords()
	switch len(records) {
	case 0:
		return vertex.VertexLayoutDescriptor{}, nil
	case 1:
		return p.resolver.Resolve(records[0])
	default:
		return vertex.VertexLayoutDescriptor{}, fmt.Errorf("vertex shader %s has %d vertex input structs, select one with WithVertexRecord", p.vertexShader.Key(), len(records))
	}
}

func (p *pipeline) VertexLayout() vertex.VertexLayoutDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layout
}

func (p *pipeline) VertexBuffers() []wgpu.VertexBufferLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffers
}

func (p *pipeline) VertexState(module *wgpu.ShaderModule) wgpu.VertexState {
	state := wgpu.VertexState{
		Module:  module,
		Buffers: p.VertexBuffers(),
	}
	if p.vertexShader != nil {
		state.EntryPoint = p.vertexShader.EntryPoint()
	}
	return state
}

func (p *pipeline) PrimitiveState() wgpu.PrimitiveState {
	return wgpu.PrimitiveState{
		Topology:  p.topology,
		FrontFace: p.frontFace,
		CullMode:  p.cullMode,
	}
}

func (p *pipeline) DepthStencilState(format wgpu.TextureFormat) *wgpu.DepthStencilState {
	depthCompare := wgpu.CompareFunctionLess
	if !p.depthTestEnabled {
		depthCompare = wgpu.CompareFunctionAlways
	}
	return &wgpu.DepthStencilState{
		Format:              format,
		DepthWriteEnabled:   p.depthWriteEnabled,
		DepthCompare:        depthCompare,
		DepthBias:           p.depthBias,
		DepthBiasSlopeScale: p.depthBiasSlopeScale,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
}

func (p *pipeline) ColorTargetState(format wgpu.TextureFormat) wgpu.ColorTargetState {
	state := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: p.writeMask,
	}
	if p.blendEnabled {
		state.Blend = p.blendState
	}
	return state
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}
