package shader

import (
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"go.uber.org/zap"
)

// ShaderType identifies whether a shader is a render shader or a compute shader.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// shader is the implementation of the Shader interface.
// It holds the shader source, its module descriptor, and the vertex records parsed from it.
type shader struct {
	key           string
	source        string
	shaderType    ShaderType
	entryPoint    string
	module        *wgpu.ShaderModuleDescriptor
	vertexRecords []vertex.RecordDecl
	spirv         []uint32

	validate bool
	logger   *zap.Logger
}

// Shader defines the interface for a loaded and parsed WGSL shader. It exposes the shader's
// unique key, source code, entry point, module descriptor, and the vertex input structs of
// vertex shaders as record declarations ready for layout resolution.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "main")
	EntryPoint() string

	// Module returns the wgpu.ShaderModuleDescriptor for this shader, which is built from the NewShader function.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// ShaderType returns the type of the shader (vertex, fragment, or compute).
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// VertexRecords returns one record declaration per vertex input struct, in source order.
	// Record names are qualified with the shader key as "<key>:<struct>", so same-named structs
	// of different shaders stay distinct in a shared resolver. Non-vertex shaders have none.
	//
	// Returns:
	//   - []vertex.RecordDecl: the parsed records
	VertexRecords() []vertex.RecordDecl

	// VertexRecord looks up a vertex input struct by its WGSL name.
	//
	// Parameters:
	//   - name: the WGSL struct name, without the shader key
	//
	// Returns:
	//   - vertex.RecordDecl: the record declaration
	//   - bool: false if no vertex input struct has that name
	VertexRecord(name string) (vertex.RecordDecl, bool)

	// SPIRV returns the SPIR-V words produced by validation, or nil if the shader was created
	// without WithValidation.
	//
	// Returns:
	//   - []uint32: the compiled SPIR-V
	SPIRV() []uint32
}

var _ Shader = &shader{}

// NewShader creates a new Shader from WGSL source with all specified options applied.
// Vertex input structs of vertex shaders are parsed into record declarations immediately.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the type of shader (vertex, fragment or compute)
//   - source: the WGSL source code
//   - opts: a variadic list of ShaderOption functions
//
// Returns:
//   - Shader: a new Shader instance with the provided configuration
//   - error: an error if the source is empty, fails validation, or has malformed annotations
func NewShader(key string, shaderType ShaderType, source string, opts ...ShaderOption) (Shader, error) {
	if source == "" {
		return nil, fmt.Errorf("shader: %s has no source", key)
	}
	s := &shader{
		key:        key,
		shaderType: shaderType,
		source:     source,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.parseSource(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewShaderFromPath reads WGSL source from a file and creates a Shader from it.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the type of shader (vertex, fragment or compute)
//   - sourcePath: the file path to read WGSL source from
//   - opts: a variadic list of ShaderOption functions
//
// Returns:
//   - Shader: a new Shader instance
//   - error: an error if the file cannot be read or NewShader fails
func NewShaderFromPath(key string, shaderType ShaderType, sourcePath string, opts ...ShaderOption) (Shader, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("shader: failed to read source file %q: %w", sourcePath, err)
	}
	return NewShader(key, shaderType, string(data), opts...)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) VertexRecords() []vertex.RecordDecl {
	out := make([]vertex.RecordDecl, len(s.vertexRecords))
	copy(out, s.vertexRecords)
	return out
}

func (s *shader) VertexRecord(name string) (vertex.RecordDecl, bool) {
	qualified := s.recordName(name)
	for _, r := range s.vertexRecords {
		if r.Name == qualified {
			return r, true
		}
	}
	return vertex.RecordDecl{}, false
}

func (s *shader) SPIRV() []uint32 {
	return s.spirv
}

func (s *shader) recordName(structName string) string {
	return s.key + ":" + structName
}

// parseSource validates the source when requested, builds the shader module descriptor,
// parses the entry point name, and for vertex shaders extracts the vertex input records.
func (s *shader) parseSource() error {
	if s.validate {
		spirv, err := compileSPIRV(s.source)
		if err != nil {
			return fmt.Errorf("shader: %s failed validation: %w", s.key, err)
		}
		s.spirv = spirv
	}

	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	s.entryPoint = parseEntryPoint(s.source, s.shaderType)

	if s.shaderType == ShaderTypeVertex {
		records, err := parseVertexRecords(s.source)
		if err != nil {
			return fmt.Errorf("shader: %s: %w", s.key, err)
		}
		for i := range records {
			records[i].Name = s.recordName(records[i].Name)
		}
		s.vertexRecords = records
	}

	s.logger.Debug("shader parsed",
		zap.String("key", s.key),
		zap.Stringer("type", s.shaderType),
		zap.String("entry_point", s.entryPoint),
		zap.Int("vertex_records", len(s.vertexRecords)),
		zap.Bool("validated", s.spirv != nil))
	return nil
}

// compileSPIRV compiles WGSL to SPIR-V with naga and packs the little-endian bytes into words.
func compileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
