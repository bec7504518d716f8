package shader

import "go.uber.org/zap"

// ShaderOption is a functional option used to configure a Shader during construction.
type ShaderOption func(*shader)

// WithValidation compiles the source with naga during construction. Construction fails if the
// source does not compile, and the resulting SPIR-V is kept on the shader.
//
// Returns:
//   - ShaderOption: a function that enables validation
func WithValidation() ShaderOption {
	return func(s *shader) {
		s.validate = true
	}
}

// WithLogger sets the logger used to report parsing results.
//
// Parameters:
//   - l: the zap logger, nil keeps the silent default
//
// Returns:
//   - ShaderOption: a function that sets the shader's logger
func WithLogger(l *zap.Logger) ShaderOption {
	return func(s *shader) {
		if l != nil {
			s.logger = l
		}
	}
}
