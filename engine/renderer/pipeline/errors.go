package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
)

// UnsupportedFormatError reports a resolved attribute format that has no equivalent in the
// target graphics API.
type UnsupportedFormatError struct {
	Attribute string
	Format    vertex.VertexFormat
	Target    string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("attribute %q: vertex format %s has no %s equivalent", e.Attribute, e.Format, e.Target)
}

// UnsupportedStepRateError reports a per-instance buffer that advances less often than every
// instance. WebGPU only steps instance buffers once per instance.
type UnsupportedStepRateError struct {
	BufferIndex int
	StepRate    int
}

func (e *UnsupportedStepRateError) Error() string {
	return fmt.Sprintf("buffer %d: step rate %d is not supported, WebGPU steps once per instance", e.BufferIndex, e.StepRate)
}
