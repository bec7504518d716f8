package vertex

import (
	"fmt"
	"slices"
	"strings"
)

// StepFunction controls whether a vertex buffer advances per vertex or per instance.
type StepFunction int

const (
	// StepFunctionUnspecified leaves the choice to the consumer, which treats it as per-vertex.
	StepFunctionUnspecified StepFunction = iota

	// StepFunctionPerVertex advances the buffer once per vertex.
	StepFunctionPerVertex

	// StepFunctionPerInstance advances the buffer once every StepRate instances.
	StepFunctionPerInstance
)

func (s StepFunction) String() string {
	switch s {
	case StepFunctionUnspecified:
		return "unspecified"
	case StepFunctionPerVertex:
		return "perVertex"
	case StepFunctionPerInstance:
		return "perInstance"
	default:
		return fmt.Sprintf("StepFunction(%d)", int(s))
	}
}

// ParseStepFunction accepts "vertex"/"perVertex" and "instance"/"perInstance".
func ParseStepFunction(s string) (StepFunction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertex", "pervertex":
		return StepFunctionPerVertex, true
	case "instance", "perinstance":
		return StepFunctionPerInstance, true
	default:
		return StepFunctionUnspecified, false
	}
}

// LayoutDirective is a record-level instruction for one buffer index. It is not tied to any
// field. A directive may name a buffer index that no field uses, in which case it must carry
// a stride.
type LayoutDirective struct {
	// BufferIndex is the buffer slot the directive applies to.
	BufferIndex int

	// Stride overrides the packed stride when non-nil, even if smaller than the packed size.
	Stride *int

	// StepFunction selects per-vertex or per-instance stepping. Unspecified by default.
	StepFunction StepFunction

	// StepRate is the number of instances per advance. Defaults to 1 when nil.
	StepRate *int
}

// RecordDecl is the description of one record type handed to the resolver: its ordered field
// declarations and its record-level directives. Name identifies the record for caching and
// diagnostics.
type RecordDecl struct {
	Name       string
	Fields     []FieldDecl
	Directives []LayoutDirective
}

// AttributeDescriptor is one resolved vertex attribute.
type AttributeDescriptor struct {
	// Index is the ordinal of the field among the record's stored fields. Consumers use it
	// as the attribute slot (shader location).
	Index int

	// Name is the field name, kept for diagnostics.
	Name string

	Format      VertexFormat
	Offset      int
	BufferIndex int
}

// BufferLayoutDescriptor is the resolved layout of one buffer slot.
type BufferLayoutDescriptor struct {
	Index        int
	Stride       int
	StepFunction StepFunction
	StepRate     int
}

// VertexLayoutDescriptor is the immutable result of resolving a record: attributes in field
// declaration order and buffer layouts in ascending buffer index order. Accessors return
// copies so the descriptor can be shared between goroutines.
type VertexLayoutDescriptor struct {
	attributes []AttributeDescriptor
	layouts    []BufferLayoutDescriptor
}

// Attributes returns a copy of the resolved attributes in field declaration order.
// The result is non-nil, an empty record yields an empty slice.
func (d VertexLayoutDescriptor) Attributes() []AttributeDescriptor {
	out := make([]AttributeDescriptor, len(d.attributes))
	copy(out, d.attributes)
	return out
}

// Layouts returns a copy of the buffer layouts sorted by buffer index.
// The result is non-nil, an empty record yields an empty slice.
func (d VertexLayoutDescriptor) Layouts() []BufferLayoutDescriptor {
	out := make([]BufferLayoutDescriptor, len(d.layouts))
	copy(out, d.layouts)
	return out
}

// Attribute looks up a resolved attribute by field name.
func (d VertexLayoutDescriptor) Attribute(name string) (AttributeDescriptor, bool) {
	for _, a := range d.attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeDescriptor{}, false
}

// Layout looks up the buffer layout for a buffer index.
func (d VertexLayoutDescriptor) Layout(bufferIndex int) (BufferLayoutDescriptor, bool) {
	i, ok := slices.BinarySearchFunc(d.layouts, bufferIndex, func(l BufferLayoutDescriptor, idx int) int {
		return l.Index - idx
	})
	if !ok {
		return BufferLayoutDescriptor{}, false
	}
	return d.layouts[i], true
}

// Empty reports whether the descriptor has neither attributes nor buffer layouts.
func (d VertexLayoutDescriptor) Empty() bool {
	return len(d.attributes) == 0 && len(d.layouts) == 0
}

// Equal reports whether two descriptors describe the same layout.
func (d VertexLayoutDescriptor) Equal(other VertexLayoutDescriptor) bool {
	return slices.Equal(d.attributes, other.attributes) && slices.Equal(d.layouts, other.layouts)
}

// String renders the descriptor in a compact, stable form used by logs and golden tests.
func (d VertexLayoutDescriptor) String() string {
	var sb strings.Builder
	sb.WriteString("attributes[")
	for i, a := range d.attributes {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "{%d %s %s off=%d buf=%d}", a.Index, a.Name, a.Format, a.Offset, a.BufferIndex)
	}
	sb.WriteString("] layouts[")
	for i, l := range d.layouts {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "{%d stride=%d step=%s rate=%d}", l.Index, l.Stride, l.StepFunction, l.StepRate)
	}
	sb.WriteString("]")
	return sb.String()
}
