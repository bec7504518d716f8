// annotations.go defines the annotation types and parser for the Oxy WGSL vertex layout
// annotations. Annotations are single-line WGSL comments prefixed with @oxy: that refine
// how a vertex input struct is turned into a vertex layout: the attribute annotation
// overrides the format or buffer slot of the field below it, and the layout annotation
// attaches a stride, step function or step rate to one buffer slot of the struct below it.
package shader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeAttribute annotates the next field of a vertex input struct. Both
	// arguments are optional. A bare annotation is accepted and requests plain inference.
	//
	// Syntax: //@oxy:attribute [<format>] [buffer=<n>]
	//
	// Examples:
	//   //@oxy:attribute uchar4Normalized
	//   //@oxy:attribute buffer=1
	//   //@oxy:attribute .half2 buffer=2
	AnnotationTypeAttribute AnnotationType = "attribute"

	// AnnotationTypeLayout declares a record-level directive for one buffer slot of the next
	// vertex input struct. The buffer does not need to be used by any field, but then it must
	// carry a stride.
	//
	// Syntax: //@oxy:layout <buffer> [stride=<n>] [step=vertex|instance] [rate=<n>]
	//
	// Example: //@oxy:layout 1 stride=64 step=instance
	AnnotationTypeLayout AnnotationType = "layout"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed (attribute or layout).
	Type AnnotationType

	// Line is the 1-based line number in the original WGSL source where this annotation
	// was found. Used for error reporting.
	Line int

	// Format is the explicit vertex format of an attribute annotation, or "" when absent.
	Format string

	// BufferIndex is the buffer slot. Optional for attribute annotations, always set for
	// layout annotations.
	BufferIndex *int

	// Stride is the explicit stride of a layout annotation.
	Stride *int

	// StepFunction is the step function of a layout annotation.
	StepFunction vertex.StepFunction

	// StepRate is the step rate of a layout annotation.
	StepRate *int
}

// VertexAnnotation converts an attribute annotation into the field annotation consumed by
// the layout resolver.
//
// Returns:
//   - vertex.Annotation: the field annotation
func (a *Annotation) VertexAnnotation() vertex.Annotation {
	return vertex.Annotation{
		Format:      a.Format,
		BufferIndex: a.BufferIndex,
	}
}

// LayoutDirective converts a layout annotation into the record-level directive consumed by
// the layout resolver.
//
// Returns:
//   - vertex.LayoutDirective: the buffer directive
func (a *Annotation) LayoutDirective() vertex.LayoutDirective {
	d := vertex.LayoutDirective{
		Stride:       a.Stride,
		StepFunction: a.StepFunction,
		StepRate:     a.StepRate,
	}
	if a.BufferIndex != nil {
		d.BufferIndex = *a.BufferIndex
	}
	return d
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix. Returns
// a populated Annotation for valid annotations, or an error describing the problem for
// malformed annotations with correct prefix but invalid syntax or unknown arguments.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	_, comment, ok := strings.Cut(line, "//")
	if !ok {
		return nil, nil
	}
	_, after, ok := strings.Cut(strings.TrimSpace(comment), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeAttribute:
		return parseAttributeAnnotation(args[1:], lineNum)
	case AnnotationTypeLayout:
		return parseLayoutAnnotation(args[1:], lineNum)
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

func parseAttributeAnnotation(args []string, lineNum int) (*Annotation, error) {
	a := &Annotation{Type: AnnotationTypeAttribute, Line: lineNum}
	for _, arg := range args {
		key, value, isOption := strings.Cut(arg, "=")
		if !isOption {
			if a.Format != "" {
				return nil, fmt.Errorf("line %d: @oxy attribute annotation has more than one format", lineNum)
			}
			if _, ok := vertex.ParseVertexFormat(arg); !ok {
				return nil, fmt.Errorf("line %d: unknown vertex format %q in @oxy attribute annotation", lineNum, arg)
			}
			a.Format = arg
			continue
		}
		if key != "buffer" {
			return nil, fmt.Errorf("line %d: unknown option %q in @oxy attribute annotation", lineNum, key)
		}
		idx, err := parseNonNegative(value)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid buffer index %q in @oxy attribute annotation: %v", lineNum, value, err)
		}
		a.BufferIndex = &idx
	}
	return a, nil
}

func parseLayoutAnnotation(args []string, lineNum int) (*Annotation, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: @oxy layout annotation requires a buffer index", lineNum)
	}
	idx, err := parseNonNegative(args[0])
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid buffer index %q in @oxy layout annotation: %v", lineNum, args[0], err)
	}
	a := &Annotation{Type: AnnotationTypeLayout, Line: lineNum, BufferIndex: &idx}

	for _, arg := range args[1:] {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key=value in @oxy layout annotation, got %q", lineNum, arg)
		}
		switch key {
		case "stride":
			stride, err := parseNonNegative(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid stride %q in @oxy layout annotation: %v", lineNum, value, err)
			}
			a.Stride = &stride
		case "step":
			step, ok := vertex.ParseStepFunction(value)
			if !ok {
				return nil, fmt.Errorf("line %d: unknown step function %q in @oxy layout annotation", lineNum, value)
			}
			a.StepFunction = step
		case "rate":
			rate, err := strconv.Atoi(value)
			if err != nil || rate < 1 {
				return nil, fmt.Errorf("line %d: step rate %q in @oxy layout annotation must be a positive integer", lineNum, value)
			}
			a.StepRate = &rate
		default:
			return nil, fmt.Errorf("line %d: unknown option %q in @oxy layout annotation", lineNum, key)
		}
	}
	return a, nil
}

func parseNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}
