package vertex

import (
	"fmt"
	"strings"
)

// FieldStorage distinguishes stored record members from computed ones.
type FieldStorage int

const (
	// FieldStorageStored is a member that occupies memory in the record. The default.
	FieldStorageStored FieldStorage = iota

	// FieldStorageComputed is a member with no storage. It never becomes an attribute.
	FieldStorageComputed
)

// Annotation is the vertex attribute annotation attached to a field. A bare annotation (both
// members empty) requests pure inference.
type Annotation struct {
	// Format is the positional format override by case name, e.g. "float4". Empty when absent.
	Format string

	// BufferIndex selects the buffer slot. Nil means buffer 0.
	BufferIndex *int
}

// FieldDecl is one member of a record as the host source declares it.
type FieldDecl struct {
	Name        string
	Type        string
	Storage     FieldStorage
	Annotations []Annotation
}

// FieldSpec is a stored field packaged for format resolution. Format is VertexFormatInvalid
// until resolution assigns one.
type FieldSpec struct {
	Name           string
	DeclaredType   TypeTag
	ExplicitFormat *VertexFormat
	BufferIndex    int
	Format         VertexFormat
}

// Int returns a pointer to v, for optional annotation and directive members.
func Int(v int) *int {
	return &v
}

// introspectFields converts field declarations into FieldSpecs in declaration order, skipping
// members without storage. It does not resolve formats.
//
// Parameters:
//   - fields: the record's field declarations in source order
//   - maxBufferIndex: the highest permitted buffer index, or a negative value for no limit
//
// Returns:
//   - []FieldSpec: one spec per stored field
//   - error: a *MalformedFieldError naming the first offending field
func introspectFields(fields []FieldDecl, maxBufferIndex int) ([]FieldSpec, error) {
	specs := make([]FieldSpec, 0, len(fields))
	for _, fd := range fields {
		if fd.Storage != FieldStorageStored {
			continue
		}
		spec, err := introspectField(fd, maxBufferIndex)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func introspectField(fd FieldDecl, maxBufferIndex int) (FieldSpec, error) {
	name := strings.TrimSpace(fd.Name)
	if name == "" {
		return FieldSpec{}, &MalformedFieldError{Field: fd.Name, Reason: "missing field name"}
	}
	typ := strings.TrimSpace(fd.Type)
	if typ == "" {
		return FieldSpec{}, &MalformedFieldError{Field: name, Reason: "missing declared type"}
	}

	spec := FieldSpec{
		Name:         name,
		DeclaredType: TypeTag(typ),
	}

	switch len(fd.Annotations) {
	case 0:
		return spec, nil
	case 1:
	default:
		return FieldSpec{}, &MalformedFieldError{Field: name, Reason: fmt.Sprintf("%d vertex annotations, expected at most one", len(fd.Annotations))}
	}

	ann := fd.Annotations[0]
	if ann.Format != "" {
		f, ok := ParseVertexFormat(ann.Format)
		if !ok {
			return FieldSpec{}, &MalformedFieldError{Field: name, Reason: fmt.Sprintf("unknown vertex format %q", ann.Format)}
		}
		spec.ExplicitFormat = &f
	}
	if ann.BufferIndex != nil {
		idx := *ann.BufferIndex
		if idx < 0 {
			return FieldSpec{}, &MalformedFieldError{Field: name, Reason: fmt.Sprintf("negative buffer index %d", idx)}
		}
		if maxBufferIndex >= 0 && idx > maxBufferIndex {
			return FieldSpec{}, &MalformedFieldError{Field: name, Reason: fmt.Sprintf("buffer index %d exceeds limit %d", idx, maxBufferIndex)}
		}
		spec.BufferIndex = idx
	}
	return spec, nil
}

// resolveFormat assigns the field's format: the explicit format when present and compatible
// with the declared type, otherwise the inferred format.
func resolveFormat(spec *FieldSpec) error {
	if spec.ExplicitFormat != nil {
		if !Compatible(spec.DeclaredType, *spec.ExplicitFormat) {
			return &FormatMismatchError{Field: spec.Name, Declared: spec.DeclaredType, Explicit: *spec.ExplicitFormat}
		}
		spec.Format = *spec.ExplicitFormat
		return nil
	}
	f, ok := Infer(spec.DeclaredType)
	if !ok {
		return &UnresolvedFormatError{Field: spec.Name, Declared: spec.DeclaredType}
	}
	spec.Format = f
	return nil
}
