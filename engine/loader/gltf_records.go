package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
)

// gltfScalars maps accessor component types to declared scalars, unnormalized and normalized.
// UNSIGNED_INT and FLOAT have no normalized form.
var gltfScalars = map[int][2]vertex.Scalar{
	gltfComponentTypeByte:          {vertex.ScalarI8, vertex.ScalarI8Norm},
	gltfComponentTypeUnsignedByte:  {vertex.ScalarU8, vertex.ScalarU8Norm},
	gltfComponentTypeShort:         {vertex.ScalarI16, vertex.ScalarI16Norm},
	gltfComponentTypeUnsignedShort: {vertex.ScalarU16, vertex.ScalarU16Norm},
	gltfComponentTypeUnsignedInt:   {vertex.ScalarU32, ""},
	gltfComponentTypeFloat:         {vertex.ScalarF32, ""},
}

// ParseGLTF reads a glTF 2.0 JSON document and describes every mesh primitive as a vertex
// input record.
//
// Parameters:
//   - r: reader containing the glTF JSON
//
// Returns:
//   - []vertex.RecordDecl: one record per primitive, in mesh then primitive order
//   - error: error if the document is malformed or an attribute has no vertex type
func ParseGLTF(r io.Reader) ([]vertex.RecordDecl, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	doc, err := parseGLTFDocument(data)
	if err != nil {
		return nil, err
	}
	return buildVertexRecords(doc)
}

// ParseGLB is ParseGLTF for the binary GLB container.
//
// Parameters:
//   - r: reader containing the GLB file
//
// Returns:
//   - []vertex.RecordDecl: one record per primitive, in mesh then primitive order
//   - error: error if the container or document is malformed
func ParseGLB(r io.Reader) ([]vertex.RecordDecl, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	doc, err := parseGLBDocument(data)
	if err != nil {
		return nil, err
	}
	return buildVertexRecords(doc)
}

// LoadVertexRecords reads a .gltf or .glb file. The container is detected from the GLB magic
// number, so a GLB with the wrong extension still loads.
//
// Parameters:
//   - path: path to the glTF or GLB file
//
// Returns:
//   - []vertex.RecordDecl: one record per primitive, in mesh then primitive order
//   - error: error if reading or parsing fails
func LoadVertexRecords(path string) ([]vertex.RecordDecl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if isGLB(data) || strings.EqualFold(filepath.Ext(path), ".glb") {
		return ParseGLB(bytes.NewReader(data))
	}
	return ParseGLTF(bytes.NewReader(data))
}

// primitiveAttribute is one attribute of a primitive with its accessor resolved.
type primitiveAttribute struct {
	semantic string
	accessor int
	acc      gltfAccessor
}

// buildVertexRecords describes each primitive as a record named "<mesh>#<primitive>". Meshes
// without a name are called "mesh<index>", and a name used by more than one mesh gets the
// mesh index appended.
func buildVertexRecords(doc *gltfDocument) ([]vertex.RecordDecl, error) {
	nameCount := make(map[string]int, len(doc.Meshes))
	for _, mesh := range doc.Meshes {
		nameCount[mesh.Name]++
	}

	var records []vertex.RecordDecl
	for m, mesh := range doc.Meshes {
		label := mesh.Name
		switch {
		case label == "":
			label = fmt.Sprintf("mesh%d", m)
		case nameCount[label] > 1:
			label = fmt.Sprintf("%s.%d", label, m)
		}
		for p, prim := range mesh.Primitives {
			name := fmt.Sprintf("%s#%d", label, p)
			record, err := buildPrimitiveRecord(doc, name, prim)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// buildPrimitiveRecord orders the attributes by buffer view then byte offset and assigns
// buffer indices. An interleaved view (one with a byteStride) becomes one buffer carrying a
// stride directive. Every accessor in a view without a byteStride is a tightly packed block
// of its own and gets its own buffer.
func buildPrimitiveRecord(doc *gltfDocument, name string, prim gltfPrimitive) (vertex.RecordDecl, error) {
	attrs := make([]primitiveAttribute, 0, len(prim.Attributes))
	for semantic, idx := range prim.Attributes {
		acc := doc.Accessors[idx]
		if acc.BufferView == nil {
			return vertex.RecordDecl{}, fmt.Errorf("attribute %s: accessor %d has no bufferView", semantic, idx)
		}
		attrs = append(attrs, primitiveAttribute{semantic: semantic, accessor: idx, acc: acc})
	}
	slices.SortFunc(attrs, func(a, b primitiveAttribute) int {
		if c := *a.acc.BufferView - *b.acc.BufferView; c != 0 {
			return c
		}
		if c := a.acc.ByteOffset - b.acc.ByteOffset; c != 0 {
			return c
		}
		return strings.Compare(a.semantic, b.semantic)
	})

	record := vertex.RecordDecl{
		Name:   name,
		Fields: make([]vertex.FieldDecl, 0, len(attrs)),
	}

	// interleaved tracks the open buffer of each strided view
	type interleavedBuffer struct {
		index, base, next int
	}
	interleaved := make(map[int]*interleavedBuffer)
	nextBuffer := 0

	for _, a := range attrs {
		tag, err := accessorTypeTag(a.acc)
		if err != nil {
			return vertex.RecordDecl{}, fmt.Errorf("attribute %s: %w", a.semantic, err)
		}

		view := *a.acc.BufferView
		bv := doc.BufferViews[view]
		bufferIndex := nextBuffer

		if bv.ByteStride == nil {
			nextBuffer++
		} else {
			buf, ok := interleaved[view]
			if !ok {
				buf = &interleavedBuffer{index: nextBuffer, base: a.acc.ByteOffset, next: a.acc.ByteOffset}
				interleaved[view] = buf
				nextBuffer++
				record.Directives = append(record.Directives, vertex.LayoutDirective{
					BufferIndex: buf.index,
					Stride:      vertex.Int(*bv.ByteStride),
				})
			}
			if a.acc.ByteOffset != buf.next {
				return vertex.RecordDecl{}, fmt.Errorf(
					"attribute %s: accessor %d starts at byte %d of bufferView %d, the packed layout places it at byte %d",
					a.semantic, a.accessor, a.acc.ByteOffset-buf.base, view, buf.next-buf.base)
			}
			buf.next += tag.Size()
			if buf.next-buf.base > *bv.ByteStride {
				return vertex.RecordDecl{}, fmt.Errorf("attribute %s: bufferView %d byteStride %d is smaller than its %d byte element",
					a.semantic, view, *bv.ByteStride, buf.next-buf.base)
			}
			bufferIndex = buf.index
		}

		record.Fields = append(record.Fields, vertex.FieldDecl{
			Name:        a.semantic,
			Type:        string(tag),
			Annotations: []vertex.Annotation{{BufferIndex: vertex.Int(bufferIndex)}},
		})
	}
	return record, nil
}

// accessorTypeTag maps an accessor's component type, element type and normalized flag onto a
// declared type tag.
func accessorTypeTag(acc gltfAccessor) (vertex.TypeTag, error) {
	scalars, ok := gltfScalars[acc.ComponentType]
	if !ok {
		return "", fmt.Errorf("unknown component type %d", acc.ComponentType)
	}
	n := gltfAccessorTypeComponentCount(acc.Type)
	if n == 0 {
		return "", fmt.Errorf("accessor type %s is not a vertex attribute type", acc.Type)
	}

	scalar := scalars[0]
	if acc.Normalized {
		if scalars[1] == "" {
			return "", fmt.Errorf("component type %d cannot be normalized", acc.ComponentType)
		}
		scalar = scalars[1]
	}
	return vertex.VectorTag(scalar, n), nil
}
