package loader

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
)

// isGLB reports whether data starts with the GLB magic number.
func isGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic
}

// parseGLTFDocument parses a glTF JSON document and checks that every index it holds is
// in range.
func parseGLTFDocument(data []byte) (*gltfDocument, error) {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, errInvalidGLTFVersion
	}

	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// parseGLBDocument extracts the JSON chunk of a GLB container and parses it. The BIN chunk
// is skipped, vertex layouts depend on the accessor metadata only.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func parseGLBDocument(data []byte) (*gltfDocument, error) {
	if len(data) < 12 {
		return nil, errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read GLB header: %w", err)
	}

	if header.Magic != gltfGLBMagic {
		return nil, errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return nil, errInvalidGLBVersion
	}

	var jsonData []byte
	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}

		if chunkHeader.ChunkType != gltfGLBChunkJSON {
			if _, err := r.Seek(int64(chunkHeader.ChunkLength), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("failed to skip chunk: %w", err)
			}
			continue
		}

		if int64(chunkHeader.ChunkLength) > int64(r.Len()) {
			return nil, fmt.Errorf("JSON chunk length %d exceeds the %d bytes left in the file", chunkHeader.ChunkLength, r.Len())
		}
		jsonData = make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, jsonData); err != nil {
			return nil, fmt.Errorf("failed to read chunk data: %w", err)
		}
		// The JSON chunk is the first chunk and the only one needed.
		break
	}

	if jsonData == nil {
		return nil, errMissingJSONChunk
	}
	return parseGLTFDocument(jsonData)
}

// validateDocument checks accessor and buffer view references so record building can index
// without bounds checks.
func validateDocument(doc *gltfDocument) error {
	for i, bv := range doc.BufferViews {
		if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
			return fmt.Errorf("bufferView %d: buffer index %d out of range", i, bv.Buffer)
		}
		if bv.ByteOffset+bv.ByteLength > doc.Buffers[bv.Buffer].ByteLength {
			return fmt.Errorf("bufferView %d: range [%d, %d) exceeds buffer %d of %d bytes",
				i, bv.ByteOffset, bv.ByteOffset+bv.ByteLength, bv.Buffer, doc.Buffers[bv.Buffer].ByteLength)
		}
		if bv.ByteStride != nil && (*bv.ByteStride < 4 || *bv.ByteStride > 252 || *bv.ByteStride%4 != 0) {
			return fmt.Errorf("bufferView %d: byteStride %d must be a multiple of 4 in [4, 252]", i, *bv.ByteStride)
		}
	}
	for i, acc := range doc.Accessors {
		if acc.BufferView == nil {
			continue
		}
		if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
			return fmt.Errorf("accessor %d: bufferView index %d out of range", i, *acc.BufferView)
		}
		elementSize := gltfComponentTypeSize(acc.ComponentType) * gltfAccessorTypeComponentCount(acc.Type)
		if bv := doc.BufferViews[*acc.BufferView]; elementSize > 0 && acc.ByteOffset+elementSize > bv.ByteLength {
			return fmt.Errorf("accessor %d: first element at byte %d overruns bufferView %d of %d bytes",
				i, acc.ByteOffset, *acc.BufferView, bv.ByteLength)
		}
	}
	for m, mesh := range doc.Meshes {
		for p, prim := range mesh.Primitives {
			for semantic, idx := range prim.Attributes {
				if idx < 0 || idx >= len(doc.Accessors) {
					return fmt.Errorf("mesh %d primitive %d: attribute %s accessor index %d out of range", m, p, semantic, idx)
				}
			}
		}
	}
	return nil
}

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components of a vertex attribute
// accessor type. Matrix types are not vertex attributes and return 0.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	default:
		return 0
	}
}
