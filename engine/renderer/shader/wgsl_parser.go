package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
)

// wgslTypeTagMap maps WGSL vertex input type names to the declared type tags the layout
// resolver infers formats from. Types outside this map (bool, matrices, arrays) keep their
// WGSL spelling and need an explicit @oxy:attribute format.
var wgslTypeTagMap = map[string]vertex.TypeTag{
	"f32":       "f32",
	"f16":       "f16",
	"i32":       "i32",
	"u32":       "u32",
	"vec2f":     "vec2f32",
	"vec2<f32>": "vec2f32",
	"vec3f":     "vec3f32",
	"vec3<f32>": "vec3f32",
	"vec4f":     "vec4f32",
	"vec4<f32>": "vec4f32",
	"vec2h":     "vec2f16",
	"vec2<f16>": "vec2f16",
	"vec3h":     "vec3f16",
	"vec3<f16>": "vec3f16",
	"vec4h":     "vec4f16",
	"vec4<f16>": "vec4f16",
	"vec2i":     "vec2i32",
	"vec2<i32>": "vec2i32",
	"vec3i":     "vec3i32",
	"vec3<i32>": "vec3i32",
	"vec4i":     "vec4i32",
	"vec4<i32>": "vec4i32",
	"vec2u":     "vec2u32",
	"vec2<u32>": "vec2u32",
	"vec3u":     "vec3u32",
	"vec3<u32>": "vec3u32",
	"vec4u":     "vec4u32",
	"vec4<u32>": "vec4u32",
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\(\s*(\d+)\s*\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\s*\w+\s*\)`)

	// fieldRegex matches a struct field: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`(?s)(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// computeEntryRegex matches @compute functions and captures the entry point name
	computeEntryRegex = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)
)

// wgslTypeTag normalizes a WGSL type name and maps it to a declared type tag.
//
// Parameters:
//   - typeName: the WGSL type as written in the struct, e.g. "vec3<f32>" or "vec4h"
//
// Returns:
//   - vertex.TypeTag: the type tag, or the whitespace-free WGSL type if it has no mapping
func wgslTypeTag(typeName string) vertex.TypeTag {
	normalized := strings.Join(strings.Fields(typeName), "")
	if tag, ok := wgslTypeTagMap[normalized]; ok {
		return tag
	}
	return vertex.TypeTag(normalized)
}

// parseVertexRecords extracts one record declaration per vertex input struct in the WGSL
// source. A vertex input struct has at least one @location field and no @builtin fields.
// Each field's @location must equal its position in the struct, since the resolved attribute
// index is the field's ordinal. @oxy:attribute and @oxy:layout annotations become field
// annotations and record directives.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []vertex.RecordDecl: the records in source order
//   - error: a line-numbered error for a malformed annotation or an invalid vertex input struct
func parseVertexRecords(source string) ([]vertex.RecordDecl, error) {
	structs, err := parseStructBlocks(source)
	if err != nil {
		return nil, err
	}

	records := make([]vertex.RecordDecl, 0, len(structs))
	for _, ps := range structs {
		if !isVertexInputStruct(ps) {
			if a := firstAnnotation(ps); a != nil {
				return nil, fmt.Errorf("line %d: @oxy %s annotation on struct %s, which is not a vertex input struct", a.Line, a.Type, ps.name)
			}
			continue
		}
		record, err := buildVertexRecord(ps)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// buildVertexRecord converts a parsed vertex input struct into a record declaration.
func buildVertexRecord(ps parsedStruct) (vertex.RecordDecl, error) {
	record := vertex.RecordDecl{
		Name:   ps.name,
		Fields: make([]vertex.FieldDecl, 0, len(ps.fields)),
	}
	for i, f := range ps.fields {
		if f.location < 0 {
			return vertex.RecordDecl{}, fmt.Errorf("line %d: field %s of vertex input struct %s has no @location", f.line, f.name, ps.name)
		}
		if f.location != i {
			return vertex.RecordDecl{}, fmt.Errorf("line %d: field %s of vertex input struct %s has @location(%d), expected @location(%d) to match its position",
				f.line, f.name, ps.name, f.location, i)
		}
		fd := vertex.FieldDecl{
			Name: f.name,
			Type: string(wgslTypeTag(f.typeName)),
		}
		for _, a := range f.annotations {
			fd.Annotations = append(fd.Annotations, a.VertexAnnotation())
		}
		record.Fields = append(record.Fields, fd)
	}
	for _, a := range ps.directives {
		record.Directives = append(record.Directives, a.LayoutDirective())
	}
	return record, nil
}

// parseEntryPoint extracts the entry point function name for the given shader type
// from WGSL source. Returns an empty string if no matching entry point annotation is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - shaderType: the shader type to search for (ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute)
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, shaderType ShaderType) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	case ShaderTypeCompute:
		re = computeEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the WGSL source, parses their fields,
// and attaches @oxy annotations: layout annotations to the next struct, attribute annotations
// to the next field of the struct they appear in.
//
// Parameters:
//   - source: raw WGSL source
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
//   - error: a line-numbered error for a malformed or misplaced annotation
func parseStructBlocks(source string) ([]parsedStruct, error) {
	masked, annotations, err := extractAnnotations(stripBlockComments(source))
	if err != nil {
		return nil, err
	}

	matches := structBlockRegex.FindAllStringSubmatchIndex(masked, -1)
	structs := make([]parsedStruct, 0, len(matches))
	next := 0

	for _, m := range matches {
		start, end := m[0], m[1]
		ps := parsedStruct{
			name:   masked[m[2]:m[3]],
			line:   lineAt(masked, start),
			fields: parseStructFields(masked, m[4], m[5]),
		}

		for ; next < len(annotations) && annotations[next].comment < start; next++ {
			a := annotations[next].annotation
			if a.Type != AnnotationTypeLayout {
				return nil, fmt.Errorf("line %d: @oxy %s annotation outside of a struct", a.Line, a.Type)
			}
			ps.directives = append(ps.directives, a)
		}

		field := 0
		for ; next < len(annotations) && annotations[next].comment < end; next++ {
			pa := annotations[next]
			if pa.annotation.Type != AnnotationTypeAttribute {
				return nil, fmt.Errorf("line %d: @oxy %s annotation inside struct %s", pa.annotation.Line, pa.annotation.Type, ps.name)
			}
			for field < len(ps.fields) && ps.fields[field].offset < pa.lineStart {
				field++
			}
			if field == len(ps.fields) {
				return nil, fmt.Errorf("line %d: @oxy attribute annotation in struct %s is not followed by a field", pa.annotation.Line, ps.name)
			}
			ps.fields[field].annotations = append(ps.fields[field].annotations, pa.annotation)
		}

		structs = append(structs, ps)
	}

	if next < len(annotations) {
		a := annotations[next].annotation
		return nil, fmt.Errorf("line %d: @oxy %s annotation is not followed by a struct", a.Line, a.Type)
	}
	return structs, nil
}

// parseStructFields parses the body of a struct block into individual fields,
// extracting @location and @builtin attributes along with the field name and type
//
// Parameters:
//   - source: the comment-free WGSL source
//   - bodyStart: the offset of the first byte after the struct's {
//   - bodyEnd: the offset of the struct's }
//
// Returns:
//   - []parsedField: all fields found in the struct body
func parseStructFields(source string, bodyStart, bodyEnd int) []parsedField {
	body := source[bodyStart:bodyEnd]
	spans := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(spans))

	for _, span := range spans {
		raw := body[span[0]:span[1]]
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		offset := bodyStart + span[0] + len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
		field := parsedField{
			offset: offset,
			line:   lineAt(source, offset),
		}

		// check for @builtin
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}

		// check for @location(N)
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			loc, err := strconv.Atoi(locMatch[1])
			if err == nil {
				field.location = loc
			}
		} else {
			field.location = -1
		}

		// extract field name and type
		if fm := fieldRegex.FindStringSubmatch(line); fm != nil {
			field.name = fm[1]
			field.typeName = strings.TrimSpace(fm[2])
		} else {
			continue
		}

		fields = append(fields, field)
	}

	return fields
}

// extractAnnotations parses every @oxy annotation in the source and blanks out all line
// comments, keeping byte offsets and line numbers intact.
//
// Parameters:
//   - source: WGSL source with block comments already blanked
//
// Returns:
//   - string: the source with line comments replaced by spaces
//   - []positionedAnnotation: the annotations in source order
//   - error: the first malformed annotation
func extractAnnotations(source string) (string, []positionedAnnotation, error) {
	lines := strings.Split(source, "\n")
	annotations := make([]positionedAnnotation, 0)
	offset := 0

	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			a, err := parseAnnotation(line[idx:], i+1)
			if err != nil {
				return "", nil, err
			}
			if a != nil {
				annotations = append(annotations, positionedAnnotation{
					annotation: a,
					lineStart:  offset,
					comment:    offset + idx,
				})
			}
			lines[i] = line[:idx] + strings.Repeat(" ", len(line)-idx)
		}
		offset += len(line) + 1
	}

	return strings.Join(lines, "\n"), annotations, nil
}

// lineAt returns the 1-based line number of a byte offset.
func lineAt(source string, offset int) int {
	return strings.Count(source[:offset], "\n") + 1
}

func firstAnnotation(ps parsedStruct) *Annotation {
	if len(ps.directives) > 0 {
		return ps.directives[0]
	}
	for _, f := range ps.fields {
		if len(f.annotations) > 0 {
			return f.annotations[0]
		}
	}
	return nil
}
