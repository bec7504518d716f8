package vertex

import (
	"fmt"
	"slices"
)

// ResolveLayout resolves a record into its vertex layout descriptor without caching or logging.
// Fields are introspected, each field's format is resolved explicit-first with inference as
// the fallback, and the attributes are packed per buffer index. Any failure aborts the whole
// record and is returned as a *ResolveError.
//
// Parameters:
//   - record: the record declaration
//
// Returns:
//   - VertexLayoutDescriptor: the immutable descriptor
//   - error: a *ResolveError wrapping one of the typed resolution errors
func ResolveLayout(record RecordDecl) (VertexLayoutDescriptor, error) {
	return resolveLayout(record, -1)
}

func resolveLayout(record RecordDecl, maxBufferIndex int) (VertexLayoutDescriptor, error) {
	fail := func(err error) (VertexLayoutDescriptor, error) {
		return VertexLayoutDescriptor{}, &ResolveError{Record: record.Name, Err: err}
	}

	directives, err := indexDirectives(record.Directives, maxBufferIndex)
	if err != nil {
		return fail(err)
	}

	specs, err := introspectFields(record.Fields, maxBufferIndex)
	if err != nil {
		return fail(err)
	}
	for i := range specs {
		if err := resolveFormat(&specs[i]); err != nil {
			return fail(err)
		}
	}

	desc, err := packLayout(specs, directives)
	if err != nil {
		return fail(err)
	}
	return desc, nil
}

// indexDirectives validates directives and keys them by buffer index.
func indexDirectives(directives []LayoutDirective, maxBufferIndex int) (map[int]LayoutDirective, error) {
	out := make(map[int]LayoutDirective, len(directives))
	for _, d := range directives {
		switch {
		case d.BufferIndex < 0:
			return nil, &InvalidDirectiveError{BufferIndex: d.BufferIndex, Reason: "negative buffer index"}
		case maxBufferIndex >= 0 && d.BufferIndex > maxBufferIndex:
			return nil, &InvalidDirectiveError{BufferIndex: d.BufferIndex, Reason: fmt.Sprintf("buffer index exceeds limit %d", maxBufferIndex)}
		case d.Stride != nil && *d.Stride < 0:
			return nil, &InvalidDirectiveError{BufferIndex: d.BufferIndex, Reason: fmt.Sprintf("negative stride %d", *d.Stride)}
		case d.StepRate != nil && *d.StepRate < 1:
			return nil, &InvalidDirectiveError{BufferIndex: d.BufferIndex, Reason: fmt.Sprintf("step rate %d, must be at least 1", *d.StepRate)}
		case d.StepFunction < StepFunctionUnspecified || d.StepFunction > StepFunctionPerInstance:
			return nil, &InvalidDirectiveError{BufferIndex: d.BufferIndex, Reason: fmt.Sprintf("unknown step function %s", d.StepFunction)}
		}
		if _, dup := out[d.BufferIndex]; dup {
			return nil, &InvalidDirectiveError{BufferIndex: d.BufferIndex, Reason: "duplicate directive"}
		}
		out[d.BufferIndex] = d
	}
	return out, nil
}

// packLayout assigns offsets in declaration order with one running offset per buffer index,
// then emits one buffer layout per buffer index seen in fields or directives, sorted by index.
func packLayout(specs []FieldSpec, directives map[int]LayoutDirective) (VertexLayoutDescriptor, error) {
	offsets := make(map[int]int)
	attrs := make([]AttributeDescriptor, 0, len(specs))
	for i, spec := range specs {
		offset := offsets[spec.BufferIndex]
		attrs = append(attrs, AttributeDescriptor{
			Index:       i,
			Name:        spec.Name,
			Format:      spec.Format,
			Offset:      offset,
			BufferIndex: spec.BufferIndex,
		})
		offsets[spec.BufferIndex] = offset + spec.Format.Size()
	}

	indices := make([]int, 0, len(offsets)+len(directives))
	for idx := range offsets {
		indices = append(indices, idx)
	}
	for idx := range directives {
		if _, used := offsets[idx]; !used {
			indices = append(indices, idx)
		}
	}
	slices.Sort(indices)

	layouts := make([]BufferLayoutDescriptor, 0, len(indices))
	for _, idx := range indices {
		packed, used := offsets[idx]
		layout := BufferLayoutDescriptor{
			Index:    idx,
			Stride:   packed,
			StepRate: 1,
		}
		if d, ok := directives[idx]; ok {
			switch {
			case d.Stride != nil:
				layout.Stride = *d.Stride
			case !used:
				return VertexLayoutDescriptor{}, &MissingStrideError{BufferIndex: idx}
			}
			layout.StepFunction = d.StepFunction
			if d.StepRate != nil {
				layout.StepRate = *d.StepRate
			}
		}
		layouts = append(layouts, layout)
	}

	return VertexLayoutDescriptor{attributes: attrs, layouts: layouts}, nil
}
