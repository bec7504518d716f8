package vertex

import "fmt"

// MalformedFieldError reports a field whose declared type could not be determined or whose
// vertex annotation could not be parsed.
type MalformedFieldError struct {
	Field  string
	Reason string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed field %q: %s", e.Field, e.Reason)
}

// FormatMismatchError reports an explicit format that disagrees with the field's declared type.
// It is never resolved by preferring one side.
type FormatMismatchError struct {
	Field    string
	Declared TypeTag
	Explicit VertexFormat
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("field %q: explicit format %s (%d components) does not match declared type %s (%d components)",
		e.Field, e.Explicit, e.Explicit.Components(), e.Declared, e.Declared.Components())
}

// UnresolvedFormatError reports a field with no explicit format whose declared type has no
// default format. The fix is an explicit annotation.
type UnresolvedFormatError struct {
	Field    string
	Declared TypeTag
}

func (e *UnresolvedFormatError) Error() string {
	return fmt.Sprintf("field %q: cannot infer a vertex format for type %s, add an explicit format", e.Field, e.Declared)
}

// MissingStrideError reports a buffer index that no field contributes to and whose directive
// carries no stride.
type MissingStrideError struct {
	BufferIndex int
}

func (e *MissingStrideError) Error() string {
	return fmt.Sprintf("buffer %d: no attributes and no explicit stride", e.BufferIndex)
}

// InvalidDirectiveError reports a record-level layout directive that cannot be honored.
type InvalidDirectiveError struct {
	BufferIndex int
	Reason      string
}

func (e *InvalidDirectiveError) Error() string {
	return fmt.Sprintf("layout directive for buffer %d: %s", e.BufferIndex, e.Reason)
}

// ResolveError ties a resolution failure to the record it occurred in.
// Use errors.As to reach the underlying typed error.
type ResolveError struct {
	Record string
	Err    error
}

func (e *ResolveError) Error() string {
	if e.Record == "" {
		return "vertex layout: " + e.Err.Error()
	}
	return fmt.Sprintf("vertex layout %s: %v", e.Record, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
