package shader

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name        string
	typeName    string
	location    int
	isBuiltin   bool
	line        int
	offset      int
	annotations []*Annotation
}

// parsedStruct represents a WGSL struct block extracted during parsing, together with the
// @oxy:layout annotations found between the previous struct and this one
type parsedStruct struct {
	name       string
	line       int
	fields     []parsedField
	directives []*Annotation
}

// positionedAnnotation is an annotation paired with its position in the source. lineStart is
// the byte offset of the line the annotation is on, comment the byte offset of its "//".
type positionedAnnotation struct {
	annotation *Annotation
	lineStart  int
	comment    int
}
