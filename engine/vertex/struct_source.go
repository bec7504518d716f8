package vertex

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// structTagKey is the struct tag read by RecordFromType.
//
//	type Vertex struct {
//	    Position [3]float32                            // inferred float3, buffer 0
//	    Color    [4]uint8  `vertex:"uchar4Normalized"` // explicit format
//	    Specular [4]float32 `vertex:"buffer=1"`        // inferred float4, buffer 1
//	    scratch  float32                               // unexported, skipped
//	    Debug    string    `vertex:"-"`               // skipped
//	}
const structTagKey = "vertex"

// LayoutDirectiveProvider is implemented by record types that carry record-level layout
// directives, such as an explicit stride or per-instance stepping for a buffer.
type LayoutDirectiveProvider interface {
	VertexLayoutDirectives() []LayoutDirective
}

var layoutDirectiveProviderType = reflect.TypeFor[LayoutDirectiveProvider]()

// RecordOf describes the struct type T as a RecordDecl.
func RecordOf[T any]() (RecordDecl, error) {
	return RecordFromType(reflect.TypeFor[T]())
}

// RecordFromType describes a Go struct type as a RecordDecl. Exported fields become stored
// fields in declaration order, anonymous embedded structs are flattened in place, and
// unexported fields or fields tagged `vertex:"-"` are skipped. Directives come from
// LayoutDirectiveProvider when the type (or a pointer to it) implements it.
//
// Parameters:
//   - t: a struct type or a pointer to one
//
// Returns:
//   - RecordDecl: the record declaration named after the type's package path and name
//   - error: a *MalformedFieldError for an unparseable tag, or an error if t is not a struct
func RecordFromType(t reflect.Type) (RecordDecl, error) {
	if t == nil {
		return RecordDecl{}, fmt.Errorf("vertex: nil record type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return RecordDecl{}, fmt.Errorf("vertex: record type %s is not a struct", t)
	}

	fields, err := structFields(t)
	if err != nil {
		return RecordDecl{}, err
	}

	record := RecordDecl{
		Name:   recordName(t),
		Fields: fields,
	}
	if reflect.PointerTo(t).Implements(layoutDirectiveProviderType) {
		provider := reflect.New(t).Interface().(LayoutDirectiveProvider)
		record.Directives = provider.VertexLayoutDirectives()
	}
	return record, nil
}

// recordNames gives every described type a name no other type uses. Function-local types share
// their package path and name, so later ones get a "#2", "#3" suffix in order of first use.
var recordNames = struct {
	sync.Mutex
	byType map[reflect.Type]string
	byName map[string]reflect.Type
}{
	byType: make(map[reflect.Type]string),
	byName: make(map[string]reflect.Type),
}

func recordName(t reflect.Type) string {
	recordNames.Lock()
	defer recordNames.Unlock()
	if name, ok := recordNames.byType[t]; ok {
		return name
	}

	base := typeName(t)
	name := base
	for i := 2; ; i++ {
		if _, taken := recordNames.byName[name]; !taken {
			break
		}
		name = base + "#" + strconv.Itoa(i)
	}
	recordNames.byType[t] = name
	recordNames.byName[name] = t
	return name
}

func typeName(t reflect.Type) string {
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

func structFields(t reflect.Type) ([]FieldDecl, error) {
	fields := make([]FieldDecl, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		tag, tagged := f.Tag.Lookup(structTagKey)

		if tag == "-" {
			fields = append(fields, FieldDecl{Name: f.Name, Type: f.Type.String(), Storage: FieldStorageComputed})
			continue
		}
		if f.Anonymous && !tagged && f.Type.Kind() == reflect.Struct {
			embedded, err := structFields(f.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, embedded...)
			continue
		}
		if !f.IsExported() {
			fields = append(fields, FieldDecl{Name: f.Name, Type: f.Type.String(), Storage: FieldStorageComputed})
			continue
		}

		fd := FieldDecl{
			Name: f.Name,
			Type: string(goTypeTag(f.Type)),
		}
		if tagged {
			ann, err := parseStructTag(f.Name, tag)
			if err != nil {
				return nil, err
			}
			fd.Annotations = []Annotation{ann}
		}
		fields = append(fields, fd)
	}
	return fields, nil
}

// parseStructTag parses `vertex:"[format][,buffer=N]"`. The options may appear in any order.
func parseStructTag(field, tag string) (Annotation, error) {
	var ann Annotation
	for part := range strings.SplitSeq(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, isOption := strings.Cut(part, "=")
		if !isOption {
			if ann.Format != "" {
				return Annotation{}, &MalformedFieldError{Field: field, Reason: fmt.Sprintf("more than one format in tag %q", tag)}
			}
			ann.Format = part
			continue
		}
		switch strings.TrimSpace(key) {
		case "buffer", "bufferIndex":
			idx, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return Annotation{}, &MalformedFieldError{Field: field, Reason: fmt.Sprintf("invalid buffer index %q", value)}
			}
			ann.BufferIndex = &idx
		default:
			return Annotation{}, &MalformedFieldError{Field: field, Reason: fmt.Sprintf("unknown tag option %q", key)}
		}
	}
	return ann, nil
}

// goScalars maps Go kinds to declared scalars.
var goScalars = map[reflect.Kind]Scalar{
	reflect.Float32: ScalarF32,
	reflect.Int32:   ScalarI32,
	reflect.Uint32:  ScalarU32,
	reflect.Int16:   ScalarI16,
	reflect.Uint16:  ScalarU16,
	reflect.Int8:    ScalarI8,
	reflect.Uint8:   ScalarU8,
}

// goTypeTag maps a Go field type onto a declared type tag. Scalars and arrays of two to four
// scalars get shaped tags, anything else keeps its Go type string and is not inferable.
func goTypeTag(t reflect.Type) TypeTag {
	if s, ok := goScalars[t.Kind()]; ok {
		return TypeTag(s)
	}
	if t.Kind() == reflect.Array {
		if s, ok := goScalars[t.Elem().Kind()]; ok && t.Len() >= 1 && t.Len() <= 4 {
			return VectorTag(s, t.Len())
		}
	}
	return TypeTag(t.String())
}
