package vertex

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestResolverCachesByRecordName(t *testing.T) {
	r := NewResolver()
	record := RecordDecl{Name: "Cached", Fields: []FieldDecl{field("p", "vec3f32")}}

	first, err := r.Resolve(record)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := r.Resolve(record)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !first.Equal(second) {
		t.Errorf("cached descriptor differs:\n%s\n%s", first, second)
	}

	stats := r.CacheStats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("stats = %+v, want 1 miss and 1 hit", stats)
	}

	r.Purge()
	if _, err := r.Resolve(record); err != nil {
		t.Fatalf("Resolve after purge: %v", err)
	}
	if stats := r.CacheStats(); stats.Misses != 2 {
		t.Errorf("misses after purge = %d, want 2", stats.Misses)
	}
}

func TestResolverCachesFailures(t *testing.T) {
	r := NewResolver()
	record := RecordDecl{Name: "Broken", Fields: []FieldDecl{field("m", "Material")}}

	for range 3 {
		_, err := r.Resolve(record)
		var ue *UnresolvedFormatError
		if !errors.As(err, &ue) {
			t.Fatalf("error = %v, want UnresolvedFormatError", err)
		}
	}
	if stats := r.CacheStats(); stats.Misses != 1 || stats.Hits != 2 {
		t.Errorf("stats = %+v, want 1 miss and 2 hits", stats)
	}
}

func TestResolverSkipsCacheForAnonymousRecords(t *testing.T) {
	r := NewResolver()
	for range 2 {
		if _, err := r.Resolve(RecordDecl{Fields: []FieldDecl{field("p", "f32")}}); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if stats := r.CacheStats(); stats.Misses != 0 || stats.Hits != 0 {
		t.Errorf("stats = %+v, want untouched cache", stats)
	}
}

func TestResolverConcurrentResolve(t *testing.T) {
	r := NewResolver()
	record := RecordDecl{Name: "Shared", Fields: []FieldDecl{
		field("position", "vec3f32"),
		field("uv", "vec2f32", Annotation{BufferIndex: Int(1)}),
	}}
	want, err := ResolveLayout(record)
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Resolve(record)
			if err != nil {
				errs <- err
				return
			}
			if !got.Equal(want) {
				errs <- fmt.Errorf("got %s, want %s", got, want)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if stats := r.CacheStats(); stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
}

func TestResolveAll(t *testing.T) {
	r := NewResolver(WithWorkers(4))
	defer r.Close()

	records := make([]RecordDecl, 0, 12)
	for i := range 12 {
		fields := make([]FieldDecl, 0, i+1)
		for j := range i + 1 {
			fields = append(fields, field(fmt.Sprintf("f%d", j), "f32"))
		}
		records = append(records, RecordDecl{Name: fmt.Sprintf("Batch%d", i), Fields: fields})
	}

	descs, err := r.ResolveAll(records)
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(descs) != len(records) {
		t.Fatalf("got %d descriptors, want %d", len(descs), len(records))
	}
	for i, d := range descs {
		if n := len(d.Attributes()); n != i+1 {
			t.Errorf("descriptor %d has %d attributes, want %d", i, n, i+1)
		}
		if l, _ := d.Layout(0); l.Stride != 4*(i+1) {
			t.Errorf("descriptor %d stride = %d, want %d", i, l.Stride, 4*(i+1))
		}
	}
}

func TestResolveAllReturnsFirstFailureInInputOrder(t *testing.T) {
	r := NewResolver(WithWorkers(3))
	defer r.Close()
	records := []RecordDecl{
		{Name: "Ok", Fields: []FieldDecl{field("p", "vec3f32")}},
		{Name: "Mismatch", Fields: []FieldDecl{field("p", "vec3f32", Annotation{Format: "float2"})}},
		{Name: "Unresolved", Fields: []FieldDecl{field("m", "Material")}},
	}

	descs, err := r.ResolveAll(records)
	if descs != nil {
		t.Errorf("expected no descriptors, got %d", len(descs))
	}
	var re *ResolveError
	if !errors.As(err, &re) || re.Record != "Mismatch" {
		t.Fatalf("error = %v, want ResolveError for Mismatch", err)
	}
	var mm *FormatMismatchError
	if !errors.As(err, &mm) {
		t.Errorf("error = %v, want FormatMismatchError", err)
	}
}

func TestNewResolverStartsNoWorkers(t *testing.T) {
	before := runtime.NumGoroutine()
	resolvers := make([]Resolver, 50)
	for i := range resolvers {
		resolvers[i] = NewResolver(WithWorkers(4))
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("goroutines went from %d to %d without any batch", before, after)
	}
	for _, r := range resolvers {
		if err := r.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}
}

func TestResolverClose(t *testing.T) {
	r := NewResolver(WithWorkers(2))
	record := RecordDecl{Name: "Closed", Fields: []FieldDecl{field("p", "vec3f32")}}

	if descs, err := r.ResolveAll(nil); err != nil || len(descs) != 0 {
		t.Errorf("ResolveAll(nil) = %v, %v", descs, err)
	}
	if _, err := r.ResolveAll([]RecordDecl{record}); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if _, err := r.ResolveAll([]RecordDecl{record}); !errors.Is(err, ErrResolverClosed) {
		t.Errorf("ResolveAll after Close = %v, want ErrResolverClosed", err)
	}
	if _, err := r.Resolve(record); err != nil {
		t.Errorf("Resolve after Close: %v", err)
	}
}

func TestResolverMaxBufferIndex(t *testing.T) {
	r := NewResolver(WithMaxBufferIndex(7))

	_, err := r.Resolve(RecordDecl{Name: "TooHigh", Fields: []FieldDecl{
		field("p", "vec3f32", Annotation{BufferIndex: Int(8)}),
	}})
	var mf *MalformedFieldError
	if !errors.As(err, &mf) {
		t.Errorf("field error = %v, want MalformedFieldError", err)
	}

	_, err = r.Resolve(RecordDecl{Name: "DirectiveTooHigh", Directives: []LayoutDirective{
		{BufferIndex: 30, Stride: Int(16)},
	}})
	var id *InvalidDirectiveError
	if !errors.As(err, &id) || id.BufferIndex != 30 {
		t.Errorf("directive error = %v, want InvalidDirectiveError for buffer 30", err)
	}

	if _, err := r.Resolve(RecordDecl{Name: "AtLimit", Fields: []FieldDecl{
		field("p", "vec3f32", Annotation{BufferIndex: Int(7)}),
	}}); err != nil {
		t.Errorf("buffer 7 rejected: %v", err)
	}
}

func TestResolverLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewResolver(WithLogger(zap.New(core)))

	if _, err := r.Resolve(RecordDecl{Name: "Logged", Fields: []FieldDecl{field("p", "f32")}}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := r.Resolve(RecordDecl{Name: "LoggedFailure", Fields: []FieldDecl{field("p", "Thing")}}); err == nil {
		t.Fatal("expected an error")
	}

	if n := logs.FilterMessage("vertex layout resolved").FilterField(zap.String("record", "Logged")).Len(); n != 1 {
		t.Errorf("got %d debug entries, want 1", n)
	}
	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warn) != 1 || warn[0].ContextMap()["record"] != "LoggedFailure" {
		t.Errorf("warn entries = %+v", warn)
	}
}

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	r := NewResolver()
	if _, err := r.Resolve(RecordDecl{Name: "PackageLogger", Fields: []FieldDecl{field("p", "f32")}}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if logs.Len() != 1 {
		t.Errorf("got %d entries on the package logger, want 1", logs.Len())
	}
}
