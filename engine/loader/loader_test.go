package loader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-layout/engine/vertex"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeQuad(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, marshalDocument(t, quadDocument()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoaderLoadCachesAndQualifiesNames(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLoader(BackendTypeGLTF, WithLogger(zap.New(core)))

	path := writeQuad(t, t.TempDir(), "quad.gltf")
	records, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 1 || records[0].Name != path+":quad#0" {
		t.Fatalf("records = %+v", records)
	}

	// the cached copy is served even after the file is gone
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	again, err := l.Load(path)
	if err != nil {
		t.Fatalf("cached Load: %v", err)
	}
	if again[0].Name != records[0].Name {
		t.Errorf("cached record name = %q", again[0].Name)
	}

	if got := l.Get(path); len(got) != 1 {
		t.Errorf("Get = %+v", got)
	}
	if got := l.Get("other"); got != nil {
		t.Errorf("Get(other) = %+v, want nil", got)
	}
	all := l.Records()
	delete(all, path)
	if l.Get(path) == nil {
		t.Error("mutating the Records copy changed the cache")
	}

	if n := logs.FilterMessage("vertex records loaded").Len(); n != 1 {
		t.Errorf("logged %d load events, want 1", n)
	}
}

func TestLoaderLoadReader(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	jsonData := marshalDocument(t, quadDocument())

	records, err := l.LoadReader("embedded", bytes.NewReader(jsonData), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if records[0].Name != "embedded:quad#0" {
		t.Errorf("record name = %q", records[0].Name)
	}

	glbRecords, err := l.LoadReader("embedded.glb", bytes.NewReader(buildGLB(jsonData, nil)), true)
	if err != nil {
		t.Fatalf("LoadReader(glb): %v", err)
	}
	if glbRecords[0].Name != "embedded.glb:quad#0" {
		t.Errorf("record name = %q", glbRecords[0].Name)
	}

	_, err = l.LoadReader("broken", strings.NewReader("{"), false)
	if err == nil || !strings.Contains(err.Error(), `failed to load from reader "broken"`) {
		t.Errorf("error = %v", err)
	}
}

func TestLoaderUnsupportedFormat(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	_, err := l.Load("model.obj")
	if err == nil || !strings.Contains(err.Error(), "unsupported model format: .obj") {
		t.Errorf("error = %v", err)
	}
}

func TestLoaderLoadAll(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeQuad(t, dir, "a.gltf"),
		writeQuad(t, dir, "b.gltf"),
		writeQuad(t, dir, "c.gltf"),
	}
	l := NewLoader(BackendTypeGLTF, WithWorkers(2))
	defer l.Close()

	results, err := l.LoadAll(paths)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	for i, records := range results {
		if want := paths[i] + ":quad#0"; len(records) != 1 || records[0].Name != want {
			t.Errorf("result %d = %+v, want %s", i, records, want)
		}
	}

	missing := []string{paths[0], filepath.Join(dir, "missing1.gltf"), filepath.Join(dir, "missing2.gltf")}
	_, err = l.LoadAll(missing)
	if err == nil || !strings.Contains(err.Error(), "missing1.gltf") {
		t.Errorf("error = %v, want the first failing path", err)
	}
}

func TestNewLoaderStartsNoWorkers(t *testing.T) {
	before := runtime.NumGoroutine()
	loaders := make([]Loader, 50)
	for i := range loaders {
		loaders[i] = NewLoader(BackendTypeGLTF, WithWorkers(4))
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("goroutines went from %d to %d without any LoadAll", before, after)
	}
	for _, l := range loaders {
		if err := l.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}
}

func TestLoaderClose(t *testing.T) {
	path := writeQuad(t, t.TempDir(), "quad.gltf")

	shared := vertex.NewResolver()
	defer shared.Close()
	l := NewLoader(BackendTypeGLTF, WithResolver(shared), WithWorkers(2))
	if _, err := l.LoadAll([]string{path}); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if _, err := l.LoadAll([]string{path}); !errors.Is(err, ErrLoaderClosed) {
		t.Errorf("LoadAll after Close = %v, want ErrLoaderClosed", err)
	}
	if got := l.Get(path); len(got) != 1 {
		t.Errorf("Get after Close = %+v", got)
	}
	// the shared resolver was passed in, so it still runs batches
	if _, err := l.Layouts(path); err != nil {
		t.Errorf("Layouts after Close: %v", err)
	}

	owned := NewLoader(BackendTypeGLTF)
	if _, err := owned.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := owned.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := owned.Layouts(path); !errors.Is(err, vertex.ErrResolverClosed) {
		t.Errorf("Layouts with a closed owned resolver = %v, want ErrResolverClosed", err)
	}
}

func TestLoaderLayouts(t *testing.T) {
	resolver := vertex.NewResolver()
	l := NewLoader(BackendTypeGLTF, WithResolver(resolver))

	path := writeQuad(t, t.TempDir(), "quad.gltf")
	if _, err := l.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	layouts, err := l.Layouts(path)
	if err != nil {
		t.Fatalf("Layouts: %v", err)
	}
	if len(layouts) != 1 {
		t.Fatalf("got %d layouts, want 1", len(layouts))
	}
	if l0, _ := layouts[0].Layout(0); l0.Stride != 32 {
		t.Errorf("buffer 0 stride = %d, want 32", l0.Stride)
	}
	if stats := resolver.CacheStats(); stats.Misses != 1 {
		t.Errorf("resolver misses = %d, want 1", stats.Misses)
	}

	if _, err := l.Layouts("unknown"); err == nil {
		t.Error("expected error for a key that was never loaded")
	}
}

func TestLoaderWithRecords(t *testing.T) {
	pre := []vertex.RecordDecl{{
		Name:   "prebuilt",
		Fields: []vertex.FieldDecl{{Name: "position", Type: "vec3f32"}},
	}}
	l := NewLoader(BackendTypeGLTF, WithRecords("prebuilt", pre))

	records, err := l.Load("prebuilt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if records[0].Name != "prebuilt" {
		t.Errorf("record name = %q, want it unqualified", records[0].Name)
	}

	layouts, err := l.Layouts("prebuilt")
	if err != nil {
		t.Fatalf("Layouts: %v", err)
	}
	if a, ok := layouts[0].Attribute("position"); !ok || a.Format != vertex.VertexFormatFloat3 {
		t.Errorf("position = %+v", a)
	}
}
