package convert

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"cr2jpeg/raw"
	"cr2jpeg/raw/rawtest"
)

// fakeBackend records every call into a shared log so tests can check the
// order backends ran in.
type fakeBackend struct {
	name  string
	err   error
	panic bool
	calls *[]string
	mu    *sync.Mutex
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Convert(source, target string) error {
	f.mu.Lock()
	*f.calls = append(*f.calls, f.name+":"+source)
	f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	return f.err
}

func newFakes(errs ...error) ([]Backend, *[]string) {
	var calls []string
	mu := &sync.Mutex{}
	backends := make([]Backend, len(errs))
	for i, err := range errs {
		backends[i] = &fakeBackend{name: string(rune('A' + i)), err: err, calls: &calls, mu: mu}
	}
	return backends, &calls
}

func TestOutputPath(t *testing.T) {
	cases := []struct {
		source, dest, want string
	}{
		{"/photos/IMG_0001.CR2", "/out", "/out/IMG_0001.jpg"},
		{"/photos/sub/img.cr2", "/out", "/out/img.jpg"},
		{"/photos/archive.2020.cr2", "/out/jpg", "/out/jpg/archive.2020.jpg"},
		{"relative/shot.Cr2", "dest", "dest/shot.jpg"},
	}
	for _, tc := range cases {
		got := OutputPath(filepath.FromSlash(tc.source), filepath.FromSlash(tc.dest))
		if got != filepath.FromSlash(tc.want) {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tc.source, tc.dest, got, tc.want)
		}
	}
}

func TestChain_PrimarySucceeds(t *testing.T) {
	backends, calls := newFakes(nil, nil)
	out := NewChain(nil, backends...).Convert("/src/a.cr2", "/dst")

	if out.Failed() {
		t.Fatalf("unexpected failure: %v", out.Err)
	}
	if out.Backend != "A" {
		t.Errorf("backend: got %q, want A", out.Backend)
	}
	if len(*calls) != 1 {
		t.Errorf("calls: got %v, want only A", *calls)
	}
}

func TestChain_FallbackSucceeds(t *testing.T) {
	backends, calls := newFakes(errors.New("cannot decode"), nil)
	out := NewChain(nil, backends...).Convert("/src/a.cr2", "/dst")

	if out.Failed() {
		t.Fatalf("fallback success reported as failure: %v", out.Err)
	}
	if out.Backend != "B" {
		t.Errorf("backend: got %q, want B", out.Backend)
	}

	want := []string{"A:/src/a.cr2", "B:/src/a.cr2"}
	if strings.Join(*calls, ",") != strings.Join(want, ",") {
		t.Errorf("call order: got %v, want %v", *calls, want)
	}
}

func TestChain_FallbackGetsRequestedSource(t *testing.T) {
	backends, calls := newFakes(errors.New("nope"), nil)
	NewChain(nil, backends...).Convert("/src/requested.cr2", "/dst")

	for _, c := range *calls {
		if !strings.HasSuffix(c, ":/src/requested.cr2") {
			t.Errorf("backend saw unexpected source: %s", c)
		}
	}
}

func TestChain_BothFail(t *testing.T) {
	backends, calls := newFakes(errors.New("first"), errors.New("second"))
	out := NewChain(nil, backends...).Convert("/src/a.cr2", "/dst")

	if !out.Failed() {
		t.Fatal("expected failure")
	}
	if len(*calls) != 2 {
		t.Errorf("calls: got %v, want both backends once", *calls)
	}
	if got, want := out.Message(), "/src/a.cr2: second"; got != want {
		t.Errorf("message: got %q, want %q", got, want)
	}
	if out.Backend != "" {
		t.Errorf("backend on failure: got %q, want empty", out.Backend)
	}
}

func TestChain_PanicBecomesFailure(t *testing.T) {
	var calls []string
	mu := &sync.Mutex{}
	bad := &fakeBackend{name: "A", panic: true, calls: &calls, mu: mu}
	good := &fakeBackend{name: "B", calls: &calls, mu: mu}

	out := NewChain(nil, bad, good).Convert("/src/a.cr2", "/dst")
	if out.Failed() {
		t.Fatalf("panic in primary should fall back, got %v", out.Err)
	}

	out = NewChain(nil, bad).Convert("/src/a.cr2", "/dst")
	if !out.Failed() || !strings.Contains(out.Message(), "panicked") {
		t.Errorf("got %q, want panic failure", out.Message())
	}
}

func TestChain_NoBackends(t *testing.T) {
	out := NewChain(nil).Convert("/src/a.cr2", "/dst")
	if !errors.Is(out.Err, ErrNoBackends) {
		t.Errorf("got %v, want ErrNoBackends", out.Err)
	}
}

func TestImagingBackend_ConvertsPNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.png")
	writePNG(t, src, 12, 9)

	target := filepath.Join(dir, "plain.jpg")
	if err := NewImagingBackend(100, nil).Convert(src, target); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	assertJPEG(t, target, 12, 9)
}

func TestImagingBackend_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := NewImagingBackend(100, nil).Convert(filepath.Join(dir, "gone.cr2"), filepath.Join(dir, "gone.jpg"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestImagingBackend_InitializesOnce(t *testing.T) {
	genesis = sync.Once{}
	var n int32
	genesisHook = func() { atomic.AddInt32(&n, 1) }
	t.Cleanup(func() { genesisHook = initCodecs })

	dir := t.TempDir()
	b := NewImagingBackend(100, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Convert(filepath.Join(dir, "missing.cr2"), filepath.Join(dir, "missing.jpg"))
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&n); got != 1 {
		t.Errorf("init ran %d times, want 1", got)
	}
}

func TestPipelineBackend_ConvertsCR2(t *testing.T) {
	dir := t.TempDir()
	src := rawtest.WriteCR2(t, dir, "sample1.cr2", 24, 16)

	target := filepath.Join(dir, "sample1.jpg")
	if err := NewPipelineBackend(raw.MaxQuality).Convert(src, target); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	assertJPEG(t, target, 24, 16)

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestPipelineBackend_RejectsNonTIFF(t *testing.T) {
	dir := t.TempDir()
	src := rawtest.WriteFile(t, dir, "fake.cr2", []byte("hello, not an image"))

	target := filepath.Join(dir, "fake.jpg")
	err := NewPipelineBackend(raw.MaxQuality).Convert(src, target)
	if !errors.Is(err, raw.ErrNotTIFF) {
		t.Fatalf("got %v, want ErrNotTIFF", err)
	}
	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Error("target should not exist after failure")
	}
}

func TestPipelineBackend_UnwritableTarget(t *testing.T) {
	dir := t.TempDir()
	src := rawtest.WriteCR2(t, dir, "sample1.cr2", 8, 8)

	err := NewPipelineBackend(raw.MaxQuality).Convert(src, filepath.Join(dir, "missing-dir", "sample1.jpg"))
	if err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}

func TestStandardChain_CR2(t *testing.T) {
	dir := t.TempDir()
	src := rawtest.WriteCR2(t, dir, "sample1.cr2", 16, 16)
	dest := filepath.Join(dir, "out")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	out := NewChain(nil, NewImagingBackend(100, nil), NewPipelineBackend(100)).Convert(src, dest)
	if out.Failed() {
		t.Fatalf("conversion failed: %s", out.Message())
	}
	info, err := os.Stat(filepath.Join(dest, "sample1.jpg"))
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output is empty")
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 20), G: uint8(y * 20), B: 50, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func assertJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if cfg.Width != w || cfg.Height != h {
		t.Errorf("output size: got %dx%d, want %dx%d", cfg.Width, cfg.Height, w, h)
	}
}
