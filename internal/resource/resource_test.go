package resource

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/dgallion1/uidoc/internal/ast"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFontRegistry_Default(t *testing.T) {
	r := NewFontRegistry("")
	h, err := r.Resolve("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != r.Default() {
		t.Errorf("expected default handle %s, got %s", r.Default(), h)
	}
	named, err := r.Resolve(DefaultFontName)
	if err != nil || named != h {
		t.Errorf("expected %q to resolve to the default, got %s, %v", DefaultFontName, named, err)
	}
	f, ok := r.Lookup(h)
	if !ok || !f.Builtin {
		t.Errorf("expected builtin font, got %+v", f)
	}
}

func TestFontRegistry_UnknownFont(t *testing.T) {
	r := NewFontRegistry("")
	_, err := r.Resolve("comic")
	var resErr *ResourceError
	if !errors.As(err, &resErr) || resErr.Kind != UnknownFont {
		t.Fatalf("expected unknown font error, got %v", err)
	}
	if resErr.Name != "comic" {
		t.Errorf("expected name %q, got %q", "comic", resErr.Name)
	}
}

func TestFontRegistry_Register(t *testing.T) {
	r := NewFontRegistry("")
	h, err := r.Register("go", goregular.TTF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, ok := r.Lookup(h)
	if !ok {
		t.Fatal("expected registered font")
	}
	if f.Family != "Go" {
		t.Errorf("expected family %q, got %q", "Go", f.Family)
	}
	again, err := r.Register("go", goregular.TTF)
	if err != nil || again != h {
		t.Errorf("expected re-registration to keep handle %s, got %s, %v", h, again, err)
	}
	if len(r.List()) != 2 {
		t.Errorf("expected 2 fonts, got %d", len(r.List()))
	}
}

func TestFontRegistry_RejectsGarbage(t *testing.T) {
	r := NewFontRegistry("")
	if _, err := r.Register("bad", []byte("not a font")); err == nil {
		t.Fatal("expected error for invalid font data")
	}
	if _, err := r.Resolve("bad"); err == nil {
		t.Error("expected rejected font to stay unregistered")
	}
}

func TestTextStore_ResolveInOrder(t *testing.T) {
	fonts := NewFontRegistry("")
	sans, _ := fonts.Register("sans", goregular.TTF)
	store := NewTextStore(fonts)

	handles, err := store.Resolve([]ast.TextArgument{
		{Body: "A"},
		{Body: "B", Font: "sans", Size: 12, HasSize: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("expected 2 handles, got %d", len(handles))
	}

	a, err := store.Lookup(handles[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Body != "A" || a.Font != fonts.Default() || a.Size != ast.DefaultFontSize {
		t.Errorf("unexpected first text %+v", a)
	}
	b, _ := store.Lookup(handles[1])
	if b.Body != "B" || b.Font != sans || b.Size != 12 {
		t.Errorf("unexpected second text %+v", b)
	}
}

func TestTextStore_UnknownFontStoresNothing(t *testing.T) {
	store := NewTextStore(NewFontRegistry(""))
	_, err := store.Resolve([]ast.TextArgument{{Body: "ok"}, {Body: "x", Font: "missing"}})
	var resErr *ResourceError
	if !errors.As(err, &resErr) || resErr.Kind != UnknownFont {
		t.Fatalf("expected unknown font error, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d texts", store.Len())
	}
}

func TestTextStore_SharesEqualTexts(t *testing.T) {
	store := NewTextStore(NewFontRegistry(""))
	first, _ := store.Resolve([]ast.TextArgument{{Body: "a"}, {Body: "b"}, {Body: "a"}})
	if first[0] != first[2] {
		t.Errorf("expected equal texts to share a handle, got %s and %s", first[0], first[2])
	}
	if first[0] == first[1] {
		t.Error("expected different texts to get different handles")
	}
	second, _ := store.Resolve([]ast.TextArgument{{Body: "a", Size: 10, HasSize: true}})
	if second[0] != first[0] {
		t.Errorf("expected explicit default size to match, got %s", second[0])
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 texts, got %d", store.Len())
	}
	if _, err := store.Lookup(999); err == nil {
		t.Error("expected unknown handle error")
	}
}

func TestImageRegistry_Register(t *testing.T) {
	r := NewImageRegistry()
	h, err := r.Register("icon", pngBytes(t, 16, 8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := r.ResolveImage("icon")
	if !ok || got != h {
		t.Fatalf("expected handle %s, got %s (%v)", h, got, ok)
	}
	img, _ := r.Lookup(h)
	if img.Format != "png" || img.Width != 16 || img.Height != 8 {
		t.Errorf("unexpected image %+v", img)
	}
	if img.MIMEType() != "image/png" {
		t.Errorf("expected image/png, got %s", img.MIMEType())
	}
	if _, ok := r.ResolveImage("missing"); ok {
		t.Error("expected unknown id to be unresolved")
	}
}

func TestImageRegistry_ReplaceKeepsEarlierValue(t *testing.T) {
	r := NewImageRegistry()
	h, _ := r.Register("icon", pngBytes(t, 16, 8))
	before, _ := r.Get("icon")

	h2, err := r.Register("icon", pngBytes(t, 4, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h2 != h {
		t.Errorf("expected handle %s to be kept, got %s", h, h2)
	}
	if before.Width != 16 {
		t.Errorf("expected earlier value to stay 16 wide, got %d", before.Width)
	}
	after, _ := r.Lookup(h)
	if after.Width != 4 {
		t.Errorf("expected replacement to be 4 wide, got %d", after.Width)
	}
}

func TestImageRegistry_ConcurrentRegisterAndRead(t *testing.T) {
	r := NewImageRegistry()
	a, b := pngBytes(t, 2, 2), pngBytes(t, 3, 3)
	if _, err := r.Register("icon", a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			data := a
			if i%2 == 1 {
				data = b
			}
			r.Register("icon", data)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			img, ok := r.Get("icon")
			if !ok {
				t.Error("expected icon to be registered")
				return
			}
			if len(img.Data()) != img.Bytes {
				t.Errorf("expected %d bytes, got %d", img.Bytes, len(img.Data()))
				return
			}
		}
	}()
	wg.Wait()
}

func TestFontRegistry_ReplaceKeepsEarlierValue(t *testing.T) {
	r := NewFontRegistry("")
	h, err := r.Register("go", goregular.TTF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := r.Lookup(h)
	if _, err := r.Register("go", goregular.TTF); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, _ := r.Lookup(h)
	if before == after {
		t.Error("expected re-registration to publish a new value")
	}
	if after.Handle != h || after.Family != before.Family {
		t.Errorf("unexpected replacement %+v", after)
	}
}

func TestImageRegistry_RejectsUnknownFormat(t *testing.T) {
	r := NewImageRegistry()
	if _, err := r.Register("x", []byte("plain text")); err == nil {
		t.Fatal("expected error for undecodable image")
	}
}

func TestCatalog_LoadDirs(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"logo.png":  pngBytes(t, 4, 4),
		"go.ttf":    goregular.TTF,
		"notes.txt": []byte("ignored"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	c := NewCatalog("")
	n, err := c.LoadFontDir(dir, discardLogger())
	if err != nil || n != 1 {
		t.Fatalf("expected 1 font, got %d, %v", n, err)
	}
	n, err = c.LoadImageDir(dir, discardLogger())
	if err != nil || n != 1 {
		t.Fatalf("expected 1 image, got %d, %v", n, err)
	}
	if _, err := c.Fonts.Resolve("go"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, ok := c.Images.ResolveImage("logo"); !ok {
		t.Error("expected logo to be registered")
	}
}

func TestCatalog_LoadDirMissing(t *testing.T) {
	c := NewCatalog("")
	if _, err := c.LoadImageDir(filepath.Join(t.TempDir(), "nope"), discardLogger()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
