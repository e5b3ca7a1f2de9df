package resource

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/image/font/sfnt"

	"github.com/dgallion1/uidoc/internal/uitree"
)

// DefaultFontName names the builtin font used when a text gives no font.
const DefaultFontName = "sans-serif"

// Font is a registered font. The builtin default has no data.
type Font struct {
	Handle  uitree.FontHandle `json:"handle"`
	Name    string            `json:"name"`
	Family  string            `json:"family,omitempty"`
	Builtin bool              `json:"builtin"`
	Bytes   int               `json:"bytes"`

	data []byte
}

// Data returns the raw font file.
func (f *Font) Data() []byte { return f.data }

// FontRegistry maps font names to handles. It is safe for concurrent use.
type FontRegistry struct {
	mu       sync.RWMutex
	next     uint64
	byName   map[string]*Font
	byHandle map[uitree.FontHandle]*Font
	def      uitree.FontHandle
}

// NewFontRegistry returns a registry holding only the builtin default font,
// registered under defaultName (DefaultFontName when empty).
func NewFontRegistry(defaultName string) *FontRegistry {
	if defaultName == "" {
		defaultName = DefaultFontName
	}
	r := &FontRegistry{
		byName:   make(map[string]*Font),
		byHandle: make(map[uitree.FontHandle]*Font),
	}
	r.def = r.add(&Font{Name: defaultName, Builtin: true})
	return r
}

func (r *FontRegistry) add(f *Font) uitree.FontHandle {
	r.next++
	f.Handle = uitree.FontHandle(r.next)
	r.byName[f.Name] = f
	r.byHandle[f.Handle] = f
	return f.Handle
}

// Register parses data as an OpenType/TrueType font and stores it under
// name. Registering an existing name replaces its data and keeps its handle.
func (r *FontRegistry) Register(name string, data []byte) (uitree.FontHandle, error) {
	if name == "" {
		return 0, fmt.Errorf("register font: empty name")
	}
	parsed, err := sfnt.Parse(data)
	if err != nil {
		return 0, fmt.Errorf("register font %q: %w", name, err)
	}
	family, err := parsed.Name(&sfnt.Buffer{}, sfnt.NameIDFamily)
	if err != nil {
		family = ""
	}

	f := &Font{Name: name, Family: family, Bytes: len(data), data: data}

	// Published fonts are never modified; a replacement is a new value.
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byName[name]; ok {
		f.Handle = old.Handle
		r.byName[name] = f
		r.byHandle[f.Handle] = f
		return f.Handle, nil
	}
	return r.add(f), nil
}

// Resolve returns the handle for name. An empty name selects the default.
func (r *FontRegistry) Resolve(name string) (uitree.FontHandle, error) {
	if name == "" {
		return r.Default(), nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byName[name]
	if !ok {
		return 0, &ResourceError{Kind: UnknownFont, Name: name}
	}
	return f.Handle, nil
}

// Default returns the builtin default font handle.
func (r *FontRegistry) Default() uitree.FontHandle {
	return r.def
}

// Lookup returns the font behind h.
func (r *FontRegistry) Lookup(h uitree.FontHandle) (*Font, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byHandle[h]
	return f, ok
}

// List returns all registered fonts ordered by handle.
func (r *FontRegistry) List() []Font {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Font, 0, len(r.byHandle))
	for _, f := range r.byHandle {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}
