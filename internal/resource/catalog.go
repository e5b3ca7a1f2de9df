package resource

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/uidoc/internal/uitree"
)

// Catalog bundles the three providers a compile needs.
type Catalog struct {
	Fonts  *FontRegistry
	Texts  *TextStore
	Images *ImageRegistry
}

// NewCatalog returns an empty catalog whose builtin font is defaultFont.
func NewCatalog(defaultFont string) *Catalog {
	fonts := NewFontRegistry(defaultFont)
	return &Catalog{
		Fonts:  fonts,
		Texts:  NewTextStore(fonts),
		Images: NewImageRegistry(),
	}
}

var (
	fontExts  = map[string]bool{".ttf": true, ".otf": true}
	imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}
)

// LoadFontDir registers every .ttf/.otf file in dir under its file stem.
func (c *Catalog) LoadFontDir(dir string, log *slog.Logger) (int, error) {
	return loadDir(dir, fontExts, log, func(name string, data []byte) error {
		_, err := c.Fonts.Register(name, data)
		return err
	})
}

// LoadImageDir registers every supported image in dir under its file stem.
func (c *Catalog) LoadImageDir(dir string, log *slog.Logger) (int, error) {
	return loadDir(dir, imageExts, log, func(name string, data []byte) error {
		_, err := c.Images.Register(name, data)
		return err
	})
}

// loadDir stops at the first file that fails to register.
func loadDir(dir string, exts map[string]bool, log *slog.Logger, register func(string, []byte) error) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !exts[ext] {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return n, fmt.Errorf("read %s: %w", path, err)
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if err := register(name, data); err != nil {
			return n, err
		}
		log.Debug("resource loaded", "name", name, "path", path, "bytes", len(data))
		n++
	}
	return n, nil
}

// LookupText returns the text behind h.
func (c *Catalog) LookupText(h uitree.TextHandle) (Text, error) {
	return c.Texts.Lookup(h)
}

// LookupImage returns the image behind h.
func (c *Catalog) LookupImage(h uitree.ImageHandle) (*Image, error) {
	img, ok := c.Images.Lookup(h)
	if !ok {
		return nil, &ResourceError{Kind: UnknownHandle, Name: h.String()}
	}
	return img, nil
}

// LookupFont returns the font behind h.
func (c *Catalog) LookupFont(h uitree.FontHandle) (*Font, error) {
	f, ok := c.Fonts.Lookup(h)
	if !ok {
		return nil, &ResourceError{Kind: UnknownHandle, Name: h.String()}
	}
	return f, nil
}
