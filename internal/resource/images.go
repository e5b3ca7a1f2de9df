package resource

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/fumiama/imgsz"

	"github.com/dgallion1/uidoc/internal/uitree"
)

// Image is a registered image.
type Image struct {
	Handle uitree.ImageHandle `json:"handle"`
	Name   string             `json:"name"`
	Format string             `json:"format"`
	Width  int                `json:"width"`
	Height int                `json:"height"`
	Bytes  int                `json:"bytes"`

	data []byte
}

// Data returns the encoded image.
func (img *Image) Data() []byte { return img.data }

// MIMEType returns the media type for the decoded format.
func (img *Image) MIMEType() string {
	switch img.Format {
	case "jpeg", "png", "gif", "webp":
		return "image/" + img.Format
	}
	return "application/octet-stream"
}

// ImageRegistry maps image ids to handles. It is safe for concurrent use.
type ImageRegistry struct {
	mu       sync.RWMutex
	next     uint64
	byName   map[string]*Image
	byHandle map[uitree.ImageHandle]*Image
}

func NewImageRegistry() *ImageRegistry {
	return &ImageRegistry{
		byName:   make(map[string]*Image),
		byHandle: make(map[uitree.ImageHandle]*Image),
	}
}

// Register decodes the size of data (jpeg, png, gif or webp) and stores it
// under name. Registering an existing name replaces it and keeps its handle.
func (r *ImageRegistry) Register(name string, data []byte) (uitree.ImageHandle, error) {
	if name == "" {
		return 0, fmt.Errorf("register image: empty name")
	}
	size, format, err := imgsz.DecodeSize(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("register image %q: %w", name, err)
	}

	img := &Image{
		Name:   name,
		Format: format,
		Width:  size.Width,
		Height: size.Height,
		Bytes:  len(data),
		data:   data,
	}

	// Published images are never modified; a replacement is a new value.
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byName[name]; ok {
		img.Handle = old.Handle
	} else {
		r.next++
		img.Handle = uitree.ImageHandle(r.next)
	}
	r.byName[name] = img
	r.byHandle[img.Handle] = img
	return img.Handle, nil
}

// ResolveImage returns the handle registered under id.
func (r *ImageRegistry) ResolveImage(id string) (uitree.ImageHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.byName[id]
	if !ok {
		return 0, false
	}
	return img.Handle, true
}

// Lookup returns the image behind h.
func (r *ImageRegistry) Lookup(h uitree.ImageHandle) (*Image, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.byHandle[h]
	return img, ok
}

// Get returns the image registered under name.
func (r *ImageRegistry) Get(name string) (*Image, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.byName[name]
	return img, ok
}

// List returns all images ordered by handle.
func (r *ImageRegistry) List() []Image {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Image, 0, len(r.byHandle))
	for _, img := range r.byHandle {
		out = append(out, *img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}
