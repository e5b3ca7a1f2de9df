// Package source extracts uidoc markup from files of several formats.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source is markup extracted from one file.
type Source struct {
	Name  string // file name without extension
	Title string // document title, when the container format carries one
	Text  string
	Line  int // line of the file the markup starts on; 0 when unknown
}

// Loader extracts markup from raw file bytes.
type Loader interface {
	Load(r io.Reader, filename string) (*Source, error)
}

// SupportedExtensions lists file extensions a loader exists for.
var SupportedExtensions = map[string]bool{
	".uidoc":    true,
	".azd":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Option configures the loader ForFile returns.
type Option func(*options)

type options struct {
	pdfFallback bool
}

// WithPDFFallback makes the PDF loader retry with the pdftotext binary when
// the built-in extractor fails.
func WithPDFFallback(on bool) Option {
	return func(o *options) { o.pdfFallback = on }
}

// ForFile returns the loader for a filename.
func ForFile(filename string, opts ...Option) (Loader, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".uidoc", ".azd", ".txt":
		return &TextLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	case ".pdf":
		return &PDFLoader{FallbackPdftotext: o.pdfFallback}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ReadFile opens path and loads it with the loader for its extension.
func ReadFile(path string, opts ...Option) (*Source, error) {
	loader, err := ForFile(path, opts...)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return loader.Load(f, filepath.Base(path))
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
