// Command uidoc compiles a markup file into a UI tree and writes it as JSON,
// HTML or DOCX.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/uidoc/internal/pipeline"
	"github.com/dgallion1/uidoc/internal/render"
	"github.com/dgallion1/uidoc/internal/resource"
	"github.com/dgallion1/uidoc/internal/source"
)

func main() {
	var (
		in          = flag.String("in", "-", "input file, or - for standard input")
		out         = flag.String("out", "-", "output file, or - for standard output")
		format      = flag.String("format", "json", "output format: json, html or docx")
		fontDir     = flag.String("fonts", "", "directory of .ttf/.otf fonts to register")
		imageDir    = flag.String("images", "", "directory of images to register")
		defaultFont = flag.String("default-font", resource.DefaultFontName, "name of the builtin font")
		maxDepth    = flag.Int("max-depth", 256, "maximum element nesting depth")
		pdfFallback = flag.Bool("pdftotext", true, "fall back to pdftotext for unreadable PDFs")
		debug       = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(log, *in, *out, *format, *fontDir, *imageDir, *defaultFont, *maxDepth, *pdfFallback); err != nil {
		var diag *diagnosticError
		if errors.As(err, &diag) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", *in, diag.d)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "uidoc: %v\n", err)
		os.Exit(2)
	}
}

type diagnosticError struct{ d pipeline.Diagnostic }

func (e *diagnosticError) Error() string { return e.d.String() }

func run(log *slog.Logger, in, out, format, fontDir, imageDir, defaultFont string, maxDepth int, pdfFallback bool) error {
	format = strings.ToLower(format)
	switch format {
	case "json", "html", "docx":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	catalog := resource.NewCatalog(defaultFont)
	if fontDir != "" {
		if _, err := catalog.LoadFontDir(fontDir, log); err != nil {
			return err
		}
	}
	if imageDir != "" {
		if _, err := catalog.LoadImageDir(imageDir, log); err != nil {
			return err
		}
	}

	src, err := readSource(in, pdfFallback)
	if err != nil {
		return &diagnosticError{pipeline.Diagnostic{Class: pipeline.ClassSource, Message: err.Error()}}
	}

	compiler := pipeline.NewCompiler(catalog, maxDepth, 0, log)
	doc, tree, err := compiler.Build(src, func(status pipeline.JobStatus) {
		log.Debug("phase", "status", status)
	})
	if err != nil {
		return &diagnosticError{pipeline.Diagnose(err, src.Line)}
	}

	title := doc.Title
	if title == "" {
		title = doc.Name
	}
	var buf bytes.Buffer
	switch format {
	case "html":
		err = render.HTML(&buf, tree, title, catalog)
	case "docx":
		err = render.DOCX(&buf, tree, title, catalog)
	default:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(tree)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}

	if out == "-" {
		_, err = buf.WriteTo(os.Stdout)
		return err
	}
	return os.WriteFile(out, buf.Bytes(), 0o644)
}

func readSource(in string, pdfFallback bool) (*source.Source, error) {
	if in != "-" {
		return source.ReadFile(in, source.WithPDFFallback(pdfFallback))
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	return (&source.TextLoader{}).Load(bytes.NewReader(data), "stdin.uidoc")
}
