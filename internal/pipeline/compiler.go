package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/uidoc/internal/ast"
	"github.com/dgallion1/uidoc/internal/lexer"
	"github.com/dgallion1/uidoc/internal/materialize"
	"github.com/dgallion1/uidoc/internal/parser"
	"github.com/dgallion1/uidoc/internal/resource"
	"github.com/dgallion1/uidoc/internal/source"
	"github.com/dgallion1/uidoc/internal/token"
	"github.com/dgallion1/uidoc/internal/uitree"
)

// Document is a compiled source: its syntax tree and resolved texts. It is
// immutable and may be materialized any number of times.
type Document struct {
	Hash       string             `json:"content_hash"`
	Name       string             `json:"name"`
	Title      string             `json:"title,omitempty"`
	Tokens     int                `json:"tokens"`
	Depth      int                `json:"depth"`
	Texts      []ast.TextArgument `json:"texts"`
	CompiledAt time.Time          `json:"compiled_at"`

	root    *ast.Point
	handles []uitree.TextHandle
}

// Root returns the syntax tree.
func (d *Document) Root() *ast.Point { return d.root }

// Handles returns a fresh copy of the resolved text handles.
func (d *Document) Handles() []uitree.TextHandle {
	return append([]uitree.TextHandle(nil), d.handles...)
}

// Progress is told when a compile enters a new phase.
type Progress func(status JobStatus)

// Compiler runs lex, validate, parse, resolve and materialize against one
// resource catalog. It is safe for concurrent use.
type Compiler struct {
	catalog  *resource.Catalog
	cache    *Cache
	stats    *LatencyStats
	log      *slog.Logger
	maxDepth int
}

// NewCompiler returns a compiler. cacheSize 0 disables the document cache.
func NewCompiler(catalog *resource.Catalog, maxDepth, cacheSize int, log *slog.Logger) *Compiler {
	if maxDepth <= 0 {
		maxDepth = parser.DefaultMaxDepth
	}
	return &Compiler{
		catalog:  catalog,
		cache:    NewCache(cacheSize),
		stats:    NewLatencyStats(time.Hour),
		log:      log,
		maxDepth: maxDepth,
	}
}

// Catalog returns the resource catalog the compiler resolves against.
func (c *Compiler) Catalog() *resource.Catalog { return c.catalog }

// Stats returns the compile latency window.
func (c *Compiler) Stats() *LatencyStats { return c.stats }

// Cache returns the document cache.
func (c *Compiler) Cache() *Cache { return c.cache }

// Compile turns src into a Document. A document with the same text is
// served from the cache.
func (c *Compiler) Compile(src *source.Source, progress Progress) (*Document, error) {
	if progress == nil {
		progress = func(JobStatus) {}
	}
	hash := ContentHashHex([]byte(src.Text))
	if cached, ok := c.cache.Get(hash); ok {
		c.log.Debug("compile cache hit", "content_hash", hash, "name", src.Name)
		doc := *cached
		doc.Name, doc.Title = src.Name, src.Title
		return &doc, nil
	}

	progress(StatusLexing)
	toks, err := lexer.Lex(src.Text)
	if err != nil {
		return nil, err
	}

	progress(StatusParsing)
	res, err := parser.Parse(toks, parser.WithMaxDepth(c.maxDepth))
	if err != nil {
		return nil, err
	}

	progress(StatusResolving)
	handles, err := c.catalog.Texts.Resolve(res.Texts)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Hash:       hash,
		Name:       src.Name,
		Title:      src.Title,
		Tokens:     len(toks),
		Depth:      res.Root.Depth(),
		Texts:      res.Texts,
		CompiledAt: time.Now(),
		root:       res.Root,
		handles:    handles,
	}
	c.cache.Add(doc)
	return doc, nil
}

// Materialize builds a fresh UI tree for doc.
func (c *Compiler) Materialize(doc *Document) (*uitree.Node, error) {
	return materialize.Materialize(doc.root, doc.Handles(), c.catalog.Images, materialize.WithMaxDepth(c.maxDepth))
}

// Build compiles and materializes src, recording the latency.
func (c *Compiler) Build(src *source.Source, progress Progress) (*Document, *uitree.Node, error) {
	start := time.Now()
	doc, err := c.Compile(src, progress)
	if err != nil {
		c.stats.RecordFailure(Diagnose(err, 0).Class)
		return nil, nil, err
	}
	if progress != nil {
		progress(StatusMaterializing)
	}
	tree, err := c.Materialize(doc)
	if err != nil {
		c.stats.RecordFailure(Diagnose(err, 0).Class)
		return nil, nil, err
	}
	elapsed := time.Since(start)
	c.stats.Record(elapsed.Milliseconds())
	c.log.Info("document compiled",
		"name", src.Name,
		"content_hash", doc.Hash,
		"tokens", doc.Tokens,
		"texts", len(doc.Texts),
		"duration_ms", elapsed.Milliseconds(),
	)
	return doc, tree, nil
}

// Diagnostic describes why a document was rejected.
type Diagnostic struct {
	Class   string `json:"class"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

// Diagnostic classes.
const (
	ClassLex        = "lex"
	ClassBracket    = "bracket"
	ClassValidation = "validation"
	ClassParse      = "parse"
	ClassResource   = "resource"
	ClassSource     = "source"
	ClassInternal   = "internal"
)

// Diagnose classifies err. Document errors carry their source position,
// shifted by line when the markup starts part way into its file.
func Diagnose(err error, line int) Diagnostic {
	var (
		lexErr     *lexer.Error
		bracketErr *parser.BracketError
		valErr     *parser.ValidationError
		parseErr   *parser.Error
		resErr     *resource.ResourceError
	)
	d := Diagnostic{Message: err.Error()}
	var pos token.Pos
	switch {
	case errors.As(err, &lexErr):
		d.Class, pos = ClassLex, lexErr.Pos
	case errors.As(err, &bracketErr):
		d.Class, pos = ClassBracket, bracketErr.Pos
	case errors.As(err, &valErr):
		d.Class, pos = ClassValidation, valErr.Pos
	case errors.As(err, &parseErr):
		d.Class, pos = ClassParse, parseErr.Pos
	case errors.As(err, &resErr):
		d.Class = ClassResource
	default:
		d.Class = ClassInternal
	}
	if pos.IsValid() {
		d.Line, d.Column = pos.Line, pos.Column
		if line > 1 {
			d.Line += line - 1
		}
	}
	return d
}

// IsDocumentError reports whether err is caused by the document rather
// than by the service.
func IsDocumentError(err error) bool {
	return Diagnose(err, 0).Class != ClassInternal
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s error at %d:%d: %s", d.Class, d.Line, d.Column, d.Message)
	}
	return fmt.Sprintf("%s error: %s", d.Class, d.Message)
}
