package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/uidoc/internal/config"
	"github.com/dgallion1/uidoc/internal/parser"
	"github.com/dgallion1/uidoc/internal/resource"
	"github.com/dgallion1/uidoc/internal/source"
	"github.com/dgallion1/uidoc/internal/uitree"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCompiler(t *testing.T, cacheSize int) *Compiler {
	t.Helper()
	cat := resource.NewCatalog("")
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Images.Register("icon", buf.Bytes()); err != nil {
		t.Fatalf("register image: %v", err)
	}
	return NewCompiler(cat, 0, cacheSize, testLogger())
}

func src(text string) *source.Source {
	return &source.Source{Name: "test", Text: text, Line: 1}
}

func TestCompiler_Build(t *testing.T) {
	c := newTestCompiler(t, 8)
	var phases []JobStatus
	doc, tree, err := c.Build(src(`div[label("Hi");image("icon");text("A");];`), func(s JobStatus) {
		phases = append(phases, s)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []JobStatus{StatusLexing, StatusParsing, StatusResolving, StatusMaterializing}
	if len(phases) != len(want) {
		t.Fatalf("expected phases %v, got %v", want, phases)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase %d: expected %s, got %s", i, want[i], phases[i])
		}
	}
	if doc.Depth != 2 || len(doc.Texts) != 1 {
		t.Errorf("unexpected document %+v", doc)
	}
	if tree.Kind != uitree.Container || len(tree.Children) != 3 {
		t.Fatalf("unexpected tree %+v", tree)
	}
	text, err := c.Catalog().LookupText(tree.Children[2].Text)
	if err != nil || text.Body != "A" {
		t.Errorf("expected text A, got %+v (%v)", text, err)
	}
	if c.Stats().Snapshot().Count != 1 {
		t.Error("expected one recorded compile")
	}
}

func TestCompiler_CacheHitMaterializesFresh(t *testing.T) {
	c := newTestCompiler(t, 8)
	doc1, tree1, err := c.Build(src(`div[text("A");text("B");];`), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var phases []JobStatus
	doc2, tree2, err := c.Build(src(`div[text("A");text("B");];`), func(s JobStatus) { phases = append(phases, s) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc1.Root() != doc2.Root() || doc1.Hash != doc2.Hash {
		t.Error("expected cached document")
	}
	if len(phases) != 1 || phases[0] != StatusMaterializing {
		t.Errorf("expected only materializing on a cache hit, got %v", phases)
	}
	if tree1 == tree2 || !uitree.Equal(tree1, tree2) {
		t.Error("expected a fresh but equal tree")
	}
	if st := c.Cache().Stats(); st.Hits != 1 || st.Size != 1 {
		t.Errorf("unexpected cache stats %+v", st)
	}
}

func TestCompiler_CacheHitKeepsSourceMetadata(t *testing.T) {
	c := newTestCompiler(t, 8)
	first, _, err := c.Build(&source.Source{Name: "first", Title: "First", Text: `div;`, Line: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := c.Build(&source.Source{Name: "second", Title: "Second", Text: `div;`, Line: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Name != "second" || second.Title != "Second" {
		t.Errorf("expected second source metadata, got %q/%q", second.Name, second.Title)
	}
	if first.Name != "first" || first.Title != "First" {
		t.Errorf("expected cached document to keep its metadata, got %q/%q", first.Name, first.Title)
	}
	if second.Root() != first.Root() {
		t.Error("expected the cached syntax tree to be shared")
	}
}

func TestCompiler_CacheDisabled(t *testing.T) {
	c := newTestCompiler(t, 0)
	doc1, _, _ := c.Build(src(`div;`), nil)
	doc2, _, _ := c.Build(src(`div;`), nil)
	if doc1.Root() == doc2.Root() {
		t.Error("expected no caching with size 0")
	}
}

func TestCompiler_Errors(t *testing.T) {
	c := newTestCompiler(t, 8)
	tests := []struct {
		text  string
		class string
	}{
		{`div[label("x);];`, ClassLex},
		{`div[label("x");`, ClassBracket},
		{`div[label(12);];`, ClassValidation},
		{`label[div;];`, ClassParse},
		{`image("missing");`, ClassResource},
		{`text("a" "nofont");`, ClassResource},
	}
	for _, tt := range tests {
		_, tree, err := c.Build(src(tt.text), nil)
		if err == nil {
			t.Errorf("%s: expected error", tt.text)
			continue
		}
		if tree != nil {
			t.Errorf("%s: expected no tree", tt.text)
		}
		if d := Diagnose(err, 1); d.Class != tt.class {
			t.Errorf("%s: expected class %s, got %s (%v)", tt.text, tt.class, d.Class, err)
		}
		if !IsDocumentError(err) {
			t.Errorf("%s: expected document error", tt.text)
		}
	}
	if got := c.Stats().Snapshot().Failures[ClassResource]; got != 2 {
		t.Errorf("expected 2 resource failures, got %d", got)
	}
}

func TestCompiler_MaxDepth(t *testing.T) {
	c := NewCompiler(resource.NewCatalog(""), 3, 0, testLogger())
	_, _, err := c.Build(src(`div[div[div[div;];];];`), nil)
	var parseErr *parser.Error
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestDiagnose_ShiftsLines(t *testing.T) {
	c := newTestCompiler(t, 0)
	_, _, err := c.Build(src("div[\n  label;\n];"), nil)
	d := Diagnose(err, 10)
	if d.Class != ClassParse || d.Line != 11 {
		t.Errorf("expected parse error on line 11, got %+v", d)
	}
	if !strings.Contains(d.String(), "parse error at 11:") {
		t.Errorf("unexpected string %q", d.String())
	}
	if Diagnose(errors.New("disk full"), 1).Class != ClassInternal {
		t.Error("expected internal class for unknown errors")
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewCache(2)
	cache.Add(&Document{Hash: "a"})
	cache.Add(&Document{Hash: "b"})
	cache.Get("a")
	cache.Add(&Document{Hash: "c"})

	if _, ok := cache.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, h := range []string{"a", "c"} {
		if _, ok := cache.Get(h); !ok {
			t.Errorf("expected %s to be cached", h)
		}
	}
	docs := cache.Documents()
	if len(docs) != 2 || docs[0].Hash != "c" {
		t.Errorf("expected c first, got %+v", docs)
	}
}

func TestOrchestrator_ProcessesJobs(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestCompiler(t, 8), nil, testLogger())
	o.Start(context.Background())
	defer o.Stop()

	good := NewJob("page.uidoc", []byte(`div[label("Hi");];`))
	bad := NewJob("page.uidoc", []byte("div[\nlabel;\n];"))
	md := NewJob("doc.md", []byte("# Title\n\n```uidoc\ndiv[\nlabel;\n];\n```\n"))
	unsupported := NewJob("data.csv", []byte("a,b"))
	for _, j := range []*Job{good, bad, md, unsupported} {
		if err := o.Submit(j); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	wait := func(j *Job) JobSnapshot {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if snap := j.Snapshot(); snap.Status.Terminal() {
				return snap
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("job %s did not finish", j.ID)
		return JobSnapshot{}
	}

	if snap := wait(good); snap.Status != StatusCompleted || snap.Nodes != 2 {
		t.Errorf("expected completed job with 2 nodes, got %+v", snap)
	}
	if snap := wait(bad); snap.Status != StatusFailed || snap.Error.Class != ClassParse || snap.Error.Line != 2 {
		t.Errorf("expected parse failure on line 2, got %+v", snap.Error)
	}
	if snap := wait(md); snap.Error == nil || snap.Error.Line != 5 {
		t.Errorf("expected parse failure on file line 5, got %+v", snap.Error)
	}
	if snap := wait(unsupported); snap.Error == nil || snap.Error.Class != ClassSource {
		t.Errorf("expected source failure, got %+v", snap.Error)
	}
	if o.GetJob(good.ID) != good {
		t.Error("expected job to be retrievable")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestCompiler(t, 0), nil, testLogger())
	// Not started: the first job fills the queue.
	if err := o.Submit(NewJob("a.uidoc", []byte("div;"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := NewJob("b.uidoc", []byte("div;"))
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if second.Snapshot().Status != StatusFailed {
		t.Error("expected rejected job to be failed")
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 2, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestCompiler(t, 0), nil, testLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	job := NewJob("late.uidoc", []byte("div;"))
	if err := o.Submit(job); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if o.GetJob(job.ID) != nil {
		t.Error("expected rejected job not to be stored")
	}
}

func TestCleanupInterval(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want time.Duration
	}{
		{time.Minute, 30 * time.Second},
		{time.Hour, maxCleanupInterval},
		{0, maxCleanupInterval},
	}
	for _, tt := range tests {
		if got := cleanupInterval(tt.ttl); got != tt.want {
			t.Errorf("cleanupInterval(%s): expected %s, got %s", tt.ttl, tt.want, got)
		}
	}
}
