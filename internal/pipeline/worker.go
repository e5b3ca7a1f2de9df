package pipeline

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/dgallion1/uidoc/internal/source"
)

// Worker compiles one job at a time.
type Worker struct {
	compiler    *Compiler
	log         *slog.Logger
	pdfFallback bool
}

func NewWorker(compiler *Compiler, log *slog.Logger, pdfFallback bool) *Worker {
	return &Worker{
		compiler:    compiler,
		log:         log,
		pdfFallback: pdfFallback,
	}
}

// Process loads, compiles and materializes a job. Every failure is
// terminal for the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if err := ctx.Err(); err != nil {
		job.Fail(string(StatusQueued), Diagnostic{Class: ClassInternal, Message: "cancelled: " + err.Error()})
		return
	}

	loader, err := source.ForFile(job.Filename, source.WithPDFFallback(w.pdfFallback))
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.Fail("loading", Diagnostic{Class: ClassSource, Message: err.Error()})
		return
	}
	src, err := loader.Load(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("load failed", "error", err)
		job.Fail("loading", Diagnostic{Class: ClassSource, Message: err.Error()})
		return
	}

	doc, tree, err := w.compiler.Build(src, func(status JobStatus) {
		job.SetStatus(status, string(status))
	})
	if err != nil {
		d := Diagnose(err, src.Line)
		log.Warn("compile failed", "class", d.Class, "line", d.Line, "column", d.Column, "error", err)
		job.Fail(job.Snapshot().Phase, d)
		return
	}

	job.Complete(doc, tree)
	log.Info("job completed", "content_hash", doc.Hash, "texts", len(doc.Texts))
}
