package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/uidoc/internal/pipeline"
	"github.com/dgallion1/uidoc/internal/render"
	"github.com/dgallion1/uidoc/internal/source"
	"github.com/dgallion1/uidoc/internal/uitree"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// handleCompile compiles one document synchronously. The body is either a
// multipart form with a "file" field or the raw markup.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	format := outputFormat(r)
	if format == "" {
		jsonError(w, "format must be json, html or docx", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	filename, data, err := readUpload(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	src, err := s.loadSource(filename, data)
	if err != nil {
		writeDiagnostic(w, pipeline.Diagnostic{Class: pipeline.ClassSource, Message: err.Error()})
		return
	}

	doc, tree, err := s.orchestrator.Compiler().Build(src, nil)
	if err != nil {
		if !pipeline.IsDocumentError(err) {
			s.log.Error("compile failed", "filename", filename, "error", err)
			jsonError(w, "compile failed", http.StatusInternalServerError)
			return
		}
		writeDiagnostic(w, pipeline.Diagnose(err, src.Line))
		return
	}

	s.writeTree(w, format, doc, tree)
}

// handleSubmitJobs queues every uploaded file for background compilation.
func (s *Server) handleSubmitJobs(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "no files provided", http.StatusBadRequest)
		return
	}

	type jobResult struct {
		JobID    string `json:"job_id,omitempty"`
		Filename string `json:"filename"`
		Error    string `json:"error,omitempty"`
	}

	results := make([]jobResult, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !source.IsSupportedExtension(filename) {
			results = append(results, jobResult{Filename: filename, Error: "unsupported file type"})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, jobResult{Filename: filename, Error: "failed to read file"})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			results = append(results, jobResult{Filename: filename, Error: "failed to read file"})
			continue
		}

		job := pipeline.NewJob(filename, data)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, jobResult{JobID: job.ID, Filename: filename, Error: err.Error()})
			continue
		}
		s.log.Info("job submitted", "job_id", job.ID, "filename", filename, "size", len(data))
		results = append(results, jobResult{JobID: job.ID, Filename: filename})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

// handleJobStatus returns the snapshot of a job.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleJobTree returns the tree of a completed job in the requested format.
func (s *Server) handleJobTree(w http.ResponseWriter, r *http.Request) {
	format := outputFormat(r)
	if format == "" {
		jsonError(w, "format must be json, html or docx", http.StatusBadRequest)
		return
	}
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if snap.Status == pipeline.StatusFailed && snap.Error != nil {
		writeDiagnostic(w, *snap.Error)
		return
	}
	doc, tree, ok := job.Result()
	if !ok {
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
		return
	}
	s.writeTree(w, format, doc, tree)
}

func (s *Server) loadSource(filename string, data []byte) (*source.Source, error) {
	loader, err := source.ForFile(filename, source.WithPDFFallback(s.cfg.PDFFallbackPdftotext))
	if err != nil {
		return nil, err
	}
	return loader.Load(bytes.NewReader(data), filename)
}

// writeTree renders tree into a buffer first so a render error still gets
// a clean status code.
func (s *Server) writeTree(w http.ResponseWriter, format string, doc *pipeline.Document, tree *uitree.Node) {
	catalog := s.orchestrator.Compiler().Catalog()
	title := doc.Title
	if title == "" {
		title = doc.Name
	}

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "html":
		contentType = "text/html; charset=utf-8"
		if err := render.HTML(&buf, tree, title, catalog); err != nil {
			s.log.Error("render html", "content_hash", doc.Hash, "error", err)
			jsonError(w, "render failed", http.StatusInternalServerError)
			return
		}
	case "docx":
		contentType = docxContentType
		if err := render.DOCX(&buf, tree, title, catalog); err != nil {
			s.log.Error("render docx", "content_hash", doc.Hash, "error", err)
			jsonError(w, "render failed", http.StatusInternalServerError)
			return
		}
		name := strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))
		if name == "" {
			name = "document"
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".docx"))
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"document": doc,
			"tree":     tree,
			"nodes":    treeSize(tree),
		})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func treeSize(tree *uitree.Node) int {
	n := 0
	for _, c := range tree.Count() {
		n += c
	}
	return n
}

func outputFormat(r *http.Request) string {
	switch f := strings.ToLower(r.URL.Query().Get("format")); f {
	case "", "json":
		return "json"
	case "html", "docx":
		return f
	default:
		return ""
	}
}

// readUpload returns the uploaded file, either from a multipart "file" field
// or from the raw body named by the "name" query parameter.
func readUpload(r *http.Request) (string, []byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		f, fh, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("invalid multipart form: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read file: %w", err)
		}
		return sanitizeFilename(fh.Filename), data, nil
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "document.uidoc"
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("empty body")
	}
	return sanitizeFilename(name), data, nil
}

func writeDiagnostic(w http.ResponseWriter, d pipeline.Diagnostic) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":      d.String(),
		"diagnostic": d,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// sanitizeFilename strips path components and control characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
