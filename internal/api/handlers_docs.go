package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/uidoc/internal/pathstore"
	"github.com/dgallion1/uidoc/internal/pipeline"
)

const documentsPrefix = "uidoc/documents"

// storedSource is the pathstore value at uidoc/documents/{docID}/source.
type storedSource struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// storedTree is the pathstore value at uidoc/documents/{docID}/tree.
type storedTree struct {
	ContentHash string    `json:"content_hash"`
	Title       string    `json:"title,omitempty"`
	Nodes       int       `json:"nodes"`
	CompiledAt  time.Time `json:"compiled_at"`
	Tree        any       `json:"tree"`
}

func documentKey(docID, leaf string) string {
	return documentsPrefix + "/" + docID + "/" + leaf
}

// docStore returns the client or answers 503 when none is configured.
func (s *Server) docStore(w http.ResponseWriter) (*pathstore.Client, bool) {
	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "document store not configured", http.StatusServiceUnavailable)
		return nil, false
	}
	return ps, true
}

// handleListDocuments lists the stored documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ps, ok := s.docStore(w)
	if !ok {
		return
	}
	children, err := ps.ListChildren(r.Context(), documentsPrefix, 200)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusBadGateway)
		return
	}
	docs := make([]map[string]any, 0, len(children))
	for _, child := range children {
		docs = append(docs, map[string]any{
			"key":   child.Key,
			"value": child.Value,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleCompileDocument compiles a stored source and stores its tree next
// to it, linked back to the source.
func (s *Server) handleCompileDocument(w http.ResponseWriter, r *http.Request) {
	ps, ok := s.docStore(w)
	if !ok {
		return
	}
	docID := chi.URLParam(r, "docID")
	ctx := r.Context()
	log := s.log.With("doc_id", docID)

	sourceKey := documentKey(docID, "source")
	node, err := ps.GetNode(ctx, sourceKey)
	if err != nil {
		jsonError(w, "failed to read source: "+err.Error(), http.StatusBadGateway)
		return
	}
	if node == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	var stored storedSource
	if err := json.Unmarshal(node.Value, &stored); err != nil {
		jsonError(w, "malformed source node: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if stored.Filename == "" {
		stored.Filename = docID + ".uidoc"
	}

	src, err := s.loadSource(sanitizeFilename(stored.Filename), []byte(stored.Text))
	if err != nil {
		writeDiagnostic(w, pipeline.Diagnostic{Class: pipeline.ClassSource, Message: err.Error()})
		return
	}
	doc, tree, err := s.orchestrator.Compiler().Build(src, nil)
	if err != nil {
		if !pipeline.IsDocumentError(err) {
			log.Error("compile failed", "error", err)
			jsonError(w, "compile failed", http.StatusInternalServerError)
			return
		}
		writeDiagnostic(w, pipeline.Diagnose(err, src.Line))
		return
	}

	treeKey := documentKey(docID, "tree")
	value := storedTree{
		ContentHash: doc.Hash,
		Title:       doc.Title,
		Nodes:       treeSize(tree),
		CompiledAt:  doc.CompiledAt,
		Tree:        tree,
	}
	if err := ps.PutNode(ctx, treeKey, pathstore.NodeRequest{Value: value, Source: "uidoc"}); err != nil {
		log.Error("store tree", "error", err)
		jsonError(w, "failed to store tree: "+err.Error(), http.StatusBadGateway)
		return
	}
	if err := ps.PutLink(ctx, pathstore.LinkRequest{
		From:    treeKey,
		To:      sourceKey,
		Weight:  1,
		Summary: "compiled from",
	}); err != nil {
		log.Warn("link tree to source", "error", err)
	}

	log.Info("document tree stored", "key", treeKey, "content_hash", doc.Hash, "nodes", value.Nodes)
	writeJSON(w, http.StatusOK, map[string]any{
		"key":      treeKey,
		"document": doc,
		"tree":     tree,
	})
}

// handleDeleteDocumentTree removes a stored tree, keeping its source.
func (s *Server) handleDeleteDocumentTree(w http.ResponseWriter, r *http.Request) {
	s.deleteDocumentKey(w, r, documentKey(chi.URLParam(r, "docID"), "tree"), false)
}

// handleDeleteDocument removes a document with its source and tree.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	s.deleteDocumentKey(w, r, documentsPrefix+"/"+chi.URLParam(r, "docID"), true)
}

func (s *Server) deleteDocumentKey(w http.ResponseWriter, r *http.Request, key string, recursive bool) {
	ps, ok := s.docStore(w)
	if !ok {
		return
	}
	if err := ps.DeleteNode(r.Context(), key, recursive); err != nil {
		jsonError(w, "failed to delete: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("document key deleted", "key", key, "recursive", recursive)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": key})
}
