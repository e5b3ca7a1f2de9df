package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handlePutFont registers the request body as a TrueType or OpenType font.
func (s *Server) handlePutFont(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, ok := s.readResource(w, r)
	if !ok {
		return
	}
	fonts := s.orchestrator.Compiler().Catalog().Fonts
	h, err := fonts.Register(name, data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	f, _ := fonts.Lookup(h)
	s.log.Info("font registered", "name", name, "handle", h.String(), "family", f.Family)
	writeJSON(w, http.StatusOK, f)
}

// handlePutImage registers the request body as an image.
func (s *Server) handlePutImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, ok := s.readResource(w, r)
	if !ok {
		return
	}
	images := s.orchestrator.Compiler().Catalog().Images
	h, err := images.Register(name, data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	img, _ := images.Lookup(h)
	s.log.Info("image registered", "name", name, "handle", h.String(), "format", img.Format)
	writeJSON(w, http.StatusOK, img)
}

// handleGetImage serves the bytes of a registered image.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	img, ok := s.orchestrator.Compiler().Catalog().Images.Get(chi.URLParam(r, "name"))
	if !ok {
		jsonError(w, "image not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", img.MIMEType())
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data())))
	_, _ = w.Write(img.Data())
}

// handleListResources lists registered fonts and images.
func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	catalog := s.orchestrator.Compiler().Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"fonts":  catalog.Fonts.List(),
		"images": catalog.Images.List(),
		"texts":  catalog.Texts.Len(),
	})
}

func (s *Server) readResource(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if len(data) == 0 {
		jsonError(w, "empty body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}
