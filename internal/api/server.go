package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/uidoc/internal/config"
	"github.com/dgallion1/uidoc/internal/pipeline"
)

// Server is the HTTP API server for uidoc.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.UidocAPIKey))

		r.Post("/compile", s.handleCompile)

		r.Post("/jobs", s.handleSubmitJobs)
		r.Get("/jobs/{jobID}", s.handleJobStatus)
		r.Get("/jobs/{jobID}/tree", s.handleJobTree)

		r.Put("/fonts/{name}", s.handlePutFont)
		r.Put("/images/{name}", s.handlePutImage)
		r.Get("/images/{name}", s.handleGetImage)
		r.Get("/resources", s.handleListResources)

		r.Get("/documents", s.handleListDocuments)
		r.Post("/documents/{docID}/compile", s.handleCompileDocument)
		r.Delete("/documents/{docID}", s.handleDeleteDocument)
		r.Delete("/documents/{docID}/tree", s.handleDeleteDocumentTree)

		r.Get("/stats/compile", s.handleCompileStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
