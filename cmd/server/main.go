package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/uidoc/internal/api"
	"github.com/dgallion1/uidoc/internal/config"
	"github.com/dgallion1/uidoc/internal/pathstore"
	"github.com/dgallion1/uidoc/internal/pipeline"
	"github.com/dgallion1/uidoc/internal/resource"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load resources.
	catalog := resource.NewCatalog(cfg.DefaultFont)
	if cfg.FontDir != "" {
		n, err := catalog.LoadFontDir(cfg.FontDir, log)
		if err != nil {
			log.Error("load fonts", "dir", cfg.FontDir, "error", err)
			os.Exit(1)
		}
		log.Info("fonts loaded", "dir", cfg.FontDir, "count", n)
	}
	if cfg.ImageDir != "" {
		n, err := catalog.LoadImageDir(cfg.ImageDir, log)
		if err != nil {
			log.Error("load images", "dir", cfg.ImageDir, "error", err)
			os.Exit(1)
		}
		log.Info("images loaded", "dir", cfg.ImageDir, "count", n)
	}

	var ps *pathstore.Client
	if cfg.PathstoreURL != "" {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
	} else {
		log.Warn("PATHSTORE_URL not set, document routes disabled")
	}

	// Initialize pipeline.
	compiler := pipeline.NewCompiler(catalog, cfg.MaxNestingDepth, cfg.CacheSize, log)
	orch := pipeline.NewOrchestrator(cfg, compiler, ps, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting uidoc",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"max_depth", cfg.MaxNestingDepth,
		"cache_size", cfg.CacheSize,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
