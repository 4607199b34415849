package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docmark/internal/api"
	"github.com/dgallion1/docmark/internal/config"
	"github.com/dgallion1/docmark/internal/library"
	"github.com/dgallion1/docmark/internal/parser"
	"github.com/dgallion1/docmark/internal/session"
	"github.com/dgallion1/docmark/internal/store"
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

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("open document store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	sessions := session.NewRegistry(cfg.SessionTTL, log)
	go sessions.Run(ctx, cfg.CleanupInterval)

	lib := library.New(st, sessions, log, library.Options{
		CodeWrap:             cfg.CodeWrap,
		CaseSensitiveDefault: cfg.CaseSensitiveDefault,
		Parser:               parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	})

	srv := api.NewServer(lib, log, cfg)

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

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docmark", "port", cfg.Port, "db", cfg.DBPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		st.Close()
		os.Exit(1)
	}
	if err := st.Close(); err != nil {
		log.Error("close document store", "error", err)
	}
}
