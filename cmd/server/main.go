package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	aichat "github.com/semidark/aichat"
	"github.com/semidark/aichat/internal/config"
	"github.com/semidark/aichat/internal/handlers"
	"github.com/semidark/aichat/internal/logger"
)

func main() {
	cfgFilePath := os.Getenv("AICHAT_CONFIG")
	if cfgFilePath == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			log.Fatal(fmt.Errorf("error getting user config dir: %w", err))
		}
		cfgFilePath = filepath.Join(cfgDir, "aichat", "config.yaml")
	}

	cfg, err := config.Resolve(
		config.FileSource{Path: cfgFilePath, Optional: true},
		config.EnvSource{},
	)
	if err != nil {
		log.Fatal(err)
	}
	logger.SetLevel(cfg.LogLevel)

	store, closeStore, err := newStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	llm, err := newLLM(cfg)
	if err != nil {
		log.Fatal(err)
	}

	m, err := handlers.NewMain(llm, store, cfg.FlushInterval(), logger.L)
	if err != nil {
		log.Fatal(err)
	}

	// Serve static files
	staticFS, err := fs.Sub(aichat.StaticFS, "static")
	if err != nil {
		log.Fatal(err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	// Create custom mux with an explicit route table
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", m.HandleHome)
	mux.HandleFunc("/api/chat", m.HandleChat)
	mux.HandleFunc("/api/chat/stream", m.HandleChatStream)

	// No write timeout: streamed turns hold the response open for as long
	// as the generator runs.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		logger.L.Info("Server starting",
			slog.String("port", cfg.Port),
			slog.String("storage", cfg.Storage),
			slog.Duration("flushInterval", cfg.FlushInterval()))
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		logger.L.Error("Server error", slog.String("err", err.Error()))

	case sig := <-shutdown:
		logger.L.Info("Start shutdown", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.L.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.L.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}
	}
}
