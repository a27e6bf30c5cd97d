package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sir_venger/upload_lite/internal/app/resthttp"
	"github.com/sir_venger/upload_lite/internal/config"
	"github.com/sir_venger/upload_lite/internal/tmpstore"
	"github.com/sir_venger/upload_lite/pkg/log"
	"github.com/spf13/afero"
)

// main инициализирует REST HTTP-сервис и обеспечивает корректное завершение по сигналу.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("log level: %v", err)
	}

	tmp := tmpstore.Default()
	if cfg.TmpDir != "" {
		tmp = tmpstore.NewDir(afero.NewOsFs(), cfg.TmpDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, srv, err := resthttp.NewServer(ctx, cfg, tmp)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	// Фоновая уборка временных файлов, брошенных упавшими процессами.
	stopGC := tmpstore.StartGC(tmp, cfg.GCTTL(), cfg.GCInterval())

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("REST shutdown error")
		}
	}()

	log.WithFields(log.Fields{
		"addr":           cfg.ListenAddr,
		"tmp_dir":        tmp.Path(),
		"upload_dir":     cfg.UploadDir,
		"max_body_bytes": cfg.MaxBodyBytes,
	}).Info("REST listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("listen: %v", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Warn("REST final shutdown error")
	}

	stopGC()
	srv.Close()
	if err := tmp.Close(); err != nil {
		log.WithError(err).Warn("remove temp dir")
	}
	log.Infof("REST stopped")
}
