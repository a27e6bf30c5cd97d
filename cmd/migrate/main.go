package main

import (
	"context"
	"strings"
	"time"

	"github.com/sir_venger/upload_lite/internal/config"
	"github.com/sir_venger/upload_lite/internal/repo"
	"github.com/sir_venger/upload_lite/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dsn := strings.TrimSpace(cfg.MetaDSN)
	if dsn == "" {
		log.Fatalf("meta_dsn is not configured")
	}
	if strings.HasPrefix(dsn, repo.MemoryDSN) {
		log.Infof("memory product store selected, skipping migrations")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repo.ApplyMigrations(ctx, dsn); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	log.Infof("migrations applied")
}
