package repo

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ApplyMigrations запускает goose-миграции для Postgres, используя встроенные SQL файлы.
func ApplyMigrations(ctx context.Context, dsn string) error {
	if strings.TrimSpace(dsn) == "" || dsn == MemoryDSN {
		return fmt.Errorf("meta dsn is empty")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, migrationsDir)
}
