package repo

import (
	"context"
	"strings"

	"github.com/sir_venger/upload_lite/internal/models"
)

// MemoryDSN выбирает in-memory хранилище вместо Postgres.
const MemoryDSN = "memory://"

// ProductStore хранит карточки каталога.
type ProductStore interface {
	Get(ctx context.Context, id string) (models.Product, error)
	Save(ctx context.Context, p models.Product) error
	Close()
}

var (
	_ ProductStore = (*MemoryStore)(nil)
	_ ProductStore = (*PGStore)(nil)
)

// Open выбирает хранилище по DSN: пустой или memory:// — память, иначе Postgres.
func Open(ctx context.Context, dsn string) (ProductStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" || dsn == MemoryDSN {
		return NewMemoryStore(), nil
	}
	return NewPGStore(ctx, dsn)
}
