package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sir_venger/upload_lite/internal/models"
)

const productsTable = "products"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGStore сохраняет карточки в Postgres. Схему создаёт cmd/migrate.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore создаёт пул подключений к Postgres.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("meta dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PGStore{pool: pool}, nil
}

// Get возвращает карточку по идентификатору.
func (s *PGStore) Get(ctx context.Context, id string) (models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return models.Product{}, models.ErrNotFound
	}

	sqlStr, args, err := psql.
		Select("title", "price", "photo", "created_at").
		From(productsTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.Product{}, fmt.Errorf("build select: %w", err)
	}

	var (
		title     string
		price     float64
		photoRaw  []byte
		createdAt time.Time
	)
	if err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&title, &price, &photoRaw, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, models.ErrNotFound
		}
		return models.Product{}, fmt.Errorf("scan product row: %w", err)
	}

	p := models.Product{
		ID:        id,
		Title:     title,
		Price:     price,
		CreatedAt: createdAt.UTC(),
	}
	if len(photoRaw) > 0 {
		var photo models.StoredPhoto
		if err := json.Unmarshal(photoRaw, &photo); err != nil {
			return models.Product{}, fmt.Errorf("unmarshal photo: %w", err)
		}
		p.Photo = &photo
	}

	return p, nil
}

// Save записывает (или обновляет) карточку.
func (s *PGStore) Save(ctx context.Context, p models.Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("product id is empty")
	}

	var photo []byte
	if p.Photo != nil {
		var err error
		if photo, err = json.Marshal(p.Photo); err != nil {
			return fmt.Errorf("marshal photo: %w", err)
		}
	}

	sqlStr, args, err := psql.
		Insert(productsTable).
		Columns("id", "title", "price", "photo", "created_at").
		Values(p.ID, p.Title, p.Price, photo, p.CreatedAt).
		Suffix(`
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title,
				price = EXCLUDED.price,
				photo = EXCLUDED.photo`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert sql: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}
	return nil
}

// Close освобождает подключения пула.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
