package catalog

import (
	"context"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/internal/tmpstore"
	"github.com/sir_venger/upload_lite/pkg/log"
)

const maxExtLen = 10

// Create проверяет поля формы, забирает фото из временного каталога в
// UploadDir и сохраняет карточку. Временные файлы, которые не были забраны,
// удаляет scope.
func (s *Catalog) Create(ctx context.Context, fields *models.FieldMap, scope *tmpstore.Scope) (models.Product, error) {
	title := strings.TrimSpace(fields.Value(FieldTitle))
	if title == "" {
		return models.Product{}, fmt.Errorf("%w: %s is required", models.ErrInvalidField, FieldTitle)
	}
	price, err := parsePrice(fields.Value(FieldPrice))
	if err != nil {
		return models.Product{}, err
	}

	p := models.Product{
		ID:        uuid.NewString(),
		Title:     title,
		Price:     price,
		CreatedAt: time.Now().UTC(),
	}

	if v, ok := fields.Get(FieldPhoto); ok {
		if !v.IsUpload() {
			return models.Product{}, fmt.Errorf("%w: %s must be a file", models.ErrInvalidField, FieldPhoto)
		}
		if p.Photo, err = s.keepPhoto(v.Upload, scope); err != nil {
			return models.Product{}, err
		}
	}

	if err := s.Store.Save(ctx, p); err != nil {
		if p.Photo != nil {
			_ = s.Fs.Remove(filepath.Join(s.UploadDir, p.Photo.Name))
		}
		return models.Product{}, fmt.Errorf("save product: %w", err)
	}

	entry := log.WithFields(log.Fields{"id": p.ID, "title": p.Title})
	if p.Photo != nil {
		entry = entry.WithField("photo", humanize.Bytes(uint64(p.Photo.Size)))
	}
	entry.Info("product created")

	return p, nil
}

func (s *Catalog) keepPhoto(h *models.UploadHandle, scope *tmpstore.Scope) (*models.StoredPhoto, error) {
	name := uuid.NewString() + photoExt(h.OriginalFilename)
	if err := scope.TransferTo(h, filepath.Join(s.UploadDir, name)); err != nil {
		return nil, fmt.Errorf("keep photo: %w", err)
	}

	return &models.StoredPhoto{
		Name:             name,
		OriginalFilename: h.OriginalFilename,
		ContentType:      h.ContentType,
		Size:             h.Size,
		URL:              path.Join(s.URLPrefix, name),
	}, nil
}

func parsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", models.ErrInvalidField, FieldPrice)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price < 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, fmt.Errorf("%w: %s %q is not a valid amount", models.ErrInvalidField, FieldPrice, raw)
	}
	return price, nil
}

// photoExt возвращает расширение исходного имени, если оно похоже на расширение.
func photoExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
