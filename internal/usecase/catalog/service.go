package catalog

import (
	"context"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/internal/tmpstore"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
	"github.com/spf13/afero"
)

const (
	FieldTitle = uploadproto.FieldTitle
	FieldPrice = uploadproto.FieldPrice
	FieldPhoto = uploadproto.FieldPhoto
)

type (
	// ProductStorage хранилище карточек каталога
	ProductStorage interface {
		Get(ctx context.Context, id string) (models.Product, error)
		Save(ctx context.Context, p models.Product) error
	}

	// Service объединяет операции демо-каталога.
	Service interface {
		Create(ctx context.Context, fields *models.FieldMap, scope *tmpstore.Scope) (models.Product, error)
		Get(ctx context.Context, id string) (models.Product, error)
	}
)

type Deps struct {
	Store ProductStorage
	// Fs должна совпадать с файловой системой временного каталога: фото переносится rename'ом.
	Fs        afero.Fs
	UploadDir string
	URLPrefix string
}

type Catalog struct {
	Deps
}

// New конструирует сервис каталога с заданными зависимостями.
func New(deps Deps) *Catalog {
	if deps.URLPrefix == "" {
		deps.URLPrefix = uploadproto.UploadsPrefix
	}
	return &Catalog{Deps: deps}
}

var _ Service = (*Catalog)(nil)

// Get возвращает карточку по id.
func (s *Catalog) Get(ctx context.Context, id string) (models.Product, error) {
	return s.Store.Get(ctx, id)
}
