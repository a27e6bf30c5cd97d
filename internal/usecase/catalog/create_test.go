package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/internal/repo"
	"github.com/sir_venger/upload_lite/internal/tmpstore"
	"github.com/spf13/afero"
)

type env struct {
	fs    afero.Fs
	dir   *tmpstore.Dir
	store *repo.MemoryStore
	svc   *Catalog
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fs := afero.NewMemMapFs()
	store := repo.NewMemoryStore()
	return &env{
		fs:    fs,
		dir:   tmpstore.NewDir(fs, "/tmp"),
		store: store,
		svc:   New(Deps{Store: store, Fs: fs, UploadDir: "/srv/uploads"}),
	}
}

func (e *env) upload(t *testing.T, scope *tmpstore.Scope, filename, content string) *models.UploadHandle {
	t.Helper()
	sf, err := e.dir.OpenUnique()
	if err != nil {
		t.Fatalf("OpenUnique: %v", err)
	}
	if err := scope.Track(sf.Path()); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if _, err := sf.Write([]byte(content)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path, err := sf.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	h := &models.UploadHandle{ContentType: "image/png", OriginalFilename: filename, StoragePath: path, Size: sf.Size()}
	scope.Register(h)
	return h
}

func TestCreate_WithPhoto(t *testing.T) {
	e := newEnv(t)
	scope := e.dir.NewScope()
	h := e.upload(t, scope, "meta-cover.PNG", "png-bytes")
	tmpPath := h.StoragePath

	fields := models.NewFieldMap()
	fields.Add(FieldTitle, models.TextValue("Metaprogramming Elixir"))
	fields.Add(FieldPrice, models.TextValue("15.000000"))
	fields.Add(FieldPhoto, models.UploadValue(h))

	p, err := e.svc.Create(context.Background(), fields, scope)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	scope.Cleanup()

	if p.Title != "Metaprogramming Elixir" || p.Price != 15 {
		t.Fatalf("product = %+v", p)
	}
	if p.Photo == nil || !strings.HasSuffix(p.Photo.Name, ".png") {
		t.Fatalf("photo = %+v", p.Photo)
	}
	if p.Photo.URL != "/uploads/"+p.Photo.Name || p.Photo.Size != int64(len("png-bytes")) {
		t.Fatalf("photo = %+v", p.Photo)
	}

	data, err := afero.ReadFile(e.fs, filepath.Join("/srv/uploads", p.Photo.Name))
	if err != nil {
		t.Fatalf("persisted photo: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("persisted content = %q", data)
	}
	if ok, _ := afero.Exists(e.fs, tmpPath); ok {
		t.Fatalf("temp file still present")
	}

	stored, err := e.svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Photo == nil || stored.Photo.Name != p.Photo.Name {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestCreate_WithoutPhoto(t *testing.T) {
	e := newEnv(t)
	scope := e.dir.NewScope()
	defer scope.Cleanup()

	fields := models.NewFieldMap()
	fields.Add(FieldTitle, models.TextValue("Metaprogramming Elixir"))
	fields.Add(FieldPrice, models.TextValue("15.000000"))

	p, err := e.svc.Create(context.Background(), fields, scope)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Photo != nil {
		t.Fatalf("photo = %+v, want nil", p.Photo)
	}
}

func TestCreate_InvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		title string
		price string
	}{
		{"missing title", "  ", "1"},
		{"missing price", "t", ""},
		{"bad price", "t", "cheap"},
		{"negative price", "t", "-1"},
		{"inf price", "t", "Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			scope := e.dir.NewScope()
			defer scope.Cleanup()

			fields := models.NewFieldMap()
			fields.Add(FieldTitle, models.TextValue(tt.title))
			fields.Add(FieldPrice, models.TextValue(tt.price))

			_, err := e.svc.Create(context.Background(), fields, scope)
			if !errors.Is(err, models.ErrInvalidField) {
				t.Fatalf("err = %v, want %v", err, models.ErrInvalidField)
			}
		})
	}
}

func TestCreate_PhotoMustBeFile(t *testing.T) {
	e := newEnv(t)
	scope := e.dir.NewScope()
	defer scope.Cleanup()

	fields := models.NewFieldMap()
	fields.Add(FieldTitle, models.TextValue("t"))
	fields.Add(FieldPrice, models.TextValue("1"))
	fields.Add(FieldPhoto, models.TextValue("not a file"))

	_, err := e.svc.Create(context.Background(), fields, scope)
	if !errors.Is(err, models.ErrInvalidField) {
		t.Fatalf("err = %v, want %v", err, models.ErrInvalidField)
	}
}

func TestCreate_InvalidFieldLeavesUploadToScope(t *testing.T) {
	e := newEnv(t)
	scope := e.dir.NewScope()
	h := e.upload(t, scope, "a.png", "x")

	fields := models.NewFieldMap()
	fields.Add(FieldPrice, models.TextValue("1"))
	fields.Add(FieldPhoto, models.UploadValue(h))

	if _, err := e.svc.Create(context.Background(), fields, scope); err == nil {
		t.Fatalf("expected error")
	}
	scope.Cleanup()
	if ok, _ := afero.Exists(e.fs, h.StoragePath); ok {
		t.Fatalf("temp file survived cleanup")
	}
}

func TestPhotoExt(t *testing.T) {
	tests := map[string]string{
		"cover.png":        ".png",
		"cover.JPEG":       ".jpeg",
		"noext":            "",
		"weird.p/ng":       "",
		"long.abcdefghijk": "",
		"dot.":             "",
	}
	for in, want := range tests {
		if got := photoExt(in); got != want {
			t.Errorf("photoExt(%q) = %q, want %q", in, got, want)
		}
	}
}
