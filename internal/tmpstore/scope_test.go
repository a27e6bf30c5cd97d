package tmpstore

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/spf13/afero"
)

func newHandle(t *testing.T, d *Dir, content string) *models.UploadHandle {
	t.Helper()

	sf, err := d.OpenUnique()
	if err != nil {
		t.Fatalf("OpenUnique: %v", err)
	}
	if _, err := sf.Write([]byte(content)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path, err := sf.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	return &models.UploadHandle{
		ContentType:      "text/plain",
		OriginalFilename: "a.txt",
		StoragePath:      path,
		Size:             sf.Size(),
	}
}

func exists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Exists(%s): %v", path, err)
	}
	return ok
}

func TestScope_CleanupRemovesOwnedFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDir(fs, "/tmp")
	scope := d.NewScope()

	h1 := newHandle(t, d, "one")
	h2 := newHandle(t, d, "two")
	scope.Register(h1)
	scope.Register(h2)

	if scope.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", scope.Pending())
	}

	scope.Cleanup()
	scope.Cleanup()

	if exists(t, fs, h1.StoragePath) || exists(t, fs, h2.StoragePath) {
		t.Fatalf("owned files must be removed")
	}
	if scope.Pending() != 0 {
		t.Fatalf("pending = %d after cleanup", scope.Pending())
	}
}

func TestScope_TrackedPartialFileIsRemoved(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDir(fs, "/tmp")
	scope := d.NewScope()

	sf, err := d.OpenUnique()
	if err != nil {
		t.Fatalf("OpenUnique: %v", err)
	}
	if err := scope.Track(sf.Path()); err != nil {
		t.Fatalf("Track: %v", err)
	}
	_, _ = sf.Write([]byte("partial"))
	_, _ = sf.Close()

	scope.Cleanup()

	if exists(t, fs, sf.Path()) {
		t.Fatalf("partial file must be removed")
	}
	if err := scope.Track("/tmp/late"); !errors.Is(err, models.ErrStorageUnavailable) {
		t.Fatalf("Track after cleanup: err = %v", err)
	}
}

func TestScope_TransferKeepsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDir(fs, "/tmp")
	scope := d.NewScope()

	kept := newHandle(t, d, "keep")
	dropped := newHandle(t, d, "drop")
	scope.Register(kept)
	scope.Register(dropped)

	if err := scope.Transfer(kept); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if scope.Owns(kept) {
		t.Fatalf("transferred handle must not be owned")
	}
	if err := scope.Transfer(kept); !errors.Is(err, models.ErrNotOwned) {
		t.Fatalf("second Transfer: err = %v, want %v", err, models.ErrNotOwned)
	}

	scope.Cleanup()

	if !exists(t, fs, kept.StoragePath) {
		t.Fatalf("transferred file must survive cleanup")
	}
	if exists(t, fs, dropped.StoragePath) {
		t.Fatalf("owned file must be removed")
	}
}

func TestScope_TransferToMovesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDir(fs, "/tmp")
	scope := d.NewScope()

	h := newHandle(t, d, "cover")
	src := h.StoragePath
	scope.Register(h)

	dst := filepath.Join("/srv/uploads", "cover.png")
	if err := scope.TransferTo(h, dst); err != nil {
		t.Fatalf("TransferTo: %v", err)
	}
	if h.StoragePath != dst {
		t.Fatalf("storage path = %s, want %s", h.StoragePath, dst)
	}

	scope.Cleanup()

	if exists(t, fs, src) {
		t.Fatalf("source must be gone after move")
	}
	got, err := afero.ReadFile(fs, dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "cover" {
		t.Fatalf("content = %q", got)
	}
}

func TestScope_ReleaseIsIdempotentAndIsolated(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDir(fs, "/tmp")
	scope := d.NewScope()

	h1 := newHandle(t, d, "one")
	h2 := newHandle(t, d, "two")
	scope.Register(h1)
	scope.Register(h2)

	scope.Release(h1)
	scope.Release(h1)

	if exists(t, fs, h1.StoragePath) {
		t.Fatalf("released file must be removed")
	}
	if !exists(t, fs, h2.StoragePath) {
		t.Fatalf("other handle must not be affected")
	}
	if !scope.Owns(h2) {
		t.Fatalf("other handle must stay owned")
	}

	// файл уже удалён извне, очистка не должна падать
	if err := fs.Remove(h2.StoragePath); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	scope.Cleanup()
}

func TestScope_RegisterAfterCleanupRemovesImmediately(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDir(fs, "/tmp")
	scope := d.NewScope()
	scope.Cleanup()

	h := newHandle(t, d, "late")
	scope.Register(h)

	if exists(t, fs, h.StoragePath) {
		t.Fatalf("file registered after cleanup must be removed")
	}
}

func TestMiddleware_CleansUpAfterHandler(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDir(fs, "/tmp")

	var issued *models.UploadHandle
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, ok := ScopeFrom(r.Context())
		if !ok {
			t.Fatalf("scope must be in request context")
		}
		issued = newHandle(t, d, "body")
		scope.Register(issued)
		w.WriteHeader(http.StatusNoContent)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	if issued == nil {
		t.Fatalf("handler did not run")
	}
	if exists(t, fs, issued.StoragePath) {
		t.Fatalf("file must be removed after request")
	}
}

func TestMiddleware_CleansUpOnPanic(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDir(fs, "/tmp")

	var issued *models.UploadHandle
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, _ := ScopeFrom(r.Context())
		issued = newHandle(t, d, "body")
		scope.Register(issued)
		panic("boom")
	}))

	func() {
		defer func() { _ = recover() }()
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	}()

	if exists(t, fs, issued.StoragePath) {
		t.Fatalf("file must be removed even when handler panics")
	}
}
