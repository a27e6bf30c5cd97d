package tmpstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/log"
	"github.com/spf13/afero"
)

// Scope владеет временными файлами одного запроса.
// Cleanup удаляет всё, что не было передано через Transfer/TransferTo.
type Scope struct {
	fs afero.Fs

	mu    sync.Mutex
	owned map[string]*models.UploadHandle
	done  bool
}

// NewScope создаёт пустую область владения над файловой системой каталога.
func (d *Dir) NewScope() *Scope {
	return NewScope(d.fs)
}

// NewScope создаёт пустую область владения.
func NewScope(fs afero.Fs) *Scope {
	return &Scope{
		fs:    fs,
		owned: map[string]*models.UploadHandle{},
	}
}

// Track берёт во владение путь ещё недописанного файла, чтобы он был удалён даже при обрыве.
func (s *Scope) Track(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return fmt.Errorf("%w: request scope already cleaned up", models.ErrStorageUnavailable)
	}
	if _, ok := s.owned[path]; !ok {
		s.owned[path] = nil
	}
	return nil
}

// Register привязывает готовый handle к области. Если область уже закрыта, файл удаляется сразу.
func (s *Scope) Register(h *models.UploadHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		s.remove(h.StoragePath)
		return
	}
	s.owned[h.StoragePath] = h
}

// Owns сообщает, удалит ли область файл handle при очистке.
func (s *Scope) Owns(h *models.UploadHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.owned[h.StoragePath]
	return ok
}

// Pending возвращает количество файлов, которые будут удалены при очистке.
func (s *Scope) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owned)
}

// Transfer исключает файл из очистки. Дальше за удаление отвечает вызывающий.
func (s *Scope) Transfer(h *models.UploadHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owned[h.StoragePath]; !ok {
		return models.ErrNotOwned
	}
	delete(s.owned, h.StoragePath)
	return nil
}

// TransferTo переносит файл в dst и исключает его из очистки.
// При успехе h.StoragePath указывает на новое место.
func (s *Scope) TransferTo(h *models.UploadHandle, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := h.StoragePath
	if _, ok := s.owned[src]; !ok {
		return models.ErrNotOwned
	}
	if err := s.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("%w: prepare %s: %w", models.ErrStorageUnavailable, dst, err)
	}
	if err := s.move(src, dst); err != nil {
		return err
	}

	delete(s.owned, src)
	h.StoragePath = dst
	return nil
}

// Release удаляет файл handle немедленно. Повторный вызов и чужие handle — no-op.
func (s *Scope) Release(h *models.UploadHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owned[h.StoragePath]; !ok {
		return
	}
	delete(s.owned, h.StoragePath)
	s.remove(h.StoragePath)
}

// Cleanup удаляет все файлы во владении. Вызывается на любом выходе из запроса; идемпотентен.
func (s *Scope) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	for path := range s.owned {
		s.remove(path)
		delete(s.owned, path)
	}
}

// remove удаляет файл, проглатывая ошибки: файл уже логически выброшен.
func (s *Scope) remove(path string) {
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		log.WithField("path", path).WithError(err).Debug("temp file removal failed")
	}
}

func (s *Scope) move(src, dst string) error {
	if err := s.fs.Rename(src, dst); err == nil {
		return nil
	}

	// rename не работает между устройствами: копируем и удаляем исходник
	in, err := s.fs.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", models.ErrStorageUnavailable, src, err)
	}
	defer in.Close()

	out, err := s.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", models.ErrStorageUnavailable, dst, err)
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = s.fs.Remove(dst)
		return fmt.Errorf("%w: copy to %s: %w", models.ErrStorageUnavailable, dst, err)
	}
	if err = out.Close(); err != nil {
		_ = s.fs.Remove(dst)
		return fmt.Errorf("%w: close %s: %w", models.ErrStorageUnavailable, dst, err)
	}

	s.remove(src)
	return nil
}

type scopeKey struct{}

// WithScope кладёт область владения в контекст запроса.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom достаёт область владения из контекста.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}
