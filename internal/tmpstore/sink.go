package tmpstore

import (
	"fmt"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/spf13/afero"
)

// SinkFile — открытый на запись временный файл одной файловой части.
type SinkFile struct {
	f      afero.File
	path   string
	size   int64
	closed bool
}

// Write дописывает данные в файл. Любая ошибка ФС — ErrStorageUnavailable.
func (s *SinkFile) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	s.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("%w: write temp file: %w", models.ErrStorageUnavailable, err)
	}
	return n, nil
}

// Close закрывает файл и возвращает его итоговый путь. Повторный вызов безопасен.
func (s *SinkFile) Close() (string, error) {
	if s.closed {
		return s.path, nil
	}
	s.closed = true
	if err := s.f.Close(); err != nil {
		return s.path, fmt.Errorf("%w: close temp file: %w", models.ErrStorageUnavailable, err)
	}
	return s.path, nil
}

// Path возвращает путь файла.
func (s *SinkFile) Path() string {
	return s.path
}

// Size возвращает число записанных байт.
func (s *SinkFile) Size() int64 {
	return s.size
}
