package tmpstore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/spf13/afero"
)

const dirNamePrefix = "upload_lite-"

// Dir — временный каталог процесса. Создаётся лениво при первой записи и
// удаляется целиком через Close при остановке процесса.
type Dir struct {
	fs     afero.Fs
	base   string
	root   string
	prefix string
	seq    atomic.Uint64

	mu      sync.Mutex
	created bool
	closed  bool
}

var (
	defaultDir  *Dir
	defaultOnce sync.Once
)

// Default возвращает общий для процесса каталог в os.TempDir().
func Default() *Dir {
	defaultOnce.Do(func() {
		defaultDir = NewDir(afero.NewOsFs(), "")
	})
	return defaultDir
}

// NewDir создаёт описание каталога внутри base. На диске ничего не создаётся до первой записи.
func NewDir(fs afero.Fs, base string) *Dir {
	if base == "" {
		base = os.TempDir()
	}
	pid := os.Getpid()
	return &Dir{
		fs:     fs,
		base:   base,
		root:   filepath.Join(base, fmt.Sprintf("%s%d-%s", dirNamePrefix, pid, randomSuffix())),
		prefix: fmt.Sprintf("upload-%d", pid),
	}
}

// Path возвращает путь каталога процесса.
func (d *Dir) Path() string {
	return d.root
}

// Fs возвращает файловую систему каталога.
func (d *Dir) Fs() afero.Fs {
	return d.fs
}

// OpenUnique создаёт новый файл с уникальным именем.
// Имя = префикс процесса + атомарный счётчик + случайный UUID, файл открывается с O_EXCL.
func (d *Dir) OpenUnique() (*SinkFile, error) {
	if err := d.ensure(); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s-%d-%s", d.prefix, d.seq.Add(1), uuid.NewString())
	path := filepath.Join(d.root, name)

	f, err := d.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if os.IsNotExist(err) {
		// каталог могли удалить извне (tmp cleaner), пересоздаём один раз
		if err = d.fs.MkdirAll(d.root, 0o700); err == nil {
			f, err = d.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %w", models.ErrStorageUnavailable, err)
	}

	return &SinkFile{f: f, path: path}, nil
}

// Close удаляет каталог со всем содержимым. Последующие OpenUnique завершаются ошибкой.
func (d *Dir) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if !d.created {
		return nil
	}
	return d.fs.RemoveAll(d.root)
}

func (d *Dir) ensure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("%w: temp dir is closed", models.ErrStorageUnavailable)
	}
	if d.created {
		return nil
	}
	if err := d.fs.MkdirAll(d.root, 0o700); err != nil {
		return fmt.Errorf("%w: create temp dir: %w", models.ErrStorageUnavailable, err)
	}
	d.created = true
	return nil
}

func randomSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
