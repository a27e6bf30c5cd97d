package tmpstore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sir_venger/upload_lite/pkg/log"
	"github.com/spf13/afero"
)

// Stats — объём временного каталога для health-check'ов.
type Stats struct {
	Files int
	Bytes int64
}

// StartGC стартует периодическую уборку каталога. Возвращает идемпотентную функцию остановки.
func StartGC(d *Dir, ttl time.Duration, every time.Duration) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := d.SweepOnce(ttl); err != nil {
					log.WithError(err).Warn("temp dir sweep failed")
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

// SweepOnce удаляет файлы каталога старше ttl и каталоги других процессов
// (upload_lite-*), не менявшиеся дольше ttl.
func (d *Dir) SweepOnce(ttl time.Duration) error {
	cutoff := time.Now().Add(-ttl)
	removed := 0

	entries, err := afero.ReadDir(d.fs, d.root)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !e.ModTime().Before(cutoff) {
			continue
		}
		if err := d.fs.Remove(filepath.Join(d.root, e.Name())); err == nil {
			removed++
		}
	}

	siblings, err := afero.ReadDir(d.fs, d.base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	own := filepath.Base(d.root)
	for _, e := range siblings {
		if !e.IsDir() || e.Name() == own || !strings.HasPrefix(e.Name(), dirNamePrefix) {
			continue
		}
		if !e.ModTime().Before(cutoff) {
			continue
		}
		if err := d.fs.RemoveAll(filepath.Join(d.base, e.Name())); err == nil {
			removed++
		}
	}

	if removed > 0 {
		log.WithField("removed", removed).Info("temp dir sweep")
	}
	return nil
}

// Stats считает файлы и байты во временном каталоге процесса.
func (d *Dir) Stats() (Stats, error) {
	var st Stats
	entries, err := afero.ReadDir(d.fs, d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		st.Files++
		st.Bytes += e.Size()
	}
	return st, nil
}
