package ingest

import (
	"fmt"

	"github.com/sir_venger/upload_lite/internal/models"
)

// Limiter считает прочитанные байты тела и обрывает поток, как только сумма
// превышает max. Из транспорта запрашивается не больше remaining+1 байт, а
// порция, перешедшая лимит, дальше не отдаётся. max <= 0 — без лимита.
type Limiter struct {
	src      *ChunkReader
	max      int64
	consumed int64
}

// NewLimiter оборачивает ридер порций лимитом.
func NewLimiter(src *ChunkReader, max int64) *Limiter {
	return &Limiter{src: src, max: max}
}

// ReadChunk читает следующую порцию с учётом лимита.
func (l *Limiter) ReadChunk() ([]byte, error) {
	want := l.src.ChunkSize()
	if l.max > 0 {
		if remaining := l.max - l.consumed; int64(want) > remaining+1 {
			want = int(remaining + 1)
		}
	}

	b, err := l.src.ReadChunk(want)
	l.consumed += int64(len(b))
	if l.max > 0 && l.consumed > l.max {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", models.ErrPayloadTooLarge, l.max)
	}

	return b, err
}

// Consumed возвращает число байт, прочитанных из транспорта.
func (l *Limiter) Consumed() int64 {
	return l.consumed
}
