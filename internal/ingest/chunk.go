package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/sir_venger/upload_lite/internal/models"
)

// DeadlineSetter — транспорт с дедлайном на чтение (например, http.ResponseController).
type DeadlineSetter interface {
	SetReadDeadline(deadline time.Time) error
}

// ChunkReader читает тело порциями не больше size байт. Таймаут действует на
// каждую порцию отдельно, а не на весь запрос. После ошибки ридер остаётся сломанным.
type ChunkReader struct {
	ctx      context.Context
	src      io.Reader
	deadline DeadlineSetter
	size     int
	timeout  time.Duration

	buf []byte
	eof bool
	err error
}

// NewChunkReader создаёт ридер порций. deadline может быть nil — тогда таймаут
// отсчитывается таймером.
func NewChunkReader(ctx context.Context, src io.Reader, size int, timeout time.Duration, deadline DeadlineSetter) *ChunkReader {
	if size <= 0 {
		size = models.DefaultReadChunkBytes
	}
	return &ChunkReader{
		ctx:      ctx,
		src:      src,
		deadline: deadline,
		size:     size,
		timeout:  timeout,
	}
}

// ChunkSize возвращает максимальный размер порции.
func (c *ChunkReader) ChunkSize() int {
	return c.size
}

// ReadChunk читает одну порцию не длиннее max (max <= 0 — размер порции).
// Возвращённый срез валиден до следующего вызова. Конец потока — io.EOF.
func (c *ChunkReader) ReadChunk(max int) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.eof {
		return nil, io.EOF
	}
	if err := c.ctx.Err(); err != nil {
		c.err = clientGone(err)
		return nil, c.err
	}

	n := c.size
	if max > 0 && max < n {
		n = max
	}
	if c.buf == nil {
		c.buf = make([]byte, c.size)
	}

	got, err := c.read(c.buf[:n])
	switch {
	case errors.Is(err, io.EOF):
		c.eof = true
		if got == 0 {
			return nil, io.EOF
		}
	case err != nil:
		c.err = err
		return nil, err
	}

	return c.buf[:got], nil
}

func (c *ChunkReader) read(p []byte) (int, error) {
	if c.timeout <= 0 {
		return c.src.Read(p)
	}

	if c.deadline != nil {
		if err := c.deadline.SetReadDeadline(time.Now().Add(c.timeout)); err == nil {
			n, err := c.src.Read(p)
			if isTimeout(err) {
				return n, c.timeoutErr()
			}
			return n, err
		}
		// транспорт не поддерживает дедлайны (http.ErrNotSupported), дальше только таймер
		c.deadline = nil
	}

	return c.readWithTimer(p)
}

func (c *ChunkReader) readWithTimer(p []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := c.src.Read(p)
		done <- result{n: n, err: err}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.n, res.err
	case <-timer.C:
		// буфер остаётся за повисшим чтением и больше не используется
		c.buf = nil
		return 0, c.timeoutErr()
	case <-c.ctx.Done():
		c.buf = nil
		return 0, clientGone(c.ctx.Err())
	}
}

func (c *ChunkReader) timeoutErr() error {
	return fmt.Errorf("%w: no data within %s", models.ErrReadTimeout, c.timeout)
}

func clientGone(err error) error {
	return fmt.Errorf("%w: client went away: %w", models.ErrMalformedMultipart, err)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
