package uploadclient

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	barWidth    = 32
	renderEvery = 120 * time.Millisecond
)

// progressBar рисует однострочный индикатор передачи. nil-бар ничего не делает.
type progressBar struct {
	out     io.Writer
	label   string
	total   int64
	started time.Time

	mu       sync.Mutex
	done     int64
	drawnAt  time.Time
	width    int
	finished bool
}

func newProgressBar(out io.Writer, label string, total int64) *progressBar {
	if out == nil {
		return nil
	}
	return &progressBar{out: out, label: label, total: total, started: time.Now()}
}

func (p *progressBar) AddBytes(n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.done += n
	if time.Since(p.drawnAt) >= renderEvery {
		p.drawLocked("", false)
	}
}

func (p *progressBar) render(force bool, suffix string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished || (!force && time.Since(p.drawnAt) < renderEvery) {
		return
	}
	p.drawLocked(suffix, false)
}

func (p *progressBar) Finish() {
	p.complete(" ✓")
}

func (p *progressBar) Fail(err error) {
	if err == nil {
		p.complete(" ✗")
		return
	}
	p.complete(fmt.Sprintf(" ✗ %v", err))
}

func (p *progressBar) complete(suffix string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	p.drawLocked(suffix, true)
}

// drawLocked перерисовывает строку поверх предыдущей, затирая хвост пробелами.
func (p *progressBar) drawLocked(suffix string, last bool) {
	line := p.lineLocked() + suffix
	pad := ""
	if p.width > len(line) {
		pad = strings.Repeat(" ", p.width-len(line))
	}
	p.width = len(line)
	p.drawnAt = time.Now()

	end := ""
	if last {
		end = "\n"
	}
	fmt.Fprintf(p.out, "\r%s%s%s", line, pad, end)
}

func (p *progressBar) lineLocked() string {
	var b strings.Builder
	b.WriteString(p.label)
	b.WriteByte(' ')

	if p.total > 0 {
		ratio := float64(p.done) / float64(p.total)
		if ratio > 1 {
			ratio = 1
		}
		filled := int(ratio*barWidth + 0.5)
		fmt.Fprintf(&b, "[%s%s] %3d%% %s/%s",
			strings.Repeat("=", filled), strings.Repeat(" ", barWidth-filled),
			int(ratio*100+0.5), humanize.IBytes(uint64(p.done)), humanize.IBytes(uint64(p.total)))
	} else {
		fmt.Fprintf(&b, "%s transferred", humanize.IBytes(uint64(p.done)))
	}

	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 && p.done > 0 {
		fmt.Fprintf(&b, " (%s/s)", humanize.IBytes(uint64(float64(p.done)/elapsed)))
	}
	return b.String()
}

// progressWriter считает байты, прошедшие через io.TeeReader.
type progressWriter struct {
	bar *progressBar
}

func (w progressWriter) Write(p []byte) (int, error) {
	w.bar.AddBytes(int64(len(p)))
	return len(p), nil
}

// progressReadCloser ведёт индикатор при чтении ответа и закрывает его на EOF или ошибке.
type progressReadCloser struct {
	io.ReadCloser
	bar  *progressBar
	once sync.Once
}

func newProgressReadCloser(inner io.ReadCloser, bar *progressBar) io.ReadCloser {
	if bar == nil {
		return inner
	}
	return &progressReadCloser{ReadCloser: inner, bar: bar}
}

func (p *progressReadCloser) Read(b []byte) (int, error) {
	n, err := p.ReadCloser.Read(b)
	p.bar.AddBytes(int64(n))
	if err != nil {
		p.finish(err)
	}
	return n, err
}

func (p *progressReadCloser) Close() error {
	err := p.ReadCloser.Close()
	p.finish(err)
	return err
}

func (p *progressReadCloser) finish(err error) {
	p.once.Do(func() {
		if err != nil && err != io.EOF {
			p.bar.Fail(err)
			return
		}
		p.bar.Finish()
	})
}
