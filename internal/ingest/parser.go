package ingest

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/internal/tmpstore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/sir_venger/upload_lite/internal/ingest"

var errNoScope = errors.New("ingest: request has no upload scope")

// Parser собирает конвейер разбора для одного запроса.
type Parser struct {
	dir     *tmpstore.Dir
	limits  models.ParserLimits
	metrics *Metrics
	tracer  trace.Tracer
}

// Option настраивает Parser.
type Option func(*Parser)

// WithMetrics включает Prometheus-метрики.
func WithMetrics(m *Metrics) Option {
	return func(p *Parser) {
		p.metrics = m
	}
}

// WithTracer задаёт трейсер вместо глобального.
func WithTracer(t trace.Tracer) Option {
	return func(p *Parser) {
		p.tracer = t
	}
}

// NewParser проверяет лимиты и создаёт парсер поверх временного каталога.
func NewParser(dir *tmpstore.Dir, limits models.ParserLimits, opts ...Option) (*Parser, error) {
	if dir == nil {
		return nil, fmt.Errorf("temp dir is nil")
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	p := &Parser{
		dir:    dir,
		limits: limits,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Limits возвращает лимиты парсера.
func (p *Parser) Limits() models.ParserLimits {
	return p.limits
}

// Parse разбирает multipart/form-data тело r. Файлы регистрируются в scope
// (nil — область из контекста запроса, см. tmpstore.Middleware). w нужен для
// дедлайнов чтения через http.ResponseController и может быть nil.
func (p *Parser) Parse(w http.ResponseWriter, r *http.Request, scope *tmpstore.Scope) (fields *models.FieldMap, err error) {
	ctx, span := p.tracer.Start(r.Context(), "ingest.Parse")
	start := time.Now()
	var consumed int64
	defer func() {
		p.finish(span, start, consumed, fields, err)
	}()

	if scope == nil {
		var ok bool
		if scope, ok = tmpstore.ScopeFrom(r.Context()); !ok {
			return nil, errNoScope
		}
	}

	boundary, err := formBoundary(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	if p.limits.MaxBodyBytes > 0 && r.ContentLength > p.limits.MaxBodyBytes {
		return nil, fmt.Errorf("%w: declared length %d exceeds %d bytes", models.ErrPayloadTooLarge, r.ContentLength, p.limits.MaxBodyBytes)
	}

	var deadline DeadlineSetter
	if w != nil {
		rc := http.NewResponseController(w)
		deadline = rc
		defer func() {
			_ = rc.SetReadDeadline(time.Time{})
		}()
	}

	chunks := NewChunkReader(ctx, r.Body, p.limits.ReadChunkBytes, p.limits.ReadTimeout, deadline)
	limiter := NewLimiter(chunks, p.limits.MaxBodyBytes)
	demux := newDemux(newChunkStream(limiter), boundary, p.dir, scope, p.limits)

	fields, err = demux.Run()
	consumed = limiter.Consumed()
	return fields, err
}

func (p *Parser) finish(span trace.Span, start time.Time, consumed int64, fields *models.FieldMap, err error) {
	defer span.End()

	files := 0
	if fields != nil {
		files = len(fields.Uploads())
		span.SetAttributes(attribute.Int("upload.fields", fields.Len()))
	}
	outcome := Outcome(err)
	span.SetAttributes(
		attribute.Int64("upload.body_bytes", consumed),
		attribute.Int("upload.files", files),
		attribute.String("upload.outcome", outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}

	p.metrics.observe(outcome, consumed, files, time.Since(start))
}

// formBoundary проверяет Content-Type запроса и возвращает границу частей.
func formBoundary(contentType string) (string, error) {
	if contentType == "" {
		return "", fmt.Errorf("%w: missing content type", models.ErrUnsupportedMediaType)
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrUnsupportedMediaType, err)
	}
	if mediaType != "multipart/form-data" {
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedMediaType, mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("%w: missing boundary", models.ErrMalformedMultipart)
	}
	return boundary, nil
}
