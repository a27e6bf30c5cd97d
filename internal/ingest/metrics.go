package ingest

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sir_venger/upload_lite/internal/models"
)

// Outcome-метки разбора. Ограниченный набор, чтобы не раздувать кардинальность.
const (
	OutcomeOK                 = "ok"
	OutcomeReadTimeout        = "read_timeout"
	OutcomePayloadTooLarge    = "payload_too_large"
	OutcomeMalformed          = "malformed"
	OutcomeUnsupportedMedia   = "unsupported_media_type"
	OutcomeStorageUnavailable = "storage_unavailable"
	OutcomeError              = "error"
)

// Outcome возвращает метку результата разбора по ошибке.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, models.ErrPayloadTooLarge):
		return OutcomePayloadTooLarge
	case errors.Is(err, models.ErrReadTimeout):
		return OutcomeReadTimeout
	case errors.Is(err, models.ErrUnsupportedMediaType):
		return OutcomeUnsupportedMedia
	case errors.Is(err, models.ErrStorageUnavailable):
		return OutcomeStorageUnavailable
	case errors.Is(err, models.ErrMalformedMultipart):
		return OutcomeMalformed
	default:
		return OutcomeError
	}
}

// Metrics — Prometheus-метрики разбора. Nil-значение допустимо и ничего не пишет.
type Metrics struct {
	requests  *prometheus.CounterVec
	bodyBytes prometheus.Histogram
	files     prometheus.Counter
	duration  prometheus.Histogram
}

// NewMetrics регистрирует метрики в reg (nil — prometheus.DefaultRegisterer).
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "upload_lite"
	}
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "requests_total",
			Help:      "Multipart bodies parsed, by outcome",
		}, []string{"outcome"}),

		bodyBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "body_bytes",
			Help:      "Bytes consumed from the request body per parse",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 9), // 1KB .. 64MB
		}),

		files: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "files_total",
			Help:      "File parts materialized to temporary storage",
		}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Time spent parsing a multipart body",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(outcome string, consumed int64, files int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.bodyBytes.Observe(float64(consumed))
	m.files.Add(float64(files))
	m.duration.Observe(elapsed.Seconds())
}
