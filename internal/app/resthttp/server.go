package resthttp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sir_venger/upload_lite/internal/config"
	"github.com/sir_venger/upload_lite/internal/ingest"
	"github.com/sir_venger/upload_lite/internal/repo"
	"github.com/sir_venger/upload_lite/internal/tmpstore"
	"github.com/sir_venger/upload_lite/internal/usecase/catalog"
	"github.com/spf13/afero"
)

type Deps struct {
	Catalog catalog.Service
	Parser  *ingest.Parser
	TmpDir  *tmpstore.Dir
	// UploadFs + UploadDir раздаются через GET /uploads/*.
	UploadFs  afero.Fs
	UploadDir string
	Gatherer  prometheus.Gatherer
	GCTTL     time.Duration
}

type Server struct {
	Deps
	close func()
}

// New собирает сервер из готовых зависимостей.
func New(deps Deps) *Server {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{Deps: deps, close: func() {}}
}

// NewServer конструктор: поднимает хранилище карточек, метрики и парсер по конфигурации.
func NewServer(ctx context.Context, cfg *config.Config, tmp *tmpstore.Dir) (http.Handler, *Server, error) {
	store, err := repo.Open(ctx, cfg.MetaDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open product store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	parser, err := ingest.NewParser(tmp, cfg.Limits(), ingest.WithMetrics(ingest.NewMetrics(reg, "")))
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	srv := New(Deps{
		Catalog: catalog.New(catalog.Deps{
			Store:     store,
			Fs:        tmp.Fs(),
			UploadDir: cfg.UploadDir,
		}),
		Parser:    parser,
		TmpDir:    tmp,
		UploadFs:  tmp.Fs(),
		UploadDir: cfg.UploadDir,
		Gatherer:  reg,
		GCTTL:     cfg.GCTTL(),
	})
	srv.close = store.Close

	return srv.Routes(), srv, nil
}

// Routes возвращает chi-роутер со всеми эндпоинтами.
func (s *Server) Routes() http.Handler {
	rtr := chi.NewRouter()
	rtr.Use(middleware.RequestID)
	rtr.Use(requestLog)
	rtr.Use(middleware.Recoverer)

	rtr.With(s.TmpDir.Middleware).Post("/products", s.postProduct)
	rtr.Get("/products/{id}", s.getProduct)
	rtr.Get("/uploads/*", s.uploads())
	rtr.Get("/health", s.health)
	rtr.Post("/admin/gc", s.gcOnce)
	rtr.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	return rtr
}

// Close освобождает хранилище карточек.
func (s *Server) Close() {
	s.close()
}
