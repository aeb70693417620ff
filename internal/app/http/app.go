package httpapp

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"room_finder/internal/config"
	"room_finder/internal/http/listinghttp"
	"room_finder/internal/http/suggestionhttp"
	"room_finder/internal/lib/api"
	"room_finder/internal/lib/logger/sl"
	"room_finder/internal/lib/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openAPIDoc []byte

// HealthCheck — проверка одной зависимости для /health.
type HealthCheck func(ctx context.Context) error

// Services — сервисы, которые обслуживает HTTP-приложение.
type Services struct {
	Suggestions  suggestionhttp.SuggestionService
	Reservations suggestionhttp.ReservationService
	Listings     listinghttp.ListingService
}

type App struct {
	log        *slog.Logger
	httpServer *http.Server
	address    string
}

// Option — опция для конфигурации HTTP-приложения.
type Option func(*options)

type options struct {
	checks   map[string]HealthCheck
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	baseURL  string
}

// WithHealthCheck добавляет проверку зависимости в /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(o *options) {
		o.checks[name] = check
	}
}

// WithMetrics подключает /metrics и /stats (GET и DELETE для сброса).
func WithMetrics(reg *prometheus.Registry, m *metrics.Metrics) Option {
	return func(o *options) {
		o.registry = reg
		o.metrics = m
	}
}

// WithBaseURL задаёт внешний адрес сервиса для ссылок в JSON-LD.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// New создаёт HTTP-приложение.
func New(log *slog.Logger, cfg config.HTTPConfig, corsCfg config.CORSConfig, svc Services, opts ...Option) *App {
	o := &options{checks: map[string]HealthCheck{}}
	for _, opt := range opts {
		opt(o)
	}

	return &App{
		log:     log,
		address: cfg.Address,
		httpServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           newRouter(log, corsCfg, cfg.Timeout, svc, o),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.Timeout,
			WriteTimeout:      cfg.Timeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
}

// newRouter собирает chi-роутер со всеми маршрутами сервиса.
func newRouter(log *slog.Logger, corsCfg config.CORSConfig, timeout time.Duration, svc Services, o *options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	r.Use(cors.New(cors.Options{
		AllowedOrigins: corsCfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}).Handler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, api.MessageResponse{Message: "Hello World"})
	})
	r.Get("/hello/{name}", func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, api.MessageResponse{Message: "Hello " + chi.URLParam(r, "name")})
	})
	r.Get("/health", healthHandler(log, o.checks))

	if o.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{}))
	}
	if o.metrics != nil {
		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			api.JSON(w, http.StatusOK, o.metrics.GetStats())
		})
		r.Delete("/stats", func(w http.ResponseWriter, r *http.Request) {
			o.metrics.Reset()
			w.WriteHeader(http.StatusNoContent)
		})
	}

	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openAPIDoc)
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	suggestionhttp.Register(r, log, svc.Suggestions, svc.Reservations)

	var listingOpts []listinghttp.ServerOption
	if o.baseURL != "" {
		listingOpts = append(listingOpts, listinghttp.WithBaseURL(o.baseURL))
	}
	listinghttp.Register(r, log, svc.Listings, listingOpts...)

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(log *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK

		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.Warn("health check failed", slog.String("dependency", name), sl.Err(err))
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		api.JSON(w, status, resp)
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	log = log.With(slog.String("component", "middleware/logger"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := log.With(
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			defer func() {
				entry.Info("request completed",
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.String("duration", time.Since(start).String()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Handler возвращает корневой обработчик сервера.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// MustRun запускает HTTP-сервер и паникует при ошибке.
func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

// Run запускает HTTP-сервер. Блокирует до остановки.
func (a *App) Run() error {
	const op = "httpapp.Run"

	l, err := net.Listen("tcp", a.address)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("http server started", slog.String("addr", l.Addr().String()))

	if err := a.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Stop корректно останавливает HTTP-сервер.
func (a *App) Stop(ctx context.Context) {
	const op = "httpapp.Stop"

	a.log.With(slog.String("op", op)).Info("stopping http server", slog.String("addr", a.address))

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("failed to shutdown http server", sl.Err(err))
	}
}
