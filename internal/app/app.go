package app

import (
	"context"
	"log/slog"

	httpapp "room_finder/internal/app/http"
	"room_finder/internal/config"
	"room_finder/internal/lib/lock"
	"room_finder/internal/lib/metrics"
	"room_finder/internal/repository/listing_repository"
	"room_finder/internal/services/listing"
	"room_finder/internal/services/reservation"
	"room_finder/internal/services/suggestion"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

type App struct {
	HTTPServer *httpapp.App
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
}

// New собирает зависимости сервиса. redisClient может быть nil,
// тогда бронирования сериализуются блокировкой в памяти процесса.
func New(log *slog.Logger, pool *pgxpool.Pool, redisClient redis.UniversalClient, cfg *config.Config) *App {
	listingRepository := listing_repository.NewListingRepository(pool, log)

	// Метрики операций и стандартные метрики процесса
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(log)
	if err := m.Register(registry); err != nil {
		panic("cannot register metrics: " + err.Error())
	}

	var locker lock.Locker
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, lock.WithTTL(cfg.Redis.LockTTL))
	} else {
		locker = lock.NewKeyedMutex()
	}

	log.Info("services initialized",
		slog.Bool("redis_lock_enabled", redisClient != nil),
		slog.Bool("neighborhood_hard_filter", cfg.Scoring.NeighborhoodHardFilter),
		slog.Float64("budget_tolerance", cfg.Scoring.BudgetTolerance),
		slog.Float64("date_tolerance_days", cfg.Scoring.DateToleranceDays),
	)

	engine := suggestion.NewEngine(cfg.Scoring)
	suggestionService := suggestion.New(log, listingRepository, engine, m)
	reservationService := reservation.New(log, listingRepository, locker, cfg.Reservation.Timeout, m)
	listingService := listing.New(log, listingRepository)

	opts := []httpapp.Option{
		httpapp.WithMetrics(registry, m),
		httpapp.WithHealthCheck("postgres", listingRepository.Ping),
		httpapp.WithBaseURL(cfg.HTTP.BaseURL),
	}
	if redisClient != nil {
		opts = append(opts, httpapp.WithHealthCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	httpApp := httpapp.New(log, cfg.HTTP, cfg.CORS, httpapp.Services{
		Suggestions:  suggestionService,
		Reservations: reservationService,
		Listings:     listingService,
	}, opts...)

	return &App{
		HTTPServer: httpApp,
		Metrics:    m,
		Registry:   registry,
	}
}
