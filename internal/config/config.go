package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `env:"ENV" env-default:"local"`
	DatabaseURL string `env:"DATABASE_URL" env-required:"true"`
	// MigrateOnStart — применять миграции при старте сервиса
	MigrateOnStart bool `env:"MIGRATE_ON_START" env-default:"false"`
	HTTP           HTTPConfig
	CORS           CORSConfig
	Redis          RedisConfig
	Scoring        ScoringConfig
	Reservation    ReservationConfig
}

type HTTPConfig struct {
	Address           string        `env:"HTTP_ADDRESS" env-default:"0.0.0.0:8000"`
	Timeout           time.Duration `env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"5s"`
	// BaseURL — внешний адрес сервиса для ссылок в JSON-LD; пусто — берётся из запроса
	BaseURL string `env:"HTTP_BASE_URL"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// RedisConfig — конфигурация Redis для распределённой блокировки бронирований.
// Если Redis выключен, используется блокировка в памяти процесса.
type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLE" env-default:"false"`
	Addr     string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	LockTTL  time.Duration `env:"REDIS_LOCK_TTL" env-default:"10s"`
}

// ScoringConfig — параметры функций близости движка ранжирования.
type ScoringConfig struct {
	// BudgetTolerance — разница в цене, при которой близость по бюджету падает до 0.5
	BudgetTolerance float64 `env:"SCORING_BUDGET_TOLERANCE" env-default:"50"`
	// DateToleranceDays — расстояние в днях, при котором близость по дате падает до 0.5
	DateToleranceDays float64 `env:"SCORING_DATE_TOLERANCE_DAYS" env-default:"3"`
	// MissingDateCloseness — близость по дате для объявлений без данных о доступности
	MissingDateCloseness float64 `env:"SCORING_MISSING_DATE_CLOSENESS" env-default:"0.5"`
	// PartialNeighborhoodCloseness — близость при частичном совпадении названия района
	PartialNeighborhoodCloseness float64 `env:"SCORING_PARTIAL_NEIGHBORHOOD_CLOSENESS" env-default:"0.5"`
	// NeighborhoodHardFilter — при важности района 10 исключать объявления из других районов
	NeighborhoodHardFilter bool `env:"SCORING_NEIGHBORHOOD_HARD_FILTER" env-default:"false"`
}

type ReservationConfig struct {
	Timeout time.Duration `env:"RESERVATION_TIMEOUT" env-default:"5s"`
}

// DefaultScoring возвращает параметры ранжирования по умолчанию.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		BudgetTolerance:              50,
		DateToleranceDays:            3,
		MissingDateCloseness:         0.5,
		PartialNeighborhoodCloseness: 0.5,
	}
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read config from environment: " + err.Error())
	}
	return &cfg
}

// ImporterConfig — конфигурация утилиты загрузки CSV в базу.
type ImporterConfig struct {
	Env              string `env:"ENV" env-default:"local"`
	DatabaseURL      string `env:"DATABASE_URL" env-required:"true"`
	NeighborhoodsCSV string `env:"IMPORT_NEIGHBORHOODS_CSV" env-default:"data/neighbourhood.csv"`
	ListingsCSV      string `env:"IMPORT_LISTINGS_CSV" env-default:"data/finallisting.csv"`
}

func MustLoadImporter() *ImporterConfig {
	var cfg ImporterConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read importer config from environment: " + err.Error())
	}
	return &cfg
}
