package metrics

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Имена метрик Prometheus.
const (
	MetricOperationsTotal   = "room_finder_operations_total"
	MetricOperationDuration = "room_finder_operation_duration_seconds"
	MetricRankedCandidates  = "room_finder_ranked_candidates"
)

// Operation — тип операции, для которой собираются метрики.
type Operation string

const (
	OperationRank    Operation = "rank"
	OperationReserve Operation = "reserve"
	OperationImport  Operation = "import"
)

// Исходы операций.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
)

// Metrics — метрики операций сервиса: атомарные счётчики для /stats
// и коллекторы Prometheus для /metrics.
// Все методы безопасны для nil-получателя.
type Metrics struct {
	log *slog.Logger

	rank    opCounters
	reserve opCounters
	imports opCounters

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	rankedCandidates  prometheus.Histogram
}

type opCounters struct {
	callsTotal     int64
	errorsTotal    int64
	latencyTotalUs int64
	lastLatencyUs  int64
	itemsTotal     int64
}

// New создаёт метрики. Коллекторы не регистрируются, для этого есть Register.
func New(log *slog.Logger) *Metrics {
	return &Metrics{
		log: log,
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricOperationsTotal,
				Help: "Total number of operations by type and outcome",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricOperationDuration,
				Help:    "Histogram of operation duration in seconds by type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		rankedCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricRankedCandidates,
				Help:    "Number of candidate listings scored per ranking request",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

// Register регистрирует коллекторы в реестре.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors возвращает все коллекторы Prometheus.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.rankedCandidates,
	}
}

func (m *Metrics) counters(op Operation) *opCounters {
	switch op {
	case OperationRank:
		return &m.rank
	case OperationReserve:
		return &m.reserve
	case OperationImport:
		return &m.imports
	default:
		return nil
	}
}

// RecordCall записывает завершённую операцию.
// outcome — один из Outcome*; всё, кроме OutcomeSuccess, считается ошибкой в /stats.
func (m *Metrics) RecordCall(op Operation, latency time.Duration, outcome string) {
	if m == nil {
		return
	}

	latencyUs := latency.Microseconds()
	if c := m.counters(op); c != nil {
		atomic.AddInt64(&c.callsTotal, 1)
		atomic.AddInt64(&c.latencyTotalUs, latencyUs)
		atomic.StoreInt64(&c.lastLatencyUs, latencyUs)
		if outcome != OutcomeSuccess {
			atomic.AddInt64(&c.errorsTotal, 1)
		}
	}

	m.operationsTotal.WithLabelValues(string(op), outcome).Inc()
	m.operationDuration.WithLabelValues(string(op)).Observe(latency.Seconds())

	if m.log != nil {
		m.log.Debug("operation completed",
			slog.String("operation", string(op)),
			slog.String("outcome", outcome),
			slog.Int64("latency_us", latencyUs),
		)
	}
}

// ObserveCandidates записывает число оценённых объявлений за один запрос ранжирования.
func (m *Metrics) ObserveCandidates(n int) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.rank.itemsTotal, int64(n))
	m.rankedCandidates.Observe(float64(n))
}

// AddImported увеличивает счётчик импортированных строк.
func (m *Metrics) AddImported(n int) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.imports.itemsTotal, int64(n))
}

// CallTimer помогает измерять время операции.
type CallTimer struct {
	metrics   *Metrics
	op        Operation
	startTime time.Time
}

// StartTimer начинает измерение времени операции.
func (m *Metrics) StartTimer(op Operation) *CallTimer {
	return &CallTimer{
		metrics:   m,
		op:        op,
		startTime: time.Now(),
	}
}

// Stop останавливает таймер и записывает метрики.
func (t *CallTimer) Stop(outcome string) {
	t.metrics.RecordCall(t.op, time.Since(t.startTime), outcome)
}

// Stats — текущая статистика по операциям.
type Stats struct {
	Rank    OperationStats `json:"rank"`
	Reserve OperationStats `json:"reserve"`
	Import  OperationStats `json:"import"`
}

// OperationStats — статистика по одной операции.
type OperationStats struct {
	CallsTotal    int64   `json:"calls_total"`
	ErrorsTotal   int64   `json:"errors_total"`
	ErrorRate     float64 `json:"error_rate"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	LastLatencyMs float64 `json:"last_latency_ms"`
	ItemsTotal    int64   `json:"items_total,omitempty"`
}

// GetStats возвращает текущую статистику.
func (m *Metrics) GetStats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		Rank:    m.rank.stats(),
		Reserve: m.reserve.stats(),
		Import:  m.imports.stats(),
	}
}

func (c *opCounters) stats() OperationStats {
	calls := atomic.LoadInt64(&c.callsTotal)
	errs := atomic.LoadInt64(&c.errorsTotal)
	latencyTotal := atomic.LoadInt64(&c.latencyTotalUs)

	var errorRate, avgLatency float64
	if calls > 0 {
		errorRate = float64(errs) / float64(calls)
		avgLatency = float64(latencyTotal) / float64(calls) / 1000
	}

	return OperationStats{
		CallsTotal:    calls,
		ErrorsTotal:   errs,
		ErrorRate:     errorRate,
		AvgLatencyMs:  avgLatency,
		LastLatencyMs: float64(atomic.LoadInt64(&c.lastLatencyUs)) / 1000,
		ItemsTotal:    atomic.LoadInt64(&c.itemsTotal),
	}
}

// Reset сбрасывает атомарные счётчики. Коллекторы Prometheus не трогаются.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	for _, c := range []*opCounters{&m.rank, &m.reserve, &m.imports} {
		atomic.StoreInt64(&c.callsTotal, 0)
		atomic.StoreInt64(&c.errorsTotal, 0)
		atomic.StoreInt64(&c.latencyTotalUs, 0)
		atomic.StoreInt64(&c.lastLatencyUs, 0)
		atomic.StoreInt64(&c.itemsTotal, 0)
	}
}
