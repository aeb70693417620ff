package suggestion

import (
	"cmp"
	"slices"
	"time"

	"room_finder/internal/config"
	"room_finder/internal/domain"

	"golang.org/x/exp/constraints"
)

// Engine — движок ранжирования объявлений по взвешенным предпочтениям.
//
// Оценка атрибута = близость (0..1) * важность атрибута. Итоговая оценка
// объявления = сумма оценок по всем атрибутам. Engine не делает I/O,
// не логирует и не хранит состояния между вызовами; безопасен
// для одновременного использования.
type Engine struct {
	cfg config.ScoringConfig
	now func() time.Time
}

// EngineOption — опция для конфигурации движка.
type EngineOption func(*Engine)

// WithClock подменяет источник текущего времени (нужен для проверки дат заезда).
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(cfg config.ScoringConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate проверяет предпочтения относительно текущей даты.
func (e *Engine) Validate(prefs domain.PreferenceVector) error {
	return prefs.Validate(e.now())
}

// Rank оценивает кандидатов и возвращает их по убыванию итоговой оценки.
// При равных оценках первым идёт объявление с меньшим ID.
// Невалидные предпочтения отклоняются до начала оценки, частичных результатов нет.
func (e *Engine) Rank(prefs domain.PreferenceVector, candidates []domain.Listing) ([]domain.Suggestion, error) {
	if err := e.Validate(prefs); err != nil {
		return nil, err
	}

	hardFilter := e.hardFilterApplies(prefs)

	suggestions := make([]domain.Suggestion, 0, len(candidates))
	for _, l := range candidates {
		if hardFilter && !domain.NeighborhoodsMatch(l.Neighborhood.Name, prefs.Neighborhood.Target) {
			continue
		}
		suggestions = append(suggestions, e.score(prefs, l))
	}

	slices.SortStableFunc(suggestions, compareSuggestions)

	return suggestions, nil
}

// hardFilterApplies — район становится жёстким фильтром только при максимальной важности
// и только если это явно включено в конфигурации.
func (e *Engine) hardFilterApplies(prefs domain.PreferenceVector) bool {
	return e.cfg.NeighborhoodHardFilter && prefs.Neighborhood.Importance == domain.MaxImportance
}

func compareSuggestions(a, b domain.Suggestion) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.ListingID, b.ListingID)
}

// score вычисляет оценки одного объявления.
func (e *Engine) score(prefs domain.PreferenceVector, l domain.Listing) domain.Suggestion {
	s := domain.Suggestion{
		ListingID:        l.ID,
		Name:             l.Name,
		Price:            l.Price,
		HostID:           l.HostID,
		NeighborhoodName: l.Neighborhood.Name,
		RoomType:         l.RoomType,
		AttributeScores:  make(map[domain.Attribute]float64, len(domain.Attributes())),
	}

	add := func(a domain.Attribute, closeness float64, defaulted bool) {
		v := weighted(closeness, prefs.Importance(a))
		s.AttributeScores[a] = v
		s.Score += v
		if defaulted {
			s.Defaulted = append(s.Defaulted, a)
		}
	}

	add(domain.AttributeBudget, e.budgetCloseness(prefs.Budget.Target, l.Price), false)

	checkIn, defaulted := e.dateCloseness(prefs.CheckIn.Target, l)
	add(domain.AttributeCheckIn, checkIn, defaulted)

	checkOut, defaulted := e.dateCloseness(prefs.CheckOut.Target, l)
	add(domain.AttributeCheckOut, checkOut, defaulted)

	add(domain.AttributeNeighborhood, e.neighborhoodCloseness(prefs.Neighborhood.Target, l.Neighborhood.Name), false)

	return s
}

// weighted — вклад атрибута в итоговую оценку, линейный по важности.
func weighted(closeness float64, importance int) float64 {
	return clamp(closeness, 0, 1) * float64(importance)
}

// budgetCloseness убывает с ростом |target - price|: 1 при точном совпадении,
// 0.5 при разнице в BudgetTolerance, стремится к 0.
func (e *Engine) budgetCloseness(target, price int64) float64 {
	tolerance := e.cfg.BudgetTolerance
	if tolerance <= 0 {
		tolerance = 1
	}
	gap := float64(absDiff(target, price))
	return 1 / (1 + gap/tolerance)
}

// dateCloseness оценивает, насколько окно доступности объявления покрывает дату.
// Второе значение true, если данных о доступности нет и использована оценка по умолчанию.
func (e *Engine) dateCloseness(requested time.Time, l domain.Listing) (float64, bool) {
	// Занятое объявление не исключается, но по датам получает 0
	if !l.Available {
		return 0, false
	}
	if l.Availability.IsEmpty() {
		return clamp(e.cfg.MissingDateCloseness, 0, 1), true
	}

	day := domain.TruncateDay(requested)
	var gapDays float64
	switch {
	case l.Availability.CheckIn != nil && day.Before(domain.TruncateDay(*l.Availability.CheckIn)):
		gapDays = daysBetween(day, domain.TruncateDay(*l.Availability.CheckIn))
	case l.Availability.CheckOut != nil && day.After(domain.TruncateDay(*l.Availability.CheckOut)):
		gapDays = daysBetween(domain.TruncateDay(*l.Availability.CheckOut), day)
	default:
		return 1, false
	}

	tolerance := e.cfg.DateToleranceDays
	if tolerance <= 0 {
		tolerance = 1
	}
	return 1 / (1 + gapDays/tolerance), false
}

// neighborhoodCloseness: точное совпадение — 1, частичное — PartialNeighborhoodCloseness, иначе 0.
func (e *Engine) neighborhoodCloseness(target, name string) float64 {
	switch {
	case domain.NeighborhoodsMatch(target, name):
		return 1
	case domain.NeighborhoodsOverlap(target, name):
		return clamp(e.cfg.PartialNeighborhoodCloseness, 0, 1)
	default:
		return 0
	}
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

func absDiff[T constraints.Integer | constraints.Float](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
