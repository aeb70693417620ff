package suggestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"room_finder/internal/domain"
	"room_finder/internal/lib/logger/sl"
	"room_finder/internal/lib/metrics"
)

// CandidateRepository отдаёт объявления-кандидаты вместе с районом и доступностью.
type CandidateRepository interface {
	ListCandidates(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error)
}

type Service struct {
	log     *slog.Logger
	repo    CandidateRepository
	engine  *Engine
	metrics *metrics.Metrics
}

func New(log *slog.Logger, repo CandidateRepository, engine *Engine, m *metrics.Metrics) *Service {
	return &Service{
		log:     log,
		repo:    repo,
		engine:  engine,
		metrics: m,
	}
}

// Suggest — ранжирует весь каталог по предпочтениям пользователя.
// Невалидные предпочтения отклоняются до обращения к хранилищу.
func (s *Service) Suggest(ctx context.Context, prefs domain.PreferenceVector) ([]domain.Suggestion, error) {
	const op = "suggestion.Service.Suggest"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("budget", prefs.Budget.Target),
		slog.String("neighborhood", prefs.Neighborhood.Target),
	)

	timer := s.metrics.StartTimer(metrics.OperationRank)

	if err := s.engine.Validate(prefs); err != nil {
		log.Warn("invalid preferences", sl.Err(err))
		timer.Stop(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	candidates, err := s.repo.ListCandidates(ctx, domain.ListingFilter{})
	if err != nil {
		log.Error("failed to load candidates", sl.Err(err))
		timer.Stop(metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	suggestions, err := s.engine.Rank(prefs, candidates)
	if err != nil {
		// Дата «сегодня» могла смениться между проверкой и ранжированием
		outcome := metrics.OutcomeError
		if errors.Is(err, domain.ErrInvalidPreference) {
			outcome = metrics.OutcomeInvalid
		}
		timer.Stop(outcome)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.ObserveCandidates(len(candidates))
	timer.Stop(metrics.OutcomeSuccess)

	log.Info("listings ranked",
		slog.Int("candidates", len(candidates)),
		slog.Int("suggestions", len(suggestions)),
		slog.Duration("rank_duration", time.Since(start)),
	)

	return suggestions, nil
}
