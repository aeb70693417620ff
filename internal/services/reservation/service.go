package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"room_finder/internal/domain"
	"room_finder/internal/lib/lock"
	"room_finder/internal/lib/logger/sl"
	"room_finder/internal/lib/metrics"
	"room_finder/internal/repository"
)

type ListingStateRepository interface {
	GetState(ctx context.Context, id int64) (domain.ListingState, error)
	UpdateState(ctx context.Context, id int64, from, to domain.ListingState) error
}

type Service struct {
	log     *slog.Logger
	repo    ListingStateRepository
	locker  lock.Locker
	timeout time.Duration
	metrics *metrics.Metrics
}

func New(log *slog.Logger, repo ListingStateRepository, locker lock.Locker, timeout time.Duration, m *metrics.Metrics) *Service {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	return &Service{
		log:     log,
		repo:    repo,
		locker:  locker,
		timeout: timeout,
		metrics: m,
	}
}

// Reserve — бронирует объявление. Бронирования одного объявления сериализуются
// блокировкой по ID; смена состояния в хранилище дополнительно защищена сравнением с ожидаемым.
func (s *Service) Reserve(ctx context.Context, id int64) error {
	const op = "reservation.Service.Reserve"
	log := s.log.With(slog.String("op", op), slog.Int64("listing_id", id))

	timer := s.metrics.StartTimer(metrics.OperationReserve)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	unlock, err := s.locker.Lock(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		log.Error("failed to acquire listing lock", sl.Err(err))
		timer.Stop(metrics.OutcomeError)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn("failed to release listing lock", sl.Err(err))
		}
	}()

	err = Reserve(ctx, id, s.lookup, s.set)
	switch {
	case err == nil:
		timer.Stop(metrics.OutcomeSuccess)
		log.Info("listing reserved")
		return nil
	case errors.Is(err, ErrListingNotFound):
		timer.Stop(metrics.OutcomeNotFound)
		log.Warn("listing not found")
	case errors.Is(err, ErrAlreadyReserved):
		timer.Stop(metrics.OutcomeConflict)
		log.Info("listing already reserved")
	default:
		timer.Stop(metrics.OutcomeError)
		log.Error("failed to reserve listing", sl.Err(err))
	}

	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) lookup(ctx context.Context, id int64) (domain.ListingState, bool, error) {
	state, err := s.repo.GetState(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return domain.ListingStateUnspecified, false, nil
		}
		return domain.ListingStateUnspecified, false, err
	}
	return state, true, nil
}

func (s *Service) set(ctx context.Context, id int64, from, to domain.ListingState) error {
	err := s.repo.UpdateState(ctx, id, from, to)
	switch {
	case errors.Is(err, repository.ErrStateConflict):
		return ErrStateChanged
	case errors.Is(err, repository.ErrListingNotFound):
		return ErrListingNotFound
	default:
		return err
	}
}
