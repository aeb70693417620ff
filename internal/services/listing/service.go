package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"room_finder/internal/domain"
	"room_finder/internal/lib/logger/sl"
	"room_finder/internal/repository"
)

type ListingRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Listing, error)
	ListListings(ctx context.Context, filter domain.ListingFilter) (*domain.PaginatedResult[domain.Listing], error)
}

type Service struct {
	log  *slog.Logger
	repo ListingRepository
}

var (
	ErrListingNotFound = errors.New("listing not found")
)

func New(log *slog.Logger, repo ListingRepository) *Service {
	return &Service{
		log:  log,
		repo: repo,
	}
}

// GetListing — получает объявление по ID.
func (s *Service) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	const op = "listing.Service.GetListing"

	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			s.log.Warn("listing not found", slog.Int64("listing_id", id))
			return domain.Listing{}, fmt.Errorf("%s: %w", op, ErrListingNotFound)
		}
		s.log.Error("failed to get listing", sl.Err(err))
		return domain.Listing{}, fmt.Errorf("%s: %w", op, err)
	}

	return l, nil
}

// ListListings — возвращает страницу каталога по фильтру.
func (s *Service) ListListings(ctx context.Context, filter domain.ListingFilter) (*domain.PaginatedResult[domain.Listing], error) {
	const op = "listing.Service.ListListings"

	res, err := s.repo.ListListings(ctx, filter)
	if err != nil {
		s.log.Error("failed to list listings", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}
