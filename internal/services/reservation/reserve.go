package reservation

import (
	"context"
	"errors"
	"fmt"

	"room_finder/internal/domain"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	// ErrAlreadyReserved — объявление уже забронировано, либо параллельное бронирование успело раньше.
	ErrAlreadyReserved = errors.New("listing already reserved")
	// ErrStateChanged возвращается StateSetter, если текущее состояние не равно ожидаемому.
	ErrStateChanged = errors.New("listing state changed")
)

// StateLookup возвращает текущее состояние объявления; found=false, если объявления нет.
type StateLookup func(ctx context.Context, id int64) (state domain.ListingState, found bool, err error)

// StateSetter атомарно переводит объявление из состояния from в to.
// Если текущее состояние не from, возвращает ErrStateChanged и ничего не меняет.
type StateSetter func(ctx context.Context, id int64, from, to domain.ListingState) error

// Reserve переводит объявление из Available в Reserved.
// Повторное бронирование и проигранная гонка дают ErrAlreadyReserved, состояние не меняется.
func Reserve(ctx context.Context, id int64, lookup StateLookup, set StateSetter) error {
	state, found, err := lookup(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup listing %d: %w", id, err)
	}
	if !found {
		return ErrListingNotFound
	}
	if state != domain.ListingStateAvailable {
		return ErrAlreadyReserved
	}

	if err := set(ctx, id, domain.ListingStateAvailable, domain.ListingStateReserved); err != nil {
		if errors.Is(err, ErrStateChanged) {
			return ErrAlreadyReserved
		}
		if errors.Is(err, ErrListingNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("set listing %d state: %w", id, err)
	}

	return nil
}
