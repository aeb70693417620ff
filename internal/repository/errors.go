package repository

import "errors"

var (
	ErrListingNotFound      = errors.New("listing not found")
	ErrNeighborhoodNotFound = errors.New("neighborhood not found")
	// ErrStateConflict — состояние объявления изменилось между чтением и записью.
	ErrStateConflict = errors.New("listing state conflict")
)
