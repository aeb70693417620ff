package listing_repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"room_finder/internal/domain"
	"room_finder/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingRepository struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewListingRepository(db *pgxpool.Pool, log *slog.Logger) *ListingRepository {
	return &ListingRepository{db: db, log: log}
}

// Объявление без строки в room считается доступным и без окна дат.
const listingColumns = `
		l.airbnb_id, l.airbnb_name, l.price, l.host_id,
		n.neigh_num, n.neigh_name, n.rank,
		COALESCE(r.room_type, ''), COALESCE(r.availability, TRUE),
		r.check_in, r.check_out
`

const listingFrom = `
		FROM listings l
		JOIN neighborhood n ON n.neigh_num = l.neigh_num
		LEFT JOIN room r ON r.airbnb_id = l.airbnb_id
`

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	var checkIn, checkOut *time.Time
	if err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Price,
		&l.HostID,
		&l.Neighborhood.ID,
		&l.Neighborhood.Name,
		&l.Neighborhood.Rank,
		&l.RoomType,
		&l.Available,
		&checkIn,
		&checkOut,
	); err != nil {
		return domain.Listing{}, err
	}
	if checkIn != nil || checkOut != nil {
		l.Availability = &domain.Availability{CheckIn: checkIn, CheckOut: checkOut}
	}
	return l, nil
}

// buildWhere собирает условия фильтра. Возвращает условия, параметры и номер следующего параметра.
func buildWhere(filter domain.ListingFilter) ([]string, []any, int) {
	clauses := []string{}
	params := []any{}
	paramCount := 1

	if filter.Neighborhood != nil {
		clauses = append(clauses, fmt.Sprintf("LOWER(n.neigh_name) = LOWER($%d)", paramCount))
		params = append(params, strings.TrimSpace(*filter.Neighborhood))
		paramCount++
	}
	if filter.Available != nil {
		clauses = append(clauses, fmt.Sprintf("COALESCE(r.availability, TRUE) = $%d", paramCount))
		params = append(params, *filter.Available)
		paramCount++
	}
	if filter.MinPrice != nil {
		clauses = append(clauses, fmt.Sprintf("l.price >= $%d", paramCount))
		params = append(params, *filter.MinPrice)
		paramCount++
	}
	if filter.MaxPrice != nil {
		clauses = append(clauses, fmt.Sprintf("l.price <= $%d", paramCount))
		params = append(params, *filter.MaxPrice)
		paramCount++
	}
	if filter.RoomType != nil {
		clauses = append(clauses, fmt.Sprintf("LOWER(r.room_type) = LOWER($%d)", paramCount))
		params = append(params, *filter.RoomType)
		paramCount++
	}

	return clauses, params, paramCount
}

// ListCandidates — возвращает все объявления по фильтру без пагинации, для ранжирования.
func (r *ListingRepository) ListCandidates(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	const op = "ListingRepository.ListCandidates"

	clauses, params, _ := buildWhere(filter)

	query := "SELECT " + listingColumns + listingFrom
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY l.airbnb_id"

	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan failed: %w", op, err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return listings, nil
}

// GetByID — получает объявление по ID.
func (r *ListingRepository) GetByID(ctx context.Context, id int64) (domain.Listing, error) {
	const op = "ListingRepository.GetByID"

	query := "SELECT " + listingColumns + listingFrom + " WHERE l.airbnb_id = $1"

	l, err := scanListing(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, fmt.Errorf("%s: %w", op, repository.ErrListingNotFound)
		}
		return domain.Listing{}, fmt.Errorf("%s: %w", op, err)
	}

	return l, nil
}

// ListListings — возвращает объявления по фильтру с cursor-пагинацией по airbnb_id.
func (r *ListingRepository) ListListings(ctx context.Context, filter domain.ListingFilter) (*domain.PaginatedResult[domain.Listing], error) {
	const op = "ListingRepository.ListListings"

	pageSize := int(domain.DefaultPageSize)
	orderDir := domain.OrderAsc
	var cursor *domain.PageCursor

	if filter.Pagination != nil {
		pageSize = int(domain.NormalizePageSize(filter.Pagination.PageSize))
		orderDir = domain.NormalizeOrderDirection(string(filter.Pagination.OrderDirection))

		if filter.Pagination.PageToken != "" {
			var err error
			cursor, err = domain.DecodePageCursor(filter.Pagination.PageToken)
			if err != nil {
				r.log.Warn("failed to decode page cursor, starting from beginning", "error", err)
				cursor = nil
			}
		}
	}

	baseClauses, baseParams, paramCount := buildWhere(filter)

	countQuery := "SELECT COUNT(*)" + listingFrom
	if len(baseClauses) > 0 {
		countQuery += " WHERE " + strings.Join(baseClauses, " AND ")
	}

	var totalCount int32
	if err := r.db.QueryRow(ctx, countQuery, baseParams...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("%s: count failed: %w", op, err)
	}

	clauses := append([]string{}, baseClauses...)
	params := append([]any{}, baseParams...)

	if cursor != nil {
		cmp := ">"
		if orderDir == domain.OrderDesc {
			cmp = "<"
		}
		clauses = append(clauses, fmt.Sprintf("l.airbnb_id %s $%d", cmp, paramCount))
		params = append(params, cursor.LastID)
		paramCount++
	}

	query := "SELECT " + listingColumns + listingFrom
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	dirStr := "ASC"
	if orderDir == domain.OrderDesc {
		dirStr = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY l.airbnb_id %s LIMIT $%d", dirStr, paramCount)
	// LIMIT +1 для определения has_more
	params = append(params, pageSize+1)

	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan failed: %w", op, err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	hasMore := len(listings) > pageSize
	if hasMore {
		listings = listings[:pageSize]
	}

	var nextPageToken string
	if hasMore && len(listings) > 0 {
		next := &domain.PageCursor{LastID: listings[len(listings)-1].ID}
		nextPageToken = next.Encode()
	}

	return &domain.PaginatedResult[domain.Listing]{
		Items:         listings,
		NextPageToken: nextPageToken,
		TotalCount:    totalCount,
		HasMore:       hasMore,
	}, nil
}

// GetState — текущее состояние бронирования объявления.
// Объявление без строки в room забронировать нельзя, поэтому оно считается отсутствующим.
func (r *ListingRepository) GetState(ctx context.Context, id int64) (domain.ListingState, error) {
	const op = "ListingRepository.GetState"

	query := `
		SELECT r.availability
		FROM room r
		JOIN listings l ON l.airbnb_id = r.airbnb_id
		WHERE r.airbnb_id = $1
	`

	var available bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ListingStateUnspecified, fmt.Errorf("%s: %w", op, repository.ErrListingNotFound)
		}
		return domain.ListingStateUnspecified, fmt.Errorf("%s: %w", op, err)
	}

	return stateFromAvailability(available), nil
}

// UpdateState — атомарно меняет состояние from -> to.
// Если строка уже не в состоянии from, возвращает repository.ErrStateConflict.
func (r *ListingRepository) UpdateState(ctx context.Context, id int64, from, to domain.ListingState) error {
	const op = "ListingRepository.UpdateState"

	fromAvailable, err := availabilityFromState(from)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	toAvailable, err := availabilityFromState(to)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		UPDATE room
		SET availability = $1
		WHERE airbnb_id = $2 AND availability = $3
	`

	tag, err := r.db.Exec(ctx, query, toAvailable, id, fromAvailable)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM room WHERE airbnb_id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, repository.ErrListingNotFound)
	}

	return fmt.Errorf("%s: %w", op, repository.ErrStateConflict)
}

// Ping проверяет соединение с базой.
func (r *ListingRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func stateFromAvailability(available bool) domain.ListingState {
	if available {
		return domain.ListingStateAvailable
	}
	return domain.ListingStateReserved
}

func availabilityFromState(s domain.ListingState) (bool, error) {
	switch s {
	case domain.ListingStateAvailable:
		return true, nil
	case domain.ListingStateReserved:
		return false, nil
	default:
		return false, fmt.Errorf("unknown listing state %q", s)
	}
}
