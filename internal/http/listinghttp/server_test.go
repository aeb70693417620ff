package listinghttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"room_finder/internal/domain"
	"room_finder/internal/lib/jsonld"
	"room_finder/internal/lib/logger/handlers/slogdiscard"
	"room_finder/internal/services/listing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockListingService struct {
	GetListingFunc   func(ctx context.Context, id int64) (domain.Listing, error)
	ListListingsFunc func(ctx context.Context, filter domain.ListingFilter) (*domain.PaginatedResult[domain.Listing], error)
}

func (m *MockListingService) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	if m.GetListingFunc != nil {
		return m.GetListingFunc(ctx, id)
	}
	return domain.Listing{}, nil
}

func (m *MockListingService) ListListings(ctx context.Context, filter domain.ListingFilter) (*domain.PaginatedResult[domain.Listing], error) {
	if m.ListListingsFunc != nil {
		return m.ListListingsFunc(ctx, filter)
	}
	return &domain.PaginatedResult[domain.Listing]{Items: []domain.Listing{}}, nil
}

func newTestRouter(svc ListingService) http.Handler {
	r := chi.NewRouter()
	Register(r, slogdiscard.NewDiscardLogger(), svc, WithBaseURL("https://rooms.example.com/"))
	return r
}

func sampleListing() domain.Listing {
	checkIn := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)
	return domain.Listing{
		ID:           2539,
		Name:         "Clean & quiet apt home by the park",
		Price:        149,
		HostID:       2787,
		Neighborhood: domain.Neighborhood{ID: 12, Name: "Kensington", Rank: 40},
		RoomType:     "Private room",
		Available:    true,
		Availability: &domain.Availability{CheckIn: &checkIn},
	}
}

func TestGet_JSON(t *testing.T) {
	svc := &MockListingService{
		GetListingFunc: func(ctx context.Context, id int64) (domain.Listing, error) {
			assert.Equal(t, int64(2539), id)
			return sampleListing(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/listings/2539", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"listing_id": 2539,
		"airbnb_name": "Clean & quiet apt home by the park",
		"price": 149,
		"host_id": 2787,
		"neigh_name": "Kensington",
		"room_type": "Private room",
		"state": "AVAILABLE",
		"availability": {"check_in": "2030-05-01"}
	}`, rec.Body.String())
}

func TestGet_JSONLD(t *testing.T) {
	svc := &MockListingService{
		GetListingFunc: func(ctx context.Context, id int64) (domain.Listing, error) {
			return sampleListing(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/listings/2539", nil)
	req.Header.Set("Accept", "application/ld+json; q=0.9, application/json; q=0.8")
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jsonld.ContentType, rec.Header().Get("Content-Type"))

	var acc jsonld.Accommodation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acc))
	assert.Equal(t, "https://schema.org", acc.Context)
	assert.Equal(t, "Room", acc.Type)
	assert.Equal(t, "https://rooms.example.com/listings/2539", acc.URL)
	require.NotNil(t, acc.Offers)
	assert.Equal(t, "2030-05-01", acc.Offers.AvailabilityStarts)
}

func TestGet_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{name: "not found", path: "/listings/1", err: fmt.Errorf("listing.Service.GetListing: %w", listing.ErrListingNotFound), wantStatus: http.StatusNotFound},
		{name: "internal", path: "/listings/1", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
		{name: "bad id", path: "/listings/abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockListingService{
				GetListingFunc: func(ctx context.Context, id int64) (domain.Listing, error) {
					return domain.Listing{}, tt.err
				},
			}

			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestList(t *testing.T) {
	var got domain.ListingFilter
	svc := &MockListingService{
		ListListingsFunc: func(ctx context.Context, filter domain.ListingFilter) (*domain.PaginatedResult[domain.Listing], error) {
			got = filter
			return &domain.PaginatedResult[domain.Listing]{
				Items:         []domain.Listing{sampleListing()},
				NextPageToken: "next",
				TotalCount:    3,
				HasMore:       true,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/listings/?page_size=1&page_token=abc&neighborhood=Kensington&available=true&min_price=100&max_price=200&room_type=Private+room", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NotNil(t, got.Pagination)
	assert.Equal(t, int32(1), got.Pagination.PageSize)
	assert.Equal(t, "abc", got.Pagination.PageToken)
	require.NotNil(t, got.Neighborhood)
	assert.Equal(t, "Kensington", *got.Neighborhood)
	require.NotNil(t, got.Available)
	assert.True(t, *got.Available)
	assert.Equal(t, int64(100), *got.MinPrice)
	assert.Equal(t, int64(200), *got.MaxPrice)
	assert.Equal(t, "Private room", *got.RoomType)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Listings, 1)
	assert.Equal(t, "next", resp.NextPageToken)
	assert.Equal(t, int32(3), resp.TotalCount)
	assert.True(t, resp.HasMore)
}

func TestList_JSONLD(t *testing.T) {
	svc := &MockListingService{
		ListListingsFunc: func(ctx context.Context, filter domain.ListingFilter) (*domain.PaginatedResult[domain.Listing], error) {
			return &domain.PaginatedResult[domain.Listing]{Items: []domain.Listing{sampleListing()}, TotalCount: 1}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/listings/", nil)
	req.Header.Set("Accept", jsonld.ContentType)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var list jsonld.ItemList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "ItemList", list.Type)
	require.Len(t, list.ItemListElement, 1)
	assert.Equal(t, 1, list.ItemListElement[0].Position)
}

func TestList_BadQuery(t *testing.T) {
	tests := []string{
		"/listings/?page_size=abc",
		"/listings/?page_size=-1",
		"/listings/?available=maybe",
		"/listings/?min_price=-5",
		"/listings/?min_price=300&max_price=100",
	}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(&MockListingService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestList_Error(t *testing.T) {
	svc := &MockListingService{
		ListListingsFunc: func(ctx context.Context, filter domain.ListingFilter) (*domain.PaginatedResult[domain.Listing], error) {
			return nil, errors.New("db down")
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
