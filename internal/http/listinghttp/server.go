package listinghttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"room_finder/internal/domain"
	"room_finder/internal/lib/api"
	"room_finder/internal/lib/jsonld"
	"room_finder/internal/lib/logger/sl"
	"room_finder/internal/services/listing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/lo"
)

// ListingService описывает чтение каталога объявлений.
type ListingService interface {
	GetListing(ctx context.Context, id int64) (domain.Listing, error)
	ListListings(ctx context.Context, filter domain.ListingFilter) (*domain.PaginatedResult[domain.Listing], error)
}

type serverAPI struct {
	log      *slog.Logger
	listings ListingService
	jsonld   *jsonld.Generator
	baseURL  string
}

// ServerOption — опция для конфигурации обработчиков.
type ServerOption func(*serverAPI)

// WithBaseURL задаёт внешний адрес сервиса для ссылок в JSON-LD.
func WithBaseURL(baseURL string) ServerOption {
	return func(s *serverAPI) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithJSONLD задаёт генератор JSON-LD разметки.
func WithJSONLD(g *jsonld.Generator) ServerOption {
	return func(s *serverAPI) {
		s.jsonld = g
	}
}

// Register регистрирует обработчики /listings в роутере.
func Register(r chi.Router, log *slog.Logger, svc ListingService, opts ...ServerOption) {
	s := &serverAPI{
		log:      log,
		listings: svc,
		jsonld:   jsonld.NewGenerator(""),
	}

	for _, opt := range opts {
		opt(s)
	}

	r.Route("/listings", func(r chi.Router) {
		r.Get("/", s.list)
		r.Get("/{listing_id}", s.get)
	})
}

// get — объявление по ID в JSON или JSON-LD (Accept: application/ld+json).
func (s *serverAPI) get(w http.ResponseWriter, r *http.Request) {
	const op = "listinghttp.get"

	id, err := strconv.ParseInt(chi.URLParam(r, "listing_id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid listing_id format")
		return
	}

	l, err := s.listings.GetListing(r.Context(), id)
	if err != nil {
		if errors.Is(err, listing.ErrListingNotFound) {
			api.Error(w, http.StatusNotFound, "Listing not found.")
			return
		}
		s.log.Error("failed to get listing",
			slog.String("op", op),
			slog.Int64("listing_id", id),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		api.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if api.Accepts(r, jsonld.ContentType) {
		api.Write(w, http.StatusOK, jsonld.ContentType, s.jsonld.GenerateListingJSONLD(l, s.baseURLFor(r)))
		return
	}

	api.JSON(w, http.StatusOK, listingDomainToResponse(l))
}

// list — страница каталога с фильтрами и cursor-пагинацией.
func (s *serverAPI) list(w http.ResponseWriter, r *http.Request) {
	const op = "listinghttp.list"

	filter, err := filterFromQuery(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := s.listings.ListListings(r.Context(), filter)
	if err != nil {
		s.log.Error("failed to list listings",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		api.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if api.Accepts(r, jsonld.ContentType) {
		api.Write(w, http.StatusOK, jsonld.ContentType, s.jsonld.GenerateItemListJSONLD(page, s.baseURLFor(r)))
		return
	}

	api.JSON(w, http.StatusOK, listResponse{
		Listings:      lo.Map(page.Items, func(l domain.Listing, _ int) listingResponse { return listingDomainToResponse(l) }),
		NextPageToken: page.NextPageToken,
		TotalCount:    page.TotalCount,
		HasMore:       page.HasMore,
	})
}

func (s *serverAPI) baseURLFor(r *http.Request) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
