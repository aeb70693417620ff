package suggestionhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"room_finder/internal/domain"
	"room_finder/internal/lib/api"
	"room_finder/internal/lib/logger/sl"
	"room_finder/internal/services/reservation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes — ограничение размера тела запроса с предпочтениями.
const maxBodyBytes = 64 << 10

// SuggestionService описывает ранжирование объявлений по предпочтениям.
type SuggestionService interface {
	Suggest(ctx context.Context, prefs domain.PreferenceVector) ([]domain.Suggestion, error)
}

// ReservationService описывает бронирование объявления.
type ReservationService interface {
	Reserve(ctx context.Context, id int64) error
}

type serverAPI struct {
	log          *slog.Logger
	suggestions  SuggestionService
	reservations ReservationService
}

// Register регистрирует обработчики /suggestions в роутере.
func Register(r chi.Router, log *slog.Logger, suggestions SuggestionService, reservations ReservationService) {
	s := &serverAPI{
		log:          log,
		suggestions:  suggestions,
		reservations: reservations,
	}

	r.Route("/suggestions", func(r chi.Router) {
		r.Post("/", s.suggest)
		r.Post("/reserve/{listing_id}", s.reserve)
	})
}

// suggest — ранжирование объявлений по предпочтениям пользователя.
func (s *serverAPI) suggest(w http.ResponseWriter, r *http.Request) {
	const op = "suggestionhttp.suggest"

	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := validateShape(body); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var req suggestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		api.Error(w, http.StatusBadRequest, fmt.Sprintf("malformed request: %v", err))
		return
	}

	prefs, err := req.toDomain()
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions, err := s.suggestions.Suggest(r.Context(), prefs)
	if err != nil {
		var invalid *domain.InvalidPreferenceError
		if errors.As(err, &invalid) {
			api.Error(w, http.StatusBadRequest, invalid.Msg)
			return
		}
		log.Error("failed to suggest listings", sl.Err(err))
		api.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	api.JSON(w, http.StatusOK, suggestionsDomainToResponse(suggestions))
}

// reserve — бронирование объявления по listing_id.
func (s *serverAPI) reserve(w http.ResponseWriter, r *http.Request) {
	const op = "suggestionhttp.reserve"

	raw := chi.URLParam(r, "listing_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid listing_id format")
		return
	}

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("listing_id", id),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	err = s.reservations.Reserve(r.Context(), id)
	switch {
	case err == nil:
		api.JSON(w, http.StatusOK, api.MessageResponse{
			Message: fmt.Sprintf("Room with listing_id %d has been successfully reserved.", id),
		})
	case errors.Is(err, reservation.ErrListingNotFound):
		api.Error(w, http.StatusNotFound, "Listing not found.")
	case errors.Is(err, reservation.ErrAlreadyReserved):
		api.Error(w, http.StatusConflict, "Room is already reserved.")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("reservation timed out", sl.Err(err))
		api.Error(w, http.StatusServiceUnavailable, "reservation timed out, try again")
	default:
		log.Error("failed to reserve listing", sl.Err(err))
		api.Error(w, http.StatusInternalServerError, "internal error")
	}
}
