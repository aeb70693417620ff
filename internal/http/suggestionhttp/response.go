package suggestionhttp

import (
	"math"

	"room_finder/internal/domain"

	"github.com/samber/lo"
)

// roomSuggestion — элемент ответа POST /suggestions/.
type roomSuggestion struct {
	ListingID       int64              `json:"listing_id"`
	AirbnbName      string             `json:"airbnb_name"`
	Price           int64              `json:"price"`
	HostID          int64              `json:"host_id"`
	NeighName       string             `json:"neigh_name"`
	RoomType        string             `json:"room_type"`
	Score           float64            `json:"score"`
	AttributeScores map[string]float64 `json:"attribute_scores"`
	Defaulted       []string           `json:"defaulted,omitempty"`
}

type suggestResponse struct {
	Suggestions []roomSuggestion `json:"suggestions"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func suggestionDomainToResponse(s domain.Suggestion) roomSuggestion {
	scores := make(map[string]float64, len(s.AttributeScores))
	for a, v := range s.AttributeScores {
		scores[a.String()] = round2(v)
	}

	return roomSuggestion{
		ListingID:       s.ListingID,
		AirbnbName:      s.Name,
		Price:           s.Price,
		HostID:          s.HostID,
		NeighName:       s.NeighborhoodName,
		RoomType:        s.RoomType,
		Score:           s.Score,
		AttributeScores: scores,
		Defaulted:       lo.Map(s.Defaulted, func(a domain.Attribute, _ int) string { return a.String() }),
	}
}

func suggestionsDomainToResponse(in []domain.Suggestion) suggestResponse {
	return suggestResponse{
		Suggestions: lo.Map(in, func(s domain.Suggestion, _ int) roomSuggestion {
			return suggestionDomainToResponse(s)
		}),
	}
}
