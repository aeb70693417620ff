package listinghttp

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"room_finder/internal/domain"
)

type availabilityResponse struct {
	CheckIn  *string `json:"check_in,omitempty"`
	CheckOut *string `json:"check_out,omitempty"`
}

type listingResponse struct {
	ListingID    int64                 `json:"listing_id"`
	AirbnbName   string                `json:"airbnb_name"`
	Price        int64                 `json:"price"`
	HostID       int64                 `json:"host_id"`
	NeighName    string                `json:"neigh_name"`
	RoomType     string                `json:"room_type"`
	State        string                `json:"state"`
	Availability *availabilityResponse `json:"availability,omitempty"`
}

type listResponse struct {
	Listings      []listingResponse `json:"listings"`
	NextPageToken string            `json:"next_page_token,omitempty"`
	TotalCount    int32             `json:"total_count"`
	HasMore       bool              `json:"has_more"`
}

func formatDate(t time.Time) *string {
	s := t.Format(domain.DateLayout)
	return &s
}

func listingDomainToResponse(l domain.Listing) listingResponse {
	resp := listingResponse{
		ListingID:  l.ID,
		AirbnbName: l.Name,
		Price:      l.Price,
		HostID:     l.HostID,
		NeighName:  l.Neighborhood.Name,
		RoomType:   l.RoomType,
		State:      l.State().String(),
	}

	if !l.Availability.IsEmpty() {
		resp.Availability = &availabilityResponse{}
		if l.Availability.CheckIn != nil {
			resp.Availability.CheckIn = formatDate(*l.Availability.CheckIn)
		}
		if l.Availability.CheckOut != nil {
			resp.Availability.CheckOut = formatDate(*l.Availability.CheckOut)
		}
	}

	return resp
}

// filterFromQuery собирает фильтр каталога из query-параметров.
func filterFromQuery(r *http.Request) (domain.ListingFilter, error) {
	q := r.URL.Query()
	filter := domain.ListingFilter{
		Pagination: &domain.PaginationParams{
			PageToken:      q.Get("page_token"),
			OrderDirection: domain.NormalizeOrderDirection(q.Get("order")),
		},
	}

	if v := q.Get("page_size"); v != "" {
		size, err := strconv.ParseInt(v, 10, 32)
		if err != nil || size < 0 {
			return domain.ListingFilter{}, fmt.Errorf("invalid page_size %q", v)
		}
		filter.Pagination.PageSize = int32(size)
	}

	if v := strings.TrimSpace(q.Get("neighborhood")); v != "" {
		filter.Neighborhood = &v
	}

	if v := strings.TrimSpace(q.Get("room_type")); v != "" {
		filter.RoomType = &v
	}

	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			return domain.ListingFilter{}, fmt.Errorf("invalid available %q", v)
		}
		filter.Available = &available
	}

	var err error
	if filter.MinPrice, err = priceParam(q.Get("min_price"), "min_price"); err != nil {
		return domain.ListingFilter{}, err
	}
	if filter.MaxPrice, err = priceParam(q.Get("max_price"), "max_price"); err != nil {
		return domain.ListingFilter{}, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return domain.ListingFilter{}, fmt.Errorf("min_price cannot exceed max_price")
	}

	return filter, nil
}

func priceParam(v, name string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	p, err := strconv.ParseInt(v, 10, 64)
	if err != nil || p < 0 {
		return nil, fmt.Errorf("invalid %s %q", name, v)
	}
	return &p, nil
}
