package jsonld

import (
	"encoding/json"
	"fmt"
	"strings"

	"room_finder/internal/domain"
)

// ContentType — MIME-тип JSON-LD.
const ContentType = "application/ld+json"

// Generator — генератор JSON-LD разметки для объявлений об аренде.
type Generator struct {
	currency string
}

// NewGenerator создаёт новый генератор JSON-LD. Пустая валюта означает USD.
func NewGenerator(currency string) *Generator {
	if currency == "" {
		currency = "USD"
	}
	return &Generator{currency: currency}
}

// Accommodation — JSON-LD структура для объявления (schema.org Accommodation и подтипы).
type Accommodation struct {
	Context string `json:"@context,omitempty"`
	Type    string `json:"@type"`
	ID      string `json:"@id,omitempty"`
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`

	// Цена за ночь
	Offers *Offer `json:"offers,omitempty"`

	// Район
	ContainedInPlace *Place `json:"containedInPlace,omitempty"`

	AccommodationCategory string `json:"accommodationCategory,omitempty"`

	AdditionalProperty []PropertyValue `json:"additionalProperty,omitempty"`
}

// Offer — предложение (цена) по schema.org.
type Offer struct {
	Type          string `json:"@type"`
	Price         int64  `json:"price"`
	PriceCurrency string `json:"priceCurrency"`
	Availability  string `json:"availability,omitempty"`
	// Окно дат, в которое предложение действует
	AvailabilityStarts string `json:"availabilityStarts,omitempty"`
	AvailabilityEnds   string `json:"availabilityEnds,omitempty"`
}

// Place — район по schema.org.
type Place struct {
	Type string `json:"@type"`
	ID   string `json:"@id,omitempty"`
	Name string `json:"name"`
}

// PropertyValue — дополнительное свойство.
type PropertyValue struct {
	Type  string `json:"@type"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ItemList — страница каталога.
type ItemList struct {
	Context         string     `json:"@context"`
	Type            string     `json:"@type"`
	NumberOfItems   int32      `json:"numberOfItems"`
	ItemListElement []ListItem `json:"itemListElement"`
}

// ListItem — элемент ItemList с позицией.
type ListItem struct {
	Type     string        `json:"@type"`
	Position int           `json:"position"`
	Item     Accommodation `json:"item"`
}

// GenerateListingJSONLD генерирует JSON-LD разметку для объявления.
func (g *Generator) GenerateListingJSONLD(l domain.Listing, baseURL string) *Accommodation {
	acc := g.accommodation(l, baseURL)
	acc.Context = "https://schema.org"
	return &acc
}

func (g *Generator) accommodation(l domain.Listing, baseURL string) Accommodation {
	url := fmt.Sprintf("%s/listings/%d", strings.TrimRight(baseURL, "/"), l.ID)

	acc := Accommodation{
		Type:                  g.mapRoomType(l.RoomType),
		ID:                    url,
		Name:                  l.Name,
		URL:                   url,
		AccommodationCategory: l.RoomType,
		Offers: &Offer{
			Type:          "Offer",
			Price:         l.Price,
			PriceCurrency: g.currency,
			Availability:  g.mapListingState(l.State()),
		},
		AdditionalProperty: []PropertyValue{
			{Type: "PropertyValue", Name: "hostId", Value: l.HostID},
		},
	}

	if l.Availability != nil {
		if l.Availability.CheckIn != nil {
			acc.Offers.AvailabilityStarts = l.Availability.CheckIn.Format(domain.DateLayout)
		}
		if l.Availability.CheckOut != nil {
			acc.Offers.AvailabilityEnds = l.Availability.CheckOut.Format(domain.DateLayout)
		}
	}

	if l.Neighborhood.Name != "" {
		acc.ContainedInPlace = &Place{
			Type: "Place",
			ID:   fmt.Sprintf("%s/neighborhoods/%d", strings.TrimRight(baseURL, "/"), l.Neighborhood.ID),
			Name: l.Neighborhood.Name,
		}
	}

	return acc
}

// GenerateListingJSONLDBytes генерирует JSON-LD в байтах.
func (g *Generator) GenerateListingJSONLDBytes(l domain.Listing, baseURL string) ([]byte, error) {
	data, err := json.MarshalIndent(g.GenerateListingJSONLD(l, baseURL), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON-LD: %w", err)
	}
	return data, nil
}

// GenerateItemListJSONLD генерирует JSON-LD для страницы каталога.
func (g *Generator) GenerateItemListJSONLD(page *domain.PaginatedResult[domain.Listing], baseURL string) *ItemList {
	list := &ItemList{
		Context:         "https://schema.org",
		Type:            "ItemList",
		NumberOfItems:   page.TotalCount,
		ItemListElement: make([]ListItem, 0, len(page.Items)),
	}
	for i, l := range page.Items {
		list.ItemListElement = append(list.ItemListElement, ListItem{
			Type:     "ListItem",
			Position: i + 1,
			Item:     g.accommodation(l, baseURL),
		})
	}
	return list
}

// mapRoomType преобразует тип комнаты в schema.org тип.
func (g *Generator) mapRoomType(roomType string) string {
	switch strings.ToLower(strings.TrimSpace(roomType)) {
	case "entire home/apt":
		return "Apartment"
	case "private room", "shared room":
		return "Room"
	case "hotel room":
		return "HotelRoom"
	default:
		return "Accommodation"
	}
}

// mapListingState преобразует состояние бронирования в schema.org availability.
func (g *Generator) mapListingState(s domain.ListingState) string {
	switch s {
	case domain.ListingStateReserved:
		return "https://schema.org/SoldOut"
	default:
		return "https://schema.org/InStock"
	}
}
