package domain

import (
	"time"
)

// Listing — объявление об аренде вместе с районом и данными о доступности.
// Репозиторий отдаёт уже соединённые записи, движок ранжирования их только читает.
type Listing struct {
	ID           int64
	Name         string
	Price        int64
	HostID       int64
	Neighborhood Neighborhood
	RoomType     string
	// Available — флаг доступности комнаты (false после бронирования)
	Available bool
	// Availability — окно доступности; nil, если данных нет
	Availability *Availability
}

// State возвращает состояние объявления для перехода бронирования.
func (l Listing) State() ListingState {
	if l.Available {
		return ListingStateAvailable
	}
	return ListingStateReserved
}

// Neighborhood — район, к которому относится объявление.
type Neighborhood struct {
	ID   int64
	Name string
	// Rank — место района по числу объявлений
	Rank int32
}

// Availability — окно дат, в которое комнату можно снять.
// Любая из границ может отсутствовать, тогда окно открыто с этой стороны.
type Availability struct {
	CheckIn  *time.Time
	CheckOut *time.Time
}

// IsEmpty сообщает, что о доступности ничего не известно.
func (a *Availability) IsEmpty() bool {
	return a == nil || (a.CheckIn == nil && a.CheckOut == nil)
}

// ListingState — внешне видимое состояние объявления.
type ListingState string

const (
	ListingStateUnspecified ListingState = ""
	ListingStateAvailable   ListingState = "AVAILABLE"
	ListingStateReserved    ListingState = "RESERVED"
)

func (s ListingState) String() string {
	return string(s)
}

// ListingFilter — фильтр для выборок объявлений из каталога.
type ListingFilter struct {
	// Neighborhood — точное совпадение района (без учёта регистра)
	Neighborhood *string
	Available    *bool
	MinPrice     *int64
	MaxPrice     *int64
	RoomType     *string

	// Пагинация
	Pagination *PaginationParams
}
