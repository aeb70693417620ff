package domain

// Suggestion — результат ранжирования одного объявления.
// Существует только в рамках одного ответа и нигде не сохраняется.
type Suggestion struct {
	ListingID        int64
	Name             string
	Price            int64
	HostID           int64
	NeighborhoodName string
	RoomType         string
	// Score — сумма взвешенных оценок по всем атрибутам
	Score           float64
	AttributeScores map[Attribute]float64
	// Defaulted — атрибуты, оценённые значением по умолчанию из-за отсутствия данных
	Defaulted []Attribute
}

// IsDefaulted сообщает, что оценка атрибута взята по умолчанию.
func (s Suggestion) IsDefaulted(a Attribute) bool {
	for _, d := range s.Defaulted {
		if d == a {
			return true
		}
	}
	return false
}
