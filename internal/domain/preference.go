package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MinImportance = 1
	MaxImportance = 10
)

// Attribute — атрибут, по которому оценивается объявление.
type Attribute string

const (
	AttributeBudget       Attribute = "budget"
	AttributeCheckIn      Attribute = "check_in"
	AttributeCheckOut     Attribute = "check_out"
	AttributeNeighborhood Attribute = "neigh_name"
)

// Attributes возвращает все атрибуты в порядке их оценки.
func Attributes() []Attribute {
	return []Attribute{AttributeBudget, AttributeCheckIn, AttributeCheckOut, AttributeNeighborhood}
}

func (a Attribute) String() string {
	return string(a)
}

// Правила валидации предпочтений.
const (
	RuleImportanceRange  = "importance_range"
	RuleNonNegative      = "non_negative"
	RuleNotInPast        = "not_in_past"
	RuleNotBeforeCheckIn = "not_before_check_in"
	RuleNotEmpty         = "not_empty"
)

var ErrInvalidPreference = errors.New("invalid preference")

// InvalidPreferenceError — нарушение правила валидации для конкретного поля.
type InvalidPreferenceError struct {
	Field Attribute
	Rule  string
	Msg   string
}

func (e *InvalidPreferenceError) Error() string {
	return fmt.Sprintf("invalid preference %s (%s): %s", e.Field, e.Rule, e.Msg)
}

func (e *InvalidPreferenceError) Is(target error) bool {
	return target == ErrInvalidPreference
}

// Preference — желаемое значение атрибута и его важность (1-10).
type Preference[T any] struct {
	Target     T
	Importance int
}

// PreferenceVector — предпочтения пользователя по всем атрибутам.
// Создаётся на каждый запрос и дальше не меняется.
type PreferenceVector struct {
	Budget       Preference[int64]
	CheckIn      Preference[time.Time]
	CheckOut     Preference[time.Time]
	Neighborhood Preference[string]
}

// Importance возвращает важность атрибута.
func (p PreferenceVector) Importance(a Attribute) int {
	switch a {
	case AttributeBudget:
		return p.Budget.Importance
	case AttributeCheckIn:
		return p.CheckIn.Importance
	case AttributeCheckOut:
		return p.CheckOut.Importance
	case AttributeNeighborhood:
		return p.Neighborhood.Importance
	default:
		return 0
	}
}

// Validate проверяет предпочтения относительно текущей даты today.
// Возвращает *InvalidPreferenceError для первого нарушенного правила.
func (p PreferenceVector) Validate(today time.Time) error {
	for _, a := range Attributes() {
		imp := p.Importance(a)
		if imp < MinImportance || imp > MaxImportance {
			return &InvalidPreferenceError{
				Field: a,
				Rule:  RuleImportanceRange,
				Msg:   fmt.Sprintf("importance coefficient must be between %d and %d, got %d", MinImportance, MaxImportance, imp),
			}
		}
	}

	if p.Budget.Target < 0 {
		return &InvalidPreferenceError{Field: AttributeBudget, Rule: RuleNonNegative, Msg: "budget cannot be negative"}
	}

	checkIn := TruncateDay(p.CheckIn.Target)
	if checkIn.Before(TruncateDay(today)) {
		return &InvalidPreferenceError{Field: AttributeCheckIn, Rule: RuleNotInPast, Msg: "check-in date cannot be in the past"}
	}
	if TruncateDay(p.CheckOut.Target).Before(checkIn) {
		return &InvalidPreferenceError{Field: AttributeCheckOut, Rule: RuleNotBeforeCheckIn, Msg: "check-out date cannot be before check-in date"}
	}

	if strings.TrimSpace(p.Neighborhood.Target) == "" {
		return &InvalidPreferenceError{Field: AttributeNeighborhood, Rule: RuleNotEmpty, Msg: "neighborhood name cannot be empty"}
	}

	return nil
}

// TruncateDay отбрасывает время суток, оставляя календарную дату в UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout — формат дат в запросах и CSV.
const DateLayout = "2006-01-02"

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
