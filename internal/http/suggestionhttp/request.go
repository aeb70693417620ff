package suggestionhttp

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"room_finder/internal/domain"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed preferences.schema.json
var preferencesSchemaJSON []byte

var preferencesSchema = mustSchema(preferencesSchemaJSON)

func mustSchema(src []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(src))
	if err != nil {
		panic("suggestionhttp: invalid embedded schema: " + err.Error())
	}
	return s
}

// validateShape проверяет тело запроса по JSON Schema до разбора в типы.
func validateShape(body []byte) error {
	result, err := preferencesSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("request validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// tuple — пара [значение, важность] из тела запроса.
type tuple[T any] struct {
	Value      T
	Importance int
}

func (t *tuple[T]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("expected [value, importance], got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &t.Value); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if err := json.Unmarshal(raw[1], &t.Importance); err != nil {
		return fmt.Errorf("importance: %w", err)
	}
	return nil
}

func (t tuple[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Value, t.Importance})
}

// suggestRequest — тело POST /suggestions/.
type suggestRequest struct {
	Budget       tuple[int64]  `json:"budget"`
	CheckIn      tuple[string] `json:"check_in"`
	CheckOut     tuple[string] `json:"check_out"`
	Neighborhood tuple[string] `json:"neigh_name"`
}

func (r suggestRequest) toDomain() (domain.PreferenceVector, error) {
	checkIn, err := parseDate(domain.AttributeCheckIn, r.CheckIn.Value)
	if err != nil {
		return domain.PreferenceVector{}, err
	}
	checkOut, err := parseDate(domain.AttributeCheckOut, r.CheckOut.Value)
	if err != nil {
		return domain.PreferenceVector{}, err
	}

	return domain.PreferenceVector{
		Budget:       domain.Preference[int64]{Target: r.Budget.Value, Importance: r.Budget.Importance},
		CheckIn:      domain.Preference[time.Time]{Target: checkIn, Importance: r.CheckIn.Importance},
		CheckOut:     domain.Preference[time.Time]{Target: checkOut, Importance: r.CheckOut.Importance},
		Neighborhood: domain.Preference[string]{Target: r.Neighborhood.Value, Importance: r.Neighborhood.Importance},
	}, nil
}

func parseDate(field domain.Attribute, s string) (time.Time, error) {
	t, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid date %q, expected YYYY-MM-DD", field, s)
	}
	return t, nil
}
