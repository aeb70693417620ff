package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 4, 1, 15, 30, 0, 0, time.UTC)

func validPrefs() PreferenceVector {
	return PreferenceVector{
		Budget:       Preference[int64]{Target: 250, Importance: 8},
		CheckIn:      Preference[time.Time]{Target: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Importance: 7},
		CheckOut:     Preference[time.Time]{Target: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), Importance: 7},
		Neighborhood: Preference[string]{Target: "Downtown", Importance: 10},
	}
}

func TestPreferenceVector_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(p *PreferenceVector)
		wantField Attribute
		wantRule  string
	}{
		{name: "valid", mutate: func(p *PreferenceVector) {}},
		{name: "importance lower bound", mutate: func(p *PreferenceVector) { p.Budget.Importance = 1 }},
		{name: "importance zero", mutate: func(p *PreferenceVector) { p.Budget.Importance = 0 }, wantField: AttributeBudget, wantRule: RuleImportanceRange},
		{name: "importance eleven", mutate: func(p *PreferenceVector) { p.Neighborhood.Importance = 11 }, wantField: AttributeNeighborhood, wantRule: RuleImportanceRange},
		{name: "check-out importance", mutate: func(p *PreferenceVector) { p.CheckOut.Importance = -3 }, wantField: AttributeCheckOut, wantRule: RuleImportanceRange},
		{name: "zero budget", mutate: func(p *PreferenceVector) { p.Budget.Target = 0 }},
		{name: "negative budget", mutate: func(p *PreferenceVector) { p.Budget.Target = -1 }, wantField: AttributeBudget, wantRule: RuleNonNegative},
		{
			name:   "check-in today",
			mutate: func(p *PreferenceVector) { p.CheckIn.Target = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC) },
		},
		{
			name:      "check-in yesterday",
			mutate:    func(p *PreferenceVector) { p.CheckIn.Target = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC) },
			wantField: AttributeCheckIn,
			wantRule:  RuleNotInPast,
		},
		{
			name:   "same-day checkout",
			mutate: func(p *PreferenceVector) { p.CheckOut.Target = p.CheckIn.Target },
		},
		{
			name:      "check-out before check-in",
			mutate:    func(p *PreferenceVector) { p.CheckOut.Target = time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC) },
			wantField: AttributeCheckOut,
			wantRule:  RuleNotBeforeCheckIn,
		},
		{name: "blank neighborhood", mutate: func(p *PreferenceVector) { p.Neighborhood.Target = "   " }, wantField: AttributeNeighborhood, wantRule: RuleNotEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPrefs()
			tt.mutate(&p)

			err := p.Validate(today)
			if tt.wantRule == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPreference)

			var invalid *InvalidPreferenceError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.wantField, invalid.Field)
			assert.Equal(t, tt.wantRule, invalid.Rule)
			assert.NotEmpty(t, invalid.Msg)
		})
	}
}

func TestPreferenceVector_Importance(t *testing.T) {
	p := validPrefs()
	assert.Equal(t, 8, p.Importance(AttributeBudget))
	assert.Equal(t, 7, p.Importance(AttributeCheckIn))
	assert.Equal(t, 7, p.Importance(AttributeCheckOut))
	assert.Equal(t, 10, p.Importance(AttributeNeighborhood))
	assert.Zero(t, p.Importance(Attribute("pets")))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-05-01 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)

	_, err = ParseDate("05/01/2024")
	assert.Error(t, err)
}

func TestTruncateDay(t *testing.T) {
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), TruncateDay(today))
}

func TestPageCursor_EncodeDecode(t *testing.T) {
	c := &PageCursor{LastID: 2539}
	got, err := DecodePageCursor(c.Encode())
	require.NoError(t, err)
	assert.Equal(t, c, got)

	got, err = DecodePageCursor("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = DecodePageCursor("not base64!")
	assert.Error(t, err)
}

func TestNormalizePageSize(t *testing.T) {
	assert.Equal(t, int32(DefaultPageSize), NormalizePageSize(0))
	assert.Equal(t, int32(MaxPageSize), NormalizePageSize(MaxPageSize+1))
	assert.Equal(t, int32(5), NormalizePageSize(5))
}
