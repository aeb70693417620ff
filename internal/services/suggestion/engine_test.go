package suggestion

import (
	"errors"
	"testing"
	"time"

	"room_finder/internal/config"
	"room_finder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func newTestEngine(mutate ...func(*config.ScoringConfig)) *Engine {
	cfg := config.DefaultScoring()
	for _, fn := range mutate {
		fn(&cfg)
	}
	return NewEngine(cfg, WithClock(func() time.Time { return testToday }))
}

func downtownPrefs() domain.PreferenceVector {
	return domain.PreferenceVector{
		Budget:       domain.Preference[int64]{Target: 250, Importance: 8},
		CheckIn:      domain.Preference[time.Time]{Target: day(2024, 5, 1), Importance: 7},
		CheckOut:     domain.Preference[time.Time]{Target: day(2024, 5, 10), Importance: 7},
		Neighborhood: domain.Preference[string]{Target: "Downtown", Importance: 10},
	}
}

func listing(id, price int64, neighborhood string) domain.Listing {
	return domain.Listing{
		ID:           id,
		Name:         "listing",
		Price:        price,
		Neighborhood: domain.Neighborhood{Name: neighborhood},
		Available:    true,
	}
}

func TestRank_DowntownBeatsUptown(t *testing.T) {
	e := newTestEngine()

	a := listing(1, 250, "Downtown")
	b := listing(2, 500, "Uptown")

	got, err := e.Rank(downtownPrefs(), []domain.Listing{b, a})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].ListingID)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestRank_OneResultPerCandidateSorted(t *testing.T) {
	e := newTestEngine()

	candidates := []domain.Listing{
		listing(5, 400, "Uptown"),
		listing(3, 250, "Downtown"),
		listing(4, 250, "Downtown"),
		listing(1, 260, "Downtown East"),
		listing(2, 1000, "Harbor"),
	}

	got, err := e.Rank(downtownPrefs(), candidates)
	require.NoError(t, err)
	require.Len(t, got, len(candidates))

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.Score == cur.Score {
			assert.Less(t, prev.ListingID, cur.ListingID, "ties must be ordered by id")
		} else {
			assert.Greater(t, prev.Score, cur.Score)
		}
	}

	// 3 и 4 получают одинаковую оценку, первым идёт меньший ID
	assert.Equal(t, int64(3), got[0].ListingID)
	assert.Equal(t, int64(4), got[1].ListingID)
}

func TestRank_EmptyCandidates(t *testing.T) {
	e := newTestEngine()

	got, err := e.Rank(downtownPrefs(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRank_DoesNotMutateCandidates(t *testing.T) {
	e := newTestEngine()

	candidates := []domain.Listing{listing(2, 100, "Uptown"), listing(1, 250, "Downtown")}
	snapshot := append([]domain.Listing(nil), candidates...)

	_, err := e.Rank(downtownPrefs(), candidates)
	require.NoError(t, err)
	assert.Equal(t, snapshot, candidates)
}

func TestRank_InvalidPreferencesFailBeforeScoring(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *domain.PreferenceVector)
		field  domain.Attribute
		rule   string
	}{
		{
			name:   "check-out before check-in",
			mutate: func(p *domain.PreferenceVector) { p.CheckOut.Target = day(2024, 4, 20) },
			field:  domain.AttributeCheckOut,
			rule:   domain.RuleNotBeforeCheckIn,
		},
		{
			name:   "check-in in the past",
			mutate: func(p *domain.PreferenceVector) { p.CheckIn.Target = day(2024, 3, 1) },
			field:  domain.AttributeCheckIn,
			rule:   domain.RuleNotInPast,
		},
		{
			name:   "negative budget",
			mutate: func(p *domain.PreferenceVector) { p.Budget.Target = -1 },
			field:  domain.AttributeBudget,
			rule:   domain.RuleNonNegative,
		},
		{
			name:   "importance above range",
			mutate: func(p *domain.PreferenceVector) { p.Neighborhood.Importance = 11 },
			field:  domain.AttributeNeighborhood,
			rule:   domain.RuleImportanceRange,
		},
		{
			name:   "importance below range",
			mutate: func(p *domain.PreferenceVector) { p.Budget.Importance = 0 },
			field:  domain.AttributeBudget,
			rule:   domain.RuleImportanceRange,
		},
		{
			name:   "blank neighborhood",
			mutate: func(p *domain.PreferenceVector) { p.Neighborhood.Target = "   " },
			field:  domain.AttributeNeighborhood,
			rule:   domain.RuleNotEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			prefs := downtownPrefs()
			tt.mutate(&prefs)

			got, err := e.Rank(prefs, []domain.Listing{listing(1, 250, "Downtown")})
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, domain.ErrInvalidPreference)

			var invalid *domain.InvalidPreferenceError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.field, invalid.Field)
			assert.Equal(t, tt.rule, invalid.Rule)
		})
	}
}

func TestRank_CheckInTodayIsValid(t *testing.T) {
	e := newTestEngine()
	prefs := downtownPrefs()
	prefs.CheckIn.Target = testToday
	prefs.CheckOut.Target = testToday

	_, err := e.Rank(prefs, []domain.Listing{listing(1, 250, "Downtown")})
	assert.NoError(t, err)
}

func TestBudgetCloseness_Monotonic(t *testing.T) {
	e := newTestEngine()

	assert.Equal(t, 1.0, e.budgetCloseness(250, 250))
	assert.InDelta(t, 0.5, e.budgetCloseness(250, 300), 1e-9)

	prev := e.budgetCloseness(250, 250)
	for gap := int64(1); gap <= 5000; gap *= 3 {
		above := e.budgetCloseness(250, 250+gap)
		below := e.budgetCloseness(250, 250-gap)
		assert.Equal(t, above, below, "closeness must depend on the absolute gap only")
		assert.LessOrEqual(t, above, prev)
		assert.Greater(t, above, 0.0)
		prev = above
	}
}

func TestRank_ImportanceScalesContributionLinearly(t *testing.T) {
	e := newTestEngine()
	candidate := listing(1, 310, "Downtown East")

	for _, attr := range domain.Attributes() {
		t.Run(attr.String(), func(t *testing.T) {
			base := downtownPrefs()
			setImportance(&base, attr, 2)
			scaled := downtownPrefs()
			setImportance(&scaled, attr, 6)

			baseRes, err := e.Rank(base, []domain.Listing{candidate})
			require.NoError(t, err)
			scaledRes, err := e.Rank(scaled, []domain.Listing{candidate})
			require.NoError(t, err)

			assert.InDelta(t, 3*baseRes[0].AttributeScores[attr], scaledRes[0].AttributeScores[attr], 1e-9)

			for _, other := range domain.Attributes() {
				if other == attr {
					continue
				}
				assert.Equal(t, baseRes[0].AttributeScores[other], scaledRes[0].AttributeScores[other])
			}
		})
	}
}

func setImportance(p *domain.PreferenceVector, a domain.Attribute, importance int) {
	switch a {
	case domain.AttributeBudget:
		p.Budget.Importance = importance
	case domain.AttributeCheckIn:
		p.CheckIn.Importance = importance
	case domain.AttributeCheckOut:
		p.CheckOut.Importance = importance
	case domain.AttributeNeighborhood:
		p.Neighborhood.Importance = importance
	}
}

func TestRank_AggregateIsSumOfAttributes(t *testing.T) {
	e := newTestEngine()

	got, err := e.Rank(downtownPrefs(), []domain.Listing{listing(1, 333, "Downtown East")})
	require.NoError(t, err)

	var sum float64
	for _, a := range domain.Attributes() {
		sum += got[0].AttributeScores[a]
	}
	assert.InDelta(t, sum, got[0].Score, 1e-9)
	assert.Len(t, got[0].AttributeScores, len(domain.Attributes()))
}

func TestDateCloseness(t *testing.T) {
	e := newTestEngine()
	requested := day(2024, 5, 5)

	tests := []struct {
		name          string
		listing       domain.Listing
		want          float64
		wantDefaulted bool
	}{
		{
			name:          "no availability data",
			listing:       domain.Listing{Available: true},
			want:          0.5,
			wantDefaulted: true,
		},
		{
			name:          "empty availability window",
			listing:       domain.Listing{Available: true, Availability: &domain.Availability{}},
			want:          0.5,
			wantDefaulted: true,
		},
		{
			name: "inside window",
			listing: domain.Listing{Available: true, Availability: &domain.Availability{
				CheckIn: ptr(day(2024, 5, 1)), CheckOut: ptr(day(2024, 5, 10)),
			}},
			want: 1,
		},
		{
			name: "on window boundary",
			listing: domain.Listing{Available: true, Availability: &domain.Availability{
				CheckIn: ptr(day(2024, 5, 5)),
			}},
			want: 1,
		},
		{
			name: "open-ended window",
			listing: domain.Listing{Available: true, Availability: &domain.Availability{
				CheckOut: ptr(day(2024, 6, 1)),
			}},
			want: 1,
		},
		{
			name: "window opens three days later",
			listing: domain.Listing{Available: true, Availability: &domain.Availability{
				CheckIn: ptr(day(2024, 5, 8)),
			}},
			want: 0.5,
		},
		{
			name: "window closed three days earlier",
			listing: domain.Listing{Available: true, Availability: &domain.Availability{
				CheckIn: ptr(day(2024, 4, 1)), CheckOut: ptr(day(2024, 5, 2)),
			}},
			want: 0.5,
		},
		{
			name: "reserved listing",
			listing: domain.Listing{Available: false, Availability: &domain.Availability{
				CheckIn: ptr(day(2024, 5, 1)),
			}},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, defaulted := e.dateCloseness(requested, tt.listing)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, tt.wantDefaulted, defaulted)
		})
	}
}

func TestRank_DefaultedDatesAreFlagged(t *testing.T) {
	e := newTestEngine()

	withData := listing(1, 250, "Downtown")
	withData.Availability = &domain.Availability{CheckIn: ptr(day(2024, 4, 1)), CheckOut: ptr(day(2024, 6, 1))}
	withoutData := listing(2, 250, "Downtown")

	got, err := e.Rank(downtownPrefs(), []domain.Listing{withData, withoutData})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].ListingID)
	assert.Empty(t, got[0].Defaulted)

	assert.Equal(t, int64(2), got[1].ListingID)
	assert.True(t, got[1].IsDefaulted(domain.AttributeCheckIn))
	assert.True(t, got[1].IsDefaulted(domain.AttributeCheckOut))
	assert.False(t, got[1].IsDefaulted(domain.AttributeBudget))
	assert.InDelta(t, 3.5, got[1].AttributeScores[domain.AttributeCheckIn], 1e-9)
}

func TestRank_ReservedListingIsPenalizedNotExcluded(t *testing.T) {
	e := newTestEngine()

	free := listing(2, 250, "Downtown")
	reserved := listing(1, 250, "Downtown")
	reserved.Available = false

	got, err := e.Rank(downtownPrefs(), []domain.Listing{reserved, free})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(2), got[0].ListingID)
	assert.Equal(t, int64(1), got[1].ListingID)
	assert.Zero(t, got[1].AttributeScores[domain.AttributeCheckIn])
}

func TestNeighborhoodCloseness(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		target string
		name   string
		want   float64
	}{
		{"Downtown", "Downtown", 1},
		{"downtown", "  DOWNTOWN ", 1},
		{"DT", "Downtown", 1},
		{"Downtown", "Downtown East", 0.5},
		{"Downtown", "Uptown", 0},
		{"Downtown", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.target+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.neighborhoodCloseness(tt.target, tt.name))
		})
	}
}

func TestRank_NeighborhoodMismatchNotExcludedByDefault(t *testing.T) {
	e := newTestEngine()

	got, err := e.Rank(downtownPrefs(), []domain.Listing{listing(1, 250, "Uptown")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].AttributeScores[domain.AttributeNeighborhood])
}

func TestRank_NeighborhoodHardFilter(t *testing.T) {
	e := newTestEngine(func(c *config.ScoringConfig) { c.NeighborhoodHardFilter = true })
	candidates := []domain.Listing{listing(1, 250, "Uptown"), listing(2, 900, "Downtown")}

	got, err := e.Rank(downtownPrefs(), candidates)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ListingID)

	// ниже максимальной важности фильтр не действует
	prefs := downtownPrefs()
	prefs.Neighborhood.Importance = 9
	got, err = e.Rank(prefs, candidates)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRank_Deterministic(t *testing.T) {
	e := newTestEngine()
	candidates := []domain.Listing{
		listing(7, 240, "Downtown"),
		listing(3, 260, "Downtown"),
		listing(9, 250, "Uptown"),
	}

	first, err := e.Rank(downtownPrefs(), candidates)
	require.NoError(t, err)
	second, err := e.Rank(downtownPrefs(), candidates)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
