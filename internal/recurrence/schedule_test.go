package recurrence

import (
	"reflect"
	"testing"
	"time"

	"github.com/Lina3386/monk-finance/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func TestOccurrences(t *testing.T) {
	tests := []struct {
		name  string
		rule  models.RecurrenceRule
		after *time.Time
		now   time.Time
		limit int
		want  []time.Time
	}{
		{
			name: "monthly, start after due day moves to next month",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: 5, StartDate: date(2026, 1, 10)},
			now:  date(2026, 4, 10),
			want: []time.Time{date(2026, 2, 5), date(2026, 3, 5), date(2026, 4, 5)},
		},
		{
			name: "monthly, due day of current month not reached",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: 5, StartDate: date(2026, 1, 3)},
			now:  date(2026, 4, 3),
			want: []time.Time{date(2026, 1, 5), date(2026, 2, 5), date(2026, 3, 5)},
		},
		{
			name: "monthly, due day of current month passed",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: 5, StartDate: date(2026, 1, 3)},
			now:  time.Date(2026, 4, 6, 18, 30, 0, 0, time.UTC),
			want: []time.Time{date(2026, 1, 5), date(2026, 2, 5), date(2026, 3, 5), date(2026, 4, 5)},
		},
		{
			name: "monthly, due day is inclusive",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: 5, StartDate: date(2026, 1, 5)},
			now:  time.Date(2026, 1, 5, 0, 0, 1, 0, time.UTC),
			want: []time.Time{date(2026, 1, 5)},
		},
		{
			name: "monthly, day clamped in short months",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: 31, StartDate: date(2026, 1, 1)},
			now:  date(2026, 4, 30),
			want: []time.Time{date(2026, 1, 31), date(2026, 2, 28), date(2026, 3, 31), date(2026, 4, 30)},
		},
		{
			name: "monthly, leap year",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: 30, StartDate: date(2028, 1, 15)},
			now:  date(2028, 3, 31),
			want: []time.Time{date(2028, 1, 30), date(2028, 2, 29), date(2028, 3, 30)},
		},
		{
			name: "monthly across year end",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: 10, StartDate: date(2025, 11, 1)},
			now:  date(2026, 2, 1),
			want: []time.Time{date(2025, 11, 10), date(2025, 12, 10), date(2026, 1, 10)},
		},
		{
			name: "weekly every 7 days from start",
			rule: models.RecurrenceRule{Frequency: models.FrequencyWeekly, DueDay: 3, StartDate: date(2026, 3, 2)},
			now:  date(2026, 3, 20),
			want: []time.Time{date(2026, 3, 2), date(2026, 3, 9), date(2026, 3, 16)},
		},
		{
			name: "yearly, due day overrides start day",
			rule: models.RecurrenceRule{Frequency: models.FrequencyYearly, DueDay: 5, StartDate: date(2024, 3, 10)},
			now:  date(2026, 6, 1),
			want: []time.Time{date(2025, 3, 5), date(2026, 3, 5)},
		},
		{
			name: "yearly on Feb 29 start",
			rule: models.RecurrenceRule{Frequency: models.FrequencyYearly, StartDate: date(2024, 2, 29)},
			now:  date(2026, 3, 1),
			want: []time.Time{date(2024, 2, 29), date(2025, 2, 28), date(2026, 2, 28)},
		},
		{
			name: "daily",
			rule: models.RecurrenceRule{Frequency: models.FrequencyDaily, StartDate: date(2026, 5, 1)},
			now:  time.Date(2026, 5, 3, 14, 0, 0, 0, time.UTC),
			want: []time.Time{date(2026, 5, 1), date(2026, 5, 2), date(2026, 5, 3)},
		},
		{
			name: "end date stops generation",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: 5, StartDate: date(2026, 1, 1), EndDate: ptr(date(2026, 2, 20))},
			now:  date(2026, 6, 1),
			want: []time.Time{date(2026, 1, 5), date(2026, 2, 5)},
		},
		{
			name:  "resume after last occurrence",
			rule:  models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: 5, StartDate: date(2026, 1, 1)},
			after: ptr(date(2026, 2, 5)),
			now:   date(2026, 4, 10),
			want:  []time.Time{date(2026, 3, 5), date(2026, 4, 5)},
		},
		{
			name:  "limit",
			rule:  models.RecurrenceRule{Frequency: models.FrequencyWeekly, StartDate: date(2026, 1, 1)},
			now:   date(2026, 6, 1),
			limit: 2,
			want:  []time.Time{date(2026, 1, 1), date(2026, 1, 8)},
		},
		{
			name: "start in the future",
			rule: models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: 5, StartDate: date(2027, 1, 1)},
			now:  date(2026, 6, 1),
			want: nil,
		},
		{
			name: "unknown frequency",
			rule: models.RecurrenceRule{Frequency: "hourly", StartDate: date(2026, 1, 1)},
			now:  date(2026, 6, 1),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Occurrences(tt.rule, tt.after, tt.now, tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v\nwant %v", got, tt.want)
			}
		})
	}
}

func TestOccurrences_IgnoresClockAndZone(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	rule := models.RecurrenceRule{
		Frequency: models.FrequencyMonthly,
		DueDay:    5,
		StartDate: time.Date(2026, 1, 5, 23, 0, 0, 0, saoPaulo),
	}

	got := Occurrences(rule, nil, time.Date(2026, 2, 5, 1, 0, 0, 0, saoPaulo), 0)
	want := []time.Time{date(2026, 1, 5), date(2026, 2, 5)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPeriod(t *testing.T) {
	weekly := models.RecurrenceRule{Frequency: models.FrequencyWeekly, StartDate: date(2026, 3, 2)}

	tests := []struct {
		name string
		rule models.RecurrenceRule
		date time.Time
		want string
	}{
		{"monthly", models.RecurrenceRule{Frequency: models.FrequencyMonthly}, date(2026, 3, 5), "2026-03"},
		{"yearly", models.RecurrenceRule{Frequency: models.FrequencyYearly}, date(2026, 3, 5), "2026"},
		{"daily", models.RecurrenceRule{Frequency: models.FrequencyDaily}, date(2026, 3, 5), "2026-03-05"},
		{"weekly bucket start", weekly, date(2026, 3, 2), "2026-03-02"},
		{"weekly inside bucket", weekly, date(2026, 3, 11), "2026-03-09"},
		{"weekly last day of bucket", weekly, date(2026, 3, 15), "2026-03-09"},
		{"weekly before start", weekly, date(2026, 2, 27), "2026-02-23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Period(tt.rule, tt.date); got != tt.want {
				t.Errorf("Period = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPeriod_DistinctPerOccurrence(t *testing.T) {
	for _, freq := range []models.Frequency{models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyYearly} {
		rule := models.RecurrenceRule{Frequency: freq, DueDay: 31, StartDate: date(2020, 1, 31)}
		seen := map[string]bool{}
		for _, d := range Occurrences(rule, nil, date(2026, 12, 31), 0) {
			p := Period(rule, d)
			if seen[p] {
				t.Fatalf("%s: period %s produced twice", freq, p)
			}
			seen[p] = true
		}
	}
}
