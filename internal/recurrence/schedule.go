package recurrence

import (
	"time"

	"github.com/Lina3386/monk-finance/internal/models"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
	yearLayout  = "2006"

	oneDay = 24 * time.Hour
)

// DateOf drops the clock part of t, keeping its calendar date, in UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampedDate builds year-month-day, moving day back to the last day of shorter months.
func clampedDate(year int, month time.Month, day int) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dueDay(rule models.RecurrenceRule) int {
	if rule.DueDay >= 1 && rule.DueDay <= 31 {
		return rule.DueDay
	}
	return DateOf(rule.StartDate).Day()
}

// first returns the first occurrence on or after the rule's start date.
func first(rule models.RecurrenceRule) time.Time {
	start := DateOf(rule.StartDate)

	switch rule.Frequency {
	case models.FrequencyMonthly:
		d := clampedDate(start.Year(), start.Month(), dueDay(rule))
		if d.Before(start) {
			d = clampedDate(start.Year(), start.Month()+1, dueDay(rule))
		}
		return d
	case models.FrequencyYearly:
		d := clampedDate(start.Year(), start.Month(), dueDay(rule))
		if d.Before(start) {
			d = clampedDate(start.Year()+1, start.Month(), dueDay(rule))
		}
		return d
	default:
		return start
	}
}

// nth returns occurrence number n (0-based). Every occurrence is computed from
// the first one, so clamping in February does not drift later months.
func nth(rule models.RecurrenceRule, f time.Time, n int) time.Time {
	switch rule.Frequency {
	case models.FrequencyDaily:
		return f.AddDate(0, 0, n)
	case models.FrequencyWeekly:
		return f.AddDate(0, 0, 7*n)
	case models.FrequencyMonthly:
		// time.Date normalizes month overflow, day is clamped separately
		m := time.Date(f.Year(), f.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
		return clampedDate(m.Year(), m.Month(), dueDay(rule))
	case models.FrequencyYearly:
		return clampedDate(f.Year()+n, f.Month(), dueDay(rule))
	}
	return f
}

// Occurrences lists the rule's due dates that are strictly after `after`
// (if set), not later than now and not later than the rule's end date.
// A positive limit caps the number of returned dates.
func Occurrences(rule models.RecurrenceRule, after *time.Time, now time.Time, limit int) []time.Time {
	if !rule.Frequency.Valid() {
		return nil
	}

	today := DateOf(now)
	var end time.Time
	if rule.EndDate != nil {
		end = DateOf(*rule.EndDate)
	}
	var since time.Time
	if after != nil {
		since = DateOf(*after)
	}

	var out []time.Time
	f := first(rule)
	for n := 0; ; n++ {
		d := nth(rule, f, n)
		if d.After(today) {
			break
		}
		if !end.IsZero() && d.After(end) {
			break
		}
		if after != nil && !d.After(since) {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Period returns the key of the window an occurrence falls in: the calendar
// month for monthly rules, the calendar year for yearly rules, the 7-day
// bucket (anchored at the start date) for weekly rules and the day itself
// for daily rules. At most one transaction exists per rule and period.
func Period(rule models.RecurrenceRule, date time.Time) string {
	d := DateOf(date)

	switch rule.Frequency {
	case models.FrequencyMonthly:
		return d.Format(monthLayout)
	case models.FrequencyYearly:
		return d.Format(yearLayout)
	case models.FrequencyWeekly:
		start := DateOf(rule.StartDate)
		days := int(d.Sub(start) / oneDay)
		bucket := days / 7
		if days < 0 && days%7 != 0 {
			bucket--
		}
		return start.AddDate(0, 0, 7*bucket).Format(dateLayout)
	default:
		return d.Format(dateLayout)
	}
}
