// Package policy decides which calendar days may hold appointments. A day is
// eligible when its weekday is in the allowed set and it lies at least the
// configured lead distance past the current day. Days are civil days in UTC,
// carried as strings in the form "2006-01-02".
package policy

import (
	"context"
	"time"

	apperrors "slotgate/pkg/errors"
)

// DayLayout is the canonical wire and storage format for a calendar day.
const DayLayout = "2006-01-02"

// FormatDay renders t's UTC civil day.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay parses a canonical day string into a midnight-UTC time.
func ParseDay(day string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, day, time.UTC)
	if err != nil {
		return time.Time{}, apperrors.Validation("Invalid date format, expected YYYY-MM-DD", map[string]any{"date": day})
	}
	return t, nil
}

// DayFullFunc reports whether a given day has no remaining capacity.
type DayFullFunc func(ctx context.Context, day string) (bool, error)

type Policy struct {
	allowed     map[time.Weekday]bool
	minLeadDays int
	maxScanDays int
}

func New(allowedWeekdays []time.Weekday, minLeadDays, maxScanDays int) *Policy {
	allowed := make(map[time.Weekday]bool, len(allowedWeekdays))
	for _, wd := range allowedWeekdays {
		allowed[wd] = true
	}
	return &Policy{
		allowed:     allowed,
		minLeadDays: minLeadDays,
		maxScanDays: maxScanDays,
	}
}

// EarliestDay returns the first day that satisfies the lead-time rule,
// ignoring the weekday restriction.
func (p *Policy) EarliestDay(now time.Time) time.Time {
	day := now.UTC().Truncate(24 * time.Hour)
	return day.AddDate(0, 0, p.minLeadDays)
}

// AllowedWeekday reports whether t falls on a bookable weekday.
func (p *Policy) AllowedWeekday(t time.Time) bool {
	return p.allowed[t.UTC().Weekday()]
}

// Eligible reports whether day can hold an appointment as of now.
func (p *Policy) Eligible(day string, now time.Time) bool {
	t, err := ParseDay(day)
	if err != nil {
		return false
	}
	if t.Before(p.EarliestDay(now)) {
		return false
	}
	return p.AllowedWeekday(t)
}

// NextEligibleDays enumerates the next count eligible days starting from the
// earliest permitted day. The scan is capped so a weekday set that matches
// nothing cannot loop forever.
func (p *Policy) NextEligibleDays(now time.Time, count int) ([]string, error) {
	days := make([]string, 0, count)
	cursor := p.EarliestDay(now)

	for scanned := 0; len(days) < count; scanned++ {
		if scanned >= p.maxScanDays {
			return nil, apperrors.CalendarExhausted(scanned)
		}
		if p.AllowedWeekday(cursor) {
			days = append(days, FormatDay(cursor))
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return days, nil
}

// EarliestOpenDay walks eligible days in calendar order and returns the first
// one isFull reports as open. Storage errors abort the scan.
func (p *Policy) EarliestOpenDay(ctx context.Context, now time.Time, isFull DayFullFunc) (string, error) {
	cursor := p.EarliestDay(now)

	for scanned := 0; ; scanned++ {
		if scanned >= p.maxScanDays {
			return "", apperrors.CalendarExhausted(scanned)
		}
		if p.AllowedWeekday(cursor) {
			day := FormatDay(cursor)
			full, err := isFull(ctx, day)
			if err != nil {
				return "", err
			}
			if !full {
				return day, nil
			}
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
}
