// Package datetime parses the date and time strings accepted by the booking
// API. Dates come either day-first with slashes (20/05/2025) or ISO
// (2025-05-20, optionally followed by a T-separated time). Times are 24-hour
// HH:MM.
package datetime

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// ISODate is the canonical storage form for appointment dates.
	ISODate = "2006-01-02"
	// SlashDate is the day-first form used by the booking forms.
	SlashDate = "2/1/2006"
	// Clock is the HH:MM form for slot start times.
	Clock = "15:04"
)

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrInvalidTime = errors.New("invalid time")

	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	isoDateTimeLayouts = []string{
		"2006-01-02T15:04",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}
)

// ParseDate returns midnight of the given date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	d, _, err := parse(value, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), nil
}

// NormalizeDate converts either accepted form to YYYY-MM-DD.
func NormalizeDate(value string) (string, error) {
	d, err := ParseDate(value, time.UTC)
	if err != nil {
		return "", err
	}
	return d.Format(ISODate), nil
}

// ValidDate reports whether value parses in either accepted form.
func ValidDate(value string) bool {
	_, _, err := parse(value, time.UTC)
	return err == nil
}

// ValidClock reports whether value is a two-digit 24-hour HH:MM time.
func ValidClock(value string) bool {
	return clockPattern.MatchString(value)
}

// Combine resolves a date and a clock time to an instant in loc. When the
// date is ISO with an embedded time component, that component wins and
// clock is ignored.
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	d, hasTime, err := parse(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	if hasTime {
		return d, nil
	}
	if !ValidClock(clock) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	t, _ := time.Parse(Clock, clock)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

func parse(value string, loc *time.Location) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	if strings.Contains(value, "/") {
		d, err := time.ParseInLocation(SlashDate, value, loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, value)
		}
		return d, false, nil
	}

	if strings.Contains(value, "T") {
		for _, layout := range isoDateTimeLayouts {
			if d, err := time.ParseInLocation(layout, value, loc); err == nil {
				return d, true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}

	d, err := time.ParseInLocation(ISODate, value, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return d, false, nil
}
