// internal/models/clock.go
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"
	minutesPerDay   = 24 * 60
)

// TimeOfDay is a wall-clock time stored as minutes since midnight.
// It renders as a zero-padded "HH:MM" 24-hour string.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24-hour). Single-digit hours are accepted.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("time is required")
	}
	hourPart, minutePart, ok := strings.Cut(raw, ":")
	if !ok || len(hourPart) == 0 || len(hourPart) > 2 || len(minutePart) != 2 {
		return 0, fmt.Errorf("time %q must be HH:MM", raw)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || strings.ContainsAny(hourPart, "+-") {
		return 0, fmt.Errorf("time %q must be HH:MM", raw)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || strings.ContainsAny(minutePart, "+-") {
		return 0, fmt.Errorf("time %q must be HH:MM", raw)
	}
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("time %q is out of range", raw)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustTimeOfDay is ParseTimeOfDay for constants and tests.
func MustTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// At builds a TimeOfDay from an hour and minute.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func (t TimeOfDay) Hour() int { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && int(t) < minutesPerDay
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Date is a calendar date with no time-of-day component, held at UTC midnight.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its calendar parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts "YYYY-MM-DD" or an RFC 3339 timestamp, keeping only the date part.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}, fmt.Errorf("date is required")
	}
	if parsed, err := time.Parse(DateLayout, raw); err == nil {
		return DateOf(parsed), nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return DateOf(parsed), nil
	}
	return Date{}, fmt.Errorf("date %q must be YYYY-MM-DD", raw)
}

func MustDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) String() string { return d.t.Format(DateLayout) }
func (d Date) Time() time.Time { return d.t }
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }
func (d Date) AddDays(days int) Date { return Date{t: d.t.AddDate(0, 0, days)} }
func (d Date) At(t TimeOfDay) time.Time { return d.t.Add(time.Duration(t) * time.Minute) }
func (d Date) Format(layout string) string { return d.t.Format(layout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Slot is a half-open interval [Start, End) on a single date.
type Slot struct {
	Start TimeOfDay `json:"startTime"`
	End   TimeOfDay `json:"endTime"`
}

// NewSlot validates that end is strictly after start.
func NewSlot(start, end TimeOfDay) (Slot, error) {
	if !start.Valid() || !end.Valid() {
		return Slot{}, fmt.Errorf("slot times must be within a single day")
	}
	if end <= start {
		return Slot{}, fmt.Errorf("endTime must be after startTime")
	}
	return Slot{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals on the same date conflict:
// s1 < e2 && e1 > s2. Touching intervals do not overlap.
func (s Slot) Overlaps(other Slot) bool {
	return s.Start < other.End && s.End > other.Start
}

func (s Slot) Duration() time.Duration {
	return time.Duration(s.End-s.Start) * time.Minute
}

func (s Slot) String() string {
	return s.Start.String() + "-" + s.End.String()
}
