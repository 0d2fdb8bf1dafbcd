package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and display format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day. The zero value means unset; every day a user can
// type, 0001-01-01 included, is a set date.
type Date struct {
	t   time.Time
	set bool
}

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), set: true}
}

// DateOf returns the calendar day of t in t's own location. A zero
// time.Time gives an unset date.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string. Surrounding whitespace is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD", s)
	}
	return NewDate(t.Date()), nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return !d.set
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return d.t
}

// Equal reports whether both dates name the same day.
func (d Date) Equal(other Date) bool {
	return d.set == other.set && d.t.Equal(other.t)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// String returns YYYY-MM-DD, or "" for an unset date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON encodes an unset date as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts null, "", YYYY-MM-DD and RFC 3339 timestamps.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		*d = NewDate(t.Date())
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	*d = NewDate(t.UTC().Date())
	return nil
}
