package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar date without time of day. It is always stored at
	// midnight UTC so that its year/month/day never shift.
	Date struct {
		time.Time
	}

	// MonthKey is the first-of-month representative of a calendar month,
	// formatted YYYY-MM-01. Keys order lexicographically in calendar order.
	MonthKey string

	// Clock is the single source of "now" for the ledger.
	Clock interface {
		Now() time.Time
	}

	// SystemClock reads the wall clock, optionally in a fixed location.
	SystemClock struct {
		Location *time.Location
	}

	// FixedClock always returns the same instant.
	FixedClock struct {
		T time.Time
	}
)

// NewDate creates a new Date from year, month, day. Out of range months and
// days carry over into the following months the way time.Date normalizes.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf takes the wall-clock calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MonthKey returns the key of the month containing d.
func (d Date) MonthKey() MonthKey {
	return MonthKeyOf(d.Time)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding with YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	return d.UnmarshalText([]byte(s))
}

// MonthKeyOf returns the first-of-month key for the month containing t,
// using t's own year and month.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKeyFor(t.Year(), int(t.Month()))
}

// MonthKeyFor builds the key for a year and 1-based month.
func MonthKeyFor(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d-01", year, month))
}

// ParseMonthKey accepts YYYY-MM-01 or the short YYYY-MM form.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if len(s) == len("2006-01") {
		s += "-01"
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil || t.Day() != 1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return MonthKeyOf(t), nil
}

// Valid reports whether k is a well-formed first-of-month key.
func (k MonthKey) Valid() bool {
	parsed, err := ParseMonthKey(string(k))
	return err == nil && parsed == k
}

// Before reports whether k is a strictly earlier month than o.
func (k MonthKey) Before(o MonthKey) bool { return k < o }

// Date returns the first day of the month.
func (k MonthKey) Date() Date {
	d, _ := ParseDate(string(k))
	return d
}

// Label formats the key as MM/YYYY.
func (k MonthKey) Label() string {
	s := string(k)
	if len(s) < 7 {
		return ""
	}
	return s[5:7] + "/" + s[0:4]
}

// Prefix returns the YYYY-MM part shared by every date of the month.
func (k MonthKey) Prefix() string {
	s := string(k)
	if len(s) < 7 {
		return s
	}
	return s[:7]
}

func (k MonthKey) String() string { return string(k) }

// InstallmentDueDate moves purchaseDate forward by index months and then sets
// the day of month to billingDay. A billing day past the end of the target
// month rolls into the next month (January 31 + 1 month at day 31 is
// March 2 in a leap year); it is never clamped to the month end.
func InstallmentDueDate(purchaseDate Date, index, billingDay int) Date {
	return NewDate(purchaseDate.Year(), purchaseDate.Month()+index, billingDay)
}

func (c SystemClock) Now() time.Time {
	now := time.Now()
	if c.Location != nil {
		return now.In(c.Location)
	}
	return now
}

func (c FixedClock) Now() time.Time { return c.T }

// CurrentMonthKey returns the key for the month the clock is in.
func CurrentMonthKey(c Clock) MonthKey {
	return MonthKeyOf(c.Now())
}

// Today returns the clock's current calendar date.
func Today(c Clock) Date {
	return DateOf(c.Now())
}
