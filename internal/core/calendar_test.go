package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMonthKeyOf(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want MonthKey
	}{
		{"first day", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "2024-06-01"},
		{"last day", time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC), "2024-06-01"},
		{"december", time.Date(2023, 12, 15, 12, 0, 0, 0, time.UTC), "2023-12-01"},
		{"small year is padded", time.Date(999, 1, 2, 0, 0, 0, 0, time.UTC), "0999-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthKeyOf(tt.t); got != tt.want {
				t.Errorf("MonthKeyOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthKeyUsesWallClockOfLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	// 2024-07-01 01:00 UTC is still June 30 in UTC-3.
	now := time.Date(2024, 7, 1, 1, 0, 0, 0, time.UTC).In(loc)
	if got := CurrentMonthKey(FixedClock{T: now}); got != "2024-06-01" {
		t.Fatalf("CurrentMonthKey() = %v, want 2024-06-01", got)
	}
	if got := Today(FixedClock{T: now}); got.String() != "2024-06-30" {
		t.Fatalf("Today() = %v, want 2024-06-30", got)
	}
}

func TestMonthKeyOrderingMatchesChronology(t *testing.T) {
	start := NewDate(1999, 11, 20)
	for i := 0; i < 400; i++ {
		a := start.AddDate(0, 0, i*7)
		b := a.AddDate(0, 0, 29)
		ka, kb := MonthKeyOf(a), MonthKeyOf(b)
		if ka == kb {
			continue
		}
		if !ka.Before(kb) {
			t.Fatalf("%s (%s) should sort before %s (%s)", ka, a.Format(dateLayout), kb, b.Format(dateLayout))
		}
	}
}

func TestParseMonthKey(t *testing.T) {
	tests := []struct {
		in      string
		want    MonthKey
		wantErr bool
	}{
		{"2024-06-01", "2024-06-01", false},
		{"2024-06", "2024-06-01", false},
		{"2024-06-15", "", true},
		{"2024-13-01", "", true},
		{"june", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonthKey(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMonthKey) {
					t.Fatalf("ParseMonthKey(%q) error = %v, want ErrInvalidMonthKey", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseMonthKey(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}

	if MonthKey("2024-06-01").Label() != "06/2024" {
		t.Fatalf("unexpected label %q", MonthKey("2024-06-01").Label())
	}
	if MonthKey("2024-6-1").Valid() {
		t.Fatalf("unpadded key must not be valid")
	}
}

func TestInstallmentDueDate(t *testing.T) {
	tests := []struct {
		name       string
		purchase   Date
		index      int
		billingDay int
		want       string
	}{
		{"next month", NewDate(2024, 1, 15), 1, 10, "2024-02-10"},
		{"third installment", NewDate(2024, 1, 15), 3, 10, "2024-04-10"},
		{"same month at index zero", NewDate(2024, 1, 15), 0, 5, "2024-01-05"},
		{"crosses year", NewDate(2024, 11, 2), 3, 20, "2025-02-20"},
		{"day 31 overflows leap february", NewDate(2024, 1, 31), 1, 31, "2024-03-02"},
		{"day 31 overflows common february", NewDate(2023, 1, 31), 1, 31, "2023-03-03"},
		{"day 30 overflows february", NewDate(2023, 1, 10), 1, 30, "2023-03-02"},
		{"day 31 overflows april", NewDate(2024, 3, 5), 1, 31, "2024-05-01"},
		{"purchase day does not matter", NewDate(2024, 1, 31), 2, 10, "2024-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InstallmentDueDate(tt.purchase, tt.index, tt.billingDay)
			if got.String() != tt.want {
				t.Errorf("InstallmentDueDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInstallmentDueDateIsKMonthsAfterFirst(t *testing.T) {
	purchase := NewDate(2024, 5, 17)
	for day := 1; day <= 28; day++ {
		base := InstallmentDueDate(purchase, 0, day)
		if base.MonthKey() != purchase.MonthKey() || base.Day() != day {
			t.Fatalf("index 0 at day %d = %v", day, base)
		}
		for k := 1; k <= 60; k++ {
			got := InstallmentDueDate(purchase, k, day)
			want := base.AddDate(0, k, 0)
			if !got.Equal(want) {
				t.Fatalf("index %d day %d = %v, want %v", k, day, got, want.Format(dateLayout))
			}
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2024-03-02"` {
		t.Fatalf("unexpected encoding %s", b)
	}

	var d Date
	if err := json.Unmarshal([]byte(`"2024-02-29"`), &d); err != nil {
		t.Fatal(err)
	}
	if d.Year() != 2024 || d.Month() != 2 || d.Day() != 29 {
		t.Fatalf("decoded %v", d)
	}
	if err := json.Unmarshal([]byte(`"2024-02-30"`), &d); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}
