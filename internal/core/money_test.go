package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{".5", "0.5", true},
		{"1.005", "1.01", true}, // half-up rounding
		{"12.344", "12.34", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.004", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(MustMoney(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	hundred := MustMoney("100")
	per := hundred.DivInt(3)
	if per.Fixed() != "33.33" {
		t.Fatalf("100/3 = %s, want 33.33", per.Fixed())
	}
	last := hundred.Sub(per.MulInt(2)).Round2()
	if last.Fixed() != "33.34" {
		t.Fatalf("remainder = %s, want 33.34", last.Fixed())
	}
	if !Sum(per, per, last).Equal(hundred) {
		t.Fatalf("sum of parts must equal the total")
	}
	if MoneyFromCents(1234).String() != "12.34" {
		t.Fatalf("MoneyFromCents(1234) = %s", MoneyFromCents(1234))
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		V Money `json:"v"`
	}{V: MustMoney("33.34")})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"v":33.34}` {
		t.Fatalf("unexpected encoding %s", b)
	}

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 1500, "b": "0.10"}`), &in); err != nil {
		t.Fatal(err)
	}
	if !in.A.Equal(MustMoney("1500")) || !in.B.Equal(MustMoney("0.1")) {
		t.Fatalf("decoded a=%s b=%s", in.A, in.B)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := MustMoney("0.01").Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Zero.Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := MustMoney("-3").Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
	if err := MustMoney("100.005").Validate(); !errors.Is(err, ErrFractionalCents) {
		t.Fatalf("expected ErrFractionalCents for 100.005, got %v", err)
	}
	if err := MustMoney("12.300").Validate(); err != nil {
		t.Fatalf("trailing zeros are whole cents, got %v", err)
	}
}
