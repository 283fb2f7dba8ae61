package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0", 0, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"-1", -100, true},
		{"-0.5", -50, true},
		{"+3", 300, true},
		{".5", 50, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1.", 0, false},
		{"-", 0, false},
		{"", 0, false},
		{"1e3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyValue(t *testing.T) {
	if v := (Money{Cents: 1234}).Value(); v != 12.34 {
		t.Fatalf("Value() = %v", v)
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{100000, "$1000.00"},
		{40000, "$400.00"},
		{1234, "$12.34"},
		{5, "$0.05"},
		{-350, "-$3.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("%d: got %q want %q", tc.cents, got, tc.want)
		}
	}
}
