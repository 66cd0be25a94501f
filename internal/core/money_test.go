package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12", 1200, true},
		{"0.5", 50, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{",5", 50, true},
		{"", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tc.in, err)
			}
			if got.Cents != tc.want {
				t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got.Cents, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("ParseAmount(%q) expected error, got %d", tc.in, got.Cents)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 150}
	b := Money{Cents: 50}
	if got := a.Add(b).Cents; got != 200 {
		t.Fatalf("Add = %d, want 200", got)
	}
	if got := b.Sub(a).Cents; got != -100 {
		t.Fatalf("Sub = %d, want -100", got)
	}
	if got := a.Float(); got != 1.5 {
		t.Fatalf("Float = %v, want 1.5", got)
	}
}
