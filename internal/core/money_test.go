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
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{".5", 50, true},
		{"15.00", 1500, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{".", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:     "0.00",
		5:     "0.05",
		4000:  "40.00",
		12345: "123.45",
		-305:  "-3.05",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	m, err := MoneyFromFloat(15.0)
	if err != nil || m.Cents != 1500 {
		t.Fatalf("expected 1500 cents, got %d (err=%v)", m.Cents, err)
	}
	m, err = MoneyFromFloat(0.1 + 0.2)
	if err != nil || m.Cents != 30 {
		t.Fatalf("expected 30 cents, got %d (err=%v)", m.Cents, err)
	}
	if _, err := MoneyFromFloat(-1); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	for _, f := range []float64{1e19, 1e300, 92233720368547758.08} {
		if m, err := MoneyFromFloat(f); err == nil {
			t.Fatalf("expected overflow error for %g, got %d cents", f, m.Cents)
		}
	}
}

func TestMoneyJSONRejectsOverflow(t *testing.T) {
	for _, raw := range []string{`1e300`, `1e19`, `"99999999999999999999"`} {
		var m Money
		if err := m.UnmarshalJSON([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s, got %d cents", raw, m.Cents)
		}
	}
}
