package core

import "testing"

func TestParseAmount(t *testing.T) {
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
		{"1.005", "1.01", true}, // half-up rounding
		{"1.004", "1", true},
		{" 2.50 ", "2.5", true},
		{"1000", "1000", true},
		{"-1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "1000", true},
		{"1E3", "1000", true},
		{"1.5e2", "150", true},
		{"1,5e2", "150", true},
		{"2.5e+1", "25", true},
		{"1234e-2", "12.34", true},
		{"1e-5", "", false},
		{"1e12", "", false},
		{"1e999", "", false},
		{"1e", "", false},
		{"e3", "", false},
		{"1e3e1", "", false},
		{"1e-+3", "", false},
		{"-1e3", "", false},
		{"+1", "", false},
		{"", "", false},
		{"1000000000000", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %s", tc.in, got)
			}
		}
	}
}
