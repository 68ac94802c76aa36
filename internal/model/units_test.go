package model

import (
	"math/big"
	"testing"
)

func TestToRawTruncates(t *testing.T) {
	amount, _ := new(big.Rat).SetString("1.23456789")
	got := ToRaw(amount, 6)
	if got.Cmp(big.NewInt(1234567)) != 0 {
		t.Fatalf("raw = %s, want 1234567", got)
	}
	if back := FromRaw(got, 6); back.Cmp(big.NewRat(1234567, 1000000)) != 0 {
		t.Fatalf("from raw = %s", back.FloatString(6))
	}
}

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1000000", 18, "1000000"},
		{"1.5", 18, "1.5"},
		{"1/3", 6, "0.333333"},
		{"2/3", 2, "0.67"},
		{"0", 18, "0"},
	}
	for _, tc := range cases {
		r, _ := new(big.Rat).SetString(tc.in)
		if got := FormatUnits(r, tc.decimals); got != tc.want {
			t.Fatalf("FormatUnits(%s, %d) = %q, want %q", tc.in, tc.decimals, got, tc.want)
		}
	}
	if got := FormatUnits(nil, 18); got != "0" {
		t.Fatalf("nil = %q", got)
	}
}
