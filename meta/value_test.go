package meta

import (
	"testing"
)

func TestNormalize_Scalars(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{false, "false"},
		{"plain", "plain"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint64(9), "9"},
		{5.0, "5"},
		{-3.0, "-3"},
		{2.5, "2.5"},
		{0.001, "0.001"},
		{float32(1.5), "1.5"},
	}

	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalize_WholeFloatDemotion(t *testing.T) {
	// Values produced by range walks accumulate float error; a whole
	// float must still print without a decimal point.
	if got := Normalize(10.0); got != "10" {
		t.Errorf("expected 10, got %q", got)
	}

	if got := Normalize(1e6); got != "1000000" {
		t.Errorf("expected 1000000, got %q", got)
	}
}

func TestDemoteWhole(t *testing.T) {
	if v := demoteWhole(4.0); v != int64(4) {
		t.Errorf("expected int64(4), got %v (%T)", v, v)
	}

	if v := demoteWhole(4.5); v != 4.5 {
		t.Errorf("expected 4.5, got %v (%T)", v, v)
	}
}

func TestNormalize_HugeWholeFloat(t *testing.T) {
	// Whole floats beyond int64 range must not be forced through an
	// integer conversion.
	if got := Normalize(1e30); got != "1e+30" {
		t.Errorf("Normalize(1e30) = %q", got)
	}

	if got := Normalize(-1e30); got != "-1e+30" {
		t.Errorf("Normalize(-1e30) = %q", got)
	}

	if v := demoteWhole(1e30); v != 1e30 {
		t.Errorf("expected 1e30 to stay a float, got %v (%T)", v, v)
	}
}
