package util

import (
	"math/rand"
	"testing"
)

func TestIsLeapYear(t *testing.T) {
	cases := []struct {
		year int
		want bool
	}{
		{1900, false},
		{2000, true},
		{2023, false},
		{2024, true},
	}
	for _, c := range cases {
		if got := IsLeapYear(c.year); got != c.want {
			t.Fatalf("IsLeapYear(%d)=%v, want %v", c.year, got, c.want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(2023, 2); got != 28 {
		t.Fatalf("DaysInMonth(2023, 2)=%d, want 28", got)
	}
	if got := DaysInMonth(2024, 2); got != 29 {
		t.Fatalf("DaysInMonth(2024, 2)=%d, want 29", got)
	}
	if got := DaysInMonth(2024, 11); got != 30 {
		t.Fatalf("DaysInMonth(2024, 11)=%d, want 30", got)
	}
}

func TestRandInt64RangeBounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := RandInt64Range(r, -5, 5)
		if v < -5 || v > 5 {
			t.Fatalf("RandInt64Range(-5, 5)=%d out of range", v)
		}
	}
	if got := RandInt64Range(r, 3, 3); got != 3 {
		t.Fatalf("RandInt64Range(3, 3)=%d, want 3", got)
	}
}

func TestClampInt64(t *testing.T) {
	cases := []struct {
		v, min, max, want int64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}
	for _, c := range cases {
		if got := ClampInt64(c.v, c.min, c.max); got != c.want {
			t.Fatalf("ClampInt64(%d, %d, %d)=%d, want %d", c.v, c.min, c.max, got, c.want)
		}
	}
}
