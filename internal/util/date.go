package util

import "math/rand"

// RandIntRange returns a random int in [min, max].
func RandIntRange(r *rand.Rand, min int, max int) int {
	if max <= min {
		return min
	}
	return min + r.Intn(max-min+1)
}

// RandInt64Range returns a random int64 in [min, max].
func RandInt64Range(r *rand.Rand, min int64, max int64) int64 {
	if max <= min {
		return min
	}
	span := uint64(max - min)
	if span == ^uint64(0) {
		return int64(r.Uint64())
	}
	return min + int64(r.Uint64()%(span+1))
}

// ClampInt64 bounds v to [min, max].
func ClampInt64(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// IsLeapYear reports whether year is a leap year.
func IsLeapYear(year int) bool {
	if year%400 == 0 {
		return true
	}
	if year%100 == 0 {
		return false
	}
	return year%4 == 0
}

// DaysInMonth returns the number of days for a given month in a year.
func DaysInMonth(year int, month int) int {
	switch month {
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}
