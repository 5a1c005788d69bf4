package geo

import (
	"fmt"
	"math"
)

// FormatDistance renders km for display: meters below 1 km, one decimal
// below 10 km, whole kilometers otherwise. The band is chosen after
// rounding so a label never shows the next band's boundary.
func FormatDistance(km float64) string {
	if m := math.Round(km * 1000); m < 1000 {
		return fmt.Sprintf("%dm", int(m))
	}
	if tenths := math.Round(km * 10); tenths < 100 {
		return fmt.Sprintf("%.1fkm", tenths/10)
	}
	return fmt.Sprintf("%dkm", int(math.Round(km)))
}

// Category buckets a distance for badges and grouping.
type Category string

const (
	VeryClose Category = "very-close"
	Close     Category = "close"
	Medium    Category = "medium"
	Far       Category = "far"
)

// DistanceCategory buckets km with boundaries at 5, 25 and 100 km; a
// boundary value belongs to the farther bucket.
func DistanceCategory(km float64) Category {
	switch {
	case km < 5:
		return VeryClose
	case km < 25:
		return Close
	case km < 100:
		return Medium
	default:
		return Far
	}
}
