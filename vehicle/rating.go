package vehicle

import (
	"math"
	"strings"
)

const maxRating = 5.0

// Rating derives a display rating from the record's specs, one decimal, capped at 5.
func Rating(r Record) float64 {
	rating := 4.0

	if r.Year > 2018 {
		rating += 0.3
	}
	// The car-data API reports "electricity"; older cached records say "electric".
	if strings.HasPrefix(strings.ToLower(r.FuelType), "electric") {
		rating += 0.4
	}
	if r.Cylinders >= 6 {
		rating += 0.2
	}
	if strings.Contains(strings.ToLower(r.Class), "luxury") {
		rating += 0.3
	}

	return math.Round(math.Min(rating, maxRating)*10) / 10
}
