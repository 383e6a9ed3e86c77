package vehicle

import (
	"math"
	"strings"
	"time"
)

const (
	basePrice      = 50.0
	baseYear       = 1990
	defaultYear    = 2000
	minYearFactor  = 0.5
	baseCylinders  = 4
	cylinderFactor = 0.15
	priceStep      = 10
)

// classMultiplier pairs a class substring with its price multiplier.
type classMultiplier struct {
	token      string
	multiplier float64
}

// classMultipliers is checked in order; the first token contained in the class wins.
var classMultipliers = []classMultiplier{
	{"suv", 1.5},
	{"sport utility vehicle", 1.5},
	{"sports car", 2.5},
	{"luxury car", 2.0},
	{"sedan", 1.2},
	{"compact car", 0.8},
	{"midsize car", 1.0},
	{"coupe", 1.8},
	{"convertible", 2.2},
}

// Price derives the daily rental price in dollars using the current year.
func Price(class string, year, cylinders int) int {
	return PriceAt(class, year, cylinders, time.Now().Year())
}

// PriceAt derives the daily rental price relative to currentYear.
// The result is always a positive multiple of 10.
func PriceAt(class string, year, cylinders, currentYear int) int {
	price := basePrice * multiplierFor(class)

	if year <= 0 {
		year = defaultYear
	}
	if span := float64(currentYear - baseYear); span > 0 {
		price *= math.Max(minYearFactor, float64(year-baseYear)/span)
	}

	if cylinders > 0 {
		price *= 1 + float64(cylinders-baseCylinders)*cylinderFactor
	}

	rounded := int(math.Floor(price/priceStep+0.5)) * priceStep
	if rounded < priceStep {
		return priceStep
	}
	return rounded
}

func multiplierFor(class string) float64 {
	cl := strings.ToLower(class)
	for _, m := range classMultipliers {
		if strings.Contains(cl, m.token) {
			return m.multiplier
		}
	}
	return 1.0
}
