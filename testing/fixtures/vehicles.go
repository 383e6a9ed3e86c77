// Package fixtures provides vehicle test data.
package fixtures

import (
	"github.com/autorent/autorent-platform/pkg/vehicle"
)

// CurrentYear pins pricing in fixtures.
const CurrentYear = 2025

func optInt(v int) vehicle.OptionalInt {
	return vehicle.OptionalInt{Value: v, Valid: true}
}

func optFloat(v float64) vehicle.OptionalFloat {
	return vehicle.OptionalFloat{Value: v, Valid: true}
}

// CamryRaw returns a 2020 Toyota Camry as reported by the API.
func CamryRaw() vehicle.RawVehicle {
	return vehicle.RawVehicle{
		Make:           "toyota",
		Model:          "camry",
		Year:           optInt(2020),
		Class:          "midsize car",
		FuelType:       "gas",
		Drive:          "fwd",
		Transmission:   "a",
		Cylinders:      optInt(4),
		Displacement:   optFloat(2.5),
		CityMPG:        optInt(28),
		HighwayMPG:     optInt(39),
		CombinationMPG: optInt(32),
	}
}

// RawBatch returns a mixed batch of API entries covering every category.
func RawBatch() []vehicle.RawVehicle {
	return []vehicle.RawVehicle{
		CamryRaw(),
		{Make: "honda", Model: "civic", Year: optInt(2019), Class: "compact car", FuelType: "gas", Transmission: "m", Cylinders: optInt(4)},
		{Make: "ford", Model: "explorer", Year: optInt(2021), Class: "standard sport utility vehicle", FuelType: "gas", Transmission: "a", Cylinders: optInt(6)},
		{Make: "chevrolet", Model: "corvette", Year: optInt(2022), Class: "two seater", FuelType: "gas", Transmission: "a", Cylinders: optInt(8)},
		{Make: "jeep", Model: "wrangler", Year: optInt(2018), Class: "", FuelType: "gas", Transmission: "m", Cylinders: optInt(6)},
		{Make: "tesla", Model: "model 3", Year: optInt(2023), Class: "midsize car", FuelType: "electricity", Transmission: "a"},
	}
}

// Records returns RawBatch normalized at CurrentYear.
func Records() []vehicle.Record {
	return vehicle.Normalize(RawBatch(), CurrentYear)
}

// Camry returns the normalized Camry record for year.
func Camry(year int) vehicle.Record {
	raw := CamryRaw()
	raw.Year = optInt(year)
	return vehicle.NormalizeOne(raw, 0, CurrentYear)
}

// StaleRecords returns n records whose stored type disagrees with the current rules.
func StaleRecords(n int) []vehicle.Record {
	batch := RawBatch()
	out := make([]vehicle.Record, 0, n)
	for i := 0; i < n; i++ {
		r := vehicle.NormalizeOne(batch[i%len(batch)], i, CurrentYear)
		r.Type = otherCategory(r.Type)
		out = append(out, r)
	}
	return out
}

func otherCategory(c vehicle.Category) vehicle.Category {
	switch c {
	case vehicle.CategorySUV:
		return vehicle.CategorySedan
	case vehicle.CategorySedan:
		return vehicle.CategorySport
	default:
		return vehicle.CategorySUV
	}
}
