package vehicle

import "strings"

// Record is one rentable vehicle derived from a car-data API entry.
// Zero values mean the source did not report the field.
type Record struct {
	ID             string   `json:"id"`
	Make           string   `json:"make"`
	Model          string   `json:"model"`
	Year           int      `json:"year,omitempty"`
	Class          string   `json:"class,omitempty"`
	FuelType       string   `json:"fuel_type,omitempty"`
	Drive          string   `json:"drive,omitempty"`
	Transmission   string   `json:"transmission,omitempty"`
	Cylinders      int      `json:"cylinders,omitempty"`
	Displacement   float64  `json:"displacement,omitempty"`
	CityMPG        int      `json:"city_mpg,omitempty"`
	HighwayMPG     int      `json:"highway_mpg,omitempty"`
	CombinationMPG int      `json:"combination_mpg,omitempty"`
	Price          int      `json:"price"`
	Type           Category `json:"type"`
	Rating         float64  `json:"rating,omitempty"`
}

// Title returns "Make Model".
func (r Record) Title() string {
	return strings.TrimSpace(r.Make + " " + r.Model)
}

// SameVehicle reports whether two records describe the same make, model and year.
// IDs are not compared since they change between catalogue fetches.
func (r Record) SameVehicle(other Record) bool {
	return r.Make == other.Make && r.Model == other.Model && r.Year == other.Year
}

// TransmissionName expands the single-letter transmission code.
func (r Record) TransmissionName() string {
	switch strings.ToLower(r.Transmission) {
	case "a":
		return "Automatic"
	case "m":
		return "Manual"
	case "":
		return "N/A"
	default:
		return r.Transmission
	}
}

// FuelName returns a display name for the fuel type.
func (r Record) FuelName() string {
	switch strings.ToLower(r.FuelType) {
	case "gas":
		return "Gasoline"
	case "diesel":
		return "Diesel"
	case "electricity", "electric":
		return "Electric"
	case "":
		return "N/A"
	default:
		return r.FuelType
	}
}
