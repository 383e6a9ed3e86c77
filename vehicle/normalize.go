package vehicle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/autorent/autorent-platform/pkg/validation"
)

// RawVehicle is one entry as returned by the car-data API.
type RawVehicle struct {
	Make           string        `json:"make" validate:"required_without=Model"`
	Model          string        `json:"model" validate:"required_without=Make"`
	Year           OptionalInt   `json:"year"`
	Class          string        `json:"class"`
	FuelType       string        `json:"fuel_type"`
	Drive          string        `json:"drive"`
	Transmission   string        `json:"transmission"`
	Cylinders      OptionalInt   `json:"cylinders"`
	Displacement   OptionalFloat `json:"displacement"`
	CityMPG        OptionalInt   `json:"city_mpg"`
	HighwayMPG     OptionalInt   `json:"highway_mpg"`
	CombinationMPG OptionalInt   `json:"combination_mpg"`
}

// IsEmpty reports whether the entry carries no identifying data.
func (v RawVehicle) IsEmpty() bool {
	return strings.TrimSpace(v.Make) == "" && strings.TrimSpace(v.Model) == ""
}

// Validate checks that the entry can be turned into a Record.
func (v RawVehicle) Validate() error {
	return validation.Validate(v)
}

// Normalize converts API entries into Records, dropping entries with neither
// make nor model. IDs are assigned from the position among the kept entries.
func Normalize(raws []RawVehicle, currentYear int) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		if raw.IsEmpty() || raw.Validate() != nil {
			continue
		}
		records = append(records, NormalizeOne(raw, len(records), currentYear))
	}
	return records
}

// NormalizeOne converts a single entry at the given batch index.
func NormalizeOne(raw RawVehicle, index, currentYear int) Record {
	r := Record{
		Make:           strings.TrimSpace(raw.Make),
		Model:          strings.TrimSpace(raw.Model),
		Year:           raw.Year.Int(),
		Class:          raw.Class,
		FuelType:       raw.FuelType,
		Drive:          raw.Drive,
		Transmission:   transmissionCode(raw.Transmission),
		Cylinders:      raw.Cylinders.Int(),
		Displacement:   raw.Displacement.Float(),
		CityMPG:        raw.CityMPG.Int(),
		HighwayMPG:     raw.HighwayMPG.Int(),
		CombinationMPG: raw.CombinationMPG.Int(),
	}

	r.ID = RecordID(r.Make, r.Model, r.Year, index)
	r.Price = PriceAt(r.Class, r.Year, r.Cylinders, currentYear)
	r.Type = ClassifyRecord(r)
	r.Rating = Rating(r)
	return r
}

// transmissionCode keeps a/m and treats any other code as unreported.
func transmissionCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if validation.ValidateVar(code, "transmission") != nil {
		return ""
	}
	return code
}

// RecordID builds the make-model-year-index identifier.
func RecordID(carMake, model string, year, index int) string {
	y := "unknown"
	if year > 0 {
		y = strconv.Itoa(year)
	}
	return fmt.Sprintf("%s-%s-%s-%d", carMake, model, y, index)
}
