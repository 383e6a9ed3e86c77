package vehicle

import (
	"encoding/json"
	"testing"
)

func TestRawVehicle_UnmarshalPlaceholders(t *testing.T) {
	data := `{
		"make": "toyota",
		"model": "camry",
		"year": 2020,
		"class": "midsize car",
		"city_mpg": "this field is for premium subscribers only",
		"highway_mpg": "39",
		"cylinders": null,
		"displacement": 2.5,
		"transmission": "a"
	}`

	var raw RawVehicle
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if raw.Year.Int() != 2020 {
		t.Errorf("Year = %d, want 2020", raw.Year.Int())
	}
	if raw.CityMPG.Valid {
		t.Error("placeholder city_mpg should be absent")
	}
	if !raw.HighwayMPG.Valid || raw.HighwayMPG.Int() != 39 {
		t.Errorf("HighwayMPG = %+v, want 39", raw.HighwayMPG)
	}
	if raw.Cylinders.Valid {
		t.Error("null cylinders should be absent")
	}
	if raw.Displacement.Float() != 2.5 {
		t.Errorf("Displacement = %v, want 2.5", raw.Displacement.Float())
	}
}

func TestOptional_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A OptionalInt   `json:"a"`
		B OptionalFloat `json:"b"`
		C OptionalInt   `json:"c"`
	}{A: OptionalInt{Value: 4, Valid: true}, B: OptionalFloat{Value: 1.5, Valid: true}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `{"a":4,"b":1.5,"c":null}` {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestNormalize(t *testing.T) {
	raws := []RawVehicle{
		{Make: "Toyota", Model: "Camry", Year: OptionalInt{Value: 2020, Valid: true}, Class: "midsize car", Cylinders: OptionalInt{Value: 4, Valid: true}},
		{},
		{Make: "  ", Model: " "},
		{Make: "Ford"},
		{Make: "Honda", Model: "Civic", Transmission: "x"},
		{Make: " Honda ", Model: "Civic", Class: "compact car", Transmission: "M"},
	}

	got := Normalize(raws, testYear)
	if len(got) != 4 {
		t.Fatalf("len(Normalize()) = %d, want 4", len(got))
	}

	camry := got[0]
	if camry.ID != "Toyota-Camry-2020-0" {
		t.Errorf("ID = %s", camry.ID)
	}
	if camry.Type != CategorySedan {
		t.Errorf("Type = %s, want Sedan", camry.Type)
	}
	if camry.Price != PriceAt("midsize car", 2020, 4, testYear) {
		t.Errorf("Price = %d", camry.Price)
	}
	if camry.Rating != 4.3 {
		t.Errorf("Rating = %v, want 4.3", camry.Rating)
	}

	ford := got[1]
	if ford.ID != "Ford--unknown-1" {
		t.Errorf("ID = %s, want make-only entry kept", ford.ID)
	}

	unknown := got[2]
	if unknown.Transmission != "" {
		t.Errorf("Transmission = %q, want unknown code treated as absent", unknown.Transmission)
	}
	if unknown.TransmissionName() != "N/A" {
		t.Errorf("TransmissionName() = %s, want N/A", unknown.TransmissionName())
	}

	civic := got[3]
	if civic.ID != "Honda-Civic-unknown-3" {
		t.Errorf("ID = %s, want index among kept entries", civic.ID)
	}
	if civic.Make != "Honda" {
		t.Errorf("Make = %q, want trimmed", civic.Make)
	}
	if civic.Transmission != "m" {
		t.Errorf("Transmission = %q, want lower-cased code", civic.Transmission)
	}
	if civic.TransmissionName() != "Manual" {
		t.Errorf("TransmissionName() = %s", civic.TransmissionName())
	}
}

func TestNormalize_UniqueIDs(t *testing.T) {
	raw := RawVehicle{Make: "Toyota", Model: "Camry", Year: OptionalInt{Value: 2020, Valid: true}}
	got := Normalize([]RawVehicle{raw, raw, raw}, testYear)

	seen := map[string]bool{}
	for _, r := range got {
		if seen[r.ID] {
			t.Fatalf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestRecord_Helpers(t *testing.T) {
	a := Record{Make: "Toyota", Model: "Camry", Year: 2020, FuelType: "electricity"}
	b := Record{ID: "other", Make: "Toyota", Model: "Camry", Year: 2020, Price: 80}

	if !a.SameVehicle(b) {
		t.Error("SameVehicle should ignore id and price")
	}
	if a.SameVehicle(Record{Make: "Toyota", Model: "Camry", Year: 2021}) {
		t.Error("different years are different vehicles")
	}
	if a.SameVehicle(Record{Make: "toyota", Model: "CAMRY", Year: 2020}) {
		t.Error("make and model compare exactly")
	}
	if a.Title() != "Toyota Camry" {
		t.Errorf("Title() = %s", a.Title())
	}
	if a.FuelName() != "Electric" {
		t.Errorf("FuelName() = %s", a.FuelName())
	}
}
