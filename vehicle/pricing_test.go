package vehicle

import "testing"

const testYear = 2026

func TestPriceAt(t *testing.T) {
	tests := []struct {
		name      string
		class     string
		year      int
		cylinders int
		want      int
	}{
		{"sports car v8", "sports car", 2023, 8, 180},
		{"compact car i4", "compact car", 2023, 4, 40},
		{"default year floor", "midsize car", 0, 0, 30},
		{"no class", "", 0, 0, 30},
		{"new suv v6", "suv", 2026, 6, 100},
		{"sport utility vehicle", "small sport utility vehicle", 2020, 4, 60},
		{"old two cylinder", "compact car", 1995, 2, 10},
		{"old three cylinder", "compact car", 1995, 3, 20},
		{"upper case class", "SPORTS CAR", 2026, 4, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceAt(tt.class, tt.year, tt.cylinders, testYear)
			if got != tt.want {
				t.Errorf("PriceAt(%q, %d, %d) = %d, want %d", tt.class, tt.year, tt.cylinders, got, tt.want)
			}
		})
	}
}

func TestPrice_SportsBeatsCompact(t *testing.T) {
	sports := Price("sports car", 2023, 8)
	compact := Price("compact car", 2023, 4)
	if sports <= compact {
		t.Errorf("sports car price %d should exceed compact car price %d", sports, compact)
	}
}

func TestPrice_PositiveMultipleOfTen(t *testing.T) {
	classes := []string{"", "suv", "sports car", "luxury car", "sedan", "compact car", "midsize car", "coupe", "convertible", "minivan"}
	for _, class := range classes {
		for year := 0; year <= testYear+2; year += 7 {
			for cyl := 0; cyl <= 16; cyl++ {
				p := PriceAt(class, year, cyl, testYear)
				if p <= 0 || p%10 != 0 {
					t.Fatalf("PriceAt(%q, %d, %d) = %d, not a positive multiple of 10", class, year, cyl, p)
				}
			}
		}
	}
}

func TestMultiplierFor_TableOrder(t *testing.T) {
	tests := []struct {
		class string
		want  float64
	}{
		{"compact suv", 1.5},
		{"sport utility vehicle", 1.5},
		{"sports car", 2.5},
		{"luxury car", 2.0},
		{"sedan", 1.2},
		{"convertible", 2.2},
		{"minivan", 1.0},
	}

	for _, tt := range tests {
		if got := multiplierFor(tt.class); got != tt.want {
			t.Errorf("multiplierFor(%q) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestRating(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want float64
	}{
		{"baseline", Record{}, 4.0},
		{"new electric", Record{Year: 2020, FuelType: "electricity"}, 4.7},
		{"luxury v8", Record{Year: 2021, FuelType: "gas", Cylinders: 8, Class: "luxury car"}, 4.8},
		{"capped", Record{Year: 2022, FuelType: "electric", Cylinders: 6, Class: "Luxury Sedan"}, 5.0},
		{"2018 not new", Record{Year: 2018}, 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rating(tt.rec); got != tt.want {
				t.Errorf("Rating() = %v, want %v", got, tt.want)
			}
		})
	}
}
