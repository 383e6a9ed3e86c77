package vehicle

import "strings"

var (
	suvClassTokens = []string{"suv", "sport utility", "truck"}
	suvModelTokens = []string{"suv"}
	suvMakes       = []string{"jeep", "land rover", "range rover"}

	sportClassTokens = []string{"sport", "coupe", "convertible", "roadster", "supercar", "muscle", "performance"}
	sportModelTokens = []string{"sport", "gt", "gti", "turbo", "rs", "m3", "m5", "amg", "type r", "sti", "wrx"}
	exoticMakes      = []string{"ferrari", "lamborghini", "maserati", "aston martin", "mclaren", "bugatti", "koenigsegg", "pagani"}
	sportModels      = []string{"corvette", "camaro", "challenger", "mustang", "viper", "gt-r", "supra", "rx-7", "nsx", "911", "boxster", "cayman"}

	sedanClassTokens = []string{"sedan", "saloon", "compact", "midsize", "full-size", "luxury", "executive"}
	sedanModelTokens = []string{"sedan"}
)

// Classify maps free-text make, model and class onto a Category.
// Rules are checked in order SUV, Sport, Sedan and the first match wins.
// Unmatched vehicles are spread over the categories by a hash of make+model,
// so the same vehicle always lands in the same category.
func Classify(carMake, model, class string) Category {
	mk := strings.ToLower(carMake)
	md := strings.ToLower(model)
	cl := strings.ToLower(class)

	switch {
	case containsAny(cl, suvClassTokens), containsAny(md, suvModelTokens), containsAny(mk, suvMakes):
		return CategorySUV
	case containsAny(cl, sportClassTokens), containsAny(md, sportModelTokens),
		containsAny(mk, exoticMakes), containsAny(md, sportModels):
		return CategorySport
	case containsAny(cl, sedanClassTokens), containsAny(md, sedanModelTokens):
		return CategorySedan
	}

	// Plain concatenation with no delimiter, so "ab"+"c" and "a"+"bc" share a
	// category. Cached classifications depend on this.
	return fallbackOrder[HashIndex(mk+md, len(fallbackOrder))]
}

// ClassifyRecord classifies a record from its own fields.
func ClassifyRecord(r Record) Category {
	return Classify(r.Make, r.Model, r.Class)
}

// Reclassify returns a copy of records with Type recomputed by the current rules.
// Every other field, including ID and Price, is left as it was.
func Reclassify(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.Type = ClassifyRecord(r)
		out[i] = r
	}
	return out
}

func containsAny(s string, tokens []string) bool {
	if s == "" {
		return false
	}
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
