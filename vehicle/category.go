// Package vehicle provides the vehicle record model, classification and pricing.
package vehicle

import "strings"

// Category is the fixed classification applied to every vehicle.
type Category string

const (
	CategorySUV   Category = "SUV"
	CategorySport Category = "Sport"
	CategorySedan Category = "Sedan"
)

// fallbackOrder is indexed by the stable hash when no rule matches. Order matters.
var fallbackOrder = [...]Category{CategorySedan, CategorySport, CategorySUV}

// AllCategories returns all valid categories in display order.
func AllCategories() []Category {
	return []Category{
		CategorySUV,
		CategorySedan,
		CategorySport,
	}
}

// IsValid checks if the category is one of the fixed set.
func (c Category) IsValid() bool {
	switch c {
	case CategorySUV, CategorySport, CategorySedan:
		return true
	}
	return false
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategorySUV:
		return "SUV"
	case CategorySport:
		return "Sports Car"
	case CategorySedan:
		return "Sedan"
	default:
		return "Unknown"
	}
}

// ImagePool returns the name of the image pool used for the category.
func (c Category) ImagePool() string {
	if !c.IsValid() {
		return "default"
	}
	return strings.ToLower(string(c))
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories() {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}
