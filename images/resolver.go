// Package images maps vehicle records to stable display image URLs.
package images

import (
	"strconv"
	"strings"

	"github.com/autorent/autorent-platform/pkg/vehicle"
)

const (
	photoBase   = "https://images.unsplash.com/photo-"
	photoParams = "?w=400&h=300&fit=crop&auto=format"
	defaultPool = "default"
)

func photo(id string) string {
	return photoBase + id + photoParams
}

// brandImages is keyed by lowercased make and wins over the type pools.
var brandImages = map[string]string{
	"toyota":     photo("1621007947382-bb3c3994e3fb"),
	"honda":      photo("1618843479313-40f8afb4b4d8"),
	"ford":       photo("1533473359331-0135ef1b58bf"),
	"chevrolet":  photo("1552519507-da3b142c6e3d"),
	"bmw":        photo("1555215695-3004980ad54e"),
	"mercedes":   photo("1618843479619-f3d0d81e3b84"),
	"audi":       photo("1606664515524-ed2f786a0bd6"),
	"volkswagen": photo("1449824913935-59a10b8d2000"),
	"nissan":     photo("1605559424843-9e4c228bf1c2"),
	"hyundai":    photo("1502877338535-766e1452684a"),
	"kia":        photo("1549399736-4bd34277ce0e"),
	"subaru":     photo("1605559424843-9e4c228bf1c2"),
	"mazda":      photo("1542362567-b07e54358753"),
	"lexus":      photo("1563720360-3c5d50dceaf0"),
	"infiniti":   photo("1568605117036-5fe5e7bab0b7"),
	"acura":      photo("1568605117036-5fe5e7bab0b7"),
	"cadillac":   photo("1571068316344-75bc76f77890"),
	"lincoln":    photo("1571068316344-75bc76f77890"),
	"jeep":       photo("1533473359331-0135ef1b58bf"),
	"ram":        photo("1563720360-3c5d50dceaf0"),
	"gmc":        photo("1563720360-3c5d50dceaf0"),
}

// typePools hold the fallback images per category pool name. Every pool has at
// least three entries so ResolveSet can pick front, side and rear views.
var typePools = map[string][]string{
	"suv": {
		photo("1533473359331-0135ef1b58bf"),
		photo("1602883571715-ad0c2e19c0e0"),
		photo("1544636331-e26879cd4d9b"),
	},
	"sedan": {
		photo("1555215695-3004980ad54e"),
		photo("1552519507-da3b142c6e3d"),
		photo("1621007947382-bb3c3994e3fb"),
	},
	"sport": {
		photo("1568605117036-5fe5e7bab0b7"),
		photo("1544636331-e26879cd4d9b"),
		photo("1606664515524-ed2f786a0bd6"),
	},
	defaultPool: {
		photo("1621007947382-bb3c3994e3fb"),
		photo("1555215695-3004980ad54e"),
		photo("1552519507-da3b142c6e3d"),
		photo("1533473359331-0135ef1b58bf"),
		photo("1618843479313-40f8afb4b4d8"),
	},
}

// Resolve returns the display image URL for a record, or "" for a nil record.
// The result depends only on make, model, year and type.
func Resolve(r *vehicle.Record) string {
	if r == nil {
		return ""
	}
	if url, ok := brandImages[strings.ToLower(r.Make)]; ok {
		return url
	}
	pool := poolFor(r.Type)
	return pool[vehicle.HashIndex(hashKey(r), len(pool))]
}

// ImageSet holds the views shown on the details screen.
type ImageSet struct {
	Front string `json:"front"`
	Side  string `json:"side"`
	Rear  string `json:"rear"`
	Angle string `json:"angle"`
}

// ResolveSet returns front, side and rear views from the record's type pool plus
// the resolved primary image as the angle view.
func ResolveSet(r *vehicle.Record) *ImageSet {
	if r == nil {
		return nil
	}
	pool := poolFor(r.Type)
	return &ImageSet{
		Front: pool[0],
		Side:  pool[1%len(pool)],
		Rear:  pool[2%len(pool)],
		Angle: Resolve(r),
	}
}

func poolFor(c vehicle.Category) []string {
	if pool, ok := typePools[c.ImagePool()]; ok {
		return pool
	}
	return typePools[defaultPool]
}

// hashKey concatenates make, model and year; an unknown year contributes nothing.
func hashKey(r *vehicle.Record) string {
	key := r.Make + r.Model
	if r.Year > 0 {
		key += strconv.Itoa(r.Year)
	}
	return key
}
