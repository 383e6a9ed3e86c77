package vehicle

import "unicode/utf16"

// StableHash is a 32-bit rolling hash (h*31 + c) over the UTF-16 code units of s.
// Values must not change between releases: cached classifications and image
// choices depend on them.
func StableHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}

// HashIndex maps s onto [0, n) using the absolute value of StableHash.
func HashIndex(s string, n int) int {
	if n <= 0 {
		return 0
	}
	h := int64(StableHash(s))
	if h < 0 {
		h = -h
	}
	return int(h % int64(n))
}
