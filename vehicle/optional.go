package vehicle

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// OptionalInt is an integer field the car-data API may omit, null out, or replace
// with a placeholder string (premium-only fields). Anything non-numeric is absent.
type OptionalInt struct {
	Value int
	Valid bool
}

// Int returns the value, or 0 when absent.
func (o OptionalInt) Int() int {
	if !o.Valid {
		return 0
	}
	return o.Value
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	*o = OptionalInt{}
	f, ok := parseNumber(data)
	if ok {
		*o = OptionalInt{Value: int(f), Valid: true}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// OptionalFloat is the float counterpart of OptionalInt.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Float returns the value, or 0 when absent.
func (o OptionalFloat) Float() float64 {
	if !o.Valid {
		return 0
	}
	return o.Value
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	*o = OptionalFloat{}
	f, ok := parseNumber(data)
	if ok {
		*o = OptionalFloat{Value: f, Valid: true}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func parseNumber(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, false
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
