package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number decodes leniently from JSON. Numbers, numeric strings, null and
// garbage are all accepted; anything that is not a finite number becomes 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	v, _ := parseLenient(data)
	*n = Number(v)
	return nil
}

// OptionalNumber is a Number that remembers whether a usable value was present.
type OptionalNumber struct {
	Value float64
	Valid bool
}

func (o *OptionalNumber) UnmarshalJSON(data []byte) error {
	o.Value, o.Valid = parseLenient(data)
	return nil
}

func (o OptionalNumber) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func parseLenient(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false
	}
	s := string(data)
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return Finite(v), !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite maps NaN and ±Inf to 0.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ToFloat coerces a loosely typed value (as returned by database drivers)
// into a float64. Unknown types and unparsable strings yield 0, false.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return Finite(t), !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return ToFloat(float64(t))
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return ToFloat(f)
	default:
		return 0, false
	}
}
