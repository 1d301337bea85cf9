package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a float64 that never fails to decode. The backend contract says
// weight and reps are JSON numbers, but older rows have leaked through as
// strings or nulls. Numeric strings are parsed; anything else becomes 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*n = 0
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		*n = parseLenient(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*n = parseLenient(string(data))
	default:
		// null, true/false, objects, arrays
		*n = 0
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Float())
}

// Float returns the value as a float64. NaN and infinities collapse to 0.
func (n Number) Float() float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int truncates toward zero, clamped to the int32 range so that any
// decoded value fits an INTEGER column.
func (n Number) Int() int {
	f := math.Trunc(n.Float())
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

func parseLenient(s string) Number {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Number(f)
}
