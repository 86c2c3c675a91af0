package models

import (
	"math"
	"strconv"
)

// Amount is a monetary or percentage figure that always serializes with
// exactly two decimal digits
type Amount float64

// NewAmount rounds v half away from zero to two decimals
func NewAmount(v float64) Amount {
	return Amount(Round2(v))
}

// Round2 rounds v to two decimal places
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		// avoid "-0.00"
		return 0
	}
	return r
}

// Float64 returns the underlying value
func (a Amount) Float64() float64 {
	return float64(a)
}

// String formats the amount with two decimals
func (a Amount) String() string {
	return strconv.FormatFloat(Round2(float64(a)), 'f', 2, 64)
}

// MarshalJSON writes the amount as a JSON number with two decimals
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts any JSON number
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}
