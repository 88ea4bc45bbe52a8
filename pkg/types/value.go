// Package types defines the result and error types shared by the calculator
// core and its transports.
package types

import (
	"encoding/json"
	"math"
	"strconv"
)

// Number is the normalized result of an evaluation. Integral values are kept
// as integers and everything else is rounded to two decimal places. Infinity
// and NaN pass through untouched.
type Number struct {
	val float64
}

// NewNumber normalizes v and wraps it.
func NewNumber(v float64) Number {
	return Number{val: normalize(v)}
}

func normalize(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	if v == math.Trunc(v) {
		return v
	}
	r := math.Round(v*100) / 100
	// -0.004 rounds to -0, which should print as 0
	if r == 0 {
		return 0
	}
	return r
}

// Float64 returns the normalized value.
func (n Number) Float64() float64 {
	return n.val
}

// IsInteger reports whether the value is a finite whole number.
func (n Number) IsInteger() bool {
	return !n.IsAnomaly() && n.val == math.Trunc(n.val)
}

// IsAnomaly reports whether the value is an infinity or NaN, typically the
// result of dividing by zero.
func (n Number) IsAnomaly() bool {
	return math.IsInf(n.val, 0) || math.IsNaN(n.val)
}

// maxExactInt is the largest magnitude below which every integer is exactly
// representable as a float64.
const maxExactInt = 1 << 53

// Int64 returns the value truncated to an integer. Only meaningful when
// IsInteger is true and the magnitude is below 2^53; larger values saturate
// at the int64 bounds.
func (n Number) Int64() int64 {
	switch {
	case n.val >= math.MaxInt64:
		return math.MaxInt64
	case n.val <= math.MinInt64:
		return math.MinInt64
	}
	return int64(n.val)
}

// String renders the number for display: integers without a fractional part,
// decimals with at most two fractional digits, and the literals Infinity,
// -Infinity and NaN for floating-point anomalies.
func (n Number) String() string {
	switch {
	case math.IsInf(n.val, 1):
		return "Infinity"
	case math.IsInf(n.val, -1):
		return "-Infinity"
	case math.IsNaN(n.val):
		return "NaN"
	case n.IsInteger() && math.Abs(n.val) < 1e15:
		return strconv.FormatInt(int64(n.val), 10)
	default:
		return strconv.FormatFloat(n.val, 'f', -1, 64)
	}
}

// Equal compares two numbers. NaN equals NaN so results can be compared in
// tests and reports.
func (n Number) Equal(other Number) bool {
	if math.IsNaN(n.val) && math.IsNaN(other.val) {
		return true
	}
	return n.val == other.val
}

// MarshalJSON emits finite values as JSON numbers and anomalies as strings,
// since JSON has no representation for them.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.IsAnomaly() {
		return json.Marshal(n.String())
	}
	return []byte(strconv.FormatFloat(n.val, 'f', -1, 64)), nil
}

// MarshalYAML mirrors MarshalJSON for YAML reports.
func (n Number) MarshalYAML() (interface{}, error) {
	if n.IsAnomaly() {
		return n.String(), nil
	}
	if n.IsInteger() && math.Abs(n.val) < maxExactInt {
		return n.Int64(), nil
	}
	return n.val, nil
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (n *Number) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "Infinity":
			n.val = math.Inf(1)
		case "-Infinity":
			n.val = math.Inf(-1)
		case "NaN":
			n.val = math.NaN()
		default:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			n.val = normalize(f)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	n.val = normalize(f)
	return nil
}
