package compiler

import (
	"math"
	"strconv"
)

// FormatNumber renders v the way both backends print numbers: integral
// values below 1e15 without a fraction, everything else as the shortest
// %g form that reads back as the same float64. The C runtime implements the
// same rule with snprintf and strtod.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	var s string
	for p := 1; p <= 17; p++ {
		s = strconv.FormatFloat(v, 'g', p, 64)
		if back, err := strconv.ParseFloat(s, 64); err == nil && back == v {
			return s
		}
	}
	return s
}
