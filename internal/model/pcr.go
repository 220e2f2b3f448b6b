package model

import "math"

// DefaultPCR is the fallback ratio used when call open interest is zero.
// A ratio of 1.0 reads as "balanced" rather than NaN or infinity.
const DefaultPCR = 1.0

// ComputePCR returns putOI/callOI rounded to two decimals, or DefaultPCR
// when callOI is not positive.
func ComputePCR(putOI, callOI int64) float64 {
	if callOI <= 0 {
		return DefaultPCR
	}
	return math.Round(float64(putOI)/float64(callOI)*100) / 100
}
