// Package units provides canonical unit types and conversions.
package units

import "math"

// Unit represents a measurable quantity.
type Unit string

const (
	// Load units
	UnitRM  Unit = "RM"
	UnitCPU Unit = "CPU"

	// Memory units
	UnitMB Unit = "MB"
	UnitGB Unit = "GB"
)

// MBPerGB is the binary conversion factor used for memory.
const MBPerGB = 1024.0

// StickSizeGB is the size of one memory stick. Hardware is built from pairs.
const StickSizeGB = 16.0

// MBToGB converts megabytes to gigabytes.
func MBToGB(mb float64) float64 {
	return mb / MBPerGB
}

// GBToMB converts gigabytes to megabytes.
func GBToMB(gb float64) float64 {
	return gb * MBPerGB
}

// RoundUpToSticks rounds gb up to a whole number of sticks and then adds one
// more stick if the count came out odd.
func RoundUpToSticks(gb float64) float64 {
	rounded := math.Ceil(gb/StickSizeGB) * StickSizeGB
	if Sticks(rounded)%2 != 0 {
		rounded += StickSizeGB
	}
	return rounded
}

// Sticks returns how many sticks a stick-aligned size holds.
func Sticks(gb float64) int {
	return int(gb / StickSizeGB)
}
