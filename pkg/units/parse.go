package units

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNumeric    = regexp.MustCompile(`[^\d.-]`)
	leadingNumber = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// ParseMagnitude reads a magnitude such as "16 GB" or "512MB".
//
// Every character other than a digit, dot or minus is dropped and the longest
// leading number is read, so "4-8 GB" yields 4. An empty input is a missing
// value and reads as 0 with ok=true; ok=false means the value was present but
// held no number at all.
func ParseMagnitude(raw string) (value float64, ok bool) {
	if strings.TrimSpace(raw) == "" {
		return 0, true
	}
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	match := leadingNumber.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseCapacity reads a rated capacity stored as a numeric string.
// Unlike ParseMagnitude the whole (trimmed) string must be a number;
// empty strings are reported as not ok.
func ParseCapacity(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
