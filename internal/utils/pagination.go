// Package utils holds small helpers shared across layers. Nothing in here
// knows about workouts, exercises, or HTTP.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// plain integer. The exercise-library pagination params go through this so
// a garbled "page" or "page_size" degrades to the default rather than a 400.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
