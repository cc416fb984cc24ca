// Package ident normalizes entity identifiers.
//
// Identifiers reach the client either as JSON numbers or as strings, and the
// rendered document stores them in attributes. Both sides are compared
// numerically after normalization, following parseInt semantics: leading
// whitespace and an optional sign are accepted, digits are read until the
// first non-digit, and a value with no leading digits is not an id.
package ident

import (
	"math"
	"strings"
)

// Parse converts s to an id. The second result is false when s carries no
// leading digits or its digits overflow an int64.
func Parse(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	if s == "" {
		return 0, false
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	var n int64
	digits := 0
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			break
		}
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			return 0, false
		}
		n = n*10 + d
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// Equal reports whether two raw identifiers normalize to the same id.
// Unparseable values are never equal, not even to each other.
func Equal(a, b string) bool {
	x, ok := Parse(a)
	if !ok {
		return false
	}
	y, ok := Parse(b)
	return ok && x == y
}
